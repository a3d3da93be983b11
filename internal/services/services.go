package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ubi-economy/staking-tasks-service/internal/chain"
	"github.com/ubi-economy/staking-tasks-service/internal/config"
	"github.com/ubi-economy/staking-tasks-service/internal/db"
	"github.com/ubi-economy/staking-tasks-service/internal/types"
	"github.com/ubi-economy/staking-tasks-service/internal/utils"
)

// Task names, shared by the scheduler, the run store and the ops API.
const (
	CollectionTaskName = "StakingModel"
	FishingTaskName    = "FishInactiveUsers"
)

// Gateways groups the two chains the engines work on.
type Gateways struct {
	Main chain.Gateway
	Side chain.Gateway
}

// OutcomePublisher forwards finished runs to downstream consumers.
type OutcomePublisher interface {
	PublishTaskRun(ctx context.Context, run *types.TaskRun) error
	IsConnectionHealthy() error
}

// Service layer contains the task engines and the sinks they report to.
type Services struct {
	DbClient   db.DBClient
	Publisher  OutcomePublisher
	Collection *CollectionEngine
	Fishing    *FishingEngine
	gateways   Gateways
	cfg        *config.Config
}

func New(
	ctx context.Context, cfg *config.Config, addresses *types.ContractAddressSet,
	gateways Gateways, dbClient db.DBClient, publisher OutcomePublisher,
) (*Services, error) {
	collection := NewCollectionEngine(gateways, addresses, cfg, utils.SystemClock)
	fishing := NewFishingEngine(gateways.Side, addresses, cfg, utils.SystemClock)

	return &Services{
		DbClient:   dbClient,
		Publisher:  publisher,
		Collection: collection,
		Fishing:    fishing,
		gateways:   gateways,
		cfg:        cfg,
	}, nil
}

// DoHealthCheck pings the database and the outcome queue, then reads the
// head of both chains.
func (s *Services) DoHealthCheck(ctx context.Context) error {
	if err := s.DbClient.Ping(ctx); err != nil {
		return err
	}
	if err := s.Publisher.IsConnectionHealthy(); err != nil {
		return err
	}
	if _, err := s.gateways.Main.GetBlockNumber(ctx); err != nil {
		return fmt.Errorf("main chain unreachable: %w", err)
	}
	if _, err := s.gateways.Side.GetBlockNumber(ctx); err != nil {
		return fmt.Errorf("side chain unreachable: %w", err)
	}
	return nil
}

// SaveTaskRun stores a finished run. It is used as an outcome recorder, so a
// failure is returned to the caller to log and never alters the run.
func (s *Services) SaveTaskRun(ctx context.Context, run *types.TaskRun) error {
	if err := s.DbClient.SaveTaskRun(ctx, run); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("runId", run.RunID).Msg("error while saving task run")
		return types.NewInternalError(err)
	}
	return nil
}

// PublishTaskRun forwards a finished run to the outcome queue.
func (s *Services) PublishTaskRun(ctx context.Context, run *types.TaskRun) error {
	return s.Publisher.PublishTaskRun(ctx, run)
}

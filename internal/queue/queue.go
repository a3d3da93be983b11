package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ubi-economy/staking-tasks-service/internal/config"
	"github.com/ubi-economy/staking-tasks-service/internal/queue/client"
	"github.com/ubi-economy/staking-tasks-service/internal/types"
)

type Queues struct {
	OutcomeQueueClient client.QueueClient
}

func New(cfg config.QueueConfig) (*Queues, error) {
	outcomeQueueClient, err := client.NewQueueClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error while creating OutcomeQueueClient: %w", err)
	}
	return &Queues{OutcomeQueueClient: outcomeQueueClient}, nil
}

// PublishTaskRun sends a finished run to the outcome queue.
func (q *Queues) PublishTaskRun(ctx context.Context, run *types.TaskRun) error {
	event := client.TaskOutcomeEvent{
		EventType:          client.TaskOutcomeEventType,
		RunID:              run.RunID,
		Task:               run.Task,
		Result:             run.Result.String(),
		StartedAt:          run.StartedAt,
		FinishedAt:         run.FinishedAt,
		ErrorCode:          run.ErrorCode.String(),
		Error:              run.Error,
		UnresolvedAccounts: run.Unresolved,
	}
	if !run.NextRunTime.IsZero() {
		next := run.NextRunTime
		event.NextRunTime = &next
	}
	if len(run.Details) > 0 {
		event.Details = make(map[string]interface{}, len(run.Details))
		for k, v := range run.Details {
			if k != types.UnresolvedAccountsKey {
				event.Details[k] = v
			}
		}
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal task outcome event: %w", err)
	}
	if err := q.OutcomeQueueClient.SendMessage(ctx, string(body)); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("queueName", q.OutcomeQueueClient.GetQueueName()).
			Msg("error while publishing task outcome")
		return err
	}
	return nil
}

// IsConnectionHealthy satisfies healthcheck.ConnectionChecker.
func (q *Queues) IsConnectionHealthy() error {
	if err := q.OutcomeQueueClient.Ping(); err != nil {
		return fmt.Errorf("queue %s is unhealthy: %w", q.OutcomeQueueClient.GetQueueName(), err)
	}
	return nil
}

func (q *Queues) Close() error {
	return q.OutcomeQueueClient.Close()
}

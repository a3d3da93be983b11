package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ubi-economy/staking-tasks-service/internal/chain"
	"github.com/ubi-economy/staking-tasks-service/internal/config"
	"github.com/ubi-economy/staking-tasks-service/internal/observability/metrics"
	"github.com/ubi-economy/staking-tasks-service/internal/observability/tracing"
	"github.com/ubi-economy/staking-tasks-service/internal/types"
	"github.com/ubi-economy/staking-tasks-service/internal/utils"
)

const ubiDay = 24 * time.Hour

// FishingEngine reclaims the UBI of accounts that stopped claiming.
type FishingEngine struct {
	side            chain.Gateway
	ubiScheme       chain.Contract
	cfg             config.FishingConfig
	sideBlockPeriod time.Duration
	failureFloor    time.Duration
	clock           utils.Clock
}

func NewFishingEngine(
	side chain.Gateway, addresses *types.ContractAddressSet, cfg *config.Config, clock utils.Clock,
) *FishingEngine {
	return &FishingEngine{
		side:            side,
		ubiScheme:       chain.NewUBIScheme(addresses.UBIScheme),
		cfg:             cfg.Fishing,
		sideBlockPeriod: cfg.SideChain.BlockPeriod,
		failureFloor:    cfg.Service.FailureFloor,
		clock:           clock,
	}
}

// NextDay returns the first UBI day boundary strictly after now.
func (e *FishingEngine) NextDay(ctx context.Context) (time.Time, error) {
	periodStart, err := chain.CallUint64(ctx, e.side, e.ubiScheme, chain.MethodPeriodStart)
	if err != nil {
		return time.Time{}, err
	}
	start := time.Unix(int64(periodStart), 0).UTC()
	now := e.clock.Now()
	if now.Before(start) {
		return start, nil
	}
	days := now.Sub(start)/ubiDay + 1
	return start.Add(days * ubiDay), nil
}

// DeriveEpochWindow locates the blocks at which the candidate day and the
// day after it were calculated. The returned window is not Defined when
// either boundary event is missing.
func (e *FishingEngine) DeriveEpochWindow(ctx context.Context) (*types.EpochWindow, error) {
	maxInactiveDays, err := chain.CallUint64(ctx, e.side, e.ubiScheme, chain.MethodMaxInactiveDays)
	if err != nil {
		return nil, err
	}
	head, err := e.side.GetBlockNumber(ctx)
	if err != nil {
		return nil, err
	}
	blocksPerDay := uint64(ubiDay / e.sideBlockPeriod)
	lookback := blocksPerDay * (maxInactiveDays + 1)
	var fromBlock uint64
	if head > lookback {
		fromBlock = head - lookback
	}

	// Advancing the day is best effort, the window is read from whatever day is current.
	if _, err := e.side.Send(ctx, e.ubiScheme, chain.MethodSetDay, chain.SendOptions{}); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("fishing manager set day failed")
	}

	currentDay, err := chain.CallUint64(ctx, e.side, e.ubiScheme, chain.MethodCurrentDay)
	if err != nil {
		return nil, err
	}
	window := &types.EpochWindow{CurrentDay: currentDay, MaxInactiveDays: maxInactiveDays}
	log.Ctx(ctx).Info().
		Uint64("lookbackBlocks", lookback).
		Uint64("fromBlock", fromBlock).
		Uint64("currentDay", currentDay).
		Uint64("maxInactiveDays", maxInactiveDays).
		Msg("deriving epoch window")

	startDay, ok := window.StartDay()
	if !ok {
		return window, nil
	}

	events, err := e.side.GetPastEvents(ctx, e.ubiScheme, chain.EventUBICalculated, chain.EventQuery{FromBlock: fromBlock})
	if err != nil {
		return nil, err
	}
	for _, event := range events {
		day, err := event.Uint64("day")
		if err != nil {
			return nil, err
		}
		if day != startDay && day != startDay+1 {
			continue
		}
		block, err := event.Uint64("blockNumber")
		if err != nil {
			return nil, err
		}
		boundary := &types.DayBoundary{Day: day, BlockNumber: block}
		if day == startDay && window.SearchStart == nil {
			window.SearchStart = boundary
		} else if day == startDay+1 && window.SearchEnd == nil {
			window.SearchEnd = boundary
		}
	}
	log.Ctx(ctx).Info().
		Int("foundEvents", len(events)).
		Bool("startFound", window.SearchStart != nil).
		Bool("endFound", window.SearchEnd != nil).
		Msg("got UBICalculated events")
	return window, nil
}

// CollectCandidates returns the claimers of the window's start day that are
// no longer active, in claim order. A claimer is listed once.
func (e *FishingEngine) CollectCandidates(ctx context.Context, window *types.EpochWindow) ([]types.ClaimCandidate, error) {
	if !window.Defined() {
		return nil, nil
	}
	to := window.SearchEnd.BlockNumber
	claims, err := e.side.GetPastEvents(ctx, e.ubiScheme, chain.EventUBIClaimed, chain.EventQuery{
		FromBlock: window.SearchStart.BlockNumber,
		ToBlock:   &to,
	})
	if err != nil {
		return nil, err
	}

	all := make([]types.ClaimCandidate, 0, len(claims))
	for _, claim := range claims {
		claimer, err := claim.Address("claimer")
		if err != nil {
			return nil, err
		}
		all = append(all, types.ClaimCandidate{Address: claimer, ClaimBlock: claim.BlockNumber})
	}
	unique := utils.Dedupe(all, func(c types.ClaimCandidate) common.Address { return c.Address })

	inactive := make([]bool, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.ActivityCheckConcurrency)
	for i, candidate := range unique {
		i, candidate := i, candidate
		g.Go(func() error {
			active, err := chain.CallBool(gctx, e.side, e.ubiScheme, chain.MethodIsActiveUser, candidate.Address)
			if err != nil {
				return err
			}
			inactive[i] = !active
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]types.ClaimCandidate, 0, len(unique))
	for i, c := range unique {
		if inactive[i] {
			candidates = append(candidates, c)
		}
	}
	log.Ctx(ctx).Info().
		Int("totalEvents", len(claims)).
		Int("inactiveFound", len(candidates)).
		Msg("found UBIClaimed events")
	return candidates, nil
}

// fishChunk submits one fishMulti transaction and returns how many leading
// accounts of the chunk were fished.
func (e *FishingEngine) fishChunk(ctx context.Context, accounts []common.Address) (int, common.Address, error) {
	receipt, err := e.side.Send(ctx, e.ubiScheme, chain.MethodFishMulti,
		chain.SendOptions{GasLimit: e.cfg.GasLimit}, accounts)
	if err != nil {
		return 0, common.Address{}, err
	}
	event, ok := receipt.FirstEvent(chain.EventTotalFished)
	if !ok {
		return 0, common.Address{}, types.NewError(types.EventMissing,
			fmt.Errorf("%w: %s in tx %s", types.ErrEventNotFound, chain.EventTotalFished, receipt.TxHash.Hex()))
	}
	total, err := event.Uint64("total")
	if err != nil {
		return 0, common.Address{}, err
	}
	if total > uint64(len(accounts)) {
		total = uint64(len(accounts))
	}
	log.Ctx(ctx).Info().
		Int("chunk", len(accounts)).
		Uint64("totalFished", total).
		Str("fisherAccount", receipt.From.Hex()).
		Msg("fished accounts")
	return int(total), receipt.From, nil
}

// Reclaim fishes accounts in chunks. Accounts a chunk did not fish, including
// every account of a failed chunk, are retried in the next pass. A pass that
// fishes nobody ends the loop, as does the pass limit.
func (e *FishingEngine) Reclaim(ctx context.Context, accounts []common.Address) (*types.ReclamationReport, error) {
	report := &types.ReclamationReport{}
	backlog := accounts
	for len(backlog) > 0 && report.Passes < e.cfg.MaxPasses {
		report.Passes++
		if report.Passes > 1 {
			log.Ctx(ctx).Info().Int("unfished", len(backlog)).Int("pass", report.Passes).Msg("retrying unfished accounts")
		}

		var unfished []common.Address
		fishedInPass := 0
		for _, chunk := range utils.Chunk(backlog, e.cfg.ChunkSize) {
			report.Chunks++
			fished, fisher, err := e.fishChunk(ctx, chunk)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				metrics.RecordChunkSubmission(metrics.Error)
				log.Ctx(ctx).Error().Err(err).Int("chunk", len(chunk)).Msg("failed fishing chunk")
				unfished = append(unfished, chunk...)
				continue
			}
			metrics.RecordChunkSubmission(metrics.Success)
			if !utils.Contains(report.Fishers, fisher) {
				report.Fishers = append(report.Fishers, fisher)
			}
			report.Fished += fished
			fishedInPass += fished
			unfished = append(unfished, chunk[fished:]...)
		}
		backlog = unfished
		if fishedInPass == 0 {
			break
		}
	}
	report.Unresolved = backlog
	return report, nil
}

func (e *FishingEngine) Run(ctx context.Context) types.TaskOutcome {
	outcome, err := e.run(ctx)
	if err != nil {
		return e.failed(ctx, err)
	}
	return outcome
}

func (e *FishingEngine) run(ctx context.Context) (types.TaskOutcome, error) {
	window, err := tracing.WrapWithSpan(ctx, "deriveEpochWindow", func() (*types.EpochWindow, error) {
		return e.DeriveEpochWindow(ctx)
	})
	if err != nil {
		return types.TaskOutcome{}, err
	}
	if !window.Defined() {
		log.Ctx(ctx).Warn().
			Uint64("maxInactiveDays", window.MaxInactiveDays).
			Uint64("currentDay", window.CurrentDay).
			Msg("no UBICalculated event found for inactive interval")
		return e.skipped(ctx, "epoch window undefined")
	}

	candidates, err := tracing.WrapWithSpan(ctx, "collectCandidates", func() ([]types.ClaimCandidate, error) {
		return e.CollectCandidates(ctx, window)
	})
	if err != nil {
		return types.TaskOutcome{}, err
	}
	if len(candidates) == 0 {
		return e.skipped(ctx, "no inactive accounts")
	}

	accounts := make([]common.Address, len(candidates))
	for i, c := range candidates {
		accounts[i] = c.Address
	}
	report, err := tracing.WrapWithSpan(ctx, "reclaim", func() (*types.ReclamationReport, error) {
		return e.Reclaim(ctx, accounts)
	})
	if err != nil {
		return types.TaskOutcome{}, err
	}
	metrics.RecordFishedAccounts(report.Fished)

	next, err := e.NextDay(ctx)
	if err != nil {
		return types.TaskOutcome{}, err
	}
	details := map[string]interface{}{
		types.FishersKey:     hexAddresses(report.Fishers),
		types.FishedCountKey: report.Fished,
	}
	if report.Converged() {
		return types.TaskOutcome{Result: types.Succeeded, NextRunTime: next, Details: details}, nil
	}

	unresolved := hexAddresses(report.Unresolved)
	details[types.UnresolvedAccountsKey] = unresolved
	log.Ctx(ctx).Warn().
		Int("unresolved", len(unresolved)).
		Int("passes", report.Passes).
		Msg("fishing stopped with unfished accounts")
	return types.TaskOutcome{
		Result:      types.Unresolved,
		NextRunTime: utils.NotBefore(next, e.clock.Now().Add(e.failureFloor)),
		Err: types.NewError(types.ChunkFailure,
			fmt.Errorf("%d accounts left unfished after %d passes", len(unresolved), report.Passes)),
		Details: details,
	}, nil
}

func (e *FishingEngine) skipped(ctx context.Context, reason string) (types.TaskOutcome, error) {
	next, err := e.NextDay(ctx)
	if err != nil {
		return types.TaskOutcome{}, err
	}
	return types.TaskOutcome{
		Result:      types.NoOp,
		NextRunTime: next,
		Details:     map[string]interface{}{types.SkipReasonKey: reason},
	}, nil
}

func (e *FishingEngine) failed(ctx context.Context, err error) types.TaskOutcome {
	log.Ctx(ctx).Error().Err(err).Str("errorCode", types.CodeOf(err).String()).Msg("fishing task failed")

	floor := e.clock.Now().Add(e.failureFloor)
	next, rerr := e.NextDay(ctx)
	if rerr != nil {
		log.Ctx(ctx).Warn().Err(rerr).Msg("failed to compute next UBI day")
		next = floor
	}
	return types.TaskOutcome{
		Result:      types.Failed,
		NextRunTime: utils.NotBefore(next, floor),
		Err:         err,
	}
}

func hexAddresses(addresses []common.Address) []string {
	out := make([]string, len(addresses))
	for i, a := range addresses {
		out[i] = a.Hex()
	}
	return out
}

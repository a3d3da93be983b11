package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ubi-economy/staking-tasks-service/internal/chain"
	"github.com/ubi-economy/staking-tasks-service/internal/config"
	"github.com/ubi-economy/staking-tasks-service/internal/observability/metrics"
	"github.com/ubi-economy/staking-tasks-service/internal/observability/tracing"
	"github.com/ubi-economy/staking-tasks-service/internal/types"
	"github.com/ubi-economy/staking-tasks-service/internal/utils"
)

// InterestGains is the interest the staking contract has accrued so far.
type InterestGains struct {
	CDai             *big.Int
	Dai              *big.Int
	PrecisionLossDai *big.Int
}

// CollectionEngine moves accrued interest from the staking contract to the
// UBI pool on the side chain and waits for the bridge to deliver it.
type CollectionEngine struct {
	main            chain.Gateway
	side            chain.Gateway
	fundManager     chain.Contract
	staking         chain.Contract
	destToken       chain.Contract
	addresses       *types.ContractAddressSet
	cfg             config.CollectionConfig
	mainBlockPeriod time.Duration
	failureFloor    time.Duration
	clock           utils.Clock
	mocker          *InterestMocker
}

// NewCollectionEngine binds the engine to the deployment's fund manager,
// staking contract and destination token.
func NewCollectionEngine(
	gateways Gateways, addresses *types.ContractAddressSet, cfg *config.Config, clock utils.Clock,
) *CollectionEngine {
	return &CollectionEngine{
		main:            gateways.Main,
		side:            gateways.Side,
		fundManager:     chain.NewFundManager(addresses.FundManager),
		staking:         chain.NewStaking(addresses.Staking),
		destToken:       chain.NewERC20("GoodDollar", addresses.DestToken),
		addresses:       addresses,
		cfg:             cfg.Collection,
		mainBlockPeriod: cfg.MainChain.BlockPeriod,
		failureFloor:    cfg.Service.FailureFloor,
		clock:           clock,
	}
}

// SetInterestMocker makes every run generate interest before collecting.
func (e *CollectionEngine) SetInterestMocker(m *InterestMocker) {
	e.mocker = m
}

// CanCollect reads the fund manager's readiness flag.
func (e *CollectionEngine) CanCollect(ctx context.Context) (bool, error) {
	return chain.CallBool(ctx, e.main, e.fundManager, chain.MethodCanRun)
}

// CollectionWindow reads the fund manager interval state and the main chain head.
func (e *CollectionEngine) CollectionWindow(ctx context.Context) (*types.CollectionWindow, error) {
	interval, err := chain.CallUint64(ctx, e.main, e.fundManager, chain.MethodBlockInterval)
	if err != nil {
		return nil, err
	}
	lastTransferred, err := chain.CallUint64(ctx, e.main, e.fundManager, chain.MethodLastTransferred)
	if err != nil {
		return nil, err
	}
	current, err := e.main.GetBlockNumber(ctx)
	if err != nil {
		return nil, err
	}
	return &types.CollectionWindow{
		BlockInterval:        interval,
		LastTransferredBlock: lastTransferred,
		CurrentBlock:         current,
	}, nil
}

// TimeUntilNextCollection returns the wall time at which the fund manager
// accepts the next transfer and whether it accepts one already. When ready
// the time is now. When not ready the time is always in the future; without
// a configured interval it falls back to now + failure floor.
func (e *CollectionEngine) TimeUntilNextCollection(ctx context.Context) (time.Time, bool, error) {
	canCollect, err := e.CanCollect(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	now := e.clock.Now()
	if canCollect {
		return now, true, nil
	}

	window, err := e.CollectionWindow(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	blocks := window.BlocksUntilNext()
	log.Ctx(ctx).Info().
		Bool("canCollect", canCollect).
		Uint64("blocksForNextCollection", blocks).
		Msg("fund manager not ready")
	if blocks == 0 {
		log.Ctx(ctx).Warn().Msg("fund manager block interval not configured, retrying after failure floor")
		return now.Add(e.failureFloor), false, nil
	}
	return now.Add(time.Duration(blocks) * e.mainBlockPeriod), false, nil
}

// AvailableInterest reads the interest the staking contract holds right now.
func (e *CollectionEngine) AvailableInterest(ctx context.Context) (*InterestGains, error) {
	out, err := e.main.Call(ctx, e.staking, chain.MethodCurrentUBIInterest)
	if err != nil {
		return nil, err
	}
	if len(out) != 3 {
		return nil, fmt.Errorf("%s returned %d values, expected 3", chain.MethodCurrentUBIInterest, len(out))
	}
	var gains InterestGains
	for i, dst := range []**big.Int{&gains.CDai, &gains.Dai, &gains.PrecisionLossDai} {
		if *dst, err = chain.BigInt(out[i]); err != nil {
			return nil, err
		}
	}
	return &gains, nil
}

// CollectInterest asks the fund manager to transfer the accrued interest. A
// nil record without error means no FundsTransferred event was emitted.
func (e *CollectionEngine) CollectInterest(ctx context.Context) (*types.BridgeTransferRecord, error) {
	// The bridged transfer can only land after this head.
	searchFrom, err := e.side.GetBlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	receipt, err := e.main.Send(ctx, e.fundManager, chain.MethodTransferInterest, chain.SendOptions{}, e.addresses.Staking)
	if err != nil {
		return nil, err
	}

	event, ok := receipt.FirstEvent(chain.EventFundsTransferred)
	if !ok {
		log.Ctx(ctx).Warn().Str("tx", receipt.TxHash.Hex()).Msg("no FundsTransferred event in receipt")
		return nil, nil
	}
	gdUBI, err := event.BigInt("gdUBI")
	if err != nil {
		return nil, types.NewError(types.EventMissing, fmt.Errorf("%w: %v", types.ErrEventNotFound, err))
	}
	log.Ctx(ctx).Info().
		Str("tx", receipt.TxHash.Hex()).
		Uint64("block", receipt.BlockNumber).
		Str("gdUBI", gdUBI.String()).
		Msg("transferInterest result event")

	return &types.BridgeTransferRecord{
		SourceBlock:     receipt.BlockNumber,
		SearchFromBlock: searchFrom,
		ExpectedValue:   gdUBI,
		Recipient:       e.addresses.UBIRecipient,
	}, nil
}

// AwaitBridgeSettlement polls the destination token for the transfer to the
// UBI recipient until it appears or the bridge timeout passes.
func (e *CollectionEngine) AwaitBridgeSettlement(ctx context.Context, record *types.BridgeTransferRecord) (*chain.Event, error) {
	start := e.clock.Now()
	record.Deadline = start.Add(e.cfg.BridgeTimeout)

	ctx, cancel := context.WithTimeout(ctx, e.cfg.BridgeTimeout+e.cfg.BridgePollInterval)
	defer cancel()

	query := chain.EventQuery{
		FromBlock: record.SearchFromBlock,
		Filter: map[string]interface{}{
			"to":    record.Recipient,
			"value": record.ExpectedValue,
		},
	}
	event, err := utils.PollUntil(ctx, e.clock, e.cfg.BridgePollInterval, e.cfg.BridgeTimeout,
		func(ctx context.Context) (*chain.Event, bool, error) {
			events, err := e.side.GetPastEvents(ctx, e.destToken, chain.EventTransfer, query)
			if err != nil {
				return nil, false, err
			}
			log.Ctx(ctx).Debug().
				Uint64("fromBlock", query.FromBlock).
				Int("events", len(events)).
				Msg("waiting for bridge transfer")
			if len(events) == 0 {
				return nil, false, nil
			}
			return &events[0], true, nil
		})
	waited := e.clock.Now().Sub(start)
	if err != nil {
		metrics.ObserveBridgeWait(waited, metrics.Error)
		if errors.Is(err, utils.ErrPollTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, types.NewError(types.BridgeTimeout,
				fmt.Errorf("%w after %s", types.ErrBridgeTimeout, waited))
		}
		return nil, err
	}
	metrics.ObserveBridgeWait(waited, metrics.Success)
	return event, nil
}

// Run performs one collection cycle. It never panics on chain errors and
// always returns a next run time.
func (e *CollectionEngine) Run(ctx context.Context) types.TaskOutcome {
	outcome, err := e.run(ctx)
	if err != nil {
		return e.failed(ctx, err)
	}
	return outcome
}

func (e *CollectionEngine) run(ctx context.Context) (types.TaskOutcome, error) {
	details := map[string]interface{}{}

	if e.mocker != nil {
		if _, err := tracing.WrapWithSpan(ctx, "mockInterest", func() (struct{}, error) {
			return struct{}{}, e.mocker.Mock(ctx)
		}); err != nil {
			return types.TaskOutcome{}, err
		}
	}

	gains, err := e.AvailableInterest(ctx)
	if err != nil {
		return types.TaskOutcome{}, err
	}
	details[types.AvailableInterestKey] = gains.CDai.String()

	next, ready, err := e.TimeUntilNextCollection(ctx)
	if err != nil {
		return types.TaskOutcome{}, err
	}
	log.Ctx(ctx).Info().
		Str("availableInterest", gains.CDai.String()).
		Bool("canCollect", ready).
		Time("nextCollectionTime", next).
		Msg("starting collect interest")
	if !ready {
		return types.TaskOutcome{Result: types.Waiting, NextRunTime: next, Details: details}, nil
	}

	record, err := tracing.WrapWithSpan(ctx, "collectInterest", func() (*types.BridgeTransferRecord, error) {
		return e.CollectInterest(ctx)
	})
	if err != nil {
		return types.TaskOutcome{}, err
	}
	if record == nil || record.ExpectedValue.Sign() == 0 {
		if record == nil {
			log.Ctx(ctx).Warn().Msg("no transferred funds event found, interest was 0")
		} else {
			log.Ctx(ctx).Warn().Msg("no UBI was transferred to bridge")
			details[types.TransferredUBIKey] = "0"
		}
		return e.completed(ctx, types.NoOp, details)
	}

	details[types.TransferredUBIKey] = record.ExpectedValue.String()
	log.Ctx(ctx).Info().Str("gdUBI", record.ExpectedValue.String()).Msg("ubi interest collected, waiting for bridge")
	settled, err := tracing.WrapWithSpan(ctx, "awaitBridge", func() (*chain.Event, error) {
		return e.AwaitBridgeSettlement(ctx, record)
	})
	if err != nil {
		return types.TaskOutcome{}, err
	}
	log.Ctx(ctx).Info().
		Str("tx", settled.TxHash.Hex()).
		Uint64("block", settled.BlockNumber).
		Msg("ubi success: bridge transfer event found")

	return e.completed(ctx, types.Succeeded, details)
}

func (e *CollectionEngine) completed(
	ctx context.Context, result types.TaskResult, details map[string]interface{},
) (types.TaskOutcome, error) {
	next, _, err := e.TimeUntilNextCollection(ctx)
	if err != nil {
		return types.TaskOutcome{}, err
	}
	return types.TaskOutcome{Result: result, NextRunTime: next, Details: details}, nil
}

// failed schedules the next attempt no sooner than the failure floor.
func (e *CollectionEngine) failed(ctx context.Context, err error) types.TaskOutcome {
	log.Ctx(ctx).Error().Err(err).Str("errorCode", types.CodeOf(err).String()).Msg("collecting interest failed")

	floor := e.clock.Now().Add(e.failureFloor)
	next, _, rerr := e.TimeUntilNextCollection(ctx)
	if rerr != nil {
		log.Ctx(ctx).Warn().Err(rerr).Msg("failed to recompute next collection time")
		next = floor
	}
	return types.TaskOutcome{
		Result:      types.Failed,
		NextRunTime: utils.NotBefore(next, floor),
		Err:         err,
	}
}

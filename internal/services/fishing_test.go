package services

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubi-economy/staking-tasks-service/internal/chain"
	"github.com/ubi-economy/staking-tasks-service/internal/chain/chaintest"
	"github.com/ubi-economy/staking-tasks-service/internal/types"
)

func TestDeriveEpochWindow(t *testing.T) {
	f := newFishingFixture(t)
	f.epoch(2, 5, 100000, 0, 1, 2, 3, 4, 5)

	window, err := f.engine.DeriveEpochWindow(context.Background())
	require.NoError(t, err)
	require.True(t, window.Defined())
	assert.Equal(t, uint64(3), window.SearchStart.Day)
	assert.Equal(t, dayBlock(3), window.SearchStart.BlockNumber)
	assert.Equal(t, uint64(4), window.SearchEnd.Day)
	assert.Equal(t, dayBlock(4), window.SearchEnd.BlockNumber)

	queries := f.side.Invocations(chaintest.Key(ubiScheme, chain.EventUBICalculated))
	require.Len(t, queries, 1)
	// 17280 blocks per day for three days.
	assert.Equal(t, uint64(100000-3*17280), queries[0].Query.FromBlock)
	assert.Equal(t, 1, f.side.CallCount(chaintest.Key(ubiScheme, chain.MethodSetDay)))
}

func TestDeriveEpochWindowMissingBoundary(t *testing.T) {
	t.Run("start day missing", func(t *testing.T) {
		f := newFishingFixture(t)
		f.epoch(2, 5, 100000, 0, 1, 2, 4, 5)

		window, err := f.engine.DeriveEpochWindow(context.Background())
		require.NoError(t, err)
		assert.False(t, window.Defined())
		assert.Nil(t, window.SearchStart)
	})

	t.Run("end day missing", func(t *testing.T) {
		f := newFishingFixture(t)
		f.epoch(2, 5, 100000, 0, 1, 2, 3)

		window, err := f.engine.DeriveEpochWindow(context.Background())
		require.NoError(t, err)
		assert.False(t, window.Defined())
		assert.NotNil(t, window.SearchStart)
	})

	t.Run("fewer days than the inactivity period", func(t *testing.T) {
		f := newFishingFixture(t)
		f.epoch(14, 3, 100000, 0, 1, 2, 3)

		window, err := f.engine.DeriveEpochWindow(context.Background())
		require.NoError(t, err)
		assert.False(t, window.Defined())
		assert.Zero(t, f.side.CallCount(chaintest.Key(ubiScheme, chain.EventUBICalculated)))
	})
}

func TestDeriveEpochWindowClampsLookbackAtGenesis(t *testing.T) {
	f := newFishingFixture(t)
	f.epoch(2, 5, 1000, 0, 1, 2, 3, 4, 5)

	_, err := f.engine.DeriveEpochWindow(context.Background())
	require.NoError(t, err)
	queries := f.side.Invocations(chaintest.Key(ubiScheme, chain.EventUBICalculated))
	require.Len(t, queries, 1)
	assert.Zero(t, queries[0].Query.FromBlock)
}

func TestDeriveEpochWindowToleratesSetDayFailure(t *testing.T) {
	f := newFishingFixture(t)
	f.epoch(2, 5, 100000, 0, 1, 2, 3, 4, 5)
	f.side.HandleSend(ubiScheme, chain.MethodSetDay, func(chain.SendOptions, ...interface{}) (*chain.Receipt, error) {
		return nil, chain.ErrTransactionFailed
	})

	window, err := f.engine.DeriveEpochWindow(context.Background())
	require.NoError(t, err)
	assert.True(t, window.Defined())
}

func TestCollectCandidates(t *testing.T) {
	f := newFishingFixture(t)
	accounts := addressList(5)
	f.side.HandleEvents(ubiScheme, chain.EventUBIClaimed, chaintest.Events(
		claimed(dayBlock(3)-1, accounts[4]),
		claimed(dayBlock(3), accounts[0]),
		claimed(dayBlock(3)+1, accounts[1]),
		claimed(dayBlock(3)+2, accounts[2]),
		claimed(dayBlock(3)+3, accounts[0]),
		claimed(dayBlock(3)+4, accounts[3]),
		claimed(dayBlock(4)+1, accounts[4]),
	))
	active := map[common.Address]bool{accounts[1]: true}
	f.side.HandleCall(ubiScheme, chain.MethodIsActiveUser, func(args ...interface{}) ([]interface{}, error) {
		return []interface{}{active[args[0].(common.Address)]}, nil
	})
	window := &types.EpochWindow{
		CurrentDay:      5,
		MaxInactiveDays: 2,
		SearchStart:     &types.DayBoundary{Day: 3, BlockNumber: dayBlock(3)},
		SearchEnd:       &types.DayBoundary{Day: 4, BlockNumber: dayBlock(4)},
	}

	candidates, err := f.engine.CollectCandidates(context.Background(), window)
	require.NoError(t, err)

	var got []common.Address
	for _, c := range candidates {
		got = append(got, c.Address)
	}
	assert.Equal(t, []common.Address{accounts[0], accounts[2], accounts[3]}, got)
	assert.Equal(t, dayBlock(3), candidates[0].ClaimBlock)
	// Duplicate claimers are checked once.
	assert.Equal(t, 4, f.side.CallCount(chaintest.Key(ubiScheme, chain.MethodIsActiveUser)))

	queries := f.side.Invocations(chaintest.Key(ubiScheme, chain.EventUBIClaimed))
	require.Len(t, queries, 1)
	require.NotNil(t, queries[0].Query.ToBlock)
	assert.Equal(t, dayBlock(4), *queries[0].Query.ToBlock)
}

func TestCollectCandidatesFailsOnActivityCheckError(t *testing.T) {
	f := newFishingFixture(t)
	accounts := addressList(3)
	f.side.HandleEvents(ubiScheme, chain.EventUBIClaimed, chaintest.Events(
		claimed(dayBlock(3), accounts[0]),
		claimed(dayBlock(3), accounts[1]),
		claimed(dayBlock(3), accounts[2]),
	))
	f.side.HandleCall(ubiScheme, chain.MethodIsActiveUser, chaintest.Fails(errors.New("timeout")))
	window := &types.EpochWindow{
		SearchStart: &types.DayBoundary{Day: 3, BlockNumber: dayBlock(3)},
		SearchEnd:   &types.DayBoundary{Day: 4, BlockNumber: dayBlock(4)},
	}

	_, err := f.engine.CollectCandidates(context.Background(), window)
	assert.Error(t, err)
}

func TestReclaimBatchesInChunks(t *testing.T) {
	f := newFishingFixture(t)
	accounts := addressList(120)
	f.side.HandleSend(ubiScheme, chain.MethodFishMulti, fishAll())

	report, err := f.engine.Reclaim(context.Background(), accounts)
	require.NoError(t, err)

	sends := f.side.Invocations(chaintest.Key(ubiScheme, chain.MethodFishMulti))
	require.Len(t, sends, 3)
	assert.Equal(t, accounts[0:50], sentChunk(sends[0]))
	assert.Equal(t, accounts[50:100], sentChunk(sends[1]))
	assert.Equal(t, accounts[100:120], sentChunk(sends[2]))
	for _, s := range sends {
		assert.Equal(t, uint64(6000000), s.Opts.GasLimit)
	}
	assert.True(t, report.Converged())
	assert.Equal(t, 120, report.Fished)
	assert.Equal(t, 1, report.Passes)
	assert.Equal(t, []common.Address{fisher}, report.Fishers)
}

func TestReclaimReportsEachSignerOnce(t *testing.T) {
	f := newFishingFixture(t)
	accounts := addressList(150)
	other := common.HexToAddress("0x00000000000000000000000000000000000000f2")
	signers := []common.Address{fisher, other, fisher}
	calls := 0
	f.side.HandleSend(ubiScheme, chain.MethodFishMulti, func(_ chain.SendOptions, args ...interface{}) (*chain.Receipt, error) {
		r := fishedReceipt(len(args[0].([]common.Address)))
		r.From = signers[calls]
		calls++
		return r, nil
	})

	report, err := f.engine.Reclaim(context.Background(), accounts)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Chunks)
	assert.Equal(t, []common.Address{fisher, other}, report.Fishers)
}

func TestReclaimRetriesOnlyFailedChunk(t *testing.T) {
	f := newFishingFixture(t)
	accounts := addressList(120)
	f.side.HandleSend(ubiScheme, chain.MethodFishMulti, fishAll(2))

	report, err := f.engine.Reclaim(context.Background(), accounts)
	require.NoError(t, err)

	sends := f.side.Invocations(chaintest.Key(ubiScheme, chain.MethodFishMulti))
	require.Len(t, sends, 4)
	assert.Equal(t, accounts[50:100], sentChunk(sends[3]))
	assert.True(t, report.Converged())
	assert.Equal(t, 120, report.Fished)
	assert.Equal(t, 2, report.Passes)
	assert.Equal(t, []common.Address{fisher}, report.Fishers)
}

func TestReclaimRetriesUnfishedSuffix(t *testing.T) {
	f := newFishingFixture(t)
	accounts := addressList(50)
	calls := 0
	f.side.HandleSend(ubiScheme, chain.MethodFishMulti, func(opts chain.SendOptions, args ...interface{}) (*chain.Receipt, error) {
		calls++
		if calls == 1 {
			return fishedReceipt(30), nil
		}
		// Contracts may report more than they were given.
		return fishedReceipt(1000), nil
	})

	report, err := f.engine.Reclaim(context.Background(), accounts)
	require.NoError(t, err)

	sends := f.side.Invocations(chaintest.Key(ubiScheme, chain.MethodFishMulti))
	require.Len(t, sends, 2)
	assert.Equal(t, accounts[30:], sentChunk(sends[1]))
	assert.Equal(t, 50, report.Fished)
	assert.True(t, report.Converged())
}

func TestReclaimStopsWithoutProgress(t *testing.T) {
	f := newFishingFixture(t)
	accounts := addressList(70)
	f.side.HandleSend(ubiScheme, chain.MethodFishMulti, func(chain.SendOptions, ...interface{}) (*chain.Receipt, error) {
		return fishedReceipt(0), nil
	})

	report, err := f.engine.Reclaim(context.Background(), accounts)
	require.NoError(t, err)
	assert.False(t, report.Converged())
	assert.Equal(t, 1, report.Passes)
	assert.Equal(t, accounts, report.Unresolved)
	assert.Equal(t, 2, f.side.CallCount(chaintest.Key(ubiScheme, chain.MethodFishMulti)))
}

func TestReclaimStopsAtPassLimit(t *testing.T) {
	f := newFishingFixture(t)
	f.engine.cfg.MaxPasses = 3
	accounts := addressList(10)
	f.side.HandleSend(ubiScheme, chain.MethodFishMulti, func(chain.SendOptions, ...interface{}) (*chain.Receipt, error) {
		return fishedReceipt(1), nil
	})

	report, err := f.engine.Reclaim(context.Background(), accounts)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Passes)
	assert.Equal(t, 3, report.Fished)
	assert.Equal(t, accounts[3:], report.Unresolved)
}

func TestNextDay(t *testing.T) {
	f := newFishingFixture(t)

	f.periodStart(testStart.Add(-25 * time.Hour))
	next, err := f.engine.NextDay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testStart.Add(23*time.Hour), next)

	f.periodStart(testStart.Add(-48 * time.Hour))
	next, err = f.engine.NextDay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testStart.Add(24*time.Hour), next)

	f.periodStart(testStart.Add(2 * time.Hour))
	next, err = f.engine.NextDay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testStart.Add(2*time.Hour), next)
}

func TestFishingRunSkipsUndefinedWindow(t *testing.T) {
	f := newFishingFixture(t)
	f.epoch(2, 5, 100000, 0, 1, 2, 4, 5)
	f.periodStart(testStart.Add(-30 * time.Hour))

	outcome := f.engine.Run(context.Background())

	assert.Equal(t, types.NoOp, outcome.Result)
	assert.NoError(t, outcome.Err)
	assert.Equal(t, testStart.Add(18*time.Hour), outcome.NextRunTime)
	assert.Equal(t, "epoch window undefined", outcome.Details[types.SkipReasonKey])
	assert.Zero(t, f.side.CallCount(chaintest.Key(ubiScheme, chain.EventUBIClaimed)))
}

func TestFishingRunReclaimsInactiveAccounts(t *testing.T) {
	f := newFishingFixture(t)
	f.epoch(2, 5, 100000, 0, 1, 2, 3, 4, 5)
	f.periodStart(testStart.Add(-30 * time.Hour))
	accounts := addressList(3)
	f.side.HandleEvents(ubiScheme, chain.EventUBIClaimed, chaintest.Events(
		claimed(dayBlock(3)+1, accounts[0]),
		claimed(dayBlock(3)+2, accounts[1]),
		claimed(dayBlock(3)+3, accounts[2]),
	))
	f.side.HandleCall(ubiScheme, chain.MethodIsActiveUser, chaintest.Returns(false))
	f.side.HandleSend(ubiScheme, chain.MethodFishMulti, fishAll())

	outcome := f.engine.Run(context.Background())

	assert.Equal(t, types.Succeeded, outcome.Result)
	assert.Equal(t, testStart.Add(18*time.Hour), outcome.NextRunTime)
	assert.Equal(t, 3, outcome.Details[types.FishedCountKey])
	assert.Equal(t, []string{fisher.Hex()}, outcome.Details[types.FishersKey])
}

func TestFishingRunReportsUnresolvedAccounts(t *testing.T) {
	f := newFishingFixture(t)
	f.epoch(2, 5, 100000, 0, 1, 2, 3, 4, 5)
	f.periodStart(testStart.Add(-23*time.Hour - 30*time.Minute))
	accounts := addressList(2)
	f.side.HandleEvents(ubiScheme, chain.EventUBIClaimed, chaintest.Events(
		claimed(dayBlock(3)+1, accounts[0]),
		claimed(dayBlock(3)+2, accounts[1]),
	))
	f.side.HandleCall(ubiScheme, chain.MethodIsActiveUser, chaintest.Returns(false))
	f.side.HandleSend(ubiScheme, chain.MethodFishMulti, func(chain.SendOptions, ...interface{}) (*chain.Receipt, error) {
		return nil, chain.ErrTransactionFailed
	})

	outcome := f.engine.Run(context.Background())

	assert.Equal(t, types.Unresolved, outcome.Result)
	assert.Equal(t, types.ChunkFailure, types.CodeOf(outcome.Err))
	assert.Equal(t, testStart.Add(time.Hour), outcome.NextRunTime)
	assert.Equal(t, []string{accounts[0].Hex(), accounts[1].Hex()}, outcome.Details[types.UnresolvedAccountsKey])

	run := types.NewTaskRun("run", FishingTaskName, testStart, testStart, outcome)
	assert.Equal(t, []string{accounts[0].Hex(), accounts[1].Hex()}, run.Unresolved)
}

func TestFishingFailureFloor(t *testing.T) {
	f := newFishingFixture(t)
	f.side.HandleCall(ubiScheme, chain.MethodMaxInactiveDays, chaintest.Fails(errors.New("connection reset")))
	// Next UBI day is only ten minutes away.
	f.periodStart(testStart.Add(-23*time.Hour - 50*time.Minute))

	outcome := f.engine.Run(context.Background())

	assert.Equal(t, types.Failed, outcome.Result)
	assert.Error(t, outcome.Err)
	assert.Equal(t, testStart.Add(time.Hour), outcome.NextRunTime)
}

func TestFishingFailureKeepsLaterNextDay(t *testing.T) {
	f := newFishingFixture(t)
	f.side.HandleCall(ubiScheme, chain.MethodMaxInactiveDays, chaintest.Returns(big.NewInt(2)))
	f.side.SetBlockNumberError(errors.New("connection reset"))
	f.periodStart(testStart.Add(-2 * time.Hour))

	outcome := f.engine.Run(context.Background())

	assert.Equal(t, types.Failed, outcome.Result)
	assert.Equal(t, testStart.Add(22*time.Hour), outcome.NextRunTime)
}

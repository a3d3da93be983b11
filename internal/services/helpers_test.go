package services

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ubi-economy/staking-tasks-service/internal/chain"
	"github.com/ubi-economy/staking-tasks-service/internal/chain/chaintest"
	"github.com/ubi-economy/staking-tasks-service/internal/config"
	"github.com/ubi-economy/staking-tasks-service/internal/types"
	"github.com/ubi-economy/staking-tasks-service/internal/utils/utilstest"
)

var (
	testStart = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	testDai   = common.HexToAddress("0x0000000000000000000000000000000000000d01")

	testAddresses = &types.ContractAddressSet{
		Network:      "test",
		FundManager:  common.HexToAddress("0x0000000000000000000000000000000000000f01"),
		Staking:      common.HexToAddress("0x0000000000000000000000000000000000000f02"),
		SourceToken:  common.HexToAddress("0x0000000000000000000000000000000000000f03"),
		DestToken:    common.HexToAddress("0x0000000000000000000000000000000000000f04"),
		UBIScheme:    common.HexToAddress("0x0000000000000000000000000000000000000f05"),
		BridgeSender: common.HexToAddress("0x0000000000000000000000000000000000000f06"),
		UBIRecipient: common.HexToAddress("0x0000000000000000000000000000000000000f07"),
		Dai:          &testDai,
	}

	fundManager = chain.NewFundManager(testAddresses.FundManager)
	staking     = chain.NewStaking(testAddresses.Staking)
	destToken   = chain.NewERC20("GoodDollar", testAddresses.DestToken)
	ubiScheme   = chain.NewUBIScheme(testAddresses.UBIScheme)
	fisher      = common.HexToAddress("0x0000000000000000000000000000000000000a11")
)

func testConfig() *config.Config {
	return &config.Config{
		Service:   config.ServiceConfig{FailureFloor: time.Hour},
		MainChain: config.ChainConfig{BlockPeriod: 15 * time.Second},
		SideChain: config.ChainConfig{BlockPeriod: 5 * time.Second},
		Collection: config.CollectionConfig{
			BridgePollInterval: 5 * time.Second,
			BridgeTimeout:      5 * time.Minute,
		},
		Fishing: config.FishingConfig{
			ChunkSize:                50,
			MaxPasses:                10,
			GasLimit:                 6000000,
			ActivityCheckConcurrency: 4,
		},
	}
}

type collectionFixture struct {
	main   *chaintest.Gateway
	side   *chaintest.Gateway
	clock  *utilstest.FakeClock
	engine *CollectionEngine
}

func newCollectionFixture(t *testing.T) *collectionFixture {
	t.Helper()
	main := chaintest.NewGateway()
	side := chaintest.NewGateway()
	clock := utilstest.NewFakeClock(testStart)
	engine := NewCollectionEngine(Gateways{Main: main, Side: side}, testAddresses, testConfig(), clock)

	main.HandleCall(staking, chain.MethodCurrentUBIInterest,
		chaintest.Returns(big.NewInt(500), big.NewInt(10), big.NewInt(0)))
	return &collectionFixture{main: main, side: side, clock: clock, engine: engine}
}

// readyOnce makes canRun true for the first call only, after which the fund
// manager reports blocks remaining in its interval.
func (f *collectionFixture) readyOnce(interval, lastTransferred, current uint64) {
	calls := 0
	f.main.HandleCall(fundManager, chain.MethodCanRun, func(...interface{}) ([]interface{}, error) {
		calls++
		return []interface{}{calls == 1}, nil
	})
	f.main.HandleCall(fundManager, chain.MethodBlockInterval, chaintest.Returns(new(big.Int).SetUint64(interval)))
	f.main.HandleCall(fundManager, chain.MethodLastTransferred, chaintest.Returns(new(big.Int).SetUint64(lastTransferred)))
	f.main.SetBlockNumber(current)
}

func fundsTransferred(gdUBI int64) chain.Event {
	return chaintest.NewEvent(chain.EventFundsTransferred, 0, map[string]interface{}{
		"caller":             fisher,
		"staking":            testAddresses.Staking,
		"cDAIinterestEarned": big.NewInt(500),
		"gdInterest":         big.NewInt(100),
		"gdUBI":              big.NewInt(gdUBI),
	})
}

func tokenTransfer(block uint64, to common.Address, value int64) chain.Event {
	return chaintest.NewEvent(chain.EventTransfer, block, map[string]interface{}{
		"from":  testAddresses.BridgeSender,
		"to":    to,
		"value": big.NewInt(value),
	})
}

type fishingFixture struct {
	side   *chaintest.Gateway
	clock  *utilstest.FakeClock
	engine *FishingEngine
}

func newFishingFixture(t *testing.T) *fishingFixture {
	t.Helper()
	side := chaintest.NewGateway()
	clock := utilstest.NewFakeClock(testStart)
	engine := NewFishingEngine(side, testAddresses, testConfig(), clock)
	return &fishingFixture{side: side, clock: clock, engine: engine}
}

func (f *fishingFixture) epoch(maxInactiveDays, currentDay, head uint64, days ...uint64) {
	f.side.HandleCall(ubiScheme, chain.MethodMaxInactiveDays, chaintest.Returns(new(big.Int).SetUint64(maxInactiveDays)))
	f.side.HandleCall(ubiScheme, chain.MethodCurrentDay, chaintest.Returns(new(big.Int).SetUint64(currentDay)))
	f.side.HandleSend(ubiScheme, chain.MethodSetDay, chaintest.Mined(head))
	f.side.SetBlockNumber(head)

	events := make([]chain.Event, 0, len(days))
	for _, day := range days {
		events = append(events, dayCalculated(day))
	}
	f.side.HandleEvents(ubiScheme, chain.EventUBICalculated, chaintest.Events(events...))
}

func (f *fishingFixture) periodStart(start time.Time) {
	f.side.HandleCall(ubiScheme, chain.MethodPeriodStart, chaintest.Returns(big.NewInt(start.Unix())))
}

// dayBlock is the block at which a day was calculated in these fixtures.
func dayBlock(day uint64) uint64 {
	return 90000 + day*1000
}

func dayCalculated(day uint64) chain.Event {
	return chaintest.NewEvent(chain.EventUBICalculated, dayBlock(day), map[string]interface{}{
		"day":         new(big.Int).SetUint64(day),
		"dailyUbi":    big.NewInt(1000),
		"blockNumber": new(big.Int).SetUint64(dayBlock(day)),
	})
}

func claimed(block uint64, claimer common.Address) chain.Event {
	return chaintest.NewEvent(chain.EventUBIClaimed, block, map[string]interface{}{
		"claimer": claimer,
		"amount":  big.NewInt(10),
	})
}

func addressList(n int) []common.Address {
	out := make([]common.Address, n)
	for i := range out {
		out[i] = common.BigToAddress(big.NewInt(int64(0x10000 + i)))
	}
	return out
}

// fishAll answers fishMulti by fishing every account of the chunk, except for
// the calls listed in failing (1-based) which revert.
func fishAll(failing ...int) chaintest.SendHandler {
	calls := 0
	return func(opts chain.SendOptions, args ...interface{}) (*chain.Receipt, error) {
		calls++
		for _, f := range failing {
			if f == calls {
				return nil, chain.ErrTransactionFailed
			}
		}
		accounts := args[0].([]common.Address)
		return fishedReceipt(len(accounts)), nil
	}
}

func fishedReceipt(total int) *chain.Receipt {
	r := chaintest.NewReceipt(100, chaintest.NewEvent(chain.EventTotalFished, 100, map[string]interface{}{
		"total": big.NewInt(int64(total)),
	}))
	r.From = fisher
	return r
}

func sentChunk(inv chaintest.Invocation) []common.Address {
	return inv.Args[0].([]common.Address)
}

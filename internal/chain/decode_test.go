package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fundManagerAddr = common.HexToAddress("0x1000000000000000000000000000000000000001")
	stakingAddr     = common.HexToAddress("0x2000000000000000000000000000000000000002")
	callerAddr      = common.HexToAddress("0x3000000000000000000000000000000000000003")
	tokenAddr       = common.HexToAddress("0x4000000000000000000000000000000000000004")
)

func fundsTransferredLog(t *testing.T, address common.Address, gdUBI int64) *types.Log {
	def := FundManagerABI.Events[EventFundsTransferred]
	data, err := def.Inputs.NonIndexed().Pack(big.NewInt(10), big.NewInt(20), big.NewInt(gdUBI))
	require.NoError(t, err)
	topics, err := abi.MakeTopics([]interface{}{callerAddr}, []interface{}{stakingAddr})
	require.NoError(t, err)

	return &types.Log{
		Address:     address,
		Topics:      []common.Hash{def.ID, topics[0][0], topics[1][0]},
		Data:        data,
		BlockNumber: 42,
		Index:       3,
	}
}

func TestDecodeReceiptKeepsContractEvents(t *testing.T) {
	fm := NewFundManager(fundManagerAddr)
	receipt := &types.Receipt{
		TxHash:      common.HexToHash("0xabc"),
		BlockNumber: big.NewInt(42),
		Logs: []*types.Log{
			fundsTransferredLog(t, tokenAddr, 99),
			fundsTransferredLog(t, fundManagerAddr, 30),
		},
	}

	got, err := decodeReceipt(fm, callerAddr, receipt)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.BlockNumber)
	assert.Equal(t, callerAddr, got.From)
	require.Len(t, got.Events[EventFundsTransferred], 1)

	e, ok := got.FirstEvent(EventFundsTransferred)
	require.True(t, ok)
	gdUBI, err := e.BigInt("gdUBI")
	require.NoError(t, err)
	assert.Equal(t, int64(30), gdUBI.Int64())

	caller, err := e.Address("caller")
	require.NoError(t, err)
	assert.Equal(t, callerAddr, caller)

	staking, err := e.Address("staking")
	require.NoError(t, err)
	assert.Equal(t, stakingAddr, staking)
	assert.Equal(t, uint(3), e.LogIndex)
}

func TestDecodeLogIgnoresUnknownTopic(t *testing.T) {
	fm := NewFundManager(fundManagerAddr)
	l := fundsTransferredLog(t, fundManagerAddr, 1)
	l.Topics[0] = common.HexToHash("0xdead")

	_, ok, err := decodeLog(fm, l)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecodeLogRejectsTruncatedData(t *testing.T) {
	fm := NewFundManager(fundManagerAddr)
	l := fundsTransferredLog(t, fundManagerAddr, 1)
	l.Data = l.Data[:40]

	_, _, err := decodeLog(fm, l)
	assert.Error(t, err)
}

func TestEventTopicsPushesIndexedFilters(t *testing.T) {
	token := NewERC20("GoodDollar", tokenAddr)
	recipient := common.HexToAddress("0x5000000000000000000000000000000000000005")

	topics, err := eventTopics(token, EventTransfer, map[string]interface{}{
		"to":    recipient,
		"value": big.NewInt(5),
	})
	require.NoError(t, err)
	require.Len(t, topics, 3)
	assert.Equal(t, []common.Hash{ERC20ABI.Events[EventTransfer].ID}, topics[0])
	assert.Empty(t, topics[1])
	assert.Equal(t, []common.Hash{common.BytesToHash(recipient.Bytes())}, topics[2])
}

func TestEventTopicsRejectsUnknownArgument(t *testing.T) {
	token := NewERC20("GoodDollar", tokenAddr)

	_, err := eventTopics(token, EventTransfer, map[string]interface{}{"recipient": callerAddr})
	assert.Error(t, err)

	_, err = eventTopics(token, "Approval", nil)
	assert.Error(t, err)
}

func TestEmbeddedABIs(t *testing.T) {
	for _, c := range []struct {
		abi     *abi.ABI
		methods []string
		events  []string
	}{
		{FundManagerABI, []string{MethodCanRun, MethodBlockInterval, MethodLastTransferred, MethodBridgeContract, MethodUBIRecipient, MethodTransferInterest}, []string{EventFundsTransferred}},
		{StakingABI, []string{MethodCurrentUBIInterest}, nil},
		{UBISchemeABI, []string{MethodMaxInactiveDays, MethodCurrentDay, MethodPeriodStart, MethodSetDay, MethodIsActiveUser, MethodFishMulti}, []string{EventUBICalculated, EventUBIClaimed, EventTotalFished, EventInactiveUserFished}},
		{ERC20ABI, []string{MethodBalanceOf, MethodTransfer, MethodApprove}, []string{EventTransfer}},
		{DaiMockABI, []string{MethodApprove, MethodAllocateTo}, []string{EventTransfer}},
		{CDaiMockABI, []string{MethodMint, MethodBalanceOf, MethodTransfer}, []string{EventTransfer}},
	} {
		for _, m := range c.methods {
			assert.Contains(t, c.abi.Methods, m)
		}
		for _, e := range c.events {
			assert.Contains(t, c.abi.Events, e)
		}
	}
}

package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Method and event names of the staking model contracts.
const (
	MethodCanRun           = "canRun"
	MethodBlockInterval    = "blockInterval"
	MethodLastTransferred  = "lastTransferred"
	MethodBridgeContract   = "bridgeContract"
	MethodUBIRecipient     = "ubiRecipient"
	MethodTransferInterest = "transferInterest"
	EventFundsTransferred  = "FundsTransferred"

	MethodCurrentUBIInterest = "currentUBIInterest"

	MethodMaxInactiveDays   = "maxInactiveDays"
	MethodCurrentDay        = "currentDay"
	MethodPeriodStart       = "periodStart"
	MethodSetDay            = "setDay"
	MethodIsActiveUser      = "isActiveUser"
	MethodFishMulti         = "fishMulti"
	EventUBICalculated      = "UBICalculated"
	EventUBIClaimed         = "UBIClaimed"
	EventTotalFished        = "TotalFished"
	EventInactiveUserFished = "InactiveUserFished"

	MethodBalanceOf  = "balanceOf"
	MethodTransfer   = "transfer"
	MethodApprove    = "approve"
	MethodAllocateTo = "allocateTo"
	MethodMint       = "mint"
	EventTransfer    = "Transfer"
)

const erc20Entries = `
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}`

const fundManagerJSON = `[
{"type":"function","name":"canRun","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"blockInterval","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"lastTransferred","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"bridgeContract","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"ubiRecipient","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"transferInterest","stateMutability":"nonpayable","inputs":[{"name":"_staking","type":"address"}],"outputs":[]},
{"type":"event","name":"FundsTransferred","anonymous":false,"inputs":[{"name":"caller","type":"address","indexed":true},{"name":"staking","type":"address","indexed":true},{"name":"cDAIinterestEarned","type":"uint256","indexed":false},{"name":"gdInterest","type":"uint256","indexed":false},{"name":"gdUBI","type":"uint256","indexed":false}]}
]`

const stakingJSON = `[
{"type":"function","name":"currentUBIInterest","stateMutability":"view","inputs":[],"outputs":[{"name":"cdaiGains","type":"uint256"},{"name":"daiGains","type":"uint256"},{"name":"precisionLossDai","type":"uint256"}]}
]`

const ubiSchemeJSON = `[
{"type":"function","name":"maxInactiveDays","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"currentDay","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"periodStart","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"setDay","stateMutability":"nonpayable","inputs":[],"outputs":[]},
{"type":"function","name":"isActiveUser","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"fishMulti","stateMutability":"nonpayable","inputs":[{"name":"accounts","type":"address[]"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"event","name":"UBICalculated","anonymous":false,"inputs":[{"name":"day","type":"uint256","indexed":false},{"name":"dailyUbi","type":"uint256","indexed":false},{"name":"blockNumber","type":"uint256","indexed":false}]},
{"type":"event","name":"UBIClaimed","anonymous":false,"inputs":[{"name":"claimer","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
{"type":"event","name":"TotalFished","anonymous":false,"inputs":[{"name":"total","type":"uint256","indexed":false}]},
{"type":"event","name":"InactiveUserFished","anonymous":false,"inputs":[{"name":"caller","type":"address","indexed":true},{"name":"fished_account","type":"address","indexed":true},{"name":"claimAmount","type":"uint256","indexed":false}]}
]`

const erc20JSON = `[` + erc20Entries + `
]`

const daiMockJSON = `[` + erc20Entries + `,
{"type":"function","name":"allocateTo","stateMutability":"nonpayable","inputs":[{"name":"_owner","type":"address"},{"name":"value","type":"uint256"}],"outputs":[]}
]`

const cDaiMockJSON = `[` + erc20Entries + `,
{"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"mintAmount","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var (
	FundManagerABI = mustParseABI(fundManagerJSON)
	StakingABI     = mustParseABI(stakingJSON)
	UBISchemeABI   = mustParseABI(ubiSchemeJSON)
	ERC20ABI       = mustParseABI(erc20JSON)
	DaiMockABI     = mustParseABI(daiMockJSON)
	CDaiMockABI    = mustParseABI(cDaiMockJSON)
)

func mustParseABI(def string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return &parsed
}

func NewFundManager(addr common.Address) Contract {
	return Contract{Name: "FundManager", Address: addr, ABI: FundManagerABI}
}

func NewStaking(addr common.Address) Contract {
	return Contract{Name: "Staking", Address: addr, ABI: StakingABI}
}

func NewUBIScheme(addr common.Address) Contract {
	return Contract{Name: "UBIScheme", Address: addr, ABI: UBISchemeABI}
}

func NewERC20(name string, addr common.Address) Contract {
	return Contract{Name: name, Address: addr, ABI: ERC20ABI}
}

func NewDaiMock(addr common.Address) Contract {
	return Contract{Name: "DAI", Address: addr, ABI: DaiMockABI}
}

func NewCDaiMock(addr common.Address) Contract {
	return Contract{Name: "cDAI", Address: addr, ABI: CDaiMockABI}
}

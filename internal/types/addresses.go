package types

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
)

// Keys used in the deployment file. Sidechain contracts live under the network
// name, main chain contracts under "<network>-mainnet".
const (
	FundManagerKey = "FundManager"
	StakingKey     = "DAIStaking"
	SourceTokenKey = "cDAI"
	DaiKey         = "DAI"
	DestTokenKey   = "GoodDollar"
	UBISchemeKey   = "UBIScheme"

	mainnetSuffix = "-mainnet"
)

// Deployment is the parsed deployment file: network name to contract name to address.
type Deployment map[string]map[string]string

// NetworkDeployment holds the static addresses of a single network.
type NetworkDeployment struct {
	Network string
	Main    map[string]string
	Side    map[string]string
}

func NewDeployment(filePath string) (Deployment, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var deployment Deployment
	if err = json.Unmarshal(data, &deployment); err != nil {
		return nil, err
	}
	return deployment, nil
}

// ForNetwork selects the sidechain and main chain sections of a network. When
// no "-mainnet" section exists the network section serves both chains.
func (d Deployment) ForNetwork(network string) (*NetworkDeployment, error) {
	side, ok := d[network]
	if !ok {
		return nil, NewError(AddressResolution, fmt.Errorf("%w: network %q not in deployment", ErrAddressResolution, network))
	}
	main, ok := d[network+mainnetSuffix]
	if !ok {
		main = side
	}
	return &NetworkDeployment{Network: network, Main: main, Side: side}, nil
}

// lookupAddress returns a non-zero address from the given section.
func lookupAddress(section map[string]string, key string) (common.Address, error) {
	raw, ok := section[key]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s missing", ErrAddressResolution, key)
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%w: %s has invalid address %q", ErrAddressResolution, key, raw)
	}
	addr := common.HexToAddress(raw)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s is the zero address", ErrAddressResolution, key)
	}
	return addr, nil
}

// ContractAddressSet is immutable once built. All fields are guaranteed
// non-zero; the optional Dai address is only set on test networks.
type ContractAddressSet struct {
	Network      string
	FundManager  common.Address
	Staking      common.Address
	SourceToken  common.Address
	DestToken    common.Address
	UBIScheme    common.Address
	BridgeSender common.Address
	UBIRecipient common.Address
	Dai          *common.Address
}

// StaticAddresses is the part of the address set read from the deployment file.
type StaticAddresses struct {
	FundManager common.Address
	Staking     common.Address
	SourceToken common.Address
	DestToken   common.Address
	UBIScheme   common.Address
	Dai         *common.Address
}

func (n *NetworkDeployment) StaticAddresses() (*StaticAddresses, error) {
	var (
		s   StaticAddresses
		err error
	)
	if s.FundManager, err = lookupAddress(n.Main, FundManagerKey); err != nil {
		return nil, NewError(AddressResolution, err)
	}
	if s.Staking, err = lookupAddress(n.Main, StakingKey); err != nil {
		return nil, NewError(AddressResolution, err)
	}
	if s.SourceToken, err = lookupAddress(n.Main, SourceTokenKey); err != nil {
		return nil, NewError(AddressResolution, err)
	}
	if s.DestToken, err = lookupAddress(n.Side, DestTokenKey); err != nil {
		return nil, NewError(AddressResolution, err)
	}
	if s.UBIScheme, err = lookupAddress(n.Side, UBISchemeKey); err != nil {
		return nil, NewError(AddressResolution, err)
	}
	if dai, daiErr := lookupAddress(n.Main, DaiKey); daiErr == nil {
		s.Dai = &dai
	}
	return &s, nil
}

// NewContractAddressSet completes the static addresses with the two addresses
// that are only known on chain.
func NewContractAddressSet(
	network string, static *StaticAddresses, bridgeSender, ubiRecipient common.Address,
) (*ContractAddressSet, error) {
	if bridgeSender == (common.Address{}) {
		return nil, NewError(AddressResolution, fmt.Errorf("%w: bridge contract is the zero address", ErrAddressResolution))
	}
	if ubiRecipient == (common.Address{}) {
		return nil, NewError(AddressResolution, fmt.Errorf("%w: ubi recipient is the zero address", ErrAddressResolution))
	}
	return &ContractAddressSet{
		Network:      network,
		FundManager:  static.FundManager,
		Staking:      static.Staking,
		SourceToken:  static.SourceToken,
		DestToken:    static.DestToken,
		UBIScheme:    static.UBIScheme,
		BridgeSender: bridgeSender,
		UBIRecipient: ubiRecipient,
		Dai:          static.Dai,
	}, nil
}

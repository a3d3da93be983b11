package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/ubi-economy/staking-tasks-service/internal/chain"
	"github.com/ubi-economy/staking-tasks-service/internal/types"
)

// ResolveAddresses builds the full address set of a network: the static
// deployment entries plus the bridge and UBI recipient read from the fund
// manager. Any failure leaves the service unable to run.
func ResolveAddresses(
	ctx context.Context, main chain.Gateway, deployment *types.NetworkDeployment,
) (*types.ContractAddressSet, error) {
	static, err := deployment.StaticAddresses()
	if err != nil {
		return nil, err
	}

	fundManager := chain.NewFundManager(static.FundManager)
	bridge, err := chain.CallAddress(ctx, main, fundManager, chain.MethodBridgeContract)
	if err != nil {
		return nil, types.NewError(types.AddressResolution, err)
	}
	recipient, err := chain.CallAddress(ctx, main, fundManager, chain.MethodUBIRecipient)
	if err != nil {
		return nil, types.NewError(types.AddressResolution, err)
	}

	addresses, err := types.NewContractAddressSet(deployment.Network, static, bridge, recipient)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().
		Str("network", addresses.Network).
		Str("fundManager", addresses.FundManager.Hex()).
		Str("staking", addresses.Staking.Hex()).
		Str("ubiScheme", addresses.UBIScheme.Hex()).
		Str("bridge", addresses.BridgeSender.Hex()).
		Str("ubiRecipient", addresses.UBIRecipient.Hex()).
		Msg("resolved contract addresses")
	return addresses, nil
}

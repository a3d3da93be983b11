package services

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ubi-economy/staking-tasks-service/internal/chain"
	"github.com/ubi-economy/staking-tasks-service/internal/types"
)

// 100 tokens with 18 decimals.
var mockInterestAmount = new(big.Int).Mul(big.NewInt(100), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// InterestMocker produces staking interest on test networks by minting cDAI
// from mock DAI and handing it to the staking contract.
type InterestMocker struct {
	main    chain.Gateway
	dai     chain.Contract
	cDai    chain.Contract
	staking common.Address
	funder  common.Address
}

func NewInterestMocker(main chain.Gateway, addresses *types.ContractAddressSet, funder common.Address) (*InterestMocker, error) {
	if addresses.Dai == nil {
		return nil, types.NewError(types.AddressResolution,
			errors.New("interest mock requires a DAI address in the deployment"))
	}
	return &InterestMocker{
		main:    main,
		dai:     chain.NewDaiMock(*addresses.Dai),
		cDai:    chain.NewCDaiMock(addresses.SourceToken),
		staking: addresses.Staking,
		funder:  funder,
	}, nil
}

func (m *InterestMocker) Mock(ctx context.Context) error {
	from := chain.SendOptions{From: &m.funder}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := m.main.Send(gctx, m.dai, chain.MethodApprove, from, m.cDai.Address, mockInterestAmount)
		return err
	})
	g.Go(func() error {
		_, err := m.main.Send(gctx, m.dai, chain.MethodAllocateTo, chain.SendOptions{}, m.funder, mockInterestAmount)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("mock interest dai approve and allocateTo failed")
		return err
	}
	log.Ctx(ctx).Info().Msg("mock interest approved and allocated dai, minting cDai")

	if _, err := m.main.Send(ctx, m.cDai, chain.MethodMint, from, mockInterestAmount); err != nil {
		return err
	}
	balance, err := chain.CallBigInt(ctx, m.main, m.cDai, chain.MethodBalanceOf, m.funder)
	if err != nil {
		return err
	}

	log.Ctx(ctx).Info().Str("ownerCDaiBalance", balance.String()).Msg("mock interest minted cDai, transferring to staking contract")
	_, err = m.main.Send(ctx, m.cDai, chain.MethodTransfer, from, m.staking, balance)
	return err
}

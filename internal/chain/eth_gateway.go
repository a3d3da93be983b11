package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"

	"github.com/ubi-economy/staking-tasks-service/internal/config"
	"github.com/ubi-economy/staking-tasks-service/internal/observability/metrics"
)

var ErrTransactionFailed = errors.New("transaction failed")

type signer struct {
	// mu serialises nonce assignment and submission for this key.
	mu   sync.Mutex
	opts *bind.TransactOpts
}

// EthGateway implements Gateway on top of a JSON-RPC endpoint.
type EthGateway struct {
	name        string
	client      *ethclient.Client
	chainID     *big.Int
	signers     []*signer
	next        atomic.Uint64
	limiter     *Limiter
	txTimeout   time.Duration
	maxLogRange uint64
}

// NewEthGateway dials the endpoint and makes sure it serves the configured chain.
func NewEthGateway(ctx context.Context, name string, cfg *config.ChainConfig) (*EthGateway, error) {
	client, err := ethclient.DialContext(ctx, cfg.RpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s rpc: %w", name, err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to read %s chain id: %w", name, err)
	}
	if chainID.Cmp(big.NewInt(cfg.ChainID)) != 0 {
		client.Close()
		return nil, fmt.Errorf("%s rpc serves chain id %s, configured %d", name, chainID, cfg.ChainID)
	}

	signers := make([]*signer, 0, len(cfg.PrivateKeys))
	for i, hexKey := range cfg.PrivateKeys {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("invalid %s private key at index %d", name, i)
		}
		s, err := newSigner(key, chainID)
		if err != nil {
			client.Close()
			return nil, err
		}
		signers = append(signers, s)
	}

	log.Info().
		Str("chain", name).
		Str("chainId", chainID.String()).
		Int("signers", len(signers)).
		Msg("connected to chain")

	return &EthGateway{
		name:        name,
		client:      client,
		chainID:     chainID,
		signers:     signers,
		limiter:     NewLimiter(cfg.RequestsPerSecond, cfg.Burst, name),
		txTimeout:   cfg.TxTimeout,
		maxLogRange: cfg.MaxLogRange,
	}, nil
}

func newSigner(key *ecdsa.PrivateKey, chainID *big.Int) (*signer, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	return &signer{opts: opts}, nil
}

func (g *EthGateway) Name() string {
	return g.name
}

// Accounts returns the signer addresses in configuration order.
func (g *EthGateway) Accounts() []common.Address {
	accounts := make([]common.Address, len(g.signers))
	for i, s := range g.signers {
		accounts[i] = s.opts.From
	}
	return accounts
}

func (g *EthGateway) Close() {
	g.client.Close()
}

// rpc applies the rate limit and records the request outcome.
func (g *EthGateway) rpc(ctx context.Context, method string, fn func() error) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	done := metrics.StartRpcRequestTimer(g.name, method)
	err := fn()
	done(ClassifyRPCError(err))
	return err
}

func (g *EthGateway) bound(c Contract) *bind.BoundContract {
	return bind.NewBoundContract(c.Address, *c.ABI, g.client, g.client, g.client)
}

func (g *EthGateway) Call(ctx context.Context, c Contract, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	err := g.rpc(ctx, method, func() error {
		return g.bound(c).Call(&bind.CallOpts{Context: ctx}, &out, method, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("%s.%s call failed: %w", c.Name, method, err)
	}
	return out, nil
}

func (g *EthGateway) pickSigner(from *common.Address) (*signer, error) {
	if from != nil {
		for _, s := range g.signers {
			if s.opts.From == *from {
				return s, nil
			}
		}
		return nil, fmt.Errorf("no %s signer for address %s", g.name, from.Hex())
	}
	i := g.next.Add(1) - 1
	return g.signers[i%uint64(len(g.signers))], nil
}

// Send submits a transaction and waits until it is mined or the tx timeout
// passes. A reverted transaction is an error.
func (g *EthGateway) Send(
	ctx context.Context, c Contract, method string, opts SendOptions, args ...interface{},
) (*Receipt, error) {
	s, err := g.pickSigner(opts.From)
	if err != nil {
		return nil, err
	}

	tx, err := g.submit(ctx, s, c, method, opts, args...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s submission failed: %w", c.Name, method, err)
	}
	log.Ctx(ctx).Debug().
		Str("chain", g.name).
		Str("method", c.Name+"."+method).
		Str("tx", tx.Hash().Hex()).
		Str("from", s.opts.From.Hex()).
		Msg("transaction submitted")

	waitCtx, cancel := context.WithTimeout(ctx, g.txTimeout)
	defer cancel()
	var mined *types.Receipt
	err = g.rpc(waitCtx, "waitMined", func() error {
		var werr error
		mined, werr = bind.WaitMined(waitCtx, g.client, tx)
		return werr
	})
	if err != nil {
		return nil, fmt.Errorf("%s.%s tx %s not mined: %w", c.Name, method, tx.Hash().Hex(), err)
	}
	if mined.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s.%s tx %s", ErrTransactionFailed, c.Name, method, tx.Hash().Hex())
	}

	return decodeReceipt(c, s.opts.From, mined)
}

func (g *EthGateway) submit(
	ctx context.Context, s *signer, c Contract, method string, opts SendOptions, args ...interface{},
) (*types.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txOpts := *s.opts
	txOpts.Context = ctx
	txOpts.GasLimit = opts.GasLimit

	var tx *types.Transaction
	err := g.rpc(ctx, method, func() error {
		var terr error
		tx, terr = g.bound(c).Transact(&txOpts, method, args...)
		return terr
	})
	return tx, err
}

// GetPastEvents queries logs in pages of at most maxLogRange blocks.
func (g *EthGateway) GetPastEvents(ctx context.Context, c Contract, event string, q EventQuery) ([]Event, error) {
	topics, err := eventTopics(c, event, q.Filter)
	if err != nil {
		return nil, err
	}

	if g.maxLogRange == 0 {
		return g.filterLogs(ctx, c, topics, q, q.FromBlock, q.ToBlock)
	}

	to := uint64(0)
	if q.ToBlock != nil {
		to = *q.ToBlock
	} else if to, err = g.GetBlockNumber(ctx); err != nil {
		return nil, err
	}

	var events []Event
	for from := q.FromBlock; from <= to; from += g.maxLogRange {
		end := from + g.maxLogRange - 1
		if end > to {
			end = to
		}
		page, err := g.filterLogs(ctx, c, topics, q, from, &end)
		if err != nil {
			return nil, err
		}
		events = append(events, page...)
	}
	return events, nil
}

func (g *EthGateway) filterLogs(
	ctx context.Context, c Contract, topics [][]common.Hash, q EventQuery, from uint64, to *uint64,
) ([]Event, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		Addresses: []common.Address{c.Address},
		Topics:    topics,
	}
	if to != nil {
		query.ToBlock = new(big.Int).SetUint64(*to)
	}

	var logs []types.Log
	err := g.rpc(ctx, "eth_getLogs", func() error {
		var ferr error
		logs, ferr = g.client.FilterLogs(ctx, query)
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to filter %s logs from block %d: %w", c.Name, from, err)
	}

	events := make([]Event, 0, len(logs))
	for i := range logs {
		if logs[i].Removed {
			continue
		}
		e, ok, err := decodeLog(c, &logs[i])
		if err != nil {
			return nil, err
		}
		if ok && q.Matches(e) {
			events = append(events, e)
		}
	}
	return events, nil
}

func (g *EthGateway) GetBlockNumber(ctx context.Context) (uint64, error) {
	var head uint64
	err := g.rpc(ctx, "eth_blockNumber", func() error {
		var berr error
		head, berr = g.client.BlockNumber(ctx)
		return berr
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read %s block number: %w", g.name, err)
	}
	return head, nil
}

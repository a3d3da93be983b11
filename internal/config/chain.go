package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
)

const (
	mainnetChainID = 1

	defaultMainBlockPeriod   = 15 * time.Second
	defaultSideBlockPeriod   = 5 * time.Second
	defaultRequestsPerSecond = 10
	defaultBurst             = 5
	defaultTxTimeout         = 5 * time.Minute
)

type ChainConfig struct {
	RpcURL  string `mapstructure:"rpc-url"`
	ChainID int64  `mapstructure:"chain-id"`
	// BlockPeriod is the nominal block time used to turn block counts into wall time.
	BlockPeriod time.Duration `mapstructure:"block-period"`
	// PrivateKeys are hex encoded signer keys, used round-robin.
	PrivateKeys       []string      `mapstructure:"private-keys"`
	RequestsPerSecond float64       `mapstructure:"requests-per-second"`
	Burst             int           `mapstructure:"burst"`
	TxTimeout         time.Duration `mapstructure:"tx-timeout"`
	// MaxLogRange splits event queries into block ranges of this size, 0 disables paging.
	MaxLogRange uint64 `mapstructure:"max-log-range"`
}

func (cfg *ChainConfig) Validate() error {
	if cfg.RpcURL == "" {
		return errors.New("missing rpc-url")
	}

	u, err := url.Parse(cfg.RpcURL)
	if err != nil {
		return fmt.Errorf("invalid rpc-url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("unsupported rpc-url scheme: %s", u.Scheme)
	}

	if cfg.ChainID <= 0 {
		return errors.New("chain-id must be positive")
	}

	if cfg.BlockPeriod <= 0 {
		return errors.New("block-period must be positive")
	}

	if len(cfg.PrivateKeys) == 0 {
		return errors.New("at least one private key is required")
	}
	for i, key := range cfg.PrivateKeys {
		if _, err := crypto.HexToECDSA(strings.TrimPrefix(key, "0x")); err != nil {
			return fmt.Errorf("invalid private key at index %d", i)
		}
	}

	if cfg.RequestsPerSecond <= 0 {
		return errors.New("requests-per-second must be positive")
	}

	if cfg.Burst <= 0 {
		return errors.New("burst must be positive")
	}

	if cfg.TxTimeout <= 0 {
		return errors.New("tx-timeout must be positive")
	}

	return nil
}

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Service    ServiceConfig    `mapstructure:"service"`
	MainChain  ChainConfig      `mapstructure:"main-chain"`
	SideChain  ChainConfig      `mapstructure:"side-chain"`
	Collection CollectionConfig `mapstructure:"collection"`
	Fishing    FishingConfig    `mapstructure:"fishing"`
	Db         DbConfig         `mapstructure:"db"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Server     ServerConfig     `mapstructure:"server"`
}

func (cfg *Config) Validate() error {
	if err := cfg.Service.Validate(); err != nil {
		return err
	}

	if err := cfg.MainChain.Validate(); err != nil {
		return fmt.Errorf("main-chain: %w", err)
	}

	if err := cfg.SideChain.Validate(); err != nil {
		return fmt.Errorf("side-chain: %w", err)
	}

	if err := cfg.Collection.Validate(); err != nil {
		return err
	}

	if err := cfg.Fishing.Validate(); err != nil {
		return err
	}

	if err := cfg.Db.Validate(); err != nil {
		return err
	}

	if err := cfg.Queue.Validate(); err != nil {
		return err
	}

	if err := cfg.Metrics.Validate(); err != nil {
		return err
	}

	if err := cfg.Server.Validate(); err != nil {
		return err
	}

	// Minting fake interest must never be possible against the real main chain.
	if cfg.Collection.MockInterest && cfg.MainChain.ChainID == mainnetChainID {
		return fmt.Errorf("mock-interest cannot be enabled on chain id %d", mainnetChainID)
	}

	return nil
}

// New returns a fully parsed Config object from a given file directory
func New(cfgFile string) (*Config, error) {
	_, err := os.Stat(cfgFile)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(cfgFile)

	v.AutomaticEnv()
	/*
		Below code will replace nested fields in yml into `_` and any `-` into `__` when you try to override this config via env variable
		To give an example:
		1. `some.config.a` can be overriden by `SOME_CONFIG_A`
		2. `some.config-a` can be overriden by `SOME_CONFIG__A`
		This is to avoid using `-` in the environment variable as it's not supported in all os terminal/bash
		Note: vipner package use `.` as delimitter by default. Read more here: https://pkg.go.dev/github.com/spf13/viper#readme-accessing-nested-keys
	*/
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "__"))
	setDefaults(v)

	err = v.ReadInConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err = v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.log-level", "info")
	v.SetDefault("service.health-check-interval", 60)
	v.SetDefault("service.failure-floor", defaultFailureFloor)
	v.SetDefault("service.min-reschedule-delay", defaultMinRescheduleDelay)

	v.SetDefault("main-chain.block-period", defaultMainBlockPeriod)
	v.SetDefault("side-chain.block-period", defaultSideBlockPeriod)
	for _, chain := range []string{"main-chain", "side-chain"} {
		v.SetDefault(chain+".requests-per-second", defaultRequestsPerSecond)
		v.SetDefault(chain+".burst", defaultBurst)
		v.SetDefault(chain+".tx-timeout", defaultTxTimeout)
	}

	v.SetDefault("collection.enabled", true)
	v.SetDefault("collection.schedule", DefaultTaskSchedule)
	v.SetDefault("collection.bridge-poll-interval", defaultBridgePollInterval)
	v.SetDefault("collection.bridge-timeout", defaultBridgeTimeout)

	v.SetDefault("fishing.enabled", true)
	v.SetDefault("fishing.schedule", DefaultTaskSchedule)
	v.SetDefault("fishing.chunk-size", DefaultChunkSize)
	v.SetDefault("fishing.max-passes", defaultMaxPasses)
	v.SetDefault("fishing.gas-limit", defaultFishGasLimit)
	v.SetDefault("fishing.activity-check-concurrency", defaultActivityCheckConcurrency)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8092)
	v.SetDefault("server.write-timeout", "60s")
	v.SetDefault("server.read-timeout", "60s")
	v.SetDefault("server.idle-timeout", "60s")
	v.SetDefault("server.max-content-length", 4096)

	v.SetDefault("queue.outcome-queue-name", "task_outcomes_queue")

	metrics := DefaultMetricsConfig()
	v.SetDefault("metrics.host", metrics.Host)
	v.SetDefault("metrics.port", metrics.Port)
	v.SetDefault("metrics.path", metrics.Path)
}

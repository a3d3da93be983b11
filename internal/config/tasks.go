package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	// DefaultTaskSchedule is the safety-net cadence, used only while a task has
	// not produced a next run time of its own.
	DefaultTaskSchedule = "0 0 0 * * *"
	DefaultChunkSize    = 50

	defaultBridgePollInterval       = 5 * time.Second
	defaultBridgeTimeout            = 5 * time.Minute
	defaultMaxPasses                = 10
	defaultFishGasLimit             = 6000000
	defaultActivityCheckConcurrency = 20
	maxChunkSize                    = 200
)

// ScheduleParser accepts six field expressions with a leading seconds field
// as well as descriptors such as @daily.
var ScheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type CollectionConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	Schedule           string        `mapstructure:"schedule"`
	BridgePollInterval time.Duration `mapstructure:"bridge-poll-interval"`
	BridgeTimeout      time.Duration `mapstructure:"bridge-timeout"`
	// MockInterest generates interest before collecting. Test networks only.
	MockInterest bool `mapstructure:"mock-interest"`
}

func (cfg *CollectionConfig) Validate() error {
	if _, err := ScheduleParser.Parse(cfg.Schedule); err != nil {
		return fmt.Errorf("invalid collection schedule: %w", err)
	}

	if cfg.BridgePollInterval <= 0 {
		return errors.New("bridge-poll-interval must be positive")
	}

	if cfg.BridgeTimeout < cfg.BridgePollInterval {
		return errors.New("bridge-timeout must be at least one poll interval")
	}

	return nil
}

type FishingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Schedule  string `mapstructure:"schedule"`
	ChunkSize int    `mapstructure:"chunk-size"`
	// MaxPasses bounds the retry passes over unfished accounts within one run.
	MaxPasses                int    `mapstructure:"max-passes"`
	GasLimit                 uint64 `mapstructure:"gas-limit"`
	ActivityCheckConcurrency int    `mapstructure:"activity-check-concurrency"`
}

func (cfg *FishingConfig) Validate() error {
	if _, err := ScheduleParser.Parse(cfg.Schedule); err != nil {
		return fmt.Errorf("invalid fishing schedule: %w", err)
	}

	if cfg.ChunkSize <= 0 || cfg.ChunkSize > maxChunkSize {
		return fmt.Errorf("chunk-size must be between 1 and %d", maxChunkSize)
	}

	if cfg.MaxPasses <= 0 {
		return errors.New("max-passes must be positive")
	}

	if cfg.GasLimit == 0 {
		return errors.New("gas-limit must be positive")
	}

	if cfg.ActivityCheckConcurrency <= 0 {
		return errors.New("activity-check-concurrency must be positive")
	}

	return nil
}

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultFailureFloor       = time.Hour
	defaultMinRescheduleDelay = time.Minute
)

type ServiceConfig struct {
	// Network selects the deployment entry the contract addresses are read from.
	Network             string        `mapstructure:"network"`
	LogLevel            string        `mapstructure:"log-level"`
	HealthCheckInterval int           `mapstructure:"health-check-interval"`
	FailureFloor        time.Duration `mapstructure:"failure-floor"`
	MinRescheduleDelay  time.Duration `mapstructure:"min-reschedule-delay"`
}

func (cfg *ServiceConfig) Validate() error {
	if cfg.Network == "" {
		return errors.New("missing network")
	}

	if err := cfg.ValidateServiceLogLevel(); err != nil {
		return err
	}

	if cfg.HealthCheckInterval <= 0 {
		return fmt.Errorf("HealthCheckInterval must be a positive integer")
	}

	if cfg.FailureFloor <= 0 {
		return errors.New("failure-floor must be positive")
	}

	if cfg.MinRescheduleDelay < 0 {
		return errors.New("min-reschedule-delay cannot be negative")
	}

	return nil
}

func (cfg *ServiceConfig) ValidateServiceLogLevel() error {
	// If log level is not set, we don't need to validate it, a default value will be used in service
	if cfg.LogLevel == "" {
		return nil
	}

	if parsedLevel, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	} else if parsedLevel < zerolog.DebugLevel || parsedLevel > zerolog.FatalLevel {
		return fmt.Errorf("only log levels from debug to fatal are supported")
	}
	return nil
}

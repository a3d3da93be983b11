package config

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// ServerConfig configures the operations API.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle-timeout"`
	// AllowedOrigins lists the dashboards allowed to read the ops API.
	AllowedOrigins   []string `mapstructure:"allowed-origins"`
	MaxContentLength int64    `mapstructure:"max-content-length"`
}

func (cfg *ServerConfig) Validate() error {
	ip := net.ParseIP(cfg.Host)
	if ip == nil {
		return fmt.Errorf("invalid host: %v", cfg.Host)
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return errors.New("invalid port")
	}

	if cfg.WriteTimeout < 0 {
		return errors.New("write timeout cannot be negative")
	}

	if cfg.ReadTimeout < 0 {
		return errors.New("read timeout cannot be negative")
	}

	if cfg.IdleTimeout < 0 {
		return errors.New("idle timeout cannot be negative")
	}

	if cfg.MaxContentLength <= 0 {
		return errors.New("max content length must be positive")
	}

	return nil
}

package config

import (
	"fmt"
	"net/url"
)

type QueueConfig struct {
	Url              string `mapstructure:"url"`
	User             string `mapstructure:"user"`
	Password         string `mapstructure:"password"`
	OutcomeQueueName string `mapstructure:"outcome-queue-name"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.Url == "" {
		return fmt.Errorf("missing queue url")
	}

	if _, err := url.Parse("amqp://" + cfg.Url); err != nil {
		return fmt.Errorf("invalid queue url: %w", err)
	}

	if cfg.User == "" {
		return fmt.Errorf("missing queue user")
	}

	if cfg.OutcomeQueueName == "" {
		return fmt.Errorf("missing outcome queue name")
	}
	return nil
}

// AmqpURI builds the connection string from the configured parts.
func (cfg *QueueConfig) AmqpURI() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Url,
	}
	return u.String()
}

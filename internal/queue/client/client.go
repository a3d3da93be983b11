package client

import (
	"context"

	"github.com/ubi-economy/staking-tasks-service/internal/config"
)

// A common interface for queue clients regardless if it's a SQS, RabbitMQ, etc.
type QueueClient interface {
	SendMessage(ctx context.Context, messageBody string) error
	// Ping reports whether the underlying connection is still usable.
	Ping() error
	GetQueueName() string
	Close() error
}

func NewQueueClient(cfg config.QueueConfig) (QueueClient, error) {
	return NewRabbitMqClient(cfg.AmqpURI(), cfg.OutcomeQueueName)
}

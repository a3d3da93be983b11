package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMqClient struct {
	// amqp channels must not be used for concurrent publishes
	mu        sync.Mutex
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
}

func NewRabbitMqClient(uri, queueName string) (*RabbitMqClient, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	return &RabbitMqClient{
		conn:      conn,
		channel:   ch,
		queueName: queueName,
	}, nil
}

func (c *RabbitMqClient) SendMessage(ctx context.Context, messageBody string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.PublishWithContext(
		ctx,
		"", // default exchange routes by queue name
		c.queueName,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         []byte(messageBody),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish a message to queue %s: %w", c.queueName, err)
	}
	return nil
}

func (c *RabbitMqClient) Ping() error {
	if c.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	if c.channel.IsClosed() {
		return errors.New("rabbitmq channel is closed")
	}
	return nil
}

func (c *RabbitMqClient) GetQueueName() string {
	return c.queueName
}

func (c *RabbitMqClient) Close() error {
	return c.conn.Close()
}

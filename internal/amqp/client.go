package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	// Declare exchange
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Declare queue
	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Bind queue to exchange
	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishSync publishes a backup request for a transaction.
func (c *Client) PublishSync(ctx context.Context, id, version int64) error {
	body, err := envelope(KindSync, NewSyncMessage(id, version))
	if err != nil {
		return err
	}
	if err := c.publish(ctx, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published transaction sync message",
		"id", id,
		"version", version,
		"queue", c.queueName)
	return nil
}

// PublishDelete publishes a delete notification for a transaction.
func (c *Client) PublishDelete(ctx context.Context, id int64) error {
	body, err := envelope(KindDelete, NewDeleteMessage(id))
	if err != nil {
		return err
	}
	if err := c.publish(ctx, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published transaction delete message",
		"id", id,
		"queue", c.queueName)
	return nil
}

func (c *Client) publish(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent, // make message persistent
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// ConsumeMessages delivers queue messages to the given handlers until the
// context is cancelled. Messages are acknowledged manually; a handler error
// nacks with requeue, an undecodable message is dropped.
func (c *Client) ConsumeMessages(
	ctx context.Context,
	onSync func(context.Context, *SyncMessage) error,
	onDelete func(context.Context, *DeleteMessage) error,
) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming ledger events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			env, err := DecodeEnvelope(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to decode message", "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := c.dispatch(ctx, env, onSync, onDelete); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					"error", err,
					"kind", env.Kind)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) dispatch(
	ctx context.Context,
	env *Envelope,
	onSync func(context.Context, *SyncMessage) error,
	onDelete func(context.Context, *DeleteMessage) error,
) error {
	switch env.Kind {
	case KindSync:
		var msg SyncMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return fmt.Errorf("unmarshal sync payload: %w", err)
		}
		return onSync(ctx, &msg)
	case KindDelete:
		var msg DeleteMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return fmt.Errorf("unmarshal delete payload: %w", err)
		}
		return onDelete(ctx, &msg)
	default:
		return fmt.Errorf("unknown message kind %q", env.Kind)
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

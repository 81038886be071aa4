// services/broker.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue names on the broker
const (
	QueueContentJobs = "content_jobs"
	QueueJobResults  = "job_results"
)

// Broker wraps the AMQP channel used by the agents service.
type Broker struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *log.Logger
}

// prefetchCount clamps the per-channel prefetch so every worker can hold an
// unacked delivery at once.
func prefetchCount(workers int) int {
	if workers < 1 {
		return 1
	}
	return workers
}

// NewBroker opens a channel and declares the work queues. prefetch should
// match the number of consuming workers so they are fed in parallel.
func NewBroker(conn *amqp.Connection, logger *log.Logger, prefetch int) (*Broker, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	for _, queue := range []string{QueueContentJobs, QueueJobResults} {
		_, err := ch.QueueDeclare(
			queue,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
	}

	// One unacked job per worker at a time
	if err := ch.Qos(prefetchCount(prefetch), 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return &Broker{conn: conn, channel: ch, logger: logger}, nil
}

// Publish sends a JSON-encoded message to the named queue.
func (b *Broker) Publish(ctx context.Context, queue string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	err = b.channel.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}
	return nil
}

// Consume returns a delivery channel for the named queue. Messages must be
// acked or nacked by the handler.
func (b *Broker) Consume(queue string) (<-chan amqp.Delivery, error) {
	deliveries, err := b.channel.Consume(
		queue,
		"",    // consumer tag
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume from %s: %w", queue, err)
	}
	return deliveries, nil
}

// Healthy reports whether the underlying connection is still open.
func (b *Broker) Healthy() bool {
	return b.conn != nil && !b.conn.IsClosed()
}

// Close shuts down the channel and connection.
func (b *Broker) Close() {
	if b.channel != nil {
		b.channel.Close()
	}
	if b.conn != nil {
		b.conn.Close()
	}
}

// config/broker.go
package config

import (
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConnectBroker establishes a connection to RabbitMQ. The broker container
// can take a few seconds to pass its health check after startup, so the
// dial is retried before giving up.
func ConnectBroker(brokerURL string) *amqp.Connection {
	var conn *amqp.Connection
	var err error

	for attempt := 1; attempt <= 10; attempt++ {
		conn, err = amqp.Dial(brokerURL)
		if err == nil {
			log.Println("Connected to RabbitMQ")
			return conn
		}
		log.Printf("RabbitMQ not ready (attempt %d/10): %v", attempt, err)
		time.Sleep(3 * time.Second)
	}

	log.Fatal("RabbitMQ connection error:", err)
	return nil
}

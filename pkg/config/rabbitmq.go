package config

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

var RabbitMQ *amqp.Connection

// InitRabbitMQ connects to the broker, retrying while it starts up.
func InitRabbitMQ(cfg RabbitMQConfig) error {
	maxRetries := 10
	retryDelay := 3 * time.Second

	var err error
	for i := 0; i < maxRetries; i++ {
		var conn *amqp.Connection
		conn, err = amqp.Dial(cfg.URL())
		if err == nil {
			RabbitMQ = conn
			log.WithField("host", cfg.Host).Info("Connected to RabbitMQ")
			return nil
		}

		if i < maxRetries-1 {
			log.WithFields(log.Fields{
				"attempt": i + 1,
				"max":     maxRetries,
				"error":   err.Error(),
			}).Warn("Failed to connect to RabbitMQ, retrying")
			time.Sleep(retryDelay)
		}
	}

	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
}

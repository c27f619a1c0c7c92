package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"devscope/internal/audit"
	"devscope/pkg/config"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)

	cfg := config.LoadAppConfig()

	if err := config.InitDB(cfg.Database); err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := config.InitRabbitMQ(cfg.RabbitMQ); err != nil {
		log.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}
	defer config.RabbitMQ.Close()

	consumer, err := config.NewConsumer(cfg.RabbitMQ.Queue)
	if err != nil {
		log.WithError(err).Fatal("Failed to create consumer")
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer := audit.NewWriter(config.DB)
	log.WithField("queue", cfg.RabbitMQ.Queue).Info("Detection audit worker started")

	if err := consumer.Consume(ctx, writer.Handle); err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("Consumer stopped")
	}
	log.Info("Detection audit worker stopped")
}

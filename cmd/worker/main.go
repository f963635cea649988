package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smadinen7/Market-Intelligence-Assistant/internal/queue"
	"github.com/smadinen7/Market-Intelligence-Assistant/internal/storage"
	"github.com/smadinen7/Market-Intelligence-Assistant/internal/util"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger/console"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/workflow"
)

// The worker archives every workflow event published by the server to
// object storage.
func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  util.GetEnvBool("DEBUG", false),
		Format: util.GetEnvString("LOG_FORMAT", "text"),
	})
	logger.Init(consoleLogger)

	if !queue.Enabled() {
		logger.Fatal("RABBITMQ_HOST is required")
	}

	// Init s3 client
	client, err := storage.NewS3Client(ctx)
	if err != nil {
		logger.Fatal("Failed to create S3 client", "err", err)
	}

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch); err != nil {
		logger.Fatal("Failed to setup queues", "err", err)
	}

	// One unacked message at a time keeps archive order per session.
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := ch.Consume(
		queue.EventQueue,
		"event_archiver",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.EventQueue, "err", err)
	}

	archive := func(ctx context.Context, event workflow.Event) error {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return storage.ArchiveEvent(ctx, client, event)
	}

	logger.Info("Listening for messages", "queue", queue.EventQueue)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.EventQueue)
				return
			}

			if err := queue.ProcessEventMessage(ctx, archive, msg.Body); err != nil {
				logger.Error("Error processing message", "queue", queue.EventQueue, "err", err)
				queue.HandleProcessingError(ch, msg, queue.EventQueue)
				continue
			}
			if err := msg.Ack(false); err != nil {
				logger.Error("Failed to ack message", "err", err)
			}
		}
	}
}

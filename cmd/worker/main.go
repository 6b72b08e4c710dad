package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/animekg/backend/internal/bootstrap"
	"github.com/OFFIS-RIT/animekg/backend/internal/queue"
	"github.com/OFFIS-RIT/animekg/backend/internal/util"
	"github.com/OFFIS-RIT/animekg/backend/pkg/history"
	"github.com/OFFIS-RIT/animekg/backend/pkg/leaselock"
	"github.com/OFFIS-RIT/animekg/backend/pkg/logger"
	"github.com/OFFIS-RIT/animekg/backend/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	cfg := bootstrap.LoadConfig()
	if cfg.DatabaseURL == "" || cfg.RabbitMQURL == "" {
		logger.Fatal("Worker needs DATABASE_URL and RabbitMQ settings")
	}

	// Init pgx client
	pool, store, err := bootstrap.OpenHistory(ctx, cfg)
	if err != nil {
		logger.Fatal("Unable to open history database", "err", err)
	}
	defer pool.Close()

	if cfg.HistoryRetention > 0 {
		locks, err := leaselock.New(pool, "worker")
		if err != nil {
			logger.Fatal("Failed to create lease client", "err", err)
		}
		pruner := history.NewPruner(store, locks, cfg.HistoryRetention)
		go pruner.Run(ctx, time.Hour)
	}

	// Init rabbitmq
	conn, err := queue.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.HistoryQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	if err := ch.Qos(8, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := ch.Consume(
		queue.HistoryQueue,
		"qa_history_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.HistoryQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.HistoryQueue)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.HistoryQueue)
				return
			}

			saveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			err := queue.ProcessHistoryMessage(saveCtx, store, msg.Body)
			cancel()

			if err != nil {
				logger.Error("Error processing message", "queue", queue.HistoryQueue, "err", err)
				queue.HandleProcessingError(ch, msg, queue.HistoryQueue)
				continue
			}
			if err := msg.Ack(false); err != nil {
				logger.Error("Failed to ack message", "err", err)
			}
			logger.Debug("Message processed successfully", "queue", queue.HistoryQueue)
		}
	}
}

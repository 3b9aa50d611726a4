package main

import (
	"context"
	"os"
	"time"

	"remont/internal/cli"
	"remont/internal/config"
	applog "remont/internal/log"
	"remont/internal/services"
	"remont/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	logger.Info("Starting remont-worker")

	if cfg.DataBackend != config.BackendSQLite {
		logger.Error("remont-worker needs the sqlite backend to share the outbox with the server",
			"backend", cfg.DataBackend)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	store, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer func() {
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()

	exporter, err := cli.NewExporter(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", "error", err)
		os.Exit(1)
	}
	if exporter == nil {
		logger.Warn("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, nothing to do")
		<-ctx.Done()
		return
	}

	amqpClient, err := cli.ConnectAMQP(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	var consumer worker.EventConsumer
	if amqpClient != nil {
		consumer = amqpClient
		defer amqpClient.Close()
	}

	// The server writes to the same database, so budget reads stay uncached
	// and the worker never publishes.
	tracker := cli.NewTracker(cfg, store.Store, nil, nil)

	processor := services.NewSyncProcessor(store.Store, tracker, exporter, services.SyncProcessorConfig{
		PollInterval:    cfg.SyncInterval,
		BatchSize:       cfg.SyncBatchSize,
		MaxRetries:      cfg.SyncMaxRetries,
		CleanupInterval: time.Hour,
		CleanupAge:      24 * time.Hour,
	})

	w := worker.NewSyncWorker(tracker, exporter, processor, consumer, worker.DefaultConfig())
	if err := w.Run(ctx); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

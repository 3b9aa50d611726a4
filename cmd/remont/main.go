package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"remont/internal/cache"
	"remont/internal/cli"
	"remont/internal/config"
	apphttp "remont/internal/http"
	applog "remont/internal/log"
	"remont/internal/ports"
	"remont/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	store, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()

	amqpClient, err := cli.ConnectAMQP(ctx, cfg)
	if err != nil {
		// The API works without events; budget tabs still refresh through the outbox.
		logger.Warn("AMQP unavailable, continuing without domain events", "error", err)
	}
	var publisher ports.Publisher
	if amqpClient != nil {
		publisher = amqpClient
		defer amqpClient.Close()
	}

	exporter, err := cli.NewExporter(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", "error", err)
		os.Exit(1)
	}

	caches := cache.NewManager()
	caches.Start(ctx, time.Minute)
	defer caches.Stop()

	tracker := cli.NewTracker(cfg, store.Store, publisher, caches)

	processor := services.NewSyncProcessor(store.Store, tracker, exporter, services.SyncProcessorConfig{
		PollInterval:    cfg.SyncInterval,
		BatchSize:       cfg.SyncBatchSize,
		MaxRetries:      cfg.SyncMaxRetries,
		CleanupInterval: time.Hour,
		CleanupAge:      24 * time.Hour,
	})
	// With the memory backend no other process can see the outbox, so the
	// server drains it itself. With SQLite that is remont-worker's job.
	if exporter != nil && cfg.DataBackend == config.BackendMemory {
		if err := processor.Start(ctx); err != nil {
			logger.Error("Failed to start sync processor", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = processor.Stop(stopCtx)
		}()
	}

	srv := apphttp.NewServer(":"+cfg.Port, tracker, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		Sync:               processor,
		Ready: func(ctx context.Context) error {
			_, err := store.Store.SyncQueueStats(ctx)
			return err
		},
		TrustedProxies: cfg.TrustedProxies,
	})

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting remont server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"sheets", cfg.SheetsEnabled(),
		"amqp", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}


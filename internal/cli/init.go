// Package cli holds the start-up steps shared by cmd/remont,
// cmd/remont-worker and cmd/remontctl.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"remont/internal/amqp"
	"remont/internal/backend"
	"remont/internal/cache"
	"remont/internal/config"
	"remont/internal/core"
	applog "remont/internal/log"
	"remont/internal/ports"
	"remont/internal/services"
	gsheets "remont/internal/sheets/google"
)

// LoadEnvFile loads .env for local development. A missing file is ignored.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads and validates the environment.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger configures the default slog logger for a binary.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	logger, err := applog.Setup(cfg.LogLevel, cfg.LogFormat, component)
	if err != nil {
		logger, _ = applog.Setup("info", cfg.LogFormat, component)
		logger.Warn("Unknown log level, using info", "error", err)
	}
	return logger
}

// Bootstrap is the usual prologue of a binary: .env, config, logger. It
// exits the process when the configuration is invalid.
func Bootstrap(component string) (*config.Config, *applog.Logger) {
	LoadEnvFile()
	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg, SetupLogger(cfg, component)
}

// OpenStore opens the configured storage backend.
func OpenStore(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*backend.Result, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = applog.FromContext(ctx)
	}
	return backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
}

// ConnectAMQP dials the broker. It returns nil without error when AMQP is
// not configured.
func ConnectAMQP(ctx context.Context, cfg *config.Config) (*amqp.Client, error) {
	if !cfg.AMQPEnabled() {
		slog.InfoContext(ctx, "AMQP not configured, domain events disabled")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("connect to AMQP: %w", err)
	}
	slog.InfoContext(ctx, "Connected to AMQP", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, nil
}

// NewExporter creates the Google Sheets exporter. It returns nil without
// error when no spreadsheet is configured.
func NewExporter(ctx context.Context, cfg *config.Config) (ports.Exporter, error) {
	if !cfg.SheetsEnabled() {
		slog.InfoContext(ctx, "Google Sheets not configured, export disabled")
		return nil, nil
	}
	client, err := gsheets.New(ctx, gsheets.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		ExpensesSheet:      cfg.GoogleExpensesSheet,
		BudgetPrefix:       cfg.GoogleBudgetSheetPrefix,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NewTracker wires the tracker service over store. publisher may be nil.
//
// Budget summaries are cached only when manager is given. Writes invalidate
// the cache of the tracker that performs them, so a process reading a store
// another process writes to (remont-worker, remontctl) must pass nil.
func NewTracker(cfg *config.Config, store backend.Store, publisher ports.Publisher, manager *cache.Manager) *services.Tracker {
	opts := []services.Option{services.WithOutbox(store)}
	if manager != nil {
		budgets := cache.NewLRUCache[core.BudgetSummary](cfg.BudgetCacheSize, cfg.BudgetCacheTTL)
		manager.Register("budgets", budgets)
		opts = append(opts, services.WithBudgetCache(budgets))
	}
	if publisher != nil {
		opts = append(opts, services.WithPublisher(publisher))
	}
	return services.NewTracker(store, opts...)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

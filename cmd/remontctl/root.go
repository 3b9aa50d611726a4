package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"remont/internal/backend"
	"remont/internal/cli"
	"remont/internal/config"
	applog "remont/internal/log"
	"remont/internal/services"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	dbPath   string
	logLevel string

	logger *applog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "remontctl",
		Short: "Administer a remont installation",
		Long: `remontctl works directly on the SQLite database used by remont
and remont-worker.

Available subcommands:
  migrate  - apply, roll back or inspect schema migrations
  seed     - create the demo renovation project
  projects - list projects
  budget   - print a project's budget summary
  sync     - inspect and retry the spreadsheet sync queue`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (default: $SQLITE_DB_PATH)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newProjectsCmd(opts),
		newBudgetCmd(opts),
		newSyncCmd(opts),
	)
	return root
}

// loadConfig reads the environment and forces the sqlite backend.
func (o *options) loadConfig() (*config.Config, error) {
	cli.LoadEnvFile()
	cfg := config.Load()
	cfg.DataBackend = config.BackendSQLite
	if o.dbPath != "" {
		cfg.SQLiteDBPath = o.dbPath
	}
	cfg.LogLevel = o.logLevel
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o.logger = cli.SetupLogger(cfg, applog.ComponentApp)
	return cfg, nil
}

// openTracker opens the database and wires a tracker that enqueues into
// the outbox like the server does, without publishing events.
func (o *options) openTracker(ctx context.Context) (*services.Tracker, *backend.Result, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := cli.OpenStore(ctx, cfg, o.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.SQLiteDBPath, err)
	}
	return cli.NewTracker(cfg, store.Store, nil, nil), store, nil
}

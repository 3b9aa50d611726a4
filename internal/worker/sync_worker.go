// Package worker runs the background half of the tracker: it drains the
// spreadsheet outbox and refreshes budget tabs when domain events arrive.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"remont/internal/amqp"
	"remont/internal/core"
	"remont/internal/ports"
	"remont/internal/services"
)

// EventConsumer delivers domain events until ctx is cancelled.
// *amqp.Client satisfies it.
type EventConsumer interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.EventMessage) error) error
}

// OutboxProcessor is the part of *services.SyncProcessor the worker drives.
type OutboxProcessor interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type Config struct {
	// StopTimeout bounds how long Run waits for the outbox processor to
	// finish its current batch.
	StopTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{StopTimeout: 10 * time.Second}
}

// SyncWorker refreshes a project's budget tab for every event and keeps the
// outbox processor running alongside the consumer.
type SyncWorker struct {
	source    services.SyncSource
	exporter  ports.Exporter
	processor OutboxProcessor
	consumer  EventConsumer
	config    Config
	now       func() time.Time

	mu        sync.Mutex
	lastWrite map[string]time.Time
}

// NewSyncWorker wires the worker. processor and consumer may be nil, in
// which case Run only drives the other one.
func NewSyncWorker(source services.SyncSource, exporter ports.Exporter, processor OutboxProcessor, consumer EventConsumer, config Config) *SyncWorker {
	if config.StopTimeout <= 0 {
		config.StopTimeout = DefaultConfig().StopTimeout
	}
	return &SyncWorker{
		source:    source,
		exporter:  exporter,
		processor: processor,
		consumer:  consumer,
		config:    config,
		now:       time.Now,
		lastWrite: make(map[string]time.Time),
	}
}

// HandleEvent rewrites the budget tab of the event's project. Events older
// than the last write for that project are already reflected and skipped,
// so a burst of expense events costs one spreadsheet write.
func (w *SyncWorker) HandleEvent(ctx context.Context, msg *amqp.EventMessage) error {
	if msg.ProjectID == "" {
		slog.WarnContext(ctx, "Event without project, ignoring", "type", msg.Type)
		return nil
	}

	w.mu.Lock()
	last, seen := w.lastWrite[msg.ProjectID]
	w.mu.Unlock()
	if seen && !msg.Timestamp.IsZero() && msg.Timestamp.Before(last) {
		slog.DebugContext(ctx, "Budget tab already newer than event",
			"project_id", msg.ProjectID,
			"type", msg.Type)
		return nil
	}

	started := w.now()
	p, err := w.source.GetProject(ctx, msg.ProjectID)
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Project gone, skipping budget refresh", "project_id", msg.ProjectID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get project %s: %w", msg.ProjectID, err)
	}
	summary, err := w.source.BudgetSummary(ctx, msg.ProjectID)
	if err != nil {
		return fmt.Errorf("budget summary %s: %w", msg.ProjectID, err)
	}
	if err := w.exporter.WriteBudget(ctx, p, summary); err != nil {
		return fmt.Errorf("write budget %s: %w", msg.ProjectID, err)
	}

	w.mu.Lock()
	if started.After(w.lastWrite[msg.ProjectID]) {
		w.lastWrite[msg.ProjectID] = started
	}
	w.mu.Unlock()

	slog.InfoContext(ctx, "Budget tab refreshed",
		"project_id", msg.ProjectID,
		"type", msg.Type,
		"entity_id", msg.EntityID,
		"spent_cents", summary.Spent.Cents)
	return nil
}

// Run starts the outbox processor and the event consumer and blocks until
// ctx is cancelled or one of them fails.
func (w *SyncWorker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if w.processor != nil {
		if err := w.processor.Start(gctx); err != nil {
			return fmt.Errorf("start sync processor: %w", err)
		}
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.config.StopTimeout)
			defer cancel()
			return w.processor.Stop(stopCtx)
		})
	}

	if w.consumer != nil && w.exporter != nil {
		g.Go(func() error {
			err := w.consumer.Consume(gctx, w.HandleEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		slog.InfoContext(ctx, "No event consumer configured, budget tabs refresh through the outbox only")
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

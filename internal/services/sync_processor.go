package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"remont/internal/core"
	"remont/internal/ports"
)

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check for pending items (default: 10s)
	PollInterval time.Duration

	// BatchSize is the max number of items to process per poll cycle (default: 10)
	BatchSize int

	// MaxRetries is the maximum retry attempts before marking as failed (default: 3)
	MaxRetries int

	// CleanupInterval is how often to clean up completed items (default: 1h)
	CleanupInterval time.Duration

	// CleanupAge is how old completed items must be before cleanup (default: 24h)
	CleanupAge time.Duration
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval:    10 * time.Second,
		BatchSize:       10,
		MaxRetries:      3,
		CleanupInterval: 1 * time.Hour,
		CleanupAge:      24 * time.Hour,
	}
}

// SyncSource reads the entities referenced by outbox items. *Tracker
// satisfies it.
type SyncSource interface {
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	GetProject(ctx context.Context, id string) (core.Project, error)
	BudgetSummary(ctx context.Context, projectID string) (core.BudgetSummary, error)
}

// SyncProcessor drains the outbox into the spreadsheet exporter.
type SyncProcessor struct {
	queue    ports.SyncQueue
	source   SyncSource
	exporter ports.Exporter
	config   SyncProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(
	queue ports.SyncQueue,
	source SyncSource,
	exporter ports.Exporter,
	config SyncProcessorConfig,
) *SyncProcessor {
	return &SyncProcessor{
		queue:    queue,
		source:   source,
		exporter: exporter,
		config:   config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stop, done := p.stopCh, p.doneCh
	p.mu.Unlock()

	// Reset any stale processing items from previous crashes
	if err := p.queue.ResetStaleProcessing(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to reset stale processing items", "error", err)
	}

	go p.runLoop(ctx, stop, done)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// runLoop is the main processing loop
func (p *SyncProcessor) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	cleanupTicker := time.NewTicker(p.config.CleanupInterval)
	defer cleanupTicker.Stop()

	// Process immediately on startup
	p.processBatch(ctx, stop)

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.processBatch(ctx, stop)
		case <-cleanupTicker.C:
			p.cleanupCompleted(ctx)
		}
	}
}

// processBatch processes a single batch of pending items
func (p *SyncProcessor) processBatch(ctx context.Context, stop <-chan struct{}) {
	items, err := p.queue.DequeueSyncBatch(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to dequeue sync batch", "error", err)
		return
	}

	if len(items) == 0 {
		return
	}

	slog.DebugContext(ctx, "Processing sync batch", "count", len(items))

	for _, item := range items {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := p.queue.MarkSyncProcessing(ctx, item.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark item as processing",
				"id", item.ID, "error", err)
			continue
		}

		if err := p.processItem(ctx, item); err != nil {
			p.handleFailure(ctx, item, err)
		} else {
			p.handleSuccess(ctx, item)
		}
	}
}

func (p *SyncProcessor) processItem(ctx context.Context, item ports.SyncItem) error {
	if p.exporter == nil {
		slog.WarnContext(ctx, "No exporter configured, skipping sync item",
			"id", item.ID, "entity", item.Entity)
		return nil
	}

	switch item.Entity {
	case ports.EntityExpense:
		switch item.Action {
		case ports.ActionSync:
			if err := p.syncExpense(ctx, item); err != nil {
				return err
			}
		case ports.ActionDelete:
			if err := p.exporter.DeleteExpense(ctx, item.EntityID); err != nil {
				return fmt.Errorf("delete expense row: %w", err)
			}
			slog.InfoContext(ctx, "Deleted expense from spreadsheet", "expense_id", item.EntityID)
		default:
			return fmt.Errorf("unknown action: %s", item.Action)
		}
		return p.writeBudget(ctx, item.ProjectID)
	case ports.EntityEstimate, ports.EntityBudget:
		return p.writeBudget(ctx, item.ProjectID)
	default:
		return fmt.Errorf("unknown entity: %s", item.Entity)
	}
}

// syncExpense appends the expense row. An expense deleted before the item
// was processed is skipped; its delete item follows in the queue.
func (p *SyncProcessor) syncExpense(ctx context.Context, item ports.SyncItem) error {
	e, err := p.source.GetExpense(ctx, item.EntityID)
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Expense gone before sync, skipping", "expense_id", item.EntityID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense %s: %w", item.EntityID, err)
	}

	ref, err := p.exporter.AppendExpense(ctx, e)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}
	slog.InfoContext(ctx, "Synced expense to spreadsheet",
		"expense_id", e.ID,
		"sheets_ref", ref)
	return nil
}

func (p *SyncProcessor) writeBudget(ctx context.Context, projectID string) error {
	proj, err := p.source.GetProject(ctx, projectID)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get project %s: %w", projectID, err)
	}
	summary, err := p.source.BudgetSummary(ctx, projectID)
	if err != nil {
		return fmt.Errorf("budget summary %s: %w", projectID, err)
	}
	if err := p.exporter.WriteBudget(ctx, proj, summary); err != nil {
		return fmt.Errorf("write budget: %w", err)
	}
	return nil
}

// handleSuccess marks an item as completed
func (p *SyncProcessor) handleSuccess(ctx context.Context, item ports.SyncItem) {
	if err := p.queue.MarkSyncComplete(ctx, item.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark sync complete",
			"id", item.ID, "error", err)
	}
}

// handleFailure handles a failed sync attempt with retry logic
func (p *SyncProcessor) handleFailure(ctx context.Context, item ports.SyncItem, processErr error) {
	slog.WarnContext(ctx, "Sync processing failed",
		"id", item.ID,
		"entity", item.Entity,
		"action", item.Action,
		"attempt", item.Attempts+1,
		"error", processErr)

	if item.Attempts+1 >= p.config.MaxRetries {
		if err := p.queue.MarkSyncFailed(ctx, item.ID, processErr.Error()); err != nil {
			slog.ErrorContext(ctx, "Failed to mark sync as failed",
				"id", item.ID, "error", err)
		}
		slog.ErrorContext(ctx, "Sync item failed permanently after max retries",
			"id", item.ID,
			"entity_id", item.EntityID,
			"attempts", item.Attempts+1)
		return
	}

	if err := p.queue.IncrementSyncAttempt(ctx, item.ID, processErr.Error()); err != nil {
		slog.ErrorContext(ctx, "Failed to increment sync attempt",
			"id", item.ID, "error", err)
	}
}

// cleanupCompleted removes old completed items
func (p *SyncProcessor) cleanupCompleted(ctx context.Context) {
	cutoff := time.Now().Add(-p.config.CleanupAge)
	if err := p.queue.CleanupCompletedSyncs(ctx, cutoff); err != nil {
		slog.ErrorContext(ctx, "Failed to cleanup completed syncs", "error", err)
	}
}

// Stats returns current queue statistics
func (p *SyncProcessor) Stats(ctx context.Context) (ports.SyncStats, error) {
	return p.queue.SyncQueueStats(ctx)
}

// RetryFailed resets all failed items for retry
func (p *SyncProcessor) RetryFailed(ctx context.Context) error {
	return p.queue.RetryFailedSyncs(ctx)
}

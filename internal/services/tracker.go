// Package services orchestrates the renovation tracker on top of the
// repository ports: derived budget figures, inspection checklists, the
// sync outbox and domain events.
package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"remont/internal/cache"
	"remont/internal/core"
	"remont/internal/ports"
)

// Tracker implements every tracker operation. Outbox, publisher and budget
// cache are optional.
type Tracker struct {
	repo      ports.Repository
	outbox    ports.Outbox
	publisher ports.Publisher
	budgets   cache.Cache[core.BudgetSummary]
	now       func() time.Time
}

type Option func(*Tracker)

// WithOutbox records expense, estimate and budget writes for the sync worker.
func WithOutbox(o ports.Outbox) Option {
	return func(t *Tracker) { t.outbox = o }
}

// WithPublisher publishes a domain event after each tracked write.
func WithPublisher(p ports.Publisher) Option {
	return func(t *Tracker) { t.publisher = p }
}

// WithBudgetCache caches budget summaries per project.
func WithBudgetCache(c cache.Cache[core.BudgetSummary]) Option {
	return func(t *Tracker) { t.budgets = c }
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func NewTracker(repo ports.Repository, opts ...Option) *Tracker {
	t := &Tracker{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) clock() time.Time {
	return t.now().UTC()
}

// Close closes the underlying repository.
func (t *Tracker) Close() error {
	if t.repo == nil {
		return nil
	}
	return t.repo.Close()
}

func (t *Tracker) invalidateBudget(projectID string) {
	if t.budgets != nil && projectID != "" {
		t.budgets.Delete(projectID)
	}
}

// afterWrite runs the side effects of a write. Failures are logged only:
// the write itself already succeeded.
func (t *Tracker) afterWrite(ctx context.Context, item *ports.SyncItem, ev ports.Event) {
	t.invalidateBudget(ev.ProjectID)

	if item != nil && t.outbox != nil {
		if err := t.outbox.Enqueue(ctx, *item); err != nil {
			slog.ErrorContext(ctx, "Failed to enqueue sync item",
				"entity", item.Entity,
				"entity_id", item.EntityID,
				"error", err)
		}
	}

	if t.publisher == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = t.clock()
	}
	if err := t.publisher.Publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish domain event",
			"event_type", ev.Type,
			"project_id", ev.ProjectID,
			"entity_id", ev.EntityID,
			"error", err)
	}
}

func syncItem(entity ports.SyncEntity, action ports.SyncAction, entityID, projectID string, snapshot any) *ports.SyncItem {
	item := &ports.SyncItem{
		Entity:    entity,
		Action:    action,
		EntityID:  entityID,
		ProjectID: projectID,
	}
	if snapshot != nil {
		if raw, err := json.Marshal(snapshot); err == nil {
			item.Payload = raw
		}
	}
	return item
}

package ports

import (
	"context"
	"time"

	"remont/internal/core"
)

type (
	SyncEntity string
	SyncAction string
	SyncStatus string
)

const (
	EntityExpense  SyncEntity = "expense"
	EntityEstimate SyncEntity = "estimate"
	EntityBudget   SyncEntity = "budget"

	ActionSync   SyncAction = "sync"
	ActionDelete SyncAction = "delete"

	StatusPending    SyncStatus = "pending"
	StatusProcessing SyncStatus = "processing"
	StatusCompleted  SyncStatus = "completed"
	StatusFailed     SyncStatus = "failed"
)

// SyncItem is one row of the outbox.
type SyncItem struct {
	ID        int64      `json:"id"`
	Entity    SyncEntity `json:"entity"`
	Action    SyncAction `json:"action"`
	EntityID  string     `json:"entityId"`
	ProjectID string     `json:"projectId"`
	// Payload is a JSON snapshot kept for deletes, when the entity row is gone.
	Payload   []byte     `json:"payload,omitempty"`
	Status    SyncStatus `json:"status"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"lastError,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type SyncStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}

// Outbox records entity changes to be mirrored outside the database.
type Outbox interface {
	Enqueue(ctx context.Context, item SyncItem) error
}

// SyncQueue is the consumer side of the outbox.
type SyncQueue interface {
	Outbox
	DequeueSyncBatch(ctx context.Context, limit int) ([]SyncItem, error)
	MarkSyncProcessing(ctx context.Context, id int64) error
	MarkSyncComplete(ctx context.Context, id int64) error
	MarkSyncFailed(ctx context.Context, id int64, lastErr string) error
	IncrementSyncAttempt(ctx context.Context, id int64, lastErr string) error
	CleanupCompletedSyncs(ctx context.Context, before time.Time) error
	ResetStaleProcessing(ctx context.Context) error
	SyncQueueStats(ctx context.Context) (SyncStats, error)
	RetryFailedSyncs(ctx context.Context) error
}

// Exporter mirrors expenses and budgets to an external spreadsheet.
type Exporter interface {
	AppendExpense(ctx context.Context, e core.Expense) (rowRef string, err error)
	DeleteExpense(ctx context.Context, expenseID string) error
	WriteBudget(ctx context.Context, p core.Project, s core.BudgetSummary) error
}

// EventType names a domain event published after a write.
type EventType string

const (
	EventExpenseCreated   EventType = "expense.created"
	EventExpenseDeleted   EventType = "expense.deleted"
	EventEstimateAccepted EventType = "estimate.accepted"
	EventBudgetChanged    EventType = "budget.changed"
)

type Event struct {
	Type       EventType `json:"type"`
	ProjectID  string    `json:"projectId"`
	EntityID   string    `json:"entityId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher sends domain events to a message broker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

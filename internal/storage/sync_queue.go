package storage

import (
	"context"
	"fmt"
	"time"

	"remont/internal/ports"
)

const syncColumns = `id, entity, action, entity_id, project_id, payload, status, attempts, last_error, created_at, updated_at`

func scanSyncItem(row interface{ Scan(...any) error }) (ports.SyncItem, error) {
	var (
		it                     ports.SyncItem
		entity, action, status string
		createdAt, updatedAt   string
	)
	err := row.Scan(&it.ID, &entity, &action, &it.EntityID, &it.ProjectID, &it.Payload, &status,
		&it.Attempts, &it.LastError, &createdAt, &updatedAt)
	if err != nil {
		return ports.SyncItem{}, err
	}
	it.Entity = ports.SyncEntity(entity)
	it.Action = ports.SyncAction(action)
	it.Status = ports.SyncStatus(status)
	if it.CreatedAt, err = parseTime(createdAt); err != nil {
		return ports.SyncItem{}, err
	}
	if it.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return ports.SyncItem{}, err
	}
	return it, nil
}

// Enqueue implements ports.Outbox
func (r *SQLiteRepository) Enqueue(ctx context.Context, item ports.SyncItem) error {
	now := formatTime(time.Now())
	_, err := r.db.ExecContext(ctx, `INSERT INTO sync_queue
		(entity, action, entity_id, project_id, payload, status, attempts, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'pending', 0, '', ?, ?)`,
		string(item.Entity), string(item.Action), item.EntityID, item.ProjectID, item.Payload, now, now)
	if err != nil {
		return fmt.Errorf("enqueue sync item: %w", err)
	}
	return nil
}

// DequeueSyncBatch returns up to limit pending items, oldest first.
func (r *SQLiteRepository) DequeueSyncBatch(ctx context.Context, limit int) ([]ports.SyncItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+syncColumns+` FROM sync_queue WHERE status = 'pending' ORDER BY created_at, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("dequeue sync batch: %w", err)
	}
	defer rows.Close()

	var out []ports.SyncItem
	for rows.Next() {
		it, err := scanSyncItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sync item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, id int64, status ports.SyncStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sync_queue SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("mark sync %s: %w", status, err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSyncProcessing(ctx context.Context, id int64) error {
	return r.setSyncStatus(ctx, id, ports.StatusProcessing)
}

func (r *SQLiteRepository) MarkSyncComplete(ctx context.Context, id int64) error {
	return r.setSyncStatus(ctx, id, ports.StatusCompleted)
}

// MarkSyncFailed marks an item as permanently failed.
func (r *SQLiteRepository) MarkSyncFailed(ctx context.Context, id int64, lastErr string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET status = 'failed', attempts = attempts + 1, last_error = ?, updated_at = ? WHERE id = ?`,
		lastErr, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("mark sync failed: %w", err)
	}
	return nil
}

// IncrementSyncAttempt records a failed attempt and puts the item back in the queue.
func (r *SQLiteRepository) IncrementSyncAttempt(ctx context.Context, id int64, lastErr string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET status = 'pending', attempts = attempts + 1, last_error = ?, updated_at = ? WHERE id = ?`,
		lastErr, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("increment sync attempt: %w", err)
	}
	return nil
}

// CleanupCompletedSyncs removes completed items last touched before the cutoff.
func (r *SQLiteRepository) CleanupCompletedSyncs(ctx context.Context, before time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sync_queue WHERE status = 'completed' AND updated_at < ?`, formatTime(before))
	if err != nil {
		return fmt.Errorf("cleanup completed syncs: %w", err)
	}
	return nil
}

// ResetStaleProcessing returns items left in processing by a crashed worker to pending.
func (r *SQLiteRepository) ResetStaleProcessing(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET status = 'pending', updated_at = ? WHERE status = 'processing'`, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("reset stale processing: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SyncQueueStats(ctx context.Context) (ports.SyncStats, error) {
	var s ports.SyncStats
	err := r.db.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'processing' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM sync_queue`).Scan(&s.Pending, &s.Processing, &s.Completed, &s.Failed)
	if err != nil {
		return ports.SyncStats{}, fmt.Errorf("sync queue stats: %w", err)
	}
	return s, nil
}

// RetryFailedSyncs resets failed items so they are picked up again.
func (r *SQLiteRepository) RetryFailedSyncs(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET status = 'pending', attempts = 0, last_error = '', updated_at = ? WHERE status = 'failed'`,
		formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("retry failed syncs: %w", err)
	}
	return nil
}

package memory

import (
	"context"
	"slices"
	"time"

	"remont/internal/ports"
)

func (s *Store) Enqueue(_ context.Context, item ports.SyncItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := time.Now()
	item.ID = s.nextID
	item.Status = ports.StatusPending
	item.Attempts = 0
	item.LastError = ""
	item.Payload = slices.Clone(item.Payload)
	item.CreatedAt = now
	item.UpdatedAt = now
	s.queue = append(s.queue, item)
	return nil
}

func (s *Store) DequeueSyncBatch(_ context.Context, limit int) ([]ports.SyncItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ports.SyncItem
	for _, it := range s.queue {
		if len(out) == limit {
			break
		}
		if it.Status == ports.StatusPending {
			out = append(out, it)
		}
	}
	return out, nil
}

// update applies fn to the item with the given id; unknown ids are ignored
// like an UPDATE matching no rows.
func (s *Store) update(id int64, fn func(*ports.SyncItem)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.queue {
		if s.queue[i].ID == id {
			fn(&s.queue[i])
			s.queue[i].UpdatedAt = time.Now()
			return
		}
	}
}

func (s *Store) MarkSyncProcessing(_ context.Context, id int64) error {
	s.update(id, func(it *ports.SyncItem) { it.Status = ports.StatusProcessing })
	return nil
}

func (s *Store) MarkSyncComplete(_ context.Context, id int64) error {
	s.update(id, func(it *ports.SyncItem) { it.Status = ports.StatusCompleted })
	return nil
}

func (s *Store) MarkSyncFailed(_ context.Context, id int64, lastErr string) error {
	s.update(id, func(it *ports.SyncItem) {
		it.Status = ports.StatusFailed
		it.Attempts++
		it.LastError = lastErr
	})
	return nil
}

func (s *Store) IncrementSyncAttempt(_ context.Context, id int64, lastErr string) error {
	s.update(id, func(it *ports.SyncItem) {
		it.Status = ports.StatusPending
		it.Attempts++
		it.LastError = lastErr
	})
	return nil
}

func (s *Store) CleanupCompletedSyncs(_ context.Context, before time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = slices.DeleteFunc(s.queue, func(it ports.SyncItem) bool {
		return it.Status == ports.StatusCompleted && it.UpdatedAt.Before(before)
	})
	return nil
}

func (s *Store) ResetStaleProcessing(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.queue {
		if s.queue[i].Status == ports.StatusProcessing {
			s.queue[i].Status = ports.StatusPending
		}
	}
	return nil
}

func (s *Store) SyncQueueStats(_ context.Context) (ports.SyncStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st ports.SyncStats
	for _, it := range s.queue {
		switch it.Status {
		case ports.StatusPending:
			st.Pending++
		case ports.StatusProcessing:
			st.Processing++
		case ports.StatusCompleted:
			st.Completed++
		case ports.StatusFailed:
			st.Failed++
		}
	}
	return st, nil
}

func (s *Store) RetryFailedSyncs(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.queue {
		if s.queue[i].Status == ports.StatusFailed {
			s.queue[i].Status = ports.StatusPending
			s.queue[i].Attempts = 0
			s.queue[i].LastError = ""
		}
	}
	return nil
}

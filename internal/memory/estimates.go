package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"remont/internal/core"
)

func cloneEstimate(e core.Estimate) core.Estimate {
	e.Items = slices.Clone(e.Items)
	return e
}

func (s *Store) ListEstimates(_ context.Context, sectionID string) ([]core.Estimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Estimate
	for _, e := range s.estimates {
		if e.SectionID == sectionID {
			out = append(out, cloneEstimate(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetEstimate(_ context.Context, id string) (core.Estimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.estimates[id]
	if !ok {
		return core.Estimate{}, notFound("estimate", id)
	}
	return cloneEstimate(e), nil
}

func (s *Store) CreateEstimate(_ context.Context, e core.Estimate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estimates[e.ID] = cloneEstimate(e)
	return nil
}

func (s *Store) UpdateEstimate(_ context.Context, e core.Estimate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.estimates[e.ID]
	if !ok {
		return notFound("estimate", e.ID)
	}
	e.IsAccepted = old.IsAccepted
	s.estimates[e.ID] = cloneEstimate(e)
	return nil
}

func (s *Store) AcceptEstimate(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.estimates[id]
	if !ok {
		return notFound("estimate", id)
	}
	for eid, e := range s.estimates {
		if e.SectionID != target.SectionID {
			continue
		}
		accept := eid == id
		if e.IsAccepted != accept {
			e.IsAccepted = accept
			e.UpdatedAt = at
			s.estimates[eid] = e
		}
	}
	return nil
}

func (s *Store) DeleteEstimate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.estimates[id]; !ok {
		return notFound("estimate", id)
	}
	delete(s.estimates, id)
	return nil
}

func (s *Store) AcceptedEstimates(_ context.Context, projectID string) (map[string]core.Estimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]core.Estimate)
	for _, e := range s.estimates {
		if e.ProjectID == projectID && e.IsAccepted {
			out[e.SectionID] = cloneEstimate(e)
		}
	}
	return out, nil
}

func (s *Store) ListExpenses(_ context.Context, projectID string) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date.Time) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Date.After(out[j].Date.Time)
	})
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, notFound("expense", id)
	}
	return e, nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return notFound("expense", id)
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) SpentBySection(_ context.Context, projectID string) (map[string]core.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]core.Money)
	for _, e := range s.expenses {
		if e.ProjectID == projectID {
			out[e.SectionID] = out[e.SectionID].Add(e.Amount)
		}
	}
	return out, nil
}

// Package memory is an in-process implementation of the repository and
// outbox ports. It is the default backend and backs most service tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"remont/internal/core"
	"remont/internal/ports"
)

type Store struct {
	mu          sync.RWMutex
	projects    map[string]core.Project
	sections    map[string]core.Section
	notes       map[string]core.Note
	estimates   map[string]core.Estimate
	expenses    map[string]core.Expense
	photos      map[string]core.InspectionPhoto
	suggestions map[string]core.Suggestion
	checklists  map[string]core.Checklist

	queue  []ports.SyncItem
	nextID int64
}

var (
	_ ports.Repository = (*Store)(nil)
	_ ports.SyncQueue  = (*Store)(nil)
)

func New() *Store {
	return &Store{
		projects:    make(map[string]core.Project),
		sections:    make(map[string]core.Section),
		notes:       make(map[string]core.Note),
		estimates:   make(map[string]core.Estimate),
		expenses:    make(map[string]core.Expense),
		photos:      make(map[string]core.InspectionPhoto),
		suggestions: make(map[string]core.Suggestion),
		checklists:  make(map[string]core.Checklist),
	}
}

func (s *Store) Close() error { return nil }

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, core.ErrNotFound)
}

// spent sums expenses of a project; caller holds the lock.
func (s *Store) spent(projectID string) core.Money {
	var total core.Money
	for _, e := range s.expenses {
		if e.ProjectID == projectID {
			total = total.Add(e.Amount)
		}
	}
	return total
}

func (s *Store) CreateProject(_ context.Context, p core.Project, sections []core.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; ok {
		return fmt.Errorf("project %s already exists", p.ID)
	}
	s.projects[p.ID] = p
	for _, sec := range sections {
		s.sections[sec.ID] = sec
	}
	return nil
}

func (s *Store) GetProject(_ context.Context, id string) (core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return core.Project{}, notFound("project", id)
	}
	p.BudgetSpent = s.spent(id)
	return p, nil
}

func (s *Store) ListProjects(_ context.Context) ([]core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Project, 0, len(s.projects))
	for _, p := range s.projects {
		p.BudgetSpent = s.spent(p.ID)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateProject(_ context.Context, p core.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.projects[p.ID]
	if !ok {
		return notFound("project", p.ID)
	}
	p.CreatedAt = old.CreatedAt
	s.projects[p.ID] = p
	return nil
}

func (s *Store) GetSection(_ context.Context, id string) (core.Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.sections[id]
	if !ok {
		return core.Section{}, notFound("section", id)
	}
	return sec, nil
}

func (s *Store) ListSections(_ context.Context, projectID string) ([]core.Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Section
	for _, sec := range s.sections {
		if sec.ProjectID == projectID {
			out = append(out, sec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type.Order() < out[j].Type.Order() })
	return out, nil
}

func (s *Store) UpdateSection(_ context.Context, sec core.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.sections[sec.ID]
	if !ok {
		return notFound("section", sec.ID)
	}
	old.Status = sec.Status
	old.Notes = sec.Notes
	old.Planned = sec.Planned
	old.UpdatedAt = sec.UpdatedAt
	s.sections[sec.ID] = old
	return nil
}

func cloneNote(n core.Note) core.Note {
	n.Tags = slices.Clone(n.Tags)
	n.Media = slices.Clone(n.Media)
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return n
}

func matchNote(n core.Note, q ports.NoteQuery) bool {
	if n.SectionID != q.SectionID {
		return false
	}
	if len(q.Tags) > 0 && !slices.ContainsFunc(n.Tags, func(t string) bool { return slices.Contains(q.Tags, t) }) {
		return false
	}
	if q.From != nil && n.CreatedAt.Before(*q.From) {
		return false
	}
	if q.To != nil && n.CreatedAt.After(*q.To) {
		return false
	}
	if q.HasMedia != nil && (len(n.Media) > 0) != *q.HasMedia {
		return false
	}
	return true
}

func (s *Store) ListNotes(_ context.Context, q ports.NoteQuery) ([]core.Note, int, error) {
	q = q.Normalize()
	s.mu.RLock()
	var matched []core.Note
	for _, n := range s.notes {
		if matchNote(n, q) {
			matched = append(matched, cloneNote(n))
		}
	}
	s.mu.RUnlock()

	key := func(n core.Note) time.Time {
		if q.SortBy == ports.SortByUpdatedAt {
			return n.UpdatedAt
		}
		return n.CreatedAt
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := key(matched[i]), key(matched[j])
		if a.Equal(b) {
			a2, b2 := matched[i].ID, matched[j].ID
			if q.Order == ports.SortAsc {
				return a2 < b2
			}
			return a2 > b2
		}
		if q.Order == ports.SortAsc {
			return a.Before(b)
		}
		return a.After(b)
	})

	total := len(matched)
	start := min(q.Offset(), total)
	end := min(start+q.PageSize, total)
	return matched[start:end], total, nil
}

func (s *Store) GetNote(_ context.Context, id string) (core.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	if !ok {
		return core.Note{}, notFound("note", id)
	}
	return cloneNote(n), nil
}

func (s *Store) CreateNote(_ context.Context, n core.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[n.ID] = cloneNote(n)
	return nil
}

func (s *Store) UpdateNote(_ context.Context, n core.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[n.ID]; !ok {
		return notFound("note", n.ID)
	}
	s.notes[n.ID] = cloneNote(n)
	return nil
}

func (s *Store) DeleteNote(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return notFound("note", id)
	}
	delete(s.notes, id)
	return nil
}

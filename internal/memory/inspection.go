package memory

import (
	"context"
	"maps"
	"slices"
	"sort"

	"remont/internal/core"
)

func cloneChecklist(c core.Checklist) core.Checklist {
	items := make([]core.ChecklistItem, len(c.Items))
	for i, it := range c.Items {
		it.PhotoIDs = slices.Clone(it.PhotoIDs)
		if it.CompletedAt != nil {
			t := *it.CompletedAt
			it.CompletedAt = &t
		}
		items[i] = it
	}
	c.Items = items
	return c
}

func (s *Store) GetChecklist(_ context.Context, projectID string) (core.Checklist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.projects[projectID]; !ok {
		return core.Checklist{}, notFound("project", projectID)
	}
	c, ok := s.checklists[projectID]
	if !ok {
		return core.Checklist{}, notFound("checklist for project", projectID)
	}
	return cloneChecklist(c), nil
}

func (s *Store) SaveChecklist(_ context.Context, projectID string, c core.Checklist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return notFound("project", projectID)
	}
	c.Recount()
	s.checklists[projectID] = cloneChecklist(c)
	p.ChecklistProgress = c.CompletedCount
	s.projects[projectID] = p
	return nil
}

func (s *Store) ListPhotos(_ context.Context, projectID string) ([]core.InspectionPhoto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.InspectionPhoto
	for _, p := range s.photos {
		if p.ProjectID == projectID {
			out = append(out, p)
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

func (s *Store) GetPhoto(_ context.Context, id string) (core.InspectionPhoto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.photos[id]
	if !ok {
		return core.InspectionPhoto{}, notFound("photo", id)
	}
	return p, nil
}

func (s *Store) CreatePhoto(_ context.Context, p core.InspectionPhoto) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos[p.ID] = p
	return nil
}

func (s *Store) DeletePhoto(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.photos[id]; !ok {
		return notFound("photo", id)
	}
	delete(s.photos, id)
	return nil
}

func (s *Store) ListSuggestions(_ context.Context, projectID string, includeDismissed bool) ([]core.Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Suggestion
	for _, sg := range s.suggestions {
		if sg.ProjectID != projectID || (sg.Dismissed && !includeDismissed) {
			continue
		}
		sg.Context = maps.Clone(sg.Context)
		out = append(out, sg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ShownAt.Equal(out[j].ShownAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].ShownAt.After(out[j].ShownAt)
	})
	return out, nil
}

func (s *Store) GetSuggestion(_ context.Context, id string) (core.Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sg, ok := s.suggestions[id]
	if !ok {
		return core.Suggestion{}, notFound("suggestion", id)
	}
	sg.Context = maps.Clone(sg.Context)
	return sg, nil
}

func (s *Store) CreateSuggestion(_ context.Context, sg core.Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sg.Context = maps.Clone(sg.Context)
	s.suggestions[sg.ID] = sg
	return nil
}

func (s *Store) DismissSuggestion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sg, ok := s.suggestions[id]
	if !ok {
		return notFound("suggestion", id)
	}
	sg.Dismissed = true
	s.suggestions[id] = sg
	return nil
}

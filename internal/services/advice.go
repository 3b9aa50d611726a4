package services

import (
	"context"
	"fmt"
	"strings"

	"remont/internal/advisor"
	"remont/internal/core"
)

// Questions returns the contractor questions for a section. Projects in old
// buildings get extra questions first.
func (t *Tracker) Questions(ctx context.Context, sectionID string) ([]advisor.Question, error) {
	sec, err := t.repo.GetSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	p, err := t.repo.GetProject(ctx, sec.ProjectID)
	if err != nil {
		return nil, err
	}
	return advisor.Questions(sec.Type, p.YearBuilt), nil
}

// RegenerateQuestions returns the same questions in a seed-determined order.
func (t *Tracker) RegenerateQuestions(ctx context.Context, sectionID string, seed uint64) ([]advisor.Question, error) {
	qs, err := t.Questions(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	return advisor.Shuffle(qs, seed), nil
}

// ListSuggestions returns a project's suggestions, newest first.
func (t *Tracker) ListSuggestions(ctx context.Context, projectID string, includeDismissed bool) ([]core.Suggestion, error) {
	if _, err := t.repo.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return t.repo.ListSuggestions(ctx, projectID, includeDismissed)
}

func (t *Tracker) AddSuggestion(ctx context.Context, projectID, text string, meta map[string]string) (core.Suggestion, error) {
	if _, err := t.repo.GetProject(ctx, projectID); err != nil {
		return core.Suggestion{}, err
	}
	s := core.Suggestion{
		ID:        core.NewID(),
		ProjectID: projectID,
		Text:      strings.TrimSpace(text),
		Context:   meta,
		ShownAt:   t.clock(),
	}
	if err := s.Validate(); err != nil {
		return core.Suggestion{}, err
	}
	if err := t.repo.CreateSuggestion(ctx, s); err != nil {
		return core.Suggestion{}, fmt.Errorf("create suggestion: %w", err)
	}
	return s, nil
}

func (t *Tracker) DismissSuggestion(ctx context.Context, id string) error {
	return t.repo.DismissSuggestion(ctx, id)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"remont/internal/core"
	"remont/internal/ports"
)

// ProjectPatch carries the editable project fields; nil means unchanged.
type ProjectPatch struct {
	Name          *string          `json:"name"`
	Address       *string          `json:"address"`
	Area          *float64         `json:"area"`
	Floor         *int             `json:"floor"`
	HasElevator   *bool            `json:"hasElevator"`
	MarketType    *core.MarketType `json:"marketType"`
	BudgetPlanned *core.Money      `json:"budgetPlanned"`
	FloorPlanURL  *string          `json:"floorPlanUrl"`
}

// SectionPatch carries the editable section fields; nil means unchanged.
type SectionPatch struct {
	Status  *core.SectionStatus `json:"status"`
	Notes   *string             `json:"notes"`
	Planned *core.Money         `json:"planned"`
}

// CreateProject stores a new project with one section per section type.
func (t *Tracker) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	now := t.clock()
	p.ID = core.NewID()
	p.Name = strings.TrimSpace(p.Name)
	p.Address = strings.TrimSpace(p.Address)
	p.BudgetSpent = core.Money{}
	p.ChecklistProgress = 0
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}

	types := core.SectionTypes()
	sections := make([]core.Section, 0, len(types))
	for _, st := range types {
		sections = append(sections, core.Section{
			ID:        core.NewID(),
			ProjectID: p.ID,
			Type:      st,
			Status:    core.StatusNotStarted,
			UpdatedAt: now,
		})
	}
	if err := t.repo.CreateProject(ctx, p, sections); err != nil {
		return core.Project{}, fmt.Errorf("create project: %w", err)
	}
	slog.InfoContext(ctx, "Project created", "project_id", p.ID, "name", p.Name)
	return p, nil
}

func (t *Tracker) GetProject(ctx context.Context, id string) (core.Project, error) {
	return t.repo.GetProject(ctx, id)
}

func (t *Tracker) ListProjects(ctx context.Context) ([]core.Project, error) {
	return t.repo.ListProjects(ctx)
}

func (t *Tracker) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (core.Project, error) {
	p, err := t.repo.GetProject(ctx, id)
	if err != nil {
		return core.Project{}, err
	}
	budgetChanged := false
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Address != nil {
		p.Address = strings.TrimSpace(*patch.Address)
	}
	if patch.Area != nil {
		p.Area = *patch.Area
	}
	if patch.Floor != nil {
		p.Floor = *patch.Floor
	}
	if patch.HasElevator != nil {
		p.HasElevator = *patch.HasElevator
	}
	if patch.MarketType != nil {
		p.MarketType = *patch.MarketType
	}
	if patch.FloorPlanURL != nil {
		p.FloorPlanURL = strings.TrimSpace(*patch.FloorPlanURL)
	}
	if patch.BudgetPlanned != nil && *patch.BudgetPlanned != p.BudgetPlanned {
		p.BudgetPlanned = *patch.BudgetPlanned
		budgetChanged = true
	}
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}
	p.UpdatedAt = t.clock()
	if err := t.repo.UpdateProject(ctx, p); err != nil {
		return core.Project{}, fmt.Errorf("update project: %w", err)
	}
	if budgetChanged {
		t.afterWrite(ctx,
			syncItem(ports.EntityBudget, ports.ActionSync, p.ID, p.ID, nil),
			ports.Event{Type: ports.EventBudgetChanged, ProjectID: p.ID, EntityID: p.ID})
	}
	return p, nil
}

// ListSections returns the sections of a project in canonical order.
func (t *Tracker) ListSections(ctx context.Context, projectID string) ([]core.Section, error) {
	if _, err := t.repo.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return t.repo.ListSections(ctx, projectID)
}

func (t *Tracker) GetSection(ctx context.Context, id string) (core.Section, error) {
	return t.repo.GetSection(ctx, id)
}

func (t *Tracker) UpdateSection(ctx context.Context, id string, patch SectionPatch) (core.Section, error) {
	s, err := t.repo.GetSection(ctx, id)
	if err != nil {
		return core.Section{}, err
	}
	plannedChanged := false
	if patch.Status != nil {
		s.Status = *patch.Status
	}
	if patch.Notes != nil {
		s.Notes = *patch.Notes
	}
	if patch.Planned != nil && *patch.Planned != s.Planned {
		s.Planned = *patch.Planned
		plannedChanged = true
	}
	if err := s.Validate(); err != nil {
		return core.Section{}, err
	}
	s.UpdatedAt = t.clock()
	if err := t.repo.UpdateSection(ctx, s); err != nil {
		return core.Section{}, fmt.Errorf("update section: %w", err)
	}
	if plannedChanged {
		t.afterWrite(ctx,
			syncItem(ports.EntityBudget, ports.ActionSync, s.ProjectID, s.ProjectID, nil),
			ports.Event{Type: ports.EventBudgetChanged, ProjectID: s.ProjectID, EntityID: s.ID})
	}
	return s, nil
}

// SetSectionPlanned sets the planned budget of a section and returns the
// refreshed project summary.
func (t *Tracker) SetSectionPlanned(ctx context.Context, sectionID string, amount core.Money) (core.BudgetSummary, error) {
	if amount.Cents < 0 {
		return core.BudgetSummary{}, &core.ValidationError{Field: "planned", Err: core.ErrInvalidAmount}
	}
	s, err := t.UpdateSection(ctx, sectionID, SectionPatch{Planned: &amount})
	if err != nil {
		return core.BudgetSummary{}, err
	}
	return t.BudgetSummary(ctx, s.ProjectID)
}

// BudgetSummary derives planned versus actual figures for a project.
func (t *Tracker) BudgetSummary(ctx context.Context, projectID string) (core.BudgetSummary, error) {
	if t.budgets != nil {
		if s, ok := t.budgets.Get(projectID); ok {
			return s, nil
		}
	}

	var in core.BudgetInput
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := t.repo.GetProject(gctx, projectID)
		in.Project = p
		return err
	})
	g.Go(func() error {
		s, err := t.repo.ListSections(gctx, projectID)
		in.Sections = s
		return err
	})
	g.Go(func() error {
		spent, err := t.repo.SpentBySection(gctx, projectID)
		in.SpentBySection = spent
		return err
	})
	g.Go(func() error {
		acc, err := t.repo.AcceptedEstimates(gctx, projectID)
		in.Accepted = acc
		return err
	})
	if err := g.Wait(); err != nil {
		return core.BudgetSummary{}, err
	}

	s := core.Summarize(in)
	if t.budgets != nil {
		t.budgets.Set(projectID, s)
	}
	return s, nil
}

// Dashboard is everything the project home screen shows.
type Dashboard struct {
	Project     core.Project       `json:"project"`
	Sections    []core.Section     `json:"sections"`
	Budget      core.BudgetSummary `json:"budget"`
	Checklist   *core.Checklist    `json:"checklist,omitempty"`
	Suggestions []core.Suggestion  `json:"suggestions"`
}

// Dashboard loads the project overview concurrently.
func (t *Tracker) Dashboard(ctx context.Context, projectID string) (Dashboard, error) {
	p, err := t.repo.GetProject(ctx, projectID)
	if err != nil {
		return Dashboard{}, err
	}
	d := Dashboard{Project: p}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := t.repo.ListSections(gctx, projectID)
		d.Sections = s
		return err
	})
	g.Go(func() error {
		b, err := t.BudgetSummary(gctx, projectID)
		d.Budget = b
		return err
	})
	g.Go(func() error {
		c, err := t.repo.GetChecklist(gctx, projectID)
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		d.Checklist = &c
		return nil
	})
	g.Go(func() error {
		s, err := t.repo.ListSuggestions(gctx, projectID, false)
		d.Suggestions = s
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("load dashboard: %w", err)
	}
	return d, nil
}

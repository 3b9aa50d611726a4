package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"remont/internal/core"
	"remont/internal/ports"
)

// ListEstimates returns a section's estimates, newest first.
func (t *Tracker) ListEstimates(ctx context.Context, sectionID string) ([]core.Estimate, error) {
	if _, err := t.repo.GetSection(ctx, sectionID); err != nil {
		return nil, err
	}
	return t.repo.ListEstimates(ctx, sectionID)
}

func (t *Tracker) GetEstimate(ctx context.Context, id string) (core.Estimate, error) {
	return t.repo.GetEstimate(ctx, id)
}

func normalizeItems(items []core.EstimateItem) []core.EstimateItem {
	out := make([]core.EstimateItem, 0, len(items))
	for _, it := range items {
		it = it.Normalize()
		it.Name = strings.TrimSpace(it.Name)
		if it.ID == "" {
			it.ID = core.NewID()
		}
		out = append(out, it)
	}
	return out
}

// CreateEstimate stores a contractor quote. A zero total is derived from
// the items.
func (t *Tracker) CreateEstimate(ctx context.Context, e core.Estimate) (core.Estimate, error) {
	sec, err := t.repo.GetSection(ctx, e.SectionID)
	if err != nil {
		return core.Estimate{}, err
	}
	now := t.clock()
	e.ID = core.NewID()
	e.ProjectID = sec.ProjectID
	e.ContractorName = strings.TrimSpace(e.ContractorName)
	e.Items = normalizeItems(e.Items)
	if e.TotalAmount.Cents == 0 && len(e.Items) > 0 {
		e.TotalAmount = e.ItemsTotal()
	}
	e.IsAccepted = false
	e.CreatedAt = now
	e.UpdatedAt = now
	if err := e.Validate(); err != nil {
		return core.Estimate{}, err
	}
	if err := t.repo.CreateEstimate(ctx, e); err != nil {
		return core.Estimate{}, fmt.Errorf("create estimate: %w", err)
	}
	return e, nil
}

// ReplaceEstimateItems swaps the line items and recomputes the total when
// items are present.
func (t *Tracker) ReplaceEstimateItems(ctx context.Context, id string, items []core.EstimateItem) (core.Estimate, error) {
	e, err := t.repo.GetEstimate(ctx, id)
	if err != nil {
		return core.Estimate{}, err
	}
	e.Items = normalizeItems(items)
	if len(e.Items) > 0 {
		e.TotalAmount = e.ItemsTotal()
	}
	if err := e.Validate(); err != nil {
		return core.Estimate{}, err
	}
	e.UpdatedAt = t.clock()
	if err := t.repo.UpdateEstimate(ctx, e); err != nil {
		return core.Estimate{}, fmt.Errorf("update estimate items: %w", err)
	}
	if e.IsAccepted {
		t.invalidateBudget(e.ProjectID)
	}
	return e, nil
}

// AcceptEstimate accepts one estimate; any other accepted estimate in the
// same section loses its acceptance.
func (t *Tracker) AcceptEstimate(ctx context.Context, id string) (core.Estimate, error) {
	now := t.clock()
	if err := t.repo.AcceptEstimate(ctx, id, now); err != nil {
		return core.Estimate{}, err
	}
	e, err := t.repo.GetEstimate(ctx, id)
	if err != nil {
		return core.Estimate{}, err
	}
	slog.InfoContext(ctx, "Estimate accepted",
		"estimate_id", e.ID,
		"section_id", e.SectionID,
		"contractor", e.ContractorName,
		"amount_cents", e.TotalAmount.Cents)
	t.afterWrite(ctx,
		syncItem(ports.EntityEstimate, ports.ActionSync, e.ID, e.ProjectID, nil),
		ports.Event{Type: ports.EventEstimateAccepted, ProjectID: e.ProjectID, EntityID: e.ID, OccurredAt: now})
	return e, nil
}

func (t *Tracker) DeleteEstimate(ctx context.Context, id string) error {
	e, err := t.repo.GetEstimate(ctx, id)
	if err != nil {
		return err
	}
	if err := t.repo.DeleteEstimate(ctx, id); err != nil {
		return err
	}
	if e.IsAccepted {
		t.afterWrite(ctx,
			syncItem(ports.EntityBudget, ports.ActionSync, e.ProjectID, e.ProjectID, nil),
			ports.Event{Type: ports.EventBudgetChanged, ProjectID: e.ProjectID, EntityID: e.SectionID})
	}
	return nil
}

// CompareEstimates compares up to core.MaxCompared estimates of a section.
// With no ids the first estimates of the section are used.
func (t *Tracker) CompareEstimates(ctx context.Context, sectionID string, ids []string) (core.Comparison, error) {
	all, err := t.ListEstimates(ctx, sectionID)
	if err != nil {
		return core.Comparison{}, err
	}
	return core.Compare(core.SelectForComparison(all, ids), len(all)), nil
}

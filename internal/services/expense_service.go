package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"remont/internal/core"
	"remont/internal/ports"
)

// ListExpenses returns a project's expenses, newest date first.
func (t *Tracker) ListExpenses(ctx context.Context, projectID string) ([]core.Expense, error) {
	if _, err := t.repo.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return t.repo.ListExpenses(ctx, projectID)
}

func (t *Tracker) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	return t.repo.GetExpense(ctx, id)
}

// CreateExpense saves an expense locally, then queues it for the spreadsheet
// and announces it. Only the local save can fail the call.
func (t *Tracker) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	sec, err := t.repo.GetSection(ctx, e.SectionID)
	if err != nil {
		return core.Expense{}, err
	}
	if e.ProjectID != "" && e.ProjectID != sec.ProjectID {
		return core.Expense{}, &core.ValidationError{Field: "sectionId", Err: core.ErrSectionProjectMismatch}
	}
	e.ID = core.NewID()
	e.ProjectID = sec.ProjectID
	e.Description = strings.TrimSpace(e.Description)
	e.CreatedAt = t.clock()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := t.repo.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense created",
		"expense_id", e.ID,
		"section", sec.Type,
		"amount_cents", e.Amount.Cents)

	t.afterWrite(ctx,
		syncItem(ports.EntityExpense, ports.ActionSync, e.ID, e.ProjectID, nil),
		ports.Event{Type: ports.EventExpenseCreated, ProjectID: e.ProjectID, EntityID: e.ID})
	return e, nil
}

// DeleteExpense removes an expense. The outbox keeps a snapshot so the
// spreadsheet row can still be located after the database row is gone.
func (t *Tracker) DeleteExpense(ctx context.Context, id string) error {
	e, err := t.repo.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if err := t.repo.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	t.afterWrite(ctx,
		syncItem(ports.EntityExpense, ports.ActionDelete, e.ID, e.ProjectID, e),
		ports.Event{Type: ports.EventExpenseDeleted, ProjectID: e.ProjectID, EntityID: e.ID})
	return nil
}

package storage

import (
	"context"
	"fmt"
	"log/slog"

	"remont/internal/core"
)

const expenseColumns = `id, section_id, project_id, description, amount, date, receipt_url, created_at`

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e               core.Expense
		date, createdAt string
	)
	if err := row.Scan(&e.ID, &e.SectionID, &e.ProjectID, &e.Description, &e.Amount.Cents, &date, &e.ReceiptURL, &createdAt); err != nil {
		return core.Expense{}, err
	}
	var err error
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.Expense{}, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// ListExpenses implements ports.ExpenseRepository
func (r *SQLiteRepository) ListExpenses(ctx context.Context, projectID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE project_id = ? ORDER BY date DESC, created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetExpense implements ports.ExpenseRepository
func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id))
	if err != nil {
		return core.Expense{}, notFound(err, "expense", id)
	}
	return e, nil
}

// CreateExpense implements ports.ExpenseRepository
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO expenses
		(id, section_id, project_id, description, amount, date, receipt_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SectionID, e.ProjectID, e.Description, e.Amount.Cents, e.Date.String(), e.ReceiptURL,
		formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())
	return nil
}

// DeleteExpense implements ports.ExpenseRepository
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return mustAffect(res, "expense", id)
}

// SpentBySection implements ports.ExpenseRepository
func (r *SQLiteRepository) SpentBySection(ctx context.Context, projectID string) (map[string]core.Money, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT section_id, SUM(amount) FROM expenses WHERE project_id = ? GROUP BY section_id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("sum expenses: %w", err)
	}
	defer rows.Close()

	out := make(map[string]core.Money)
	for rows.Next() {
		var (
			sectionID string
			cents     int64
		)
		if err := rows.Scan(&sectionID, &cents); err != nil {
			return nil, err
		}
		out[sectionID] = core.Money{Cents: cents}
	}
	return out, rows.Err()
}

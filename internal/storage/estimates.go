package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"remont/internal/core"
)

const estimateColumns = `id, section_id, project_id, contractor_name, file_url, total_amount, items, is_accepted, created_at, updated_at`

func scanEstimate(row interface{ Scan(...any) error }) (core.Estimate, error) {
	var (
		e                    core.Estimate
		items                string
		accepted             int
		createdAt, updatedAt string
	)
	err := row.Scan(&e.ID, &e.SectionID, &e.ProjectID, &e.ContractorName, &e.FileURL,
		&e.TotalAmount.Cents, &items, &accepted, &createdAt, &updatedAt)
	if err != nil {
		return core.Estimate{}, err
	}
	if err := json.Unmarshal([]byte(items), &e.Items); err != nil {
		return core.Estimate{}, fmt.Errorf("decode items: %w", err)
	}
	e.IsAccepted = accepted == 1
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Estimate{}, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Estimate{}, err
	}
	return e, nil
}

func queryEstimates(ctx context.Context, q queryer, query string, args ...any) ([]core.Estimate, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query estimates: %w", err)
	}
	defer rows.Close()

	var out []core.Estimate
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan estimate: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func encodeItems(items []core.EstimateItem) (string, error) {
	if items == nil {
		items = []core.EstimateItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode items: %w", err)
	}
	return string(b), nil
}

// ListEstimates implements ports.EstimateRepository
func (r *SQLiteRepository) ListEstimates(ctx context.Context, sectionID string) ([]core.Estimate, error) {
	return queryEstimates(ctx, r.db,
		`SELECT `+estimateColumns+` FROM estimates WHERE section_id = ? ORDER BY created_at DESC, id DESC`, sectionID)
}

// GetEstimate implements ports.EstimateRepository
func (r *SQLiteRepository) GetEstimate(ctx context.Context, id string) (core.Estimate, error) {
	e, err := scanEstimate(r.db.QueryRowContext(ctx, `SELECT `+estimateColumns+` FROM estimates WHERE id = ?`, id))
	if err != nil {
		return core.Estimate{}, notFound(err, "estimate", id)
	}
	return e, nil
}

// CreateEstimate implements ports.EstimateRepository
func (r *SQLiteRepository) CreateEstimate(ctx context.Context, e core.Estimate) error {
	items, err := encodeItems(e.Items)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO estimates
		(id, section_id, project_id, contractor_name, file_url, total_amount, items, is_accepted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SectionID, e.ProjectID, e.ContractorName, e.FileURL, e.TotalAmount.Cents, items,
		boolInt(e.IsAccepted), formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert estimate: %w", err)
	}
	return nil
}

// UpdateEstimate implements ports.EstimateRepository. Acceptance is only
// changed through AcceptEstimate.
func (r *SQLiteRepository) UpdateEstimate(ctx context.Context, e core.Estimate) error {
	items, err := encodeItems(e.Items)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE estimates SET
		contractor_name = ?, file_url = ?, total_amount = ?, items = ?, updated_at = ?
		WHERE id = ?`,
		e.ContractorName, e.FileURL, e.TotalAmount.Cents, items, formatTime(e.UpdatedAt), e.ID)
	if err != nil {
		return fmt.Errorf("update estimate: %w", err)
	}
	return mustAffect(res, "estimate", e.ID)
}

// AcceptEstimate implements ports.EstimateRepository
func (r *SQLiteRepository) AcceptEstimate(ctx context.Context, id string, at time.Time) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var sectionID string
		if err := tx.QueryRowContext(ctx, `SELECT section_id FROM estimates WHERE id = ?`, id).Scan(&sectionID); err != nil {
			return notFound(err, "estimate", id)
		}
		ts := formatTime(at)
		if _, err := tx.ExecContext(ctx,
			`UPDATE estimates SET is_accepted = 0, updated_at = ? WHERE section_id = ? AND id <> ? AND is_accepted = 1`,
			ts, sectionID, id); err != nil {
			return fmt.Errorf("clear accepted estimates: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE estimates SET is_accepted = 1, updated_at = ? WHERE id = ?`, ts, id); err != nil {
			return fmt.Errorf("accept estimate: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Estimate accepted", "id", id)
	return nil
}

// DeleteEstimate implements ports.EstimateRepository
func (r *SQLiteRepository) DeleteEstimate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM estimates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete estimate: %w", err)
	}
	return mustAffect(res, "estimate", id)
}

// AcceptedEstimates implements ports.EstimateRepository
func (r *SQLiteRepository) AcceptedEstimates(ctx context.Context, projectID string) (map[string]core.Estimate, error) {
	list, err := queryEstimates(ctx, r.db,
		`SELECT `+estimateColumns+` FROM estimates WHERE project_id = ? AND is_accepted = 1`, projectID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]core.Estimate, len(list))
	for _, e := range list {
		out[e.SectionID] = e
	}
	return out, nil
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"remont/internal/core"
)

const suggestionColumns = `id, project_id, text, context, shown_at, dismissed`

func scanSuggestion(row interface{ Scan(...any) error }) (core.Suggestion, error) {
	var (
		s               core.Suggestion
		rawCtx, shownAt string
		dismissed       int
	)
	if err := row.Scan(&s.ID, &s.ProjectID, &s.Text, &rawCtx, &shownAt, &dismissed); err != nil {
		return core.Suggestion{}, err
	}
	if err := json.Unmarshal([]byte(rawCtx), &s.Context); err != nil {
		return core.Suggestion{}, fmt.Errorf("decode context: %w", err)
	}
	s.Dismissed = dismissed == 1
	var err error
	s.ShownAt, err = parseTime(shownAt)
	return s, err
}

// ListSuggestions implements ports.SuggestionRepository
func (r *SQLiteRepository) ListSuggestions(ctx context.Context, projectID string, includeDismissed bool) ([]core.Suggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE project_id = ?`
	if !includeDismissed {
		query += ` AND dismissed = 0`
	}
	query += ` ORDER BY shown_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	var out []core.Suggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSuggestion implements ports.SuggestionRepository
func (r *SQLiteRepository) GetSuggestion(ctx context.Context, id string) (core.Suggestion, error) {
	s, err := scanSuggestion(r.db.QueryRowContext(ctx, `SELECT `+suggestionColumns+` FROM suggestions WHERE id = ?`, id))
	if err != nil {
		return core.Suggestion{}, notFound(err, "suggestion", id)
	}
	return s, nil
}

// CreateSuggestion implements ports.SuggestionRepository
func (r *SQLiteRepository) CreateSuggestion(ctx context.Context, s core.Suggestion) error {
	ctxMap := s.Context
	if ctxMap == nil {
		ctxMap = map[string]string{}
	}
	raw, err := json.Marshal(ctxMap)
	if err != nil {
		return fmt.Errorf("encode context: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO suggestions (id, project_id, text, context, shown_at, dismissed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.ProjectID, s.Text, string(raw), formatTime(s.ShownAt), boolInt(s.Dismissed))
	if err != nil {
		return fmt.Errorf("insert suggestion: %w", err)
	}
	return nil
}

// DismissSuggestion implements ports.SuggestionRepository
func (r *SQLiteRepository) DismissSuggestion(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE suggestions SET dismissed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("dismiss suggestion: %w", err)
	}
	return mustAffect(res, "suggestion", id)
}

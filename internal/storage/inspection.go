package storage

import (
	"context"
	"fmt"

	"remont/internal/core"
)

const photoColumns = `id, project_id, photo_url, thumbnail_url, checklist_item_id, created_at`

func scanPhoto(row interface{ Scan(...any) error }) (core.InspectionPhoto, error) {
	var (
		p         core.InspectionPhoto
		createdAt string
	)
	if err := row.Scan(&p.ID, &p.ProjectID, &p.PhotoURL, &p.ThumbnailURL, &p.ChecklistItemID, &createdAt); err != nil {
		return core.InspectionPhoto{}, err
	}
	var err error
	p.CreatedAt, err = parseTime(createdAt)
	return p, err
}

// ListPhotos implements ports.InspectionRepository
func (r *SQLiteRepository) ListPhotos(ctx context.Context, projectID string) ([]core.InspectionPhoto, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+photoColumns+` FROM inspection_photos WHERE project_id = ? ORDER BY created_at DESC, id DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var out []core.InspectionPhoto
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPhoto implements ports.InspectionRepository
func (r *SQLiteRepository) GetPhoto(ctx context.Context, id string) (core.InspectionPhoto, error) {
	p, err := scanPhoto(r.db.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM inspection_photos WHERE id = ?`, id))
	if err != nil {
		return core.InspectionPhoto{}, notFound(err, "photo", id)
	}
	return p, nil
}

// CreatePhoto implements ports.InspectionRepository
func (r *SQLiteRepository) CreatePhoto(ctx context.Context, p core.InspectionPhoto) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO inspection_photos
		(id, project_id, photo_url, thumbnail_url, checklist_item_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.ProjectID, p.PhotoURL, p.ThumbnailURL, p.ChecklistItemID, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}

// DeletePhoto implements ports.InspectionRepository
func (r *SQLiteRepository) DeletePhoto(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM inspection_photos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return mustAffect(res, "photo", id)
}

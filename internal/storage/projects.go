package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"remont/internal/core"
)

const projectColumns = `p.id, p.user_id, p.name, p.address, p.area, p.floor, p.has_elevator,
	p.market_type, p.budget_planned, p.year_built, p.has_parking, p.floor_plan_url,
	p.checklist_progress, p.created_at, p.updated_at,
	COALESCE((SELECT SUM(e.amount) FROM expenses e WHERE e.project_id = p.id), 0)`

func scanProject(row interface{ Scan(...any) error }) (core.Project, error) {
	var (
		p                    core.Project
		elevator, parking    int
		market               string
		createdAt, updatedAt string
	)
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Address, &p.Area, &p.Floor, &elevator,
		&market, &p.BudgetPlanned.Cents, &p.YearBuilt, &parking, &p.FloorPlanURL,
		&p.ChecklistProgress, &createdAt, &updatedAt, &p.BudgetSpent.Cents)
	if err != nil {
		return core.Project{}, err
	}
	p.HasElevator = elevator == 1
	p.HasParking = parking == 1
	p.MarketType = core.MarketType(market)
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Project{}, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Project{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return p, nil
}

// CreateProject implements ports.ProjectRepository
func (r *SQLiteRepository) CreateProject(ctx context.Context, p core.Project, sections []core.Section) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO projects
			(id, user_id, name, address, area, floor, has_elevator, market_type, budget_planned,
			 year_built, has_parking, floor_plan_url, checklist_progress, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.UserID, p.Name, p.Address, p.Area, p.Floor, boolInt(p.HasElevator), string(p.MarketType),
			p.BudgetPlanned.Cents, p.YearBuilt, boolInt(p.HasParking), p.FloorPlanURL, p.ChecklistProgress,
			formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		for _, s := range sections {
			_, err := tx.ExecContext(ctx, `INSERT INTO sections
				(id, project_id, type, position, status, notes, planned, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				s.ID, s.ProjectID, string(s.Type), s.Type.Order(), string(s.Status), s.Notes,
				s.Planned.Cents, formatTime(s.UpdatedAt))
			if err != nil {
				return fmt.Errorf("insert section %s: %w", s.Type, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Project saved to SQLite", "id", p.ID, "sections", len(sections))
	return nil
}

// GetProject implements ports.ProjectRepository
func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (core.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`, id)
	p, err := scanProject(row)
	if err != nil {
		return core.Project{}, notFound(err, "project", id)
	}
	return p, nil
}

// ListProjects implements ports.ProjectRepository
func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects p ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []core.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateProject implements ports.ProjectRepository
func (r *SQLiteRepository) UpdateProject(ctx context.Context, p core.Project) error {
	res, err := r.db.ExecContext(ctx, `UPDATE projects SET
		name = ?, address = ?, area = ?, floor = ?, has_elevator = ?, market_type = ?,
		budget_planned = ?, year_built = ?, has_parking = ?, floor_plan_url = ?,
		checklist_progress = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Address, p.Area, p.Floor, boolInt(p.HasElevator), string(p.MarketType),
		p.BudgetPlanned.Cents, p.YearBuilt, boolInt(p.HasParking), p.FloorPlanURL,
		p.ChecklistProgress, formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return mustAffect(res, "project", p.ID)
}

const sectionColumns = `id, project_id, type, status, notes, planned, updated_at`

func scanSection(row interface{ Scan(...any) error }) (core.Section, error) {
	var (
		s                core.Section
		typ, status, upd string
	)
	if err := row.Scan(&s.ID, &s.ProjectID, &typ, &status, &s.Notes, &s.Planned.Cents, &upd); err != nil {
		return core.Section{}, err
	}
	s.Type = core.SectionType(typ)
	s.Status = core.SectionStatus(status)
	var err error
	if s.UpdatedAt, err = parseTime(upd); err != nil {
		return core.Section{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return s, nil
}

// GetSection implements ports.SectionRepository
func (r *SQLiteRepository) GetSection(ctx context.Context, id string) (core.Section, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sectionColumns+` FROM sections WHERE id = ?`, id)
	s, err := scanSection(row)
	if err != nil {
		return core.Section{}, notFound(err, "section", id)
	}
	return s, nil
}

// ListSections implements ports.SectionRepository
func (r *SQLiteRepository) ListSections(ctx context.Context, projectID string) ([]core.Section, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE project_id = ? ORDER BY position`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var out []core.Section
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateSection implements ports.SectionRepository
func (r *SQLiteRepository) UpdateSection(ctx context.Context, s core.Section) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sections SET status = ?, notes = ?, planned = ?, updated_at = ? WHERE id = ?`,
		string(s.Status), s.Notes, s.Planned.Cents, formatTime(s.UpdatedAt), s.ID)
	if err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	return mustAffect(res, "section", s.ID)
}

// GetChecklist implements ports.InspectionRepository
func (r *SQLiteRepository) GetChecklist(ctx context.Context, projectID string) (core.Checklist, error) {
	var raw sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT checklist FROM projects WHERE id = ?`, projectID).Scan(&raw)
	if err != nil {
		return core.Checklist{}, notFound(err, "project", projectID)
	}
	if !raw.Valid || raw.String == "" {
		return core.Checklist{}, fmt.Errorf("checklist for project %s: %w", projectID, core.ErrNotFound)
	}
	var c core.Checklist
	if err := json.Unmarshal([]byte(raw.String), &c); err != nil {
		return core.Checklist{}, fmt.Errorf("decode checklist: %w", err)
	}
	c.Recount()
	return c, nil
}

// SaveChecklist implements ports.InspectionRepository. The project's
// checklist progress column is kept equal to the completed count.
func (r *SQLiteRepository) SaveChecklist(ctx context.Context, projectID string, c core.Checklist) error {
	c.Recount()
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode checklist: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET checklist = ?, checklist_progress = ? WHERE id = ?`,
		string(raw), c.CompletedCount, projectID)
	if err != nil {
		return fmt.Errorf("save checklist: %w", err)
	}
	return mustAffect(res, "project", projectID)
}

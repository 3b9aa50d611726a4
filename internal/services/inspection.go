package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"remont/internal/advisor"
	"remont/internal/core"
)

// ChecklistItemPatch updates one checklist item; nil means unchanged.
type ChecklistItemPatch struct {
	Completed *bool   `json:"completed"`
	Notes     *string `json:"notes"`
}

func propertyData(p core.Project) core.PropertyData {
	return core.PropertyData{
		Area:        p.Area,
		Year:        p.YearBuilt,
		Floor:       p.Floor,
		HasElevator: p.HasElevator,
		HasParking:  p.HasParking,
		MarketType:  p.MarketType,
	}
}

// SavePropertyData stores the property details on the project and
// regenerates its inspection checklist.
func (t *Tracker) SavePropertyData(ctx context.Context, projectID string, d core.PropertyData) (core.Project, core.Checklist, error) {
	if err := d.Validate(); err != nil {
		return core.Project{}, core.Checklist{}, err
	}
	p, err := t.repo.GetProject(ctx, projectID)
	if err != nil {
		return core.Project{}, core.Checklist{}, err
	}
	p.Area = d.Area
	p.YearBuilt = d.Year
	p.Floor = d.Floor
	p.HasElevator = d.HasElevator
	p.HasParking = d.HasParking
	p.MarketType = d.MarketType
	p.UpdatedAt = t.clock()
	if err := t.repo.UpdateProject(ctx, p); err != nil {
		return core.Project{}, core.Checklist{}, fmt.Errorf("save property data: %w", err)
	}

	c := advisor.GenerateChecklist(d, t.clock())
	if err := t.repo.SaveChecklist(ctx, projectID, c); err != nil {
		return core.Project{}, core.Checklist{}, fmt.Errorf("save checklist: %w", err)
	}
	p.ChecklistProgress = c.CompletedCount
	return p, c, nil
}

// GenerateChecklist rebuilds the checklist from the stored property data.
// Previous completion state is discarded.
func (t *Tracker) GenerateChecklist(ctx context.Context, projectID string) (core.Checklist, error) {
	p, err := t.repo.GetProject(ctx, projectID)
	if err != nil {
		return core.Checklist{}, err
	}
	d := propertyData(p)
	if err := d.Validate(); err != nil {
		return core.Checklist{}, err
	}
	c := advisor.GenerateChecklist(d, t.clock())
	if err := t.repo.SaveChecklist(ctx, projectID, c); err != nil {
		return core.Checklist{}, fmt.Errorf("save checklist: %w", err)
	}
	return c, nil
}

func (t *Tracker) GetChecklist(ctx context.Context, projectID string) (core.Checklist, error) {
	if _, err := t.repo.GetProject(ctx, projectID); err != nil {
		return core.Checklist{}, err
	}
	return t.repo.GetChecklist(ctx, projectID)
}

func (t *Tracker) UpdateChecklistItem(ctx context.Context, projectID, itemID string, patch ChecklistItemPatch) (core.Checklist, error) {
	c, err := t.GetChecklist(ctx, projectID)
	if err != nil {
		return core.Checklist{}, err
	}
	if _, ok := c.Item(itemID); !ok {
		return core.Checklist{}, fmt.Errorf("checklist item %s: %w", itemID, core.ErrNotFound)
	}
	if patch.Completed != nil {
		if err := c.Toggle(itemID, *patch.Completed, t.clock()); err != nil {
			return core.Checklist{}, err
		}
	}
	if patch.Notes != nil {
		if err := c.SetNotes(itemID, *patch.Notes); err != nil {
			return core.Checklist{}, err
		}
	}
	if err := t.repo.SaveChecklist(ctx, projectID, c); err != nil {
		return core.Checklist{}, fmt.Errorf("save checklist: %w", err)
	}
	return c, nil
}

// AddPhoto stores an inspection photo, optionally linked to a checklist item.
func (t *Tracker) AddPhoto(ctx context.Context, p core.InspectionPhoto) (core.InspectionPhoto, error) {
	if _, err := t.repo.GetProject(ctx, p.ProjectID); err != nil {
		return core.InspectionPhoto{}, err
	}
	p.ID = core.NewID()
	p.PhotoURL = strings.TrimSpace(p.PhotoURL)
	p.CreatedAt = t.clock()
	if err := p.Validate(); err != nil {
		return core.InspectionPhoto{}, err
	}

	var c core.Checklist
	if p.ChecklistItemID != "" {
		var err error
		c, err = t.repo.GetChecklist(ctx, p.ProjectID)
		if err != nil {
			return core.InspectionPhoto{}, err
		}
		if err := c.AttachPhoto(p.ChecklistItemID, p.ID); err != nil {
			return core.InspectionPhoto{}, &core.ValidationError{Field: "checklistItemId", Err: err}
		}
	}

	if err := t.repo.CreatePhoto(ctx, p); err != nil {
		return core.InspectionPhoto{}, fmt.Errorf("create photo: %w", err)
	}
	if p.ChecklistItemID != "" {
		if err := t.repo.SaveChecklist(ctx, p.ProjectID, c); err != nil {
			return core.InspectionPhoto{}, fmt.Errorf("link photo: %w", err)
		}
	}
	return p, nil
}

// ListPhotos returns a project's inspection photos, newest first.
func (t *Tracker) ListPhotos(ctx context.Context, projectID string) ([]core.InspectionPhoto, error) {
	if _, err := t.repo.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return t.repo.ListPhotos(ctx, projectID)
}

// DeletePhoto removes a photo and unlinks it from the checklist.
func (t *Tracker) DeletePhoto(ctx context.Context, id string) error {
	p, err := t.repo.GetPhoto(ctx, id)
	if err != nil {
		return err
	}
	if err := t.repo.DeletePhoto(ctx, id); err != nil {
		return err
	}
	c, err := t.repo.GetChecklist(ctx, p.ProjectID)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	c.DetachPhoto(id)
	return t.repo.SaveChecklist(ctx, p.ProjectID, c)
}

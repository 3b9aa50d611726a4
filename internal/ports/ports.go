// Package ports declares the interfaces between the tracker services and
// their adapters: repositories, the sync outbox, the spreadsheet exporter
// and the event publisher.
package ports

import (
	"context"
	"time"

	"remont/internal/core"
)

type (
	ProjectRepository interface {
		// CreateProject stores the project together with its sections.
		CreateProject(ctx context.Context, p core.Project, sections []core.Section) error
		GetProject(ctx context.Context, id string) (core.Project, error)
		ListProjects(ctx context.Context) ([]core.Project, error)
		UpdateProject(ctx context.Context, p core.Project) error
	}

	SectionRepository interface {
		GetSection(ctx context.Context, id string) (core.Section, error)
		ListSections(ctx context.Context, projectID string) ([]core.Section, error)
		UpdateSection(ctx context.Context, s core.Section) error
	}

	NoteRepository interface {
		// ListNotes returns one page of notes and the total number of notes
		// matching the query.
		ListNotes(ctx context.Context, q NoteQuery) ([]core.Note, int, error)
		GetNote(ctx context.Context, id string) (core.Note, error)
		CreateNote(ctx context.Context, n core.Note) error
		UpdateNote(ctx context.Context, n core.Note) error
		DeleteNote(ctx context.Context, id string) error
	}

	EstimateRepository interface {
		ListEstimates(ctx context.Context, sectionID string) ([]core.Estimate, error)
		GetEstimate(ctx context.Context, id string) (core.Estimate, error)
		CreateEstimate(ctx context.Context, e core.Estimate) error
		UpdateEstimate(ctx context.Context, e core.Estimate) error
		// AcceptEstimate marks the estimate accepted and clears acceptance of
		// every other estimate in the same section.
		AcceptEstimate(ctx context.Context, id string, at time.Time) error
		DeleteEstimate(ctx context.Context, id string) error
		// AcceptedEstimates maps section id to the accepted estimate.
		AcceptedEstimates(ctx context.Context, projectID string) (map[string]core.Estimate, error)
	}

	ExpenseRepository interface {
		ListExpenses(ctx context.Context, projectID string) ([]core.Expense, error)
		GetExpense(ctx context.Context, id string) (core.Expense, error)
		CreateExpense(ctx context.Context, e core.Expense) error
		DeleteExpense(ctx context.Context, id string) error
		// SpentBySection maps section id to the sum of its expenses.
		SpentBySection(ctx context.Context, projectID string) (map[string]core.Money, error)
	}

	InspectionRepository interface {
		// GetChecklist returns core.ErrNotFound when no checklist was generated.
		GetChecklist(ctx context.Context, projectID string) (core.Checklist, error)
		SaveChecklist(ctx context.Context, projectID string, c core.Checklist) error
		ListPhotos(ctx context.Context, projectID string) ([]core.InspectionPhoto, error)
		GetPhoto(ctx context.Context, id string) (core.InspectionPhoto, error)
		CreatePhoto(ctx context.Context, p core.InspectionPhoto) error
		DeletePhoto(ctx context.Context, id string) error
	}

	SuggestionRepository interface {
		ListSuggestions(ctx context.Context, projectID string, includeDismissed bool) ([]core.Suggestion, error)
		GetSuggestion(ctx context.Context, id string) (core.Suggestion, error)
		CreateSuggestion(ctx context.Context, s core.Suggestion) error
		DismissSuggestion(ctx context.Context, id string) error
	}

	// Repository is everything the tracker service persists.
	Repository interface {
		ProjectRepository
		SectionRepository
		NoteRepository
		EstimateRepository
		ExpenseRepository
		InspectionRepository
		SuggestionRepository
		Close() error
	}
)

// SortField and SortOrder select note ordering.
type (
	SortField string
	SortOrder string
)

const (
	SortByCreatedAt SortField = "created_at"
	SortByUpdatedAt SortField = "updated_at"

	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const DefaultPageSize = 20

// NoteQuery selects a page of notes in one section.
type NoteQuery struct {
	SectionID string
	Page      int
	PageSize  int
	// Tags matches notes carrying any of the given tags.
	Tags     []string
	From     *time.Time
	To       *time.Time
	HasMedia *bool
	SortBy   SortField
	Order    SortOrder
}

// Normalize applies defaults: first page, DefaultPageSize, newest first.
func (q NoteQuery) Normalize() NoteQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
	if q.SortBy != SortByUpdatedAt {
		q.SortBy = SortByCreatedAt
	}
	if q.Order != SortAsc {
		q.Order = SortDesc
	}
	q.Tags = core.NormalizeTags(q.Tags)
	return q
}

// Offset is the zero-based index of the first row of the page.
func (q NoteQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

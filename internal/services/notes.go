package services

import (
	"context"
	"fmt"
	"strings"

	"remont/internal/core"
	"remont/internal/ports"
)

// NotePage is one page of a section's notes.
type NotePage struct {
	Data     []core.Note `json:"data"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
	HasMore  bool        `json:"hasMore"`
}

// NotePatch replaces content and/or tags; nil means unchanged.
type NotePatch struct {
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

func (t *Tracker) ListNotes(ctx context.Context, q ports.NoteQuery) (NotePage, error) {
	if _, err := t.repo.GetSection(ctx, q.SectionID); err != nil {
		return NotePage{}, err
	}
	q = q.Normalize()
	notes, total, err := t.repo.ListNotes(ctx, q)
	if err != nil {
		return NotePage{}, fmt.Errorf("list notes: %w", err)
	}
	if notes == nil {
		notes = []core.Note{}
	}
	return NotePage{
		Data:     notes,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
		HasMore:  q.Offset()+len(notes) < total,
	}, nil
}

func (t *Tracker) GetNote(ctx context.Context, id string) (core.Note, error) {
	return t.repo.GetNote(ctx, id)
}

// CreateNote adds a note to the section named by n.SectionID.
func (t *Tracker) CreateNote(ctx context.Context, n core.Note) (core.Note, error) {
	sec, err := t.repo.GetSection(ctx, n.SectionID)
	if err != nil {
		return core.Note{}, err
	}
	now := t.clock()
	n.ID = core.NewID()
	n.ProjectID = sec.ProjectID
	n.Content = strings.TrimSpace(n.Content)
	n.Tags = core.NormalizeTags(n.Tags)
	n.CreatedAt = now
	n.UpdatedAt = now
	for i := range n.Media {
		n.Media[i] = t.stampMedia(n.Media[i])
	}
	if err := n.Validate(); err != nil {
		return core.Note{}, err
	}
	if err := t.repo.CreateNote(ctx, n); err != nil {
		return core.Note{}, fmt.Errorf("create note: %w", err)
	}
	return n, nil
}

func (t *Tracker) UpdateNote(ctx context.Context, id string, patch NotePatch) (core.Note, error) {
	n, err := t.repo.GetNote(ctx, id)
	if err != nil {
		return core.Note{}, err
	}
	if patch.Content != nil {
		n.Content = strings.TrimSpace(*patch.Content)
	}
	if patch.Tags != nil {
		n.Tags = core.NormalizeTags(*patch.Tags)
	}
	if err := n.Validate(); err != nil {
		return core.Note{}, err
	}
	n.UpdatedAt = t.clock()
	if err := t.repo.UpdateNote(ctx, n); err != nil {
		return core.Note{}, fmt.Errorf("update note: %w", err)
	}
	return n, nil
}

func (t *Tracker) DeleteNote(ctx context.Context, id string) error {
	return t.repo.DeleteNote(ctx, id)
}

// AddNoteMedia appends an attachment to a note.
func (t *Tracker) AddNoteMedia(ctx context.Context, noteID string, m core.MediaAttachment) (core.Note, error) {
	n, err := t.repo.GetNote(ctx, noteID)
	if err != nil {
		return core.Note{}, err
	}
	m = t.stampMedia(m)
	if err := m.Validate(); err != nil {
		return core.Note{}, err
	}
	n.Media = append(n.Media, m)
	n.UpdatedAt = t.clock()
	if err := t.repo.UpdateNote(ctx, n); err != nil {
		return core.Note{}, fmt.Errorf("add note media: %w", err)
	}
	return n, nil
}

func (t *Tracker) stampMedia(m core.MediaAttachment) core.MediaAttachment {
	if m.ID == "" {
		m.ID = core.NewID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = t.clock()
	}
	m.URL = strings.TrimSpace(m.URL)
	return m
}

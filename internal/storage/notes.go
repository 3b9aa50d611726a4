package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"remont/internal/core"
	"remont/internal/ports"
)

const noteColumns = `n.id, n.section_id, n.project_id, n.content, n.media, n.audio_transcript, n.created_at, n.updated_at`

func scanNote(row interface{ Scan(...any) error }) (core.Note, error) {
	var (
		n                    core.Note
		media                string
		createdAt, updatedAt string
	)
	if err := row.Scan(&n.ID, &n.SectionID, &n.ProjectID, &n.Content, &media, &n.AudioTranscript, &createdAt, &updatedAt); err != nil {
		return core.Note{}, err
	}
	if err := json.Unmarshal([]byte(media), &n.Media); err != nil {
		return core.Note{}, fmt.Errorf("decode media: %w", err)
	}
	var err error
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Note{}, err
	}
	if n.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Note{}, err
	}
	return n, nil
}

// noteFilter builds the WHERE clause shared by the page and count queries.
func noteFilter(q ports.NoteQuery) (string, []any) {
	where := []string{"n.section_id = ?"}
	args := []any{q.SectionID}

	if len(q.Tags) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(q.Tags)), ",")
		where = append(where, `EXISTS (SELECT 1 FROM note_tags t WHERE t.note_id = n.id AND t.tag IN (`+placeholders+`))`)
		for _, t := range q.Tags {
			args = append(args, t)
		}
	}
	if q.From != nil {
		where = append(where, "n.created_at >= ?")
		args = append(args, formatTime(*q.From))
	}
	if q.To != nil {
		where = append(where, "n.created_at <= ?")
		args = append(args, formatTime(*q.To))
	}
	if q.HasMedia != nil {
		if *q.HasMedia {
			where = append(where, "json_array_length(n.media) > 0")
		} else {
			where = append(where, "json_array_length(n.media) = 0")
		}
	}
	return strings.Join(where, " AND "), args
}

// ListNotes implements ports.NoteRepository
func (r *SQLiteRepository) ListNotes(ctx context.Context, q ports.NoteQuery) ([]core.Note, int, error) {
	q = q.Normalize()
	where, args := noteFilter(q)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes n WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notes: %w", err)
	}

	// SortBy and Order are whitelisted by Normalize.
	order := fmt.Sprintf("n.%s %s, n.id %s", q.SortBy, strings.ToUpper(string(q.Order)), strings.ToUpper(string(q.Order)))
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes n WHERE `+where+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		append(args, q.PageSize, q.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var out []core.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan note: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.loadTags(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *SQLiteRepository) loadTags(ctx context.Context, notes []core.Note) error {
	for i := range notes {
		tags, err := r.noteTags(ctx, notes[i].ID)
		if err != nil {
			return err
		}
		notes[i].Tags = tags
	}
	return nil
}

func (r *SQLiteRepository) noteTags(ctx context.Context, noteID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tag FROM note_tags WHERE note_id = ? ORDER BY position`, noteID)
	if err != nil {
		return nil, fmt.Errorf("list note tags: %w", err)
	}
	defer rows.Close()
	tags := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// GetNote implements ports.NoteRepository
func (r *SQLiteRepository) GetNote(ctx context.Context, id string) (core.Note, error) {
	n, err := scanNote(r.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes n WHERE n.id = ?`, id))
	if err != nil {
		return core.Note{}, notFound(err, "note", id)
	}
	if n.Tags, err = r.noteTags(ctx, id); err != nil {
		return core.Note{}, err
	}
	return n, nil
}

func replaceTags(ctx context.Context, tx *sql.Tx, noteID string, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, noteID); err != nil {
		return fmt.Errorf("clear note tags: %w", err)
	}
	for i, t := range tags {
		if _, err := tx.ExecContext(ctx, `INSERT INTO note_tags (note_id, tag, position) VALUES (?, ?, ?)`, noteID, t, i); err != nil {
			return fmt.Errorf("insert note tag: %w", err)
		}
	}
	return nil
}

func encodeMedia(m []core.MediaAttachment) (string, error) {
	if m == nil {
		m = []core.MediaAttachment{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode media: %w", err)
	}
	return string(b), nil
}

// CreateNote implements ports.NoteRepository
func (r *SQLiteRepository) CreateNote(ctx context.Context, n core.Note) error {
	media, err := encodeMedia(n.Media)
	if err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO notes
			(id, section_id, project_id, content, media, audio_transcript, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			n.ID, n.SectionID, n.ProjectID, n.Content, media, n.AudioTranscript,
			formatTime(n.CreatedAt), formatTime(n.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		return replaceTags(ctx, tx, n.ID, n.Tags)
	})
}

// UpdateNote implements ports.NoteRepository
func (r *SQLiteRepository) UpdateNote(ctx context.Context, n core.Note) error {
	media, err := encodeMedia(n.Media)
	if err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE notes SET content = ?, media = ?, audio_transcript = ?, updated_at = ? WHERE id = ?`,
			n.Content, media, n.AudioTranscript, formatTime(n.UpdatedAt), n.ID)
		if err != nil {
			return fmt.Errorf("update note: %w", err)
		}
		if err := mustAffect(res, "note", n.ID); err != nil {
			return err
		}
		return replaceTags(ctx, tx, n.ID, n.Tags)
	})
}

// DeleteNote implements ports.NoteRepository
func (r *SQLiteRepository) DeleteNote(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return mustAffect(res, "note", id)
}

package http

import (
	"net/http"

	"remont/internal/core"
	"remont/internal/services"
)

type mediaRequest struct {
	Kind         core.MediaKind `json:"type"`
	URL          string         `json:"url"`
	ThumbnailURL string         `json:"thumbnailUrl"`
	MimeType     string         `json:"mimeType"`
	Size         int64          `json:"size"`
	Name         string         `json:"name"`
}

func (m mediaRequest) attachment() core.MediaAttachment {
	return core.MediaAttachment{
		Kind:         m.Kind,
		URL:          sanitizeInput(m.URL),
		ThumbnailURL: sanitizeInput(m.ThumbnailURL),
		MimeType:     sanitizeInput(m.MimeType),
		Size:         m.Size,
		Name:         sanitizeInput(m.Name),
	}
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	q, err := ParseNoteQuery(r.PathValue("id"), r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := s.tracker.ListNotes(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if page.Data == nil {
		page.Data = []core.Note{}
	}
	OK(page).Write(w)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content         string         `json:"content"`
		Tags            []string       `json:"tags"`
		AudioTranscript string         `json:"audioTranscript"`
		Media           []mediaRequest `json:"media"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	n := core.Note{
		SectionID:       r.PathValue("id"),
		Content:         sanitizeInput(req.Content),
		Tags:            req.Tags,
		AudioTranscript: sanitizeInput(req.AudioTranscript),
	}
	for _, m := range req.Media {
		n.Media = append(n.Media, m.attachment())
	}
	created, err := s.tracker.CreateNote(r.Context(), n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(created).Write(w)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	n, err := s.tracker.GetNote(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(n).Write(w)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var patch services.NotePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.Content != nil {
		*patch.Content = sanitizeInput(*patch.Content)
	}
	n, err := s.tracker.UpdateNote(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(n).Write(w)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteNote(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	OK(nil).Write(w)
}

func (s *Server) handleAddNoteMedia(w http.ResponseWriter, r *http.Request) {
	var req mediaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := s.tracker.AddNoteMedia(r.Context(), r.PathValue("id"), req.attachment())
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(n).Write(w)
}

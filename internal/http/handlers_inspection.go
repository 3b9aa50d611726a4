package http

import (
	"net/http"

	"remont/internal/core"
	"remont/internal/services"
)

func (s *Server) handleSavePropertyData(w http.ResponseWriter, r *http.Request) {
	var d core.PropertyData
	if err := decodeJSON(w, r, &d); err != nil {
		writeError(w, r, err)
		return
	}
	p, c, err := s.tracker.SavePropertyData(r.Context(), r.PathValue("id"), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(map[string]any{"project": p, "checklist": c}).Write(w)
}

func (s *Server) handleGetChecklist(w http.ResponseWriter, r *http.Request) {
	c, err := s.tracker.GetChecklist(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(c).Write(w)
}

func (s *Server) handleGenerateChecklist(w http.ResponseWriter, r *http.Request) {
	c, err := s.tracker.GenerateChecklist(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(c).Write(w)
}

func (s *Server) handleUpdateChecklistItem(w http.ResponseWriter, r *http.Request) {
	var patch services.ChecklistItemPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.Notes != nil {
		*patch.Notes = sanitizeInput(*patch.Notes)
	}
	c, err := s.tracker.UpdateChecklistItem(r.Context(), r.PathValue("id"), r.PathValue("item"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(c).Write(w)
}

func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := s.tracker.ListPhotos(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if photos == nil {
		photos = []core.InspectionPhoto{}
	}
	OK(photos).Write(w)
}

func (s *Server) handleAddPhoto(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhotoURL        string `json:"photoUrl"`
		ThumbnailURL    string `json:"thumbnailUrl"`
		ChecklistItemID string `json:"checklistItemId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.tracker.AddPhoto(r.Context(), core.InspectionPhoto{
		ProjectID:       r.PathValue("id"),
		PhotoURL:        sanitizeInput(req.PhotoURL),
		ThumbnailURL:    sanitizeInput(req.ThumbnailURL),
		ChecklistItemID: sanitizeInput(req.ChecklistItemID),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(p).Write(w)
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeletePhoto(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	OK(nil).Write(w)
}

package http

import (
	"errors"
	"net/http"
	"time"

	"remont/internal/advisor"
	"remont/internal/core"
)

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := s.tracker.Questions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if qs == nil {
		qs = []advisor.Question{}
	}
	OK(qs).Write(w)
}

// handleRegenerateQuestions reshuffles the questions. The body is optional;
// without a seed the current time is used.
func (s *Server) handleRegenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seed *uint64 `json:"seed"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	seed := uint64(time.Now().UnixNano())
	if req.Seed != nil {
		seed = *req.Seed
	}
	qs, err := s.tracker.RegenerateQuestions(r.Context(), r.PathValue("id"), seed)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if qs == nil {
		qs = []advisor.Question{}
	}
	OK(qs).Write(w)
}

func (s *Server) handleListSuggestions(w http.ResponseWriter, r *http.Request) {
	include, err := parseBool(r.URL.Query().Get("includeDismissed"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.tracker.ListSuggestions(r.Context(), r.PathValue("id"), include != nil && *include)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []core.Suggestion{}
	}
	OK(list).Write(w)
}

func (s *Server) handleAddSuggestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text    string            `json:"suggestionText"`
		Context map[string]string `json:"context"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sg, err := s.tracker.AddSuggestion(r.Context(), r.PathValue("id"), sanitizeInput(req.Text), req.Context)
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(sg).Write(w)
}

func (s *Server) handleDismissSuggestion(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DismissSuggestion(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	OK(nil).Write(w)
}

var errSyncDisabled = errors.New("spreadsheet sync is not enabled")

func (s *Server) handleSyncStats(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		ErrorResponse(http.StatusServiceUnavailable, errSyncDisabled.Error()).Write(w)
		return
	}
	stats, err := s.sync.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(stats).Write(w)
}

func (s *Server) handleSyncRetry(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		ErrorResponse(http.StatusServiceUnavailable, errSyncDisabled.Error()).Write(w)
		return
	}
	if err := s.sync.RetryFailed(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	OK(map[string]bool{"retried": true}).Write(w)
}

package http

import (
	"net/http"
	"time"

	"remont/internal/core"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	list, err := s.tracker.ListExpenses(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []core.Expense{}
	}
	OK(list).Write(w)
}

// handleCreateExpense records an expense; a missing date means today.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SectionID   string     `json:"sectionId"`
		Description string     `json:"description"`
		Amount      core.Money `json:"amount"`
		Date        core.Date  `json:"date"`
		ReceiptURL  string     `json:"receiptUrl"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.SectionID == "" {
		writeError(w, r, &core.ValidationError{Field: "sectionId", Err: core.ErrMissingSection})
		return
	}
	date := req.Date
	if date.IsZero() {
		now := time.Now()
		date = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}
	e, err := s.tracker.CreateExpense(r.Context(), core.Expense{
		SectionID:   req.SectionID,
		ProjectID:   r.PathValue("id"),
		Description: sanitizeInput(req.Description),
		Amount:      req.Amount,
		Date:        date,
		ReceiptURL:  sanitizeInput(req.ReceiptURL),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(e).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteExpense(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	OK(nil).Write(w)
}

package http

import (
	"net/http"

	"remont/internal/core"
)

type estimateItemRequest struct {
	Name       string     `json:"name"`
	Quantity   float64    `json:"quantity"`
	Unit       string     `json:"unit"`
	UnitPrice  core.Money `json:"unitPrice"`
	TotalPrice core.Money `json:"totalPrice"`
	Category   string     `json:"category"`
}

func toItems(in []estimateItemRequest) []core.EstimateItem {
	items := make([]core.EstimateItem, 0, len(in))
	for _, it := range in {
		items = append(items, core.EstimateItem{
			Name:       sanitizeInput(it.Name),
			Quantity:   it.Quantity,
			Unit:       sanitizeInput(it.Unit),
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
			Category:   sanitizeInput(it.Category),
		})
	}
	return items
}

func (s *Server) handleListEstimates(w http.ResponseWriter, r *http.Request) {
	list, err := s.tracker.ListEstimates(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []core.Estimate{}
	}
	OK(list).Write(w)
}

func (s *Server) handleCreateEstimate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContractorName string                `json:"contractorName"`
		FileURL        string                `json:"fileUrl"`
		TotalAmount    core.Money            `json:"totalAmount"`
		Items          []estimateItemRequest `json:"items"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.tracker.CreateEstimate(r.Context(), core.Estimate{
		SectionID:      r.PathValue("id"),
		ContractorName: sanitizeInput(req.ContractorName),
		FileURL:        sanitizeInput(req.FileURL),
		TotalAmount:    req.TotalAmount,
		Items:          toItems(req.Items),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(e).Write(w)
}

// handleCompareEstimates compares up to three estimates chosen with
// ?ids=a,b,c; without ids the first estimates of the section are used.
func (s *Server) handleCompareEstimates(w http.ResponseWriter, r *http.Request) {
	ids := splitList(r.URL.Query()["ids"])
	c, err := s.tracker.CompareEstimates(r.Context(), r.PathValue("id"), ids)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(c).Write(w)
}

func (s *Server) handleGetEstimate(w http.ResponseWriter, r *http.Request) {
	e, err := s.tracker.GetEstimate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(e).Write(w)
}

func (s *Server) handleReplaceEstimateItems(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []estimateItemRequest `json:"items"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.tracker.ReplaceEstimateItems(r.Context(), r.PathValue("id"), toItems(req.Items))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(e).Write(w)
}

func (s *Server) handleAcceptEstimate(w http.ResponseWriter, r *http.Request) {
	e, err := s.tracker.AcceptEstimate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(e).Write(w)
}

func (s *Server) handleDeleteEstimate(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteEstimate(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	OK(nil).Write(w)
}

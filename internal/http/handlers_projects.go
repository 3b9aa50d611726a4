package http

import (
	"net/http"

	"remont/internal/core"
	"remont/internal/services"
)

type createProjectRequest struct {
	Name          string          `json:"name"`
	Address       string          `json:"address"`
	Area          float64         `json:"area"`
	Floor         int             `json:"floor"`
	HasElevator   bool            `json:"hasElevator"`
	HasParking    bool            `json:"hasParking"`
	YearBuilt     int             `json:"yearBuilt"`
	MarketType    core.MarketType `json:"marketType"`
	BudgetPlanned core.Money      `json:"budgetPlanned"`
	FloorPlanURL  string          `json:"floorPlanUrl"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.tracker.ListProjects(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if projects == nil {
		projects = []core.Project{}
	}
	OK(projects).Write(w)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.tracker.CreateProject(r.Context(), core.Project{
		Name:          sanitizeInput(req.Name),
		Address:       sanitizeInput(req.Address),
		Area:          req.Area,
		Floor:         req.Floor,
		HasElevator:   req.HasElevator,
		HasParking:    req.HasParking,
		YearBuilt:     req.YearBuilt,
		MarketType:    req.MarketType,
		BudgetPlanned: req.BudgetPlanned,
		FloorPlanURL:  sanitizeInput(req.FloorPlanURL),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(p).Write(w)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.tracker.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(p).Write(w)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var patch services.ProjectPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.Name != nil {
		*patch.Name = sanitizeInput(*patch.Name)
	}
	if patch.Address != nil {
		*patch.Address = sanitizeInput(*patch.Address)
	}
	if patch.FloorPlanURL != nil {
		*patch.FloorPlanURL = sanitizeInput(*patch.FloorPlanURL)
	}
	p, err := s.tracker.UpdateProject(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(p).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.tracker.Dashboard(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(d).Write(w)
}

func (s *Server) handleListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := s.tracker.ListSections(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(sections).Write(w)
}

func (s *Server) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	var patch services.SectionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.Notes != nil {
		*patch.Notes = sanitizeInput(*patch.Notes)
	}
	sec, err := s.tracker.UpdateSection(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(sec).Write(w)
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.tracker.BudgetSummary(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(b).Write(w)
}

func (s *Server) handleSetSectionBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Planned core.Money `json:"planned"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.tracker.SetSectionPlanned(r.Context(), r.PathValue("id"), req.Planned)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(b).Write(w)
}

package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hazz-dev/statusboard/internal/status"
	"github.com/hazz-dev/statusboard/internal/storage"
)

type createIncidentRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	ServiceID   string        `json:"serviceId"`
	Impact      status.Impact `json:"impact"`
}

type incidentUpdateRequest struct {
	Message string                `json:"message"`
	Status  status.IncidentStatus `json:"status"`
}

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	incidents, err := s.store.ListIncidents(r.Context())
	if err != nil {
		s.storeError(w, "ListIncidents", err, false)
		return
	}
	writeJSON(w, http.StatusOK, incidents)
}

func (s *Server) handleCreateIncident(w http.ResponseWriter, r *http.Request) {
	var req createIncidentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var missing []string
	if strings.TrimSpace(req.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(req.Description) == "" {
		missing = append(missing, "description")
	}
	if req.ServiceID == "" {
		missing = append(missing, "serviceId")
	}
	if req.Impact == "" {
		missing = append(missing, "impact")
	}
	if len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "missing required fields: "+strings.Join(missing, ", "))
		return
	}
	if !req.Impact.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid impact %q", req.Impact))
		return
	}

	// A serviceId that does not exist is a persistence failure, not a lookup
	// of the URL resource, so it surfaces as 500.
	inc, err := s.store.CreateIncident(r.Context(), storage.NewIncident{
		ServiceID:   req.ServiceID,
		Title:       req.Title,
		Description: req.Description,
		Impact:      req.Impact,
	})
	if err != nil {
		s.storeError(w, "CreateIncident", err, false)
		return
	}
	writeJSON(w, http.StatusCreated, inc)
}

func (s *Server) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	inc, err := s.store.GetIncident(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, "GetIncident", err, true)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

func (s *Server) handleAddIncidentUpdate(w http.ResponseWriter, r *http.Request) {
	var req incidentUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", req.Status))
		return
	}

	u, err := s.store.AddIncidentUpdate(r.Context(), chi.URLParam(r, "id"), req.Message, req.Status)
	if err != nil {
		s.storeError(w, "AddIncidentUpdate", err, true)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hazz-dev/statusboard/internal/status"
	"github.com/hazz-dev/statusboard/internal/storage"
)

const statusHistoryLimit = 100

type createServiceRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      status.Status `json:"status"`
}

type updateServiceRequest struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Status      *status.Status `json:"status"`
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.store.ListServices(r.Context())
	if err != nil {
		s.storeError(w, "ListServices", err, false)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var req createServiceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", req.Status))
		return
	}

	svc, err := s.store.CreateService(r.Context(), storage.NewService{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		s.storeError(w, "CreateService", err, false)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	svc, err := s.store.GetService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, "GetService", err, true)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	var req updateServiceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == nil && req.Description == nil && req.Status == nil {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "name must not be empty")
			return
		}
		req.Name = &name
	}
	if req.Status != nil && !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", *req.Status))
		return
	}

	svc, err := s.store.UpdateService(r.Context(), chi.URLParam(r, "id"), storage.ServiceUpdate{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		s.storeError(w, "UpdateService", err, true)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (s *Server) handleServiceStatusHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetService(r.Context(), id); err != nil {
		s.storeError(w, "GetService", err, true)
		return
	}
	history, err := s.store.StatusHistory(r.Context(), id, statusHistoryLimit)
	if err != nil {
		s.storeError(w, "StatusHistory", err, false)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

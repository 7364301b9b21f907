package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hazz-dev/statusboard/internal/probe"
	"github.com/hazz-dev/statusboard/internal/status"
	"github.com/hazz-dev/statusboard/internal/storage"
)

type statusResult struct {
	Name           string        `json:"name"`
	Status         status.Status `json:"status"`
	StatusCode     int           `json:"statusCode"`
	LastChecked    time.Time     `json:"lastChecked"`
	ResponseTimeMs *int64        `json:"responseTime"`
	Error          string        `json:"error,omitempty"`
}

func toStatusResult(r probe.CheckResult) statusResult {
	out := statusResult{
		Name:        r.ServiceName,
		Status:      r.Status,
		StatusCode:  r.StatusCode,
		LastChecked: r.CheckedAt,
		Error:       r.Error,
	}
	if r.ResponseTime > 0 {
		ms := r.ResponseTime.Milliseconds()
		out.ResponseTimeMs = &ms
	}
	return out
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	results := s.checker.CheckAll(r.Context())
	out := make([]statusResult, 0, len(results))
	for _, res := range results {
		out = append(out, toStatusResult(res))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"services": out})
}

type checkSummary struct {
	Name        string        `json:"name"`
	Endpoint    string        `json:"endpoint"`
	Method      string        `json:"method"`
	Status      status.Status `json:"status"`
	StatusCode  int           `json:"statusCode"`
	ResponseMs  int64         `json:"responseMs"`
	UptimePct   float64       `json:"uptimePercent"`
	LastChecked *time.Time    `json:"lastChecked"`
}

// handleListChecks summarizes the stored probe history of every configured
// target. Targets without history report an empty status.
func (s *Server) handleListChecks(w http.ResponseWriter, r *http.Request) {
	latest, err := s.store.AllLatest(r.Context())
	if err != nil {
		s.storeError(w, "AllLatest", err, false)
		return
	}
	byService := make(map[string]storage.Check, len(latest))
	for _, c := range latest {
		byService[c.Service] = c
	}

	out := make([]checkSummary, 0, len(s.targets))
	for _, tg := range s.targets {
		sum := checkSummary{Name: tg.Name, Endpoint: tg.Endpoint, Method: tg.Method}
		if c, ok := byService[tg.Name]; ok {
			sum.Status = c.Status
			sum.StatusCode = c.StatusCode
			sum.ResponseMs = c.ResponseMs
			t := c.CheckedAt
			sum.LastChecked = &t
			pct, err := s.store.UptimePercent(r.Context(), tg.Name, 100)
			if err != nil {
				s.logger.Warn("UptimePercent", "service", tg.Name, "error", err)
			}
			sum.UptimePct = pct
		}
		out = append(out, sum)
	}
	writeJSON(w, http.StatusOK, out)
}

type historyResponse struct {
	Checks []storage.Check `json:"checks"`
	Total  int             `json:"total"`
}

func (s *Server) handleCheckHistory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !s.isTarget(name) {
		writeError(w, http.StatusNotFound, "target not found")
		return
	}

	limit, offset, ok := pagination(w, r)
	if !ok {
		return
	}

	checks, total, err := s.store.ServiceHistory(r.Context(), name, limit, offset)
	if err != nil {
		s.storeError(w, "ServiceHistory", err, false)
		return
	}
	if checks == nil {
		checks = []storage.Check{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Checks: checks, Total: total})
}

func (s *Server) isTarget(name string) bool {
	for _, tg := range s.targets {
		if tg.Name == name {
			return true
		}
	}
	return false
}

// pagination parses limit/offset query parameters, writing a 400 on error.
func pagination(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	const maxLimit = 1000

	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return 0, 0, false
		}
		limit = min(n, maxLimit)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset parameter")
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

// Package server exposes probe results and service/incident CRUD over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazz-dev/statusboard/internal/config"
	"github.com/hazz-dev/statusboard/internal/metrics"
	"github.com/hazz-dev/statusboard/internal/probe"
	"github.com/hazz-dev/statusboard/internal/storage"
)

const maxBodyBytes = 1 << 20

// StatusChecker runs (or serves) one aggregation pass.
type StatusChecker interface {
	CheckAll(ctx context.Context) []probe.CheckResult
}

// Store defines the persistence operations the server needs.
type Store interface {
	storage.ServiceRepository
	storage.IncidentRepository
	AllLatest(ctx context.Context) ([]storage.Check, error)
	ServiceHistory(ctx context.Context, service string, limit, offset int) ([]storage.Check, int, error)
	UptimePercent(ctx context.Context, service string, last int) (float64, error)
}

// Server holds the chi router and its dependencies.
type Server struct {
	store   Store
	checker StatusChecker
	targets []config.ServiceCheck
	metrics *metrics.Metrics
	router  chi.Router
	logger  *slog.Logger
}

// New creates a new Server and registers all routes. m may be nil, in which
// case /metrics is not served.
func New(store Store, checker StatusChecker, targets []config.ServiceCheck, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:   store,
		checker: checker,
		targets: targets,
		metrics: m,
		router:  chi.NewRouter(),
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

// Router returns the chi router (for mounting or testing).
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		r.Route("/services", func(r chi.Router) {
			r.Get("/", s.handleListServices)
			r.Post("/", s.handleCreateService)
			r.Get("/{id}", s.handleGetService)
			r.Patch("/{id}", s.handleUpdateService)
			r.Get("/{id}/history", s.handleServiceStatusHistory)
		})

		r.Route("/incidents", func(r chi.Router) {
			r.Get("/", s.handleListIncidents)
			r.Post("/", s.handleCreateIncident)
			r.Get("/{id}", s.handleGetIncident)
			r.Post("/{id}/updates", s.handleAddIncidentUpdate)
		})

		r.Get("/checks", s.handleListChecks)
		r.Get("/checks/{name}", s.handleCheckHistory)
	})
}

// --- Response helpers ---

type envelope struct {
	Data  interface{} `json:"data"`
	Error string      `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Error: msg})
}

// decodeBody decodes a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// storeError maps a persistence error to a response. Lookups of the resource
// named in the URL become 404; everything else is a server error.
func (s *Server) storeError(w http.ResponseWriter, op string, err error, pathLookup bool) {
	if pathLookup && errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error(op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// --- Middleware ---

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}

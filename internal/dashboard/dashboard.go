// Package dashboard renders the public status page.
package dashboard

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hazz-dev/statusboard/internal/probe"
	"github.com/hazz-dev/statusboard/internal/status"
	"github.com/hazz-dev/statusboard/internal/storage"
)

//go:embed templates/status.html
var templates embed.FS

//go:embed assets
var assets embed.FS

// StatusChecker supplies the latest result for every target.
type StatusChecker interface {
	CheckAll(ctx context.Context) []probe.CheckResult
}

// IncidentLister supplies incidents, newest first.
type IncidentLister interface {
	ListIncidents(ctx context.Context) ([]storage.Incident, error)
}

var page = template.Must(template.New("status.html").Funcs(template.FuncMap{
	"label":     statusLabel,
	"class":     statusClass,
	"timestamp": func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04:05 MST") },
	"millis":    func(d time.Duration) int64 { return d.Milliseconds() },
}).ParseFS(templates, "templates/status.html"))

type pageData struct {
	Operational bool
	Results     []probe.CheckResult
	Incidents   []storage.Incident
	GeneratedAt time.Time
}

type handler struct {
	checker   StatusChecker
	incidents IncidentLister
	logger    *slog.Logger
}

// Handler returns an HTTP handler that serves the status page at / and its
// stylesheet at /style.css. incidents may be nil, in which case no incidents
// are listed.
func Handler(checker StatusChecker, incidents IncidentLister, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{checker: checker, incidents: incidents, logger: logger}

	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		// "assets" is embedded at build time.
		panic(err)
	}

	r := chi.NewRouter()
	r.Get("/", h.serveStatus)
	r.Handle("/style.css", http.FileServer(http.FS(sub)))
	return r
}

func (h *handler) serveStatus(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Operational: true,
		Results:     h.checker.CheckAll(r.Context()),
		GeneratedAt: time.Now(),
	}
	for _, res := range data.Results {
		if !res.Operational() {
			data.Operational = false
		}
	}
	if h.incidents != nil {
		incidents, err := h.incidents.ListIncidents(r.Context())
		if err != nil {
			h.logger.Warn("listing incidents for status page", "error", err)
		}
		for _, inc := range incidents {
			if inc.Status != status.Resolved {
				data.Incidents = append(data.Incidents, inc)
			}
		}
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		h.logger.Error("rendering status page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func statusLabel(s status.Status) string {
	switch s {
	case status.Operational:
		return "Operational"
	case status.DegradedPerformance:
		return "Degraded performance"
	case status.PartialOutage:
		return "Partial outage"
	case status.MajorOutage:
		return "Major outage"
	case status.Maintenance:
		return "Maintenance"
	default:
		return string(s)
	}
}

func statusClass(s status.Status) string {
	switch s {
	case status.Operational:
		return "ok"
	case status.DegradedPerformance, status.Maintenance:
		return "warn"
	default:
		return "down"
	}
}

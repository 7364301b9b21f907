package dashboard_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hazz-dev/statusboard/internal/dashboard"
	"github.com/hazz-dev/statusboard/internal/probe"
	"github.com/hazz-dev/statusboard/internal/status"
	"github.com/hazz-dev/statusboard/internal/storage"
)

type fakeChecker []probe.CheckResult

func (f fakeChecker) CheckAll(context.Context) []probe.CheckResult { return f }

type fakeIncidents struct {
	incidents []storage.Incident
	err       error
}

func (f fakeIncidents) ListIncidents(context.Context) ([]storage.Incident, error) {
	return f.incidents, f.err
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	return w
}

func TestHandler_RendersResults(t *testing.T) {
	h := dashboard.Handler(fakeChecker{
		{ServiceName: "api", Status: status.Operational, StatusCode: 200, ResponseTime: 120 * time.Millisecond, CheckedAt: time.Now()},
		{ServiceName: "billing", Status: status.MajorOutage, Error: "dial tcp: connection refused", CheckedAt: time.Now()},
	}, nil, nil)

	w := get(t, h, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("expected Content-Type text/html, got %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{"api", "billing", "120 ms", "Major outage", "connection refused", "Some systems are experiencing issues"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}

func TestHandler_AllOperational(t *testing.T) {
	h := dashboard.Handler(fakeChecker{
		{ServiceName: "api", Status: status.Operational, StatusCode: 200, CheckedAt: time.Now()},
	}, nil, nil)

	if body := get(t, h, "/").Body.String(); !strings.Contains(body, "All systems operational") {
		t.Error("expected operational banner")
	}
}

func TestHandler_EscapesErrorText(t *testing.T) {
	h := dashboard.Handler(fakeChecker{
		{ServiceName: "api", Status: status.MajorOutage, Error: "<script>alert(1)</script>", CheckedAt: time.Now()},
	}, nil, nil)

	body := get(t, h, "/").Body.String()
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("expected error text to be escaped")
	}
}

func TestHandler_ListsOpenIncidentsOnly(t *testing.T) {
	h := dashboard.Handler(fakeChecker{}, fakeIncidents{incidents: []storage.Incident{
		{Title: "Login failures", Status: status.Investigating, Impact: status.ImpactMajor, CreatedAt: time.Now()},
		{Title: "Old outage", Status: status.Resolved, Impact: status.ImpactCritical, CreatedAt: time.Now()},
	}}, nil)

	body := get(t, h, "/").Body.String()
	if !strings.Contains(body, "Login failures") {
		t.Error("expected open incident on page")
	}
	if strings.Contains(body, "Old outage") {
		t.Error("expected resolved incident to be hidden")
	}
}

func TestHandler_IncidentErrorStillRenders(t *testing.T) {
	h := dashboard.Handler(fakeChecker{}, fakeIncidents{err: errors.New("db closed")}, nil)

	w := get(t, h, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No open incidents.") {
		t.Error("expected empty incident section")
	}
}

func TestHandler_ServesCSS(t *testing.T) {
	h := dashboard.Handler(fakeChecker{}, nil, nil)
	w := get(t, h, "/style.css")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for style.css, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/css") {
		t.Errorf("expected Content-Type text/css, got %q", ct)
	}
}

func TestHandler_NotFound(t *testing.T) {
	h := dashboard.Handler(fakeChecker{}, nil, nil)
	if w := get(t, h, "/does-not-exist.xyz"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing asset, got %d", w.Code)
	}
}

// Package metrics exposes probe and notification counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazz-dev/statusboard/internal/probe"
	"github.com/hazz-dev/statusboard/internal/status"
)

const namespace = "statusboard"

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ProbesTotal        *prometheus.CounterVec
	ProbeDuration      *prometheus.HistogramVec
	ServiceOperational *prometheus.GaugeVec
	PassesTotal        prometheus.Counter
	PassDuration       prometheus.Histogram
	NotificationsTotal *prometheus.CounterVec
}

// New registers all collectors on reg. A nil reg gets a fresh registry with
// the Go runtime and process collectors attached.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ProbesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "probe",
			Name:      "total",
			Help:      "Total number of probes by service and resulting status",
		}, []string{"service", "status"}),
		ProbeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "probe",
			Name:      "response_seconds",
			Help:      "Histogram of probe response times",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
		ServiceOperational: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "operational",
			Help:      "1 if the last probe of the service was operational, 0 otherwise",
		}, []string{"service"}),
		PassesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pass",
			Name:      "total",
			Help:      "Total number of aggregation passes",
		}),
		PassDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pass",
			Name:      "duration_seconds",
			Help:      "Histogram of aggregation pass durations",
			Buckets:   prometheus.DefBuckets,
		}),
		NotificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "total",
			Help:      "Total number of notification attempts by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveResult records one probe result.
func (m *Metrics) ObserveResult(r probe.CheckResult) {
	if m == nil {
		return
	}
	m.ProbesTotal.WithLabelValues(r.ServiceName, string(r.Status)).Inc()
	if r.ResponseTime > 0 {
		m.ProbeDuration.WithLabelValues(r.ServiceName).Observe(r.ResponseTime.Seconds())
	}
	up := 0.0
	if r.Status == status.Operational {
		up = 1
	}
	m.ServiceOperational.WithLabelValues(r.ServiceName).Set(up)
}

// ObservePass records the duration of one aggregation pass.
func (m *Metrics) ObservePass(d time.Duration) {
	if m == nil {
		return
	}
	m.PassesTotal.Inc()
	m.PassDuration.Observe(d.Seconds())
}

// ObserveNotification records a notification attempt.
func (m *Metrics) ObserveNotification(sent bool) {
	if m == nil {
		return
	}
	outcome := "sent"
	if !sent {
		outcome = "failed"
	}
	m.NotificationsTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package monitor runs probes across all configured targets, either on demand
// or on a fixed schedule.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hazz-dev/statusboard/internal/config"
	"github.com/hazz-dev/statusboard/internal/metrics"
	"github.com/hazz-dev/statusboard/internal/probe"
	"github.com/hazz-dev/statusboard/internal/status"
)

// Prober performs a single probe.
type Prober interface {
	Probe(ctx context.Context, sc config.ServiceCheck) probe.CheckResult
}

// Aggregator probes a fixed target list. It keeps no state between passes.
type Aggregator struct {
	targets []config.ServiceCheck
	prober  Prober
	metrics *metrics.Metrics
}

// NewAggregator returns an Aggregator over a copy of targets. Pass nil
// metrics to skip instrumentation.
func NewAggregator(targets []config.ServiceCheck, prober Prober, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		targets: append([]config.ServiceCheck(nil), targets...),
		prober:  prober,
		metrics: m,
	}
}

// Targets returns the configured targets in probe order.
func (a *Aggregator) Targets() []config.ServiceCheck {
	return append([]config.ServiceCheck(nil), a.targets...)
}

// CheckAll runs one pass over the configured targets.
func (a *Aggregator) CheckAll(ctx context.Context) []probe.CheckResult {
	start := time.Now()
	results := CheckAll(ctx, a.prober, a.targets)
	a.metrics.ObservePass(time.Since(start))
	for _, r := range results {
		a.metrics.ObserveResult(r)
	}
	return results
}

// CheckAll probes every target concurrently and returns one result per
// target in input order. It returns only after every probe has resolved.
func CheckAll(ctx context.Context, p Prober, targets []config.ServiceCheck) []probe.CheckResult {
	results := make([]probe.CheckResult, len(targets))
	var wg sync.WaitGroup

	for i, sc := range targets {
		i, sc := i, sc
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = probeOne(ctx, p, sc)
		}()
	}
	wg.Wait()
	return results
}

func probeOne(ctx context.Context, p Prober, sc config.ServiceCheck) (r probe.CheckResult) {
	defer func() {
		if v := recover(); v != nil {
			r = probe.CheckResult{
				ServiceName: sc.Name,
				Status:      status.MajorOutage,
				CheckedAt:   time.Now(),
				Error:       fmt.Sprintf("probe panicked: %v", v),
			}
		}
	}()
	return p.Probe(ctx, sc)
}

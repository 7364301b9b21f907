package monitor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hazz-dev/statusboard/internal/probe"
)

// Store persists probe results.
type Store interface {
	InsertCheck(ctx context.Context, r probe.CheckResult) error
}

// Scheduler runs an aggregation pass immediately and then on every interval
// tick until its context is cancelled.
type Scheduler struct {
	agg      *Aggregator
	interval time.Duration
	store    Store
	onPass   func([]probe.CheckResult)
	logger   *slog.Logger
	wg       sync.WaitGroup

	started   atomic.Bool
	firstDone chan struct{}
	firstOnce sync.Once

	mu     sync.RWMutex
	latest []probe.CheckResult
}

// NewScheduler creates a Scheduler. store may be nil to skip persistence; a
// nil logger uses slog.Default().
func NewScheduler(agg *Aggregator, interval time.Duration, store Store, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		agg:       agg,
		interval:  interval,
		store:     store,
		logger:    logger,
		firstDone: make(chan struct{}),
	}
}

// SetOnPass sets a callback invoked with the results of every pass.
func (s *Scheduler) SetOnPass(fn func([]probe.CheckResult)) {
	s.onPass = fn
}

// Start launches the polling loop. It is non-blocking.
func (s *Scheduler) Start(ctx context.Context) {
	s.started.Store(true)
	s.wg.Add(1)
	go s.run(ctx)
}

// Wait blocks until the polling loop has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Latest returns the results of the most recent completed pass, or nil if
// no pass has completed yet.
func (s *Scheduler) Latest() []probe.CheckResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// CheckAll serves the most recent pass. While the first scheduled pass is in
// flight it waits for that pass; a scheduler that was never started, or whose
// loop exited without completing a pass, runs a live pass instead.
func (s *Scheduler) CheckAll(ctx context.Context) []probe.CheckResult {
	if latest := s.Latest(); latest != nil {
		return latest
	}
	if s.started.Load() {
		select {
		case <-s.firstDone:
		case <-ctx.Done():
			return nil
		}
		if latest := s.Latest(); latest != nil {
			return latest
		}
	}
	return s.agg.CheckAll(ctx)
}

func (s *Scheduler) markFirstDone() {
	s.firstOnce.Do(func() { close(s.firstDone) })
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()
	defer s.markFirstDone()

	s.pass(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

func (s *Scheduler) pass(ctx context.Context) {
	results := s.agg.CheckAll(ctx)
	if ctx.Err() != nil {
		// Shutting down; results of cancelled probes are not real outcomes.
		return
	}

	for _, r := range results {
		s.logger.Info("check result",
			"service", r.ServiceName,
			"status", r.Status,
			"status_code", r.StatusCode,
			"response_time", r.ResponseTime,
			"error", r.Error,
		)
		if s.store == nil {
			continue
		}
		if err := s.store.InsertCheck(ctx, r); err != nil {
			s.logger.Error("storing check result", "service", r.ServiceName, "error", err)
		}
	}

	s.mu.Lock()
	s.latest = results
	s.mu.Unlock()
	s.markFirstDone()

	if s.onPass != nil {
		s.onPass(results)
	}
}

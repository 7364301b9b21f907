// Package probe issues single HTTP health checks and classifies the outcome.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hazz-dev/statusboard/internal/config"
	"github.com/hazz-dev/statusboard/internal/version"
)

// ResponseTimeHeader is consulted for a server-reported response time.
const ResponseTimeHeader = "X-Response-Time"

// maxDrain bounds how much of a response body is read before closing it so
// the connection can be reused.
const maxDrain = 64 << 10

// Alerter is told about every non-operational result. Alert must not block.
type Alerter interface {
	Alert(r CheckResult)
}

// Prober performs probes against configured targets. It holds no per-probe
// state and is safe for concurrent use.
type Prober struct {
	client  *http.Client
	alerter Alerter
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Prober.
type Option func(*Prober)

// WithClient replaces the default HTTP client. Timeouts are still applied per
// probe through the request context.
func WithClient(c *http.Client) Option {
	return func(p *Prober) { p.client = c }
}

// WithClock overrides the time source used for CheckedAt.
func WithClock(now func() time.Time) Option {
	return func(p *Prober) { p.now = now }
}

// New creates a Prober. A nil alerter disables alerting; a nil logger uses
// slog.Default().
func New(alerter Alerter, logger *slog.Logger, opts ...Option) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Prober{
		client:  &http.Client{},
		alerter: alerter,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe sends one request to sc.Endpoint bounded by sc.Timeout and returns the
// classified result. It never returns an error: transport failures are
// reported as MAJOR_OUTAGE with the error text captured. A probe abandoned
// because ctx itself was cancelled does not alert.
func (p *Prober) Probe(ctx context.Context, sc config.ServiceCheck) CheckResult {
	result := p.do(ctx, sc)
	if ctx.Err() != nil {
		return result
	}
	if !result.Operational() {
		p.alert(result)
	}
	return result
}

func (p *Prober) do(ctx context.Context, sc config.ServiceCheck) CheckResult {
	timeout := sc.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := p.now()
	result := CheckResult{
		ServiceName: sc.Name,
		CheckedAt:   start,
	}

	method := sc.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, sc.Endpoint, nil)
	if err != nil {
		result.Status = Classify(sc.ExpectedStatus, 0, err)
		result.Error = fmt.Sprintf("creating request: %v", err)
		return result
	}
	req.Header.Set("User-Agent", "statusboard/"+version.Version)
	for k, v := range sc.Headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		result.Status = Classify(sc.ExpectedStatus, 0, err)
		result.Error = describeError(err, timeout)
		return result
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.Status = Classify(sc.ExpectedStatus, resp.StatusCode, nil)
	if rt, ok := parseResponseTime(resp.Header.Get(ResponseTimeHeader)); ok {
		result.ResponseTime = rt
	} else {
		result.ResponseTime = p.now().Sub(start)
	}
	return result
}

func (p *Prober) alert(r CheckResult) {
	if p.alerter == nil {
		return
	}
	defer func() {
		if v := recover(); v != nil {
			p.logger.Error("alerter panicked", "service", r.ServiceName, "panic", v)
		}
	}()
	p.alerter.Alert(r)
}

func describeError(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("timeout of %dms exceeded", timeout.Milliseconds())
	}
	return err.Error()
}

// parseResponseTime accepts "120", "120ms", "120.5ms" or any Go duration.
// Bare numbers are milliseconds.
func parseResponseTime(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if ms, err := strconv.ParseFloat(v, 64); err == nil {
		if ms < 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
			return 0, false
		}
		return time.Duration(ms * float64(time.Millisecond)), true
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}

// Package notify turns failed probe results into delivered alert messages.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazz-dev/statusboard/internal/metrics"
	"github.com/hazz-dev/statusboard/internal/probe"
)

const (
	defaultSendTimeout = 30 * time.Second
	errorBuffer        = 64
)

var errDisabled = errors.New("notifications disabled")

// DeliveryError reports a failed notification for one service.
type DeliveryError struct {
	Service string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notifying about %q: %v", e.Service, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Notifier sends alerts to a single destination address. With no address
// configured every operation is a silent no-op.
type Notifier struct {
	to          string
	sender      Sender
	sendTimeout time.Duration
	metrics     *metrics.Metrics
	logger      *slog.Logger

	errs chan error
	wg   sync.WaitGroup
}

// New creates a Notifier. Pass nil metrics to skip instrumentation and a nil
// logger to use slog.Default().
func New(to string, sender Sender, m *metrics.Metrics, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		to:          to,
		sender:      sender,
		sendTimeout: defaultSendTimeout,
		metrics:     m,
		logger:      logger,
		errs:        make(chan error, errorBuffer),
	}
}

// Enabled reports whether a destination and sender are configured.
func (n *Notifier) Enabled() bool {
	return n.to != "" && n.sender != nil
}

// Send makes exactly one delivery attempt for r and reports whether it
// succeeded. Failures are logged, never returned.
func (n *Notifier) Send(ctx context.Context, r probe.CheckResult) bool {
	return n.send(ctx, r) == nil
}

func (n *Notifier) send(ctx context.Context, r probe.CheckResult) error {
	if !n.Enabled() {
		return errDisabled
	}
	msg := Compose(n.to, r)
	err := n.sender.Send(ctx, msg)
	n.metrics.ObserveNotification(err == nil)
	if err != nil {
		n.logger.Error("sending alert", "service", r.ServiceName, "to", n.to, "error", err)
		return &DeliveryError{Service: r.ServiceName, Err: err}
	}
	n.logger.Info("alert sent", "service", r.ServiceName, "to", n.to, "status_code", r.StatusCode)
	return nil
}

// Alert dispatches delivery for r in its own goroutine and returns
// immediately. It implements probe.Alerter.
func (n *Notifier) Alert(r probe.CheckResult) {
	if !n.Enabled() {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.sendTimeout)
		defer cancel()
		if err := n.send(ctx, r); err != nil {
			n.report(err)
		}
	}()
}

// Errors returns the channel on which asynchronous delivery failures are
// published. When nobody drains it, failures beyond its buffer are dropped.
func (n *Notifier) Errors() <-chan error {
	return n.errs
}

// Wait blocks until all dispatched deliveries have finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) report(err error) {
	select {
	case n.errs <- err:
	default:
		n.logger.Warn("alert error channel full, dropping", "error", err)
	}
}

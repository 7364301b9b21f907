package probe

import (
	"time"

	"github.com/hazz-dev/statusboard/internal/status"
)

// CheckResult is the outcome of a single probe. It is created once per probe
// and never mutated.
type CheckResult struct {
	ServiceName string
	Status      status.Status
	CheckedAt   time.Time
	// ResponseTime is best-effort; zero means unknown.
	ResponseTime time.Duration
	StatusCode   int
	Error        string
}

// Operational reports whether the probe observed the expected response.
func (r CheckResult) Operational() bool {
	return r.Status == status.Operational
}

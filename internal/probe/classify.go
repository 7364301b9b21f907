package probe

import (
	"net/http"

	"github.com/hazz-dev/statusboard/internal/status"
)

// Classify maps a probe outcome to an operational state. A transport error
// always wins; otherwise the received code is compared against expected,
// where zero means 200.
func Classify(expected, received int, err error) status.Status {
	if err != nil {
		return status.MajorOutage
	}
	if expected == 0 {
		expected = http.StatusOK
	}
	if received == expected {
		return status.Operational
	}
	return status.DegradedPerformance
}

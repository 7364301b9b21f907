package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazz-dev/statusboard/internal/probe"
	"github.com/hazz-dev/statusboard/internal/status"
)

// Check is a stored probe result.
type Check struct {
	ID         int64         `json:"id"`
	Service    string        `json:"service"`
	Status     status.Status `json:"status"`
	StatusCode int           `json:"statusCode"`
	ResponseMs int64         `json:"responseMs"`
	Error      string        `json:"error,omitempty"`
	CheckedAt  time.Time     `json:"checkedAt"`
}

const checkColumns = `id, service, status, status_code, response_ms, error, checked_at`

// InsertCheck persists a probe result.
func (d *DB) InsertCheck(ctx context.Context, r probe.CheckResult) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO checks (service, status, status_code, response_ms, error, checked_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ServiceName,
		string(r.Status),
		r.StatusCode,
		r.ResponseTime.Milliseconds(),
		r.Error,
		formatTime(r.CheckedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting check for %q: %w", r.ServiceName, err)
	}
	return nil
}

// LatestCheck returns the most recent check for the given service, or nil if none.
func (d *DB) LatestCheck(ctx context.Context, service string) (*Check, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+checkColumns+` FROM checks WHERE service = ? ORDER BY checked_at DESC, id DESC LIMIT 1`,
		service,
	)
	c, err := scanCheck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest check for %q: %w", service, err)
	}
	return c, nil
}

// ServiceHistory returns paginated check history for a service plus the total count.
func (d *DB) ServiceHistory(ctx context.Context, service string, limit, offset int) ([]Check, int, error) {
	var total int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM checks WHERE service = ?`, service,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting checks for %q: %w", service, err)
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT `+checkColumns+` FROM checks WHERE service = ? ORDER BY checked_at DESC, id DESC LIMIT ? OFFSET ?`,
		service, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("querying history for %q: %w", service, err)
	}
	defer rows.Close()

	checks, err := scanChecks(rows)
	if err != nil {
		return nil, 0, err
	}
	return checks, total, nil
}

// AllLatest returns the most recent check for each probed service.
func (d *DB) AllLatest(ctx context.Context) ([]Check, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+checkColumns+`
		FROM checks
		WHERE id IN (
			SELECT MAX(id) FROM checks GROUP BY service
		)
		ORDER BY service
	`)
	if err != nil {
		return nil, fmt.Errorf("querying all latest: %w", err)
	}
	defer rows.Close()
	return scanChecks(rows)
}

// UptimePercent returns the share of OPERATIONAL results among the last n
// checks of a service.
func (d *DB) UptimePercent(ctx context.Context, service string, last int) (float64, error) {
	var total int
	var upCount sql.NullInt64
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*), SUM(CASE WHEN status = ? THEN 1 ELSE 0 END)
		FROM (
			SELECT status FROM checks WHERE service = ? ORDER BY checked_at DESC, id DESC LIMIT ?
		)
	`, string(status.Operational), service, last).Scan(&total, &upCount)
	if err != nil {
		return 0, fmt.Errorf("calculating uptime for %q: %w", service, err)
	}
	if total == 0 {
		return 0, nil
	}
	return float64(upCount.Int64) / float64(total) * 100, nil
}

func scanCheck(row scanner) (*Check, error) {
	var c Check
	var st, checkedAt string
	err := row.Scan(&c.ID, &c.Service, &st, &c.StatusCode, &c.ResponseMs, &c.Error, &checkedAt)
	if err != nil {
		return nil, err
	}
	c.Status = status.Status(st)
	if c.CheckedAt, err = parseTime(checkedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanChecks(rows *sql.Rows) ([]Check, error) {
	var checks []Check
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning check row: %w", err)
		}
		checks = append(checks, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating check rows: %w", err)
	}
	return checks, nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hazz-dev/statusboard/internal/status"
)

// Incident is a reported disruption of one service.
type Incident struct {
	ID          string                `json:"id"`
	ServiceID   string                `json:"serviceId"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Status      status.IncidentStatus `json:"status"`
	Impact      status.Impact         `json:"impact"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	ResolvedAt  *time.Time            `json:"resolvedAt,omitempty"`
	Updates     []IncidentUpdate      `json:"updates,omitempty"`
}

// NewIncident holds the fields supplied when opening an incident.
type NewIncident struct {
	ServiceID   string
	Title       string
	Description string
	Impact      status.Impact
}

// IncidentUpdate is a timeline entry on an incident.
type IncidentUpdate struct {
	ID         string                `json:"id"`
	IncidentID string                `json:"incidentId"`
	Message    string                `json:"message"`
	Status     status.IncidentStatus `json:"status"`
	CreatedAt  time.Time             `json:"createdAt"`
}

// IncidentRepository is the incident half of the CRUD collaborator.
type IncidentRepository interface {
	CreateIncident(ctx context.Context, in NewIncident) (*Incident, error)
	GetIncident(ctx context.Context, id string) (*Incident, error)
	ListIncidents(ctx context.Context) ([]Incident, error)
	AddIncidentUpdate(ctx context.Context, incidentID, message string, st status.IncidentStatus) (*IncidentUpdate, error)
}

const incidentColumns = `id, service_id, title, description, status, impact, created_at, updated_at, resolved_at`

// CreateIncident opens an incident as INVESTIGATING and, in the same
// transaction, moves the referenced service to the status implied by the
// incident's impact. A missing service yields ErrNotFound and nothing is
// written.
func (d *DB) CreateIncident(ctx context.Context, in NewIncident) (*Incident, error) {
	now := d.timestamp()
	id := d.newID()
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO incidents (`+incidentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
			id, in.ServiceID, in.Title, in.Description, string(status.Investigating), string(in.Impact), now, now,
		)
		if err != nil {
			if isForeignKeyErr(err) {
				return fmt.Errorf("service %q: %w", in.ServiceID, ErrNotFound)
			}
			return fmt.Errorf("inserting incident %q: %w", in.Title, err)
		}
		st := status.ForImpact(in.Impact)
		return d.updateService(ctx, tx, in.ServiceID, ServiceUpdate{Status: &st})
	})
	if err != nil {
		return nil, err
	}
	return d.GetIncident(ctx, id)
}

// GetIncident returns the incident with its updates in chronological order.
func (d *DB) GetIncident(ctx context.Context, id string) (*Incident, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id = ?`, id)
	inc, err := scanIncident(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("incident %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying incident %q: %w", id, err)
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, incident_id, message, status, created_at FROM incident_updates WHERE incident_id = ? ORDER BY created_at, rowid`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying updates for incident %q: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var u IncidentUpdate
		var st, createdAt string
		if err := rows.Scan(&u.ID, &u.IncidentID, &u.Message, &st, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning incident update row: %w", err)
		}
		u.Status = status.IncidentStatus(st)
		if u.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		inc.Updates = append(inc.Updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating incident update rows: %w", err)
	}
	return inc, nil
}

// ListIncidents returns all incidents, newest first.
func (d *DB) ListIncidents(ctx context.Context) ([]Incident, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+incidentColumns+` FROM incidents ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying incidents: %w", err)
	}
	defer rows.Close()
	return scanIncidents(rows)
}

// AddIncidentUpdate appends a timeline entry and moves the incident to st.
// Resolving an incident stamps its resolution time.
func (d *DB) AddIncidentUpdate(ctx context.Context, incidentID, message string, st status.IncidentStatus) (*IncidentUpdate, error) {
	now := d.timestamp()
	u := &IncidentUpdate{
		ID:         d.newID(),
		IncidentID: incidentID,
		Message:    message,
		Status:     st,
	}
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var resolvedAt any
		if st == status.Resolved {
			resolvedAt = now
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE incidents SET status = ?, updated_at = ?, resolved_at = ? WHERE id = ?`,
			string(st), now, resolvedAt, incidentID,
		)
		if err != nil {
			return fmt.Errorf("updating incident %q: %w", incidentID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("incident %q: %w", incidentID, ErrNotFound)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO incident_updates (id, incident_id, message, status, created_at) VALUES (?, ?, ?, ?, ?)`,
			u.ID, incidentID, message, string(st), now,
		)
		if err != nil {
			return fmt.Errorf("inserting update for incident %q: %w", incidentID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.CreatedAt, _ = parseTime(now)
	return u, nil
}

func (d *DB) openIncidents(ctx context.Context, serviceID string, limit int) ([]Incident, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE service_id = ? AND status != ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		serviceID, string(status.Resolved), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying open incidents for %q: %w", serviceID, err)
	}
	defer rows.Close()
	return scanIncidents(rows)
}

func scanIncident(row scanner) (*Incident, error) {
	var inc Incident
	var st, impact, createdAt, updatedAt string
	var resolvedAt sql.NullString
	err := row.Scan(&inc.ID, &inc.ServiceID, &inc.Title, &inc.Description, &st, &impact, &createdAt, &updatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	inc.Status = status.IncidentStatus(st)
	inc.Impact = status.Impact(impact)
	if inc.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if inc.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		t, err := parseTime(resolvedAt.String)
		if err != nil {
			return nil, err
		}
		inc.ResolvedAt = &t
	}
	return &inc, nil
}

func scanIncidents(rows *sql.Rows) ([]Incident, error) {
	incidents := []Incident{}
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning incident row: %w", err)
		}
		incidents = append(incidents, *inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating incident rows: %w", err)
	}
	return incidents, nil
}

// isForeignKeyErr matches SQLite's constraint error text; the driver does not
// export a stable typed error for it.
func isForeignKeyErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

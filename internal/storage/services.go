package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazz-dev/statusboard/internal/status"
)

// openIncidentsPerService caps the unresolved incidents attached to each
// service by ListServices.
const openIncidentsPerService = 5

// Service is a tracked service record.
type Service struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      status.Status `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	Incidents   []Incident    `json:"incidents,omitempty"`
}

// NewService holds the fields supplied when creating a service.
type NewService struct {
	Name        string
	Description string
	Status      status.Status
}

// ServiceUpdate is a partial update; nil fields are left unchanged.
type ServiceUpdate struct {
	Name        *string
	Description *string
	Status      *status.Status
}

// StatusChange is one entry of a service's status history.
type StatusChange struct {
	ID        string        `json:"id"`
	ServiceID string        `json:"serviceId"`
	Status    status.Status `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// ServiceRepository is the service half of the CRUD collaborator.
type ServiceRepository interface {
	CreateService(ctx context.Context, in NewService) (*Service, error)
	GetService(ctx context.Context, id string) (*Service, error)
	ListServices(ctx context.Context) ([]Service, error)
	UpdateService(ctx context.Context, id string, upd ServiceUpdate) (*Service, error)
	StatusHistory(ctx context.Context, serviceID string, limit int) ([]StatusChange, error)
}

const serviceColumns = `id, name, description, status, created_at, updated_at`

// CreateService inserts a new service with a generated ID and records its
// initial status.
func (d *DB) CreateService(ctx context.Context, in NewService) (*Service, error) {
	now := d.timestamp()
	id := d.newID()
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO services (`+serviceColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			id, in.Name, in.Description, string(in.Status), now, now,
		)
		if err != nil {
			return fmt.Errorf("inserting service %q: %w", in.Name, err)
		}
		return d.insertStatusChange(ctx, tx, id, in.Status, now)
	})
	if err != nil {
		return nil, err
	}
	return d.GetService(ctx, id)
}

// GetService returns the service with the given ID or ErrNotFound.
func (d *DB) GetService(ctx context.Context, id string) (*Service, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id)
	s, err := scanService(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("service %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying service %q: %w", id, err)
	}
	return s, nil
}

// ListServices returns all services ordered by creation, each with its most
// recent unresolved incidents.
func (d *DB) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying services: %w", err)
	}
	services := []Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning service row: %w", err)
		}
		services = append(services, *s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating service rows: %w", err)
	}
	rows.Close()

	for i := range services {
		open, err := d.openIncidents(ctx, services[i].ID, openIncidentsPerService)
		if err != nil {
			return nil, err
		}
		services[i].Incidents = open
	}
	return services, nil
}

// UpdateService applies upd to the service. A status change is appended to
// the status history.
func (d *DB) UpdateService(ctx context.Context, id string, upd ServiceUpdate) (*Service, error) {
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		return d.updateService(ctx, tx, id, upd)
	})
	if err != nil {
		return nil, err
	}
	return d.GetService(ctx, id)
}

func (d *DB) updateService(ctx context.Context, tx *sql.Tx, id string, upd ServiceUpdate) error {
	cur, err := scanService(tx.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("service %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("querying service %q: %w", id, err)
	}

	next := *cur
	if upd.Name != nil {
		next.Name = *upd.Name
	}
	if upd.Description != nil {
		next.Description = *upd.Description
	}
	if upd.Status != nil {
		next.Status = *upd.Status
	}

	now := d.timestamp()
	_, err = tx.ExecContext(ctx,
		`UPDATE services SET name = ?, description = ?, status = ?, updated_at = ? WHERE id = ?`,
		next.Name, next.Description, string(next.Status), now, id,
	)
	if err != nil {
		return fmt.Errorf("updating service %q: %w", id, err)
	}
	if upd.Status != nil {
		return d.insertStatusChange(ctx, tx, id, next.Status, now)
	}
	return nil
}

// StatusHistory returns up to limit status changes for a service, newest first.
func (d *DB) StatusHistory(ctx context.Context, serviceID string, limit int) ([]StatusChange, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, service_id, status, created_at FROM status_history WHERE service_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		serviceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying status history for %q: %w", serviceID, err)
	}
	defer rows.Close()

	history := []StatusChange{}
	for rows.Next() {
		var c StatusChange
		var st, createdAt string
		if err := rows.Scan(&c.ID, &c.ServiceID, &st, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning status history row: %w", err)
		}
		c.Status = status.Status(st)
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		history = append(history, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status history rows: %w", err)
	}
	return history, nil
}

func (d *DB) insertStatusChange(ctx context.Context, tx *sql.Tx, serviceID string, st status.Status, at string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO status_history (id, service_id, status, created_at) VALUES (?, ?, ?, ?)`,
		d.newID(), serviceID, string(st), at,
	)
	if err != nil {
		return fmt.Errorf("recording status %s for service %q: %w", st, serviceID, err)
	}
	return nil
}

func scanService(row scanner) (*Service, error) {
	var s Service
	var st, createdAt, updatedAt string
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &st, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	s.Status = status.Status(st)
	var err error
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

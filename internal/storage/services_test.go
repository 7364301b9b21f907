package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hazz-dev/statusboard/internal/status"
	"github.com/hazz-dev/statusboard/internal/storage"
)

var (
	_ storage.ServiceRepository  = (*storage.DB)(nil)
	_ storage.IncidentRepository = (*storage.DB)(nil)
)

func createService(t *testing.T, db *storage.DB, name string) *storage.Service {
	t.Helper()
	svc, err := db.CreateService(context.Background(), storage.NewService{
		Name:        name,
		Description: name + " service",
		Status:      status.Operational,
	})
	if err != nil {
		t.Fatalf("CreateService: %v", err)
	}
	return svc
}

func TestCreateService_GeneratesID(t *testing.T) {
	db := openTestDB(t)
	a := createService(t, db, "api")
	b := createService(t, db, "web")

	if a.ID == "" || b.ID == "" {
		t.Fatal("expected generated IDs")
	}
	if a.ID == b.ID {
		t.Errorf("expected unique IDs, both %q", a.ID)
	}
	if a.Status != status.Operational {
		t.Errorf("expected OPERATIONAL, got %q", a.Status)
	}
	if a.CreatedAt.IsZero() || !a.CreatedAt.Equal(a.UpdatedAt) {
		t.Errorf("expected equal non-zero timestamps, got %v / %v", a.CreatedAt, a.UpdatedAt)
	}
}

func TestGetService_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetService(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListServices(t *testing.T) {
	db := openTestDB(t)
	createService(t, db, "api")
	createService(t, db, "web")

	services, err := db.ListServices(context.Background())
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if len(services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(services))
	}
	if services[0].Name != "api" || services[1].Name != "web" {
		t.Errorf("expected creation order, got %q, %q", services[0].Name, services[1].Name)
	}
}

func TestListServices_Empty(t *testing.T) {
	db := openTestDB(t)
	services, err := db.ListServices(context.Background())
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if services == nil || len(services) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", services)
	}
}

func TestUpdateService_Partial(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	svc := createService(t, db, "api")

	st := status.Maintenance
	got, err := db.UpdateService(ctx, svc.ID, storage.ServiceUpdate{Status: &st})
	if err != nil {
		t.Fatalf("UpdateService: %v", err)
	}
	if got.Status != status.Maintenance {
		t.Errorf("expected MAINTENANCE, got %q", got.Status)
	}
	if got.Name != "api" || got.Description != "api service" {
		t.Errorf("expected other fields unchanged, got %+v", got)
	}

	history, err := db.StatusHistory(ctx, svc.ID, 10)
	if err != nil {
		t.Fatalf("StatusHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries (create + update), got %d", len(history))
	}
	if history[0].Status != status.Maintenance {
		t.Errorf("expected newest history entry MAINTENANCE, got %q", history[0].Status)
	}
}

func TestUpdateService_RenameDoesNotTouchHistory(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	svc := createService(t, db, "api")

	name := "public-api"
	got, err := db.UpdateService(ctx, svc.ID, storage.ServiceUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdateService: %v", err)
	}
	if got.Name != "public-api" {
		t.Errorf("expected renamed service, got %q", got.Name)
	}
	history, _ := db.StatusHistory(ctx, svc.ID, 10)
	if len(history) != 1 {
		t.Errorf("expected only the initial history entry, got %d", len(history))
	}
}

func TestUpdateService_NotFound(t *testing.T) {
	db := openTestDB(t)
	st := status.MajorOutage
	_, err := db.UpdateService(context.Background(), "missing", storage.ServiceUpdate{Status: &st})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

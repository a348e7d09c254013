package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/osteopraxis/praxis/internal/platform/audit"
	"github.com/osteopraxis/praxis/internal/platform/store"
)

func newService() (*Service, *MemRepo) {
	repo := NewMemRepo()
	return NewService(repo, audit.NewLogSink(zerolog.Nop()), zerolog.Nop()), repo
}

func TestCreateRequiresLastName(t *testing.T) {
	svc, _ := newService()
	err := svc.Create(context.Background(), &Patient{OsteopathID: uuid.New(), FirstName: "Claire"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCreateIgnoresClientPointer(t *testing.T) {
	svc, repo := newService()
	osteopathID := uuid.New()
	next := time.Now().Add(24 * time.Hour)

	p := &Patient{OsteopathID: osteopathID, LastName: "Roux", NextAppointment: &next}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := repo.GetByID(context.Background(), osteopathID, p.ID)
	if err != nil {
		t.Fatalf("load patient: %v", err)
	}
	if got.NextAppointment != nil {
		t.Error("client-supplied next appointment was stored")
	}
}

func TestUpdatePreservesDerivedFields(t *testing.T) {
	svc, repo := newService()
	osteopathID := uuid.New()
	next := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	migrated := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	stored := &Patient{
		ID:              uuid.New(),
		OsteopathID:     osteopathID,
		LastName:        "Roux",
		NextAppointment: &next,
		IsTestData:      true,
		MigratedAt:      &migrated,
		MigratedBy:      "dr.martin",
		CreatedAt:       migrated,
	}
	if err := repo.Put(context.Background(), stored); err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	upd := &Patient{ID: stored.ID, OsteopathID: osteopathID, LastName: "Roux-Petit"}
	if err := svc.Update(context.Background(), upd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetByID(context.Background(), osteopathID, stored.ID)
	if err != nil {
		t.Fatalf("load patient: %v", err)
	}
	if got.LastName != "Roux-Petit" {
		t.Errorf("last name = %q, want Roux-Petit", got.LastName)
	}
	if got.NextAppointment == nil || !got.NextAppointment.Equal(next) {
		t.Errorf("next appointment = %v, want %v", got.NextAppointment, next)
	}
	if !got.IsTestData || got.MigratedAt == nil || got.MigratedBy != "dr.martin" {
		t.Error("migration fields were not carried over")
	}
	if !got.CreatedAt.Equal(migrated) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, migrated)
	}
}

func TestUpdateUnknownPatient(t *testing.T) {
	svc, _ := newService()
	err := svc.Update(context.Background(), &Patient{ID: uuid.New(), OsteopathID: uuid.New(), LastName: "Roux"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetScopedToOsteopath(t *testing.T) {
	svc, repo := newService()
	osteopathID := uuid.New()
	p := &Patient{ID: uuid.New(), OsteopathID: osteopathID, LastName: "Roux"}
	if err := repo.Put(context.Background(), p); err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	if _, err := svc.Get(context.Background(), uuid.New(), p.ID); !errors.Is(err, store.ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
	if _, err := svc.Get(context.Background(), osteopathID, p.ID); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
}

package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/osteopraxis/praxis/internal/domain/consultation"
	"github.com/osteopraxis/praxis/internal/domain/patient"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	patients      *patient.MemRepo
	consultations *consultation.MemRepo
	svc           *Service
	osteopathID   uuid.UUID
}

func newFixture() *fixture {
	patients := patient.NewMemRepo()
	consultations := consultation.NewMemRepo()
	svc := NewService(patients, consultations, zerolog.Nop()).
		WithClock(func() time.Time { return testNow })
	return &fixture{
		patients:      patients,
		consultations: consultations,
		svc:           svc,
		osteopathID:   uuid.New(),
	}
}

func (f *fixture) addPatient(t *testing.T) *patient.Patient {
	t.Helper()
	p := &patient.Patient{ID: uuid.New(), OsteopathID: f.osteopathID, LastName: "Durand", CreatedAt: testNow}
	if err := f.patients.Put(context.Background(), p); err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	return p
}

func (f *fixture) addConsultation(t *testing.T, patientID uuid.UUID, date time.Time, status string) *consultation.Consultation {
	t.Helper()
	c := &consultation.Consultation{
		ID:          uuid.New(),
		OsteopathID: f.osteopathID,
		PatientID:   patientID,
		Date:        date,
		Status:      status,
	}
	if err := f.consultations.Put(context.Background(), c); err != nil {
		t.Fatalf("seed consultation: %v", err)
	}
	return c
}

func (f *fixture) pointer(t *testing.T, patientID uuid.UUID) *time.Time {
	t.Helper()
	p, err := f.patients.GetByID(context.Background(), f.osteopathID, patientID)
	if err != nil {
		t.Fatalf("load patient: %v", err)
	}
	return p.NextAppointment
}

func TestSyncPatientPicksEarliestUpcoming(t *testing.T) {
	f := newFixture()
	p := f.addPatient(t)
	f.addConsultation(t, p.ID, testNow.Add(48*time.Hour), consultation.StatusDraft)
	f.addConsultation(t, p.ID, testNow.Add(24*time.Hour), consultation.StatusDraft)

	updated, err := f.svc.SyncPatient(context.Background(), f.osteopathID, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated {
		t.Error("expected pointer to be written")
	}
	ptr := f.pointer(t, p.ID)
	want := testNow.Add(24 * time.Hour)
	if ptr == nil || !ptr.Equal(want) {
		t.Errorf("expected pointer %v, got %v", want, ptr)
	}
}

func TestSyncPatientIgnoresTerminalConsultations(t *testing.T) {
	f := newFixture()
	p := f.addPatient(t)
	// Scenario A: scheduled at T+1d, completed at T+2d -> pointer = T+1d.
	f.addConsultation(t, p.ID, testNow.Add(24*time.Hour), consultation.StatusDraft)
	f.addConsultation(t, p.ID, testNow.Add(48*time.Hour), consultation.StatusCompleted)

	if _, err := f.svc.SyncPatient(context.Background(), f.osteopathID, p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ptr := f.pointer(t, p.ID)
	want := testNow.Add(24 * time.Hour)
	if ptr == nil || !ptr.Equal(want) {
		t.Errorf("expected pointer %v, got %v", want, ptr)
	}
}

func TestSyncPatientCancelledOnlyClearsPointer(t *testing.T) {
	f := newFixture()
	p := f.addPatient(t)
	// Scenario B: a single cancelled consultation leaves no upcoming visit.
	stale := testNow.Add(time.Hour)
	p.NextAppointment = &stale
	f.patients.Put(context.Background(), p)
	f.addConsultation(t, p.ID, testNow.Add(24*time.Hour), consultation.StatusCancelled)

	updated, err := f.svc.SyncPatient(context.Background(), f.osteopathID, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated {
		t.Error("expected stale pointer to be cleared")
	}
	if ptr := f.pointer(t, p.ID); ptr != nil {
		t.Errorf("expected nil pointer, got %v", ptr)
	}
}

func TestSyncPatientIgnoresPastConsultations(t *testing.T) {
	f := newFixture()
	p := f.addPatient(t)
	f.addConsultation(t, p.ID, testNow.Add(-time.Hour), consultation.StatusDraft)

	if _, err := f.svc.SyncPatient(context.Background(), f.osteopathID, p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ptr := f.pointer(t, p.ID); ptr != nil {
		t.Errorf("expected nil pointer for past-only consultations, got %v", ptr)
	}
}

func TestSyncPatientIdempotent(t *testing.T) {
	f := newFixture()
	p := f.addPatient(t)
	f.addConsultation(t, p.ID, testNow.Add(24*time.Hour), consultation.StatusDraft)

	if _, err := f.svc.SyncPatient(context.Background(), f.osteopathID, p.ID); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	first := f.pointer(t, p.ID)

	updated, err := f.svc.SyncPatient(context.Background(), f.osteopathID, p.ID)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if updated {
		t.Error("second sync with unchanged consultations must not rewrite the patient")
	}
	second := f.pointer(t, p.ID)
	if first == nil || second == nil || !first.Equal(*second) {
		t.Errorf("pointer changed between identical syncs: %v vs %v", first, second)
	}
}

func TestSyncPatientMissingPatientIsNoOp(t *testing.T) {
	f := newFixture()
	updated, err := f.svc.SyncPatient(context.Background(), f.osteopathID, uuid.New())
	if err != nil {
		t.Fatalf("expected silent skip, got %v", err)
	}
	if updated {
		t.Error("expected no write for missing patient")
	}
}

func TestSyncPatientTruncatesToMinute(t *testing.T) {
	f := newFixture()
	p := f.addPatient(t)
	f.addConsultation(t, p.ID, testNow.Add(24*time.Hour+37*time.Second), consultation.StatusDraft)

	if _, err := f.svc.SyncPatient(context.Background(), f.osteopathID, p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ptr := f.pointer(t, p.ID)
	if ptr == nil || ptr.Second() != 0 || ptr.Nanosecond() != 0 {
		t.Errorf("expected minute-resolution pointer, got %v", ptr)
	}
}

func TestPromoteIfEarlier(t *testing.T) {
	f := newFixture()
	p := f.addPatient(t)

	date := testNow.Add(24 * time.Hour)
	if err := f.svc.PromoteIfEarlier(context.Background(), f.osteopathID, p.ID, date); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ptr := f.pointer(t, p.ID)
	if ptr == nil || !ptr.Equal(date) {
		t.Errorf("expected pointer %v, got %v", date, ptr)
	}

	// A later date must not displace the earlier pointer.
	if err := f.svc.PromoteIfEarlier(context.Background(), f.osteopathID, p.ID, testNow.Add(48*time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ptr := f.pointer(t, p.ID); ptr == nil || !ptr.Equal(date) {
		t.Errorf("later date displaced the pointer: %v", ptr)
	}

	// An earlier date wins.
	earlier := testNow.Add(12 * time.Hour)
	if err := f.svc.PromoteIfEarlier(context.Background(), f.osteopathID, p.ID, earlier); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ptr := f.pointer(t, p.ID); ptr == nil || !ptr.Equal(earlier) {
		t.Errorf("expected promoted pointer %v, got %v", earlier, ptr)
	}
}

func TestPromoteIfEarlierIgnoresPastDates(t *testing.T) {
	f := newFixture()
	p := f.addPatient(t)
	if err := f.svc.PromoteIfEarlier(context.Background(), f.osteopathID, p.ID, testNow.Add(-time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ptr := f.pointer(t, p.ID); ptr != nil {
		t.Errorf("past date must not set the pointer, got %v", ptr)
	}
}

func TestSyncAllCountsUpdates(t *testing.T) {
	f := newFixture()
	p1 := f.addPatient(t)
	p2 := f.addPatient(t)
	f.addPatient(t) // no consultations, nothing to update
	f.addConsultation(t, p1.ID, testNow.Add(24*time.Hour), consultation.StatusDraft)
	f.addConsultation(t, p2.ID, testNow.Add(48*time.Hour), consultation.StatusDraft)

	result, err := f.svc.SyncAll(context.Background(), f.osteopathID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 3 {
		t.Errorf("expected 3 processed, got %d", result.Processed)
	}
	if result.Updated != 2 {
		t.Errorf("expected 2 updated, got %d", result.Updated)
	}
	if result.Errors != 0 {
		t.Errorf("expected 0 errors, got %d", result.Errors)
	}
}

func TestSyncAllScopedToTenant(t *testing.T) {
	f := newFixture()
	p := f.addPatient(t)
	f.addConsultation(t, p.ID, testNow.Add(24*time.Hour), consultation.StatusDraft)

	other := &patient.Patient{ID: uuid.New(), OsteopathID: uuid.New(), LastName: "Autre"}
	f.patients.Put(context.Background(), other)

	result, err := f.svc.SyncAll(context.Background(), f.osteopathID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 1 {
		t.Errorf("expected only this tenant's patient processed, got %d", result.Processed)
	}
}

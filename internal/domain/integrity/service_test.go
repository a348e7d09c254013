package integrity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/osteopraxis/praxis/internal/domain/appointment"
	"github.com/osteopraxis/praxis/internal/domain/consultation"
	"github.com/osteopraxis/praxis/internal/domain/invoice"
	"github.com/osteopraxis/praxis/internal/domain/patient"
	"github.com/osteopraxis/praxis/internal/platform/audit"
	"github.com/osteopraxis/praxis/internal/platform/store"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	patients      *patient.MemRepo
	appointments  *appointment.MemRepo
	consultations *consultation.MemRepo
	invoices      *invoice.MemRepo
	svc           *Service
	osteopathID   uuid.UUID
}

func newFixture() *fixture {
	patients := patient.NewMemRepo()
	appointments := appointment.NewMemRepo()
	consultations := consultation.NewMemRepo()
	invoices := invoice.NewMemRepo()
	svc := NewService(patients, appointments, consultations, invoices,
		audit.NewLogSink(zerolog.Nop()), zerolog.Nop())
	return &fixture{
		patients:      patients,
		appointments:  appointments,
		consultations: consultations,
		invoices:      invoices,
		svc:           svc,
		osteopathID:   uuid.New(),
	}
}

func (f *fixture) addPatient(t *testing.T) *patient.Patient {
	t.Helper()
	p := &patient.Patient{ID: uuid.New(), OsteopathID: f.osteopathID, LastName: "Lefebvre", CreatedAt: testNow}
	if err := f.patients.Put(context.Background(), p); err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	return p
}

func (f *fixture) addAppointment(t *testing.T, patientID uuid.UUID, missing bool) *appointment.Appointment {
	t.Helper()
	a := &appointment.Appointment{
		ID:             uuid.New(),
		OsteopathID:    f.osteopathID,
		PatientID:      patientID,
		Date:           testNow.Add(24 * time.Hour),
		Status:         appointment.StatusScheduled,
		PatientMissing: missing,
	}
	if err := f.appointments.Put(context.Background(), a); err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	return a
}

func (f *fixture) addConsultation(t *testing.T, patientID uuid.UUID, missing bool) *consultation.Consultation {
	t.Helper()
	c := &consultation.Consultation{
		ID:             uuid.New(),
		OsteopathID:    f.osteopathID,
		PatientID:      patientID,
		Date:           testNow.Add(24 * time.Hour),
		Status:         consultation.StatusDraft,
		PatientMissing: missing,
	}
	if err := f.consultations.Put(context.Background(), c); err != nil {
		t.Fatalf("seed consultation: %v", err)
	}
	return c
}

func (f *fixture) addInvoice(t *testing.T, patientID uuid.UUID, missing bool) *invoice.Invoice {
	t.Helper()
	inv := &invoice.Invoice{
		ID:             uuid.New(),
		OsteopathID:    f.osteopathID,
		PatientID:      patientID,
		Status:         invoice.StatusDraft,
		PatientMissing: missing,
	}
	if err := f.invoices.Put(context.Background(), inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return inv
}

func TestVerifyTagsOrphans(t *testing.T) {
	f := newFixture()
	p := f.addPatient(t)
	gone := uuid.New()

	kept := f.addAppointment(t, p.ID, false)
	orphanAppt := f.addAppointment(t, gone, false)
	orphanCons := f.addConsultation(t, gone, false)
	f.addConsultation(t, p.ID, false)
	orphanInv := f.addInvoice(t, gone, false)

	report, err := f.svc.Verify(context.Background(), f.osteopathID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.BrokenAppointmentReferences != 1 {
		t.Errorf("broken appointments = %d, want 1", report.BrokenAppointmentReferences)
	}
	if report.BrokenConsultationReferences != 1 {
		t.Errorf("broken consultations = %d, want 1", report.BrokenConsultationReferences)
	}
	if report.BrokenInvoiceReferences != 1 {
		t.Errorf("broken invoices = %d, want 1", report.BrokenInvoiceReferences)
	}
	if report.BrokenPatientReferences != 3 {
		t.Errorf("broken total = %d, want 3", report.BrokenPatientReferences)
	}
	if report.FixedReferences != 3 {
		t.Errorf("fixed = %d, want 3", report.FixedReferences)
	}

	a, _ := f.appointments.GetByID(context.Background(), f.osteopathID, orphanAppt.ID)
	if !a.PatientMissing {
		t.Error("orphan appointment was not tagged")
	}
	c, _ := f.consultations.GetByID(context.Background(), f.osteopathID, orphanCons.ID)
	if !c.PatientMissing {
		t.Error("orphan consultation was not tagged")
	}
	inv, _ := f.invoices.GetByID(context.Background(), f.osteopathID, orphanInv.ID)
	if !inv.PatientMissing {
		t.Error("orphan invoice was not tagged")
	}
	a, _ = f.appointments.GetByID(context.Background(), f.osteopathID, kept.ID)
	if a.PatientMissing {
		t.Error("healthy appointment was tagged")
	}
}

func TestVerifyClearsStaleTags(t *testing.T) {
	f := newFixture()
	p := f.addPatient(t)
	tagged := f.addAppointment(t, p.ID, true)

	report, err := f.svc.Verify(context.Background(), f.osteopathID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.BrokenPatientReferences != 0 {
		t.Errorf("broken total = %d, want 0", report.BrokenPatientReferences)
	}
	if report.FixedReferences != 1 {
		t.Errorf("fixed = %d, want 1", report.FixedReferences)
	}
	a, _ := f.appointments.GetByID(context.Background(), f.osteopathID, tagged.ID)
	if a.PatientMissing {
		t.Error("stale tag was not cleared")
	}
}

func TestVerifyIsIdempotent(t *testing.T) {
	f := newFixture()
	f.addAppointment(t, uuid.New(), false)

	if _, err := f.svc.Verify(context.Background(), f.osteopathID); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	report, err := f.svc.Verify(context.Background(), f.osteopathID)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if report.BrokenAppointmentReferences != 1 {
		t.Errorf("broken appointments = %d, want 1", report.BrokenAppointmentReferences)
	}
	if report.FixedReferences != 0 {
		t.Errorf("fixed = %d on second pass, want 0", report.FixedReferences)
	}
}

func TestVerifyCountsTagWriteFailures(t *testing.T) {
	f := newFixture()
	orphan := f.addAppointment(t, uuid.New(), false)
	f.appointments.FailPut = map[uuid.UUID]error{orphan.ID: errors.New("row locked")}

	report, err := f.svc.Verify(context.Background(), f.osteopathID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.BrokenAppointmentReferences != 1 {
		t.Errorf("broken appointments = %d, want 1", report.BrokenAppointmentReferences)
	}
	if report.FixedReferences != 0 {
		t.Errorf("fixed = %d, want 0", report.FixedReferences)
	}
}

func TestRepairDeletesOnlyTaggedRecords(t *testing.T) {
	f := newFixture()
	p := f.addPatient(t)
	kept := f.addAppointment(t, p.ID, false)
	doomedAppt := f.addAppointment(t, uuid.New(), true)
	doomedCons := f.addConsultation(t, uuid.New(), true)
	doomedInv := f.addInvoice(t, uuid.New(), true)

	report, err := f.svc.Repair(context.Background(), f.osteopathID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.FixedAppointments != 1 || report.FixedConsultations != 1 || report.FixedInvoices != 1 {
		t.Errorf("report = %+v, want one removal per collection", report)
	}
	if report.Errors != 0 {
		t.Errorf("errors = %d, want 0", report.Errors)
	}

	if _, err := f.appointments.GetByID(context.Background(), f.osteopathID, doomedAppt.ID); !errors.Is(err, store.ErrNotFound) {
		t.Error("tagged appointment survived repair")
	}
	if _, err := f.consultations.GetByID(context.Background(), f.osteopathID, doomedCons.ID); !errors.Is(err, store.ErrNotFound) {
		t.Error("tagged consultation survived repair")
	}
	if _, err := f.invoices.GetByID(context.Background(), f.osteopathID, doomedInv.ID); !errors.Is(err, store.ErrNotFound) {
		t.Error("tagged invoice survived repair")
	}
	if _, err := f.appointments.GetByID(context.Background(), f.osteopathID, kept.ID); err != nil {
		t.Errorf("untagged appointment was removed: %v", err)
	}
}

func TestRepairContinuesPastFailures(t *testing.T) {
	f := newFixture()
	stuck := f.addAppointment(t, uuid.New(), true)
	f.addAppointment(t, uuid.New(), true)
	f.appointments.FailDelete = map[uuid.UUID]error{stuck.ID: errors.New("row locked")}

	report, err := f.svc.Repair(context.Background(), f.osteopathID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.FixedAppointments != 1 {
		t.Errorf("fixed appointments = %d, want 1", report.FixedAppointments)
	}
	if report.Errors != 1 {
		t.Errorf("errors = %d, want 1", report.Errors)
	}
}

func TestVerifyScopedToOsteopath(t *testing.T) {
	f := newFixture()
	other := uuid.New()
	a := &appointment.Appointment{
		ID:          uuid.New(),
		OsteopathID: other,
		PatientID:   uuid.New(),
		Date:        testNow.Add(24 * time.Hour),
		Status:      appointment.StatusScheduled,
	}
	if err := f.appointments.Put(context.Background(), a); err != nil {
		t.Fatalf("seed appointment: %v", err)
	}

	report, err := f.svc.Verify(context.Background(), f.osteopathID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.BrokenPatientReferences != 0 {
		t.Errorf("broken total = %d, want 0", report.BrokenPatientReferences)
	}
	got, _ := f.appointments.GetByID(context.Background(), other, a.ID)
	if got.PatientMissing {
		t.Error("another osteopath's appointment was tagged")
	}
}

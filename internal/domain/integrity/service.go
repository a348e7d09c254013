// Package integrity detects and repairs dangling patient references left
// behind by out-of-band deletions. Verification tags orphans; repair is a
// separate, explicitly destructive step that consumes those tags.
package integrity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/osteopraxis/praxis/internal/domain/appointment"
	"github.com/osteopraxis/praxis/internal/domain/consultation"
	"github.com/osteopraxis/praxis/internal/domain/invoice"
	"github.com/osteopraxis/praxis/internal/domain/patient"
	"github.com/osteopraxis/praxis/internal/platform/audit"
)

type Service struct {
	patients      patient.Repository
	appointments  appointment.Repository
	consultations consultation.Repository
	invoices      invoice.Repository
	audit         audit.Sink
	logger        zerolog.Logger
}

func NewService(
	patients patient.Repository,
	appointments appointment.Repository,
	consultations consultation.Repository,
	invoices invoice.Repository,
	sink audit.Sink,
	logger zerolog.Logger,
) *Service {
	return &Service{
		patients:      patients,
		appointments:  appointments,
		consultations: consultations,
		invoices:      invoices,
		audit:         sink,
		logger:        logger,
	}
}

// VerifyReport counts the dangling references discovered in one pass.
// BrokenPatientReferences is the aggregate across the three dependent
// collections; FixedReferences counts the tag writes that succeeded.
type VerifyReport struct {
	BrokenPatientReferences      int `json:"broken_patient_references"`
	BrokenAppointmentReferences  int `json:"broken_appointment_references"`
	BrokenConsultationReferences int `json:"broken_consultation_references"`
	BrokenInvoiceReferences      int `json:"broken_invoice_references"`
	FixedReferences              int `json:"fixed_references"`
}

// RepairReport counts the orphaned records removed by a repair pass.
type RepairReport struct {
	FixedAppointments  int `json:"fixed_appointments"`
	FixedConsultations int `json:"fixed_consultations"`
	FixedInvoices      int `json:"fixed_invoices"`
	Errors             int `json:"errors"`
}

// Verify scans every dependent collection against the current set of
// patient ids and tags records whose patient no longer exists. Records
// whose tag turned stale (the patient exists again) are untagged, so a
// verify pass leaves tags exactly matching the orphan set. Tags are
// advisory; nothing is deleted here.
func (s *Service) Verify(ctx context.Context, osteopathID uuid.UUID) (*VerifyReport, error) {
	patients, err := s.patients.ListByOsteopath(ctx, osteopathID)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	known := make(map[uuid.UUID]bool, len(patients))
	for _, p := range patients {
		known[p.ID] = true
	}

	report := &VerifyReport{}

	appointments, err := s.appointments.ListByOsteopath(ctx, osteopathID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	for _, a := range appointments {
		broken := !known[a.PatientID]
		if broken {
			report.BrokenAppointmentReferences++
		}
		if broken == a.PatientMissing {
			continue
		}
		a.PatientMissing = broken
		if err := s.appointments.Put(ctx, a); err != nil {
			s.logger.Error().Err(err).
				Str("appointment_id", a.ID.String()).
				Msg("integrity: tag write failed")
			continue
		}
		report.FixedReferences++
	}

	consultations, err := s.consultations.ListByOsteopath(ctx, osteopathID)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	for _, c := range consultations {
		broken := !known[c.PatientID]
		if broken {
			report.BrokenConsultationReferences++
		}
		if broken == c.PatientMissing {
			continue
		}
		c.PatientMissing = broken
		if err := s.consultations.Put(ctx, c); err != nil {
			s.logger.Error().Err(err).
				Str("consultation_id", c.ID.String()).
				Msg("integrity: tag write failed")
			continue
		}
		report.FixedReferences++
	}

	invoices, err := s.invoices.ListByOsteopath(ctx, osteopathID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	for _, inv := range invoices {
		broken := !known[inv.PatientID]
		if broken {
			report.BrokenInvoiceReferences++
		}
		if broken == inv.PatientMissing {
			continue
		}
		inv.PatientMissing = broken
		if err := s.invoices.Put(ctx, inv); err != nil {
			s.logger.Error().Err(err).
				Str("invoice_id", inv.ID.String()).
				Msg("integrity: tag write failed")
			continue
		}
		report.FixedReferences++
	}

	report.BrokenPatientReferences = report.BrokenAppointmentReferences +
		report.BrokenConsultationReferences + report.BrokenInvoiceReferences

	s.audit.Emit(ctx, audit.Event{
		EventKind:    "integrity_check",
		ResourcePath: "integrity/verify",
		Action:       "update",
		Sensitivity:  "phi",
		Outcome:      "success",
		Detail: fmt.Sprintf("%d broken references found, %d tags written",
			report.BrokenPatientReferences, report.FixedReferences),
		OsteopathID: osteopathID,
	})
	return report, nil
}

// Repair permanently deletes every record tagged patient_missing in the
// three dependent collections. Irreversible; only meaningful after a
// recent Verify pass (staleness is the caller's responsibility). Per-record
// failures are counted, never fatal.
func (s *Service) Repair(ctx context.Context, osteopathID uuid.UUID) (*RepairReport, error) {
	report := &RepairReport{}

	appointments, err := s.appointments.ListPatientMissing(ctx, osteopathID)
	if err != nil {
		return nil, fmt.Errorf("list tagged appointments: %w", err)
	}
	for _, a := range appointments {
		if err := s.appointments.Delete(ctx, osteopathID, a.ID); err != nil {
			report.Errors++
			s.logger.Error().Err(err).
				Str("appointment_id", a.ID.String()).
				Msg("integrity: orphan delete failed")
			continue
		}
		report.FixedAppointments++
	}

	consultations, err := s.consultations.ListPatientMissing(ctx, osteopathID)
	if err != nil {
		return nil, fmt.Errorf("list tagged consultations: %w", err)
	}
	for _, c := range consultations {
		if err := s.consultations.Delete(ctx, osteopathID, c.ID); err != nil {
			report.Errors++
			s.logger.Error().Err(err).
				Str("consultation_id", c.ID.String()).
				Msg("integrity: orphan delete failed")
			continue
		}
		report.FixedConsultations++
	}

	invoices, err := s.invoices.ListPatientMissing(ctx, osteopathID)
	if err != nil {
		return nil, fmt.Errorf("list tagged invoices: %w", err)
	}
	for _, inv := range invoices {
		if err := s.invoices.Delete(ctx, osteopathID, inv.ID); err != nil {
			report.Errors++
			s.logger.Error().Err(err).
				Str("invoice_id", inv.ID.String()).
				Msg("integrity: orphan delete failed")
			continue
		}
		report.FixedInvoices++
	}

	outcome := "success"
	if report.Errors > 0 {
		outcome = "partial"
	}
	s.audit.Emit(ctx, audit.Event{
		EventKind:    "integrity_repair",
		ResourcePath: "integrity/repair",
		Action:       "delete",
		Sensitivity:  "phi",
		Outcome:      outcome,
		Detail: fmt.Sprintf("removed %d appointments, %d consultations, %d invoices, %d errors",
			report.FixedAppointments, report.FixedConsultations, report.FixedInvoices, report.Errors),
		OsteopathID: osteopathID,
	})
	return report, nil
}

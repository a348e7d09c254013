// Package migration promotes records flagged as test data into real
// records. Promotion flips the flag in place and stamps who did it and
// when; nothing is copied or deleted. A full pointer resync runs after
// every promotion pass so the next-appointment pointers are freshly
// derived once the batch has settled.
package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/osteopraxis/praxis/internal/domain/appointment"
	"github.com/osteopraxis/praxis/internal/domain/consultation"
	"github.com/osteopraxis/praxis/internal/domain/invoice"
	"github.com/osteopraxis/praxis/internal/domain/patient"
	"github.com/osteopraxis/praxis/internal/domain/syncer"
	"github.com/osteopraxis/praxis/internal/platform/audit"
)

// Synchronizer re-derives next-appointment pointers after a promotion
// pass. Satisfied by *syncer.Service.
type Synchronizer interface {
	SyncAll(ctx context.Context, osteopathID uuid.UUID) (*syncer.BatchResult, error)
}

type Service struct {
	patients      patient.Repository
	appointments  appointment.Repository
	consultations consultation.Repository
	invoices      invoice.Repository
	sync          Synchronizer
	audit         audit.Sink
	logger        zerolog.Logger
	now           func() time.Time
}

func NewService(
	patients patient.Repository,
	appointments appointment.Repository,
	consultations consultation.Repository,
	invoices invoice.Repository,
	sync Synchronizer,
	sink audit.Sink,
	logger zerolog.Logger,
) *Service {
	return &Service{
		patients:      patients,
		appointments:  appointments,
		consultations: consultations,
		invoices:      invoices,
		sync:          sync,
		audit:         sink,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock fixes the migration timestamp for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// MigrateReport counts the records promoted per collection. Errors covers
// both list failures (the whole collection is skipped) and individual
// write failures.
type MigrateReport struct {
	MigratedPatients      int `json:"migrated_patients"`
	MigratedAppointments  int `json:"migrated_appointments"`
	MigratedConsultations int `json:"migrated_consultations"`
	MigratedInvoices      int `json:"migrated_invoices"`
	SyncedPatients        int `json:"synced_patients"`
	Errors                int `json:"errors"`
}

// CollectionCounts is one row of the test-data report.
type CollectionCounts struct {
	Total int `json:"total"`
	Test  int `json:"test"`
	Real  int `json:"real"`
}

// StatusReport is a read-only snapshot of test-data volume per collection.
// OrphanedAppointments counts appointments whose patient id no longer
// resolves. The check is recomputed here on every call; it does not read
// the verifier's tags, so the count is current even when no verify pass
// has run.
type StatusReport struct {
	Patients             CollectionCounts `json:"patients"`
	Appointments         CollectionCounts `json:"appointments"`
	Consultations        CollectionCounts `json:"consultations"`
	Invoices             CollectionCounts `json:"invoices"`
	OrphanedAppointments int              `json:"orphaned_appointments"`
}

// Migrate promotes every test-data record owned by the osteopath. Each
// collection is processed independently; a collection whose listing fails
// is skipped, not fatal. One pointer resync runs at the end regardless of
// partial failures.
func (s *Service) Migrate(ctx context.Context, osteopathID uuid.UUID, actor string) (*MigrateReport, error) {
	stamp := s.now().UTC()
	report := &MigrateReport{}

	patients, err := s.patients.ListTestData(ctx, osteopathID)
	if err != nil {
		report.Errors++
		s.logger.Error().Err(err).Msg("migration: list test patients failed")
	} else {
		for _, p := range patients {
			p.IsTestData = false
			p.MigratedAt = &stamp
			p.MigratedBy = actor
			p.UpdatedAt = stamp
			if err := s.patients.Put(ctx, p); err != nil {
				report.Errors++
				s.logger.Error().Err(err).
					Str("patient_id", p.ID.String()).
					Msg("migration: patient write failed")
				continue
			}
			report.MigratedPatients++
		}
	}

	appointments, err := s.appointments.ListTestData(ctx, osteopathID)
	if err != nil {
		report.Errors++
		s.logger.Error().Err(err).Msg("migration: list test appointments failed")
	} else {
		for _, a := range appointments {
			a.IsTestData = false
			a.MigratedAt = &stamp
			a.MigratedBy = actor
			a.UpdatedAt = stamp
			if err := s.appointments.Put(ctx, a); err != nil {
				report.Errors++
				s.logger.Error().Err(err).
					Str("appointment_id", a.ID.String()).
					Msg("migration: appointment write failed")
				continue
			}
			report.MigratedAppointments++
		}
	}

	consultations, err := s.consultations.ListTestData(ctx, osteopathID)
	if err != nil {
		report.Errors++
		s.logger.Error().Err(err).Msg("migration: list test consultations failed")
	} else {
		for _, c := range consultations {
			c.IsTestData = false
			c.MigratedAt = &stamp
			c.MigratedBy = actor
			c.UpdatedAt = stamp
			if err := s.consultations.Put(ctx, c); err != nil {
				report.Errors++
				s.logger.Error().Err(err).
					Str("consultation_id", c.ID.String()).
					Msg("migration: consultation write failed")
				continue
			}
			report.MigratedConsultations++
		}
	}

	invoices, err := s.invoices.ListTestData(ctx, osteopathID)
	if err != nil {
		report.Errors++
		s.logger.Error().Err(err).Msg("migration: list test invoices failed")
	} else {
		for _, inv := range invoices {
			inv.IsTestData = false
			inv.MigratedAt = &stamp
			inv.MigratedBy = actor
			inv.UpdatedAt = stamp
			if err := s.invoices.Put(ctx, inv); err != nil {
				report.Errors++
				s.logger.Error().Err(err).
					Str("invoice_id", inv.ID.String()).
					Msg("migration: invoice write failed")
				continue
			}
			report.MigratedInvoices++
		}
	}

	syncResult, err := s.sync.SyncAll(ctx, osteopathID)
	if err != nil {
		report.Errors++
		s.logger.Error().Err(err).Msg("migration: post-promotion sync failed")
	} else {
		report.SyncedPatients = syncResult.Updated
		report.Errors += syncResult.Errors
	}

	outcome := "success"
	if report.Errors > 0 {
		outcome = "partial"
	}
	s.audit.Emit(ctx, audit.Event{
		EventKind:    "test_data_migration",
		ResourcePath: "test-data/migrate",
		Action:       "update",
		Sensitivity:  "phi",
		Outcome:      outcome,
		Detail: fmt.Sprintf("promoted %d patients, %d appointments, %d consultations, %d invoices, %d errors",
			report.MigratedPatients, report.MigratedAppointments,
			report.MigratedConsultations, report.MigratedInvoices, report.Errors),
		Actor:       actor,
		OsteopathID: osteopathID,
	})
	return report, nil
}

// Report builds the read-only test-data snapshot. Any listing failure is
// fatal here; a partial snapshot would be misleading.
func (s *Service) Report(ctx context.Context, osteopathID uuid.UUID) (*StatusReport, error) {
	report := &StatusReport{}

	patients, err := s.patients.ListByOsteopath(ctx, osteopathID)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	report.Patients.Total = len(patients)
	known := make(map[uuid.UUID]bool, len(patients))
	for _, p := range patients {
		known[p.ID] = true
		if p.IsTestData {
			report.Patients.Test++
		}
	}
	report.Patients.Real = report.Patients.Total - report.Patients.Test

	appointments, err := s.appointments.ListByOsteopath(ctx, osteopathID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	report.Appointments.Total = len(appointments)
	for _, a := range appointments {
		if a.IsTestData {
			report.Appointments.Test++
		}
		if !known[a.PatientID] {
			report.OrphanedAppointments++
		}
	}
	report.Appointments.Real = report.Appointments.Total - report.Appointments.Test

	consultations, err := s.consultations.ListByOsteopath(ctx, osteopathID)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	report.Consultations.Total = len(consultations)
	for _, c := range consultations {
		if c.IsTestData {
			report.Consultations.Test++
		}
	}
	report.Consultations.Real = report.Consultations.Total - report.Consultations.Test

	invoices, err := s.invoices.ListByOsteopath(ctx, osteopathID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	report.Invoices.Total = len(invoices)
	for _, inv := range invoices {
		if inv.IsTestData {
			report.Invoices.Test++
		}
	}
	report.Invoices.Real = report.Invoices.Total - report.Invoices.Test

	return report, nil
}

package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/osteopraxis/praxis/internal/domain/patient"
	"github.com/osteopraxis/praxis/internal/platform/audit"
	"github.com/osteopraxis/praxis/internal/platform/store"
)

// Synchronizer is the pointer write path the lifecycle manager triggers
// after mutations. Satisfied by the syncer service.
type Synchronizer interface {
	SyncPatient(ctx context.Context, osteopathID, patientID uuid.UUID) (bool, error)
	PromoteIfEarlier(ctx context.Context, osteopathID, patientID uuid.UUID, date time.Time) error
}

// Service is the appointment lifecycle manager. Single-item operations
// fail fast; BulkDelete is best-effort and reports partial success.
type Service struct {
	appointments Repository
	patients     patient.Repository
	sync         Synchronizer
	audit        audit.Sink
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(appointments Repository, patients patient.Repository, sync Synchronizer, sink audit.Sink, logger zerolog.Logger) *Service {
	return &Service{
		appointments: appointments,
		patients:     patients,
		sync:         sync,
		audit:        sink,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock overrides the reference clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// BulkDeleteResult aggregates a tenant-wide appointment purge.
type BulkDeleteResult struct {
	Count  int `json:"count"`
	Errors int `json:"errors"`
}

func (s *Service) Create(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !ValidStatus(a.Status) {
		return fmt.Errorf("invalid appointment status: %s", a.Status)
	}

	if _, err := s.patients.GetByID(ctx, a.OsteopathID, a.PatientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: patient %s", store.ErrReferenceNotFound, a.PatientID)
		}
		return err
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := s.now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	if err := s.appointments.Put(ctx, a); err != nil {
		return err
	}
	s.emit(ctx, a, "create")

	// Fast path: a newly booked future visit can only pull the pointer
	// earlier. The next full sync heals any divergence this shortcut
	// leaves behind.
	if a.Date.After(s.now()) && !terminal(a.Status) {
		if err := s.sync.PromoteIfEarlier(ctx, a.OsteopathID, a.PatientID, a.Date); err != nil {
			s.logger.Error().Err(err).
				Str("patient_id", a.PatientID.String()).
				Msg("pointer promotion failed after appointment create")
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, osteopathID, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, osteopathID, id)
}

func (s *Service) ListByPatient(ctx context.Context, osteopathID, patientID uuid.UUID) ([]*Appointment, error) {
	return s.appointments.ListByPatient(ctx, osteopathID, patientID)
}

func (s *Service) ListByOsteopath(ctx context.Context, osteopathID uuid.UUID) ([]*Appointment, error) {
	return s.appointments.ListByOsteopath(ctx, osteopathID)
}

func (s *Service) Update(ctx context.Context, a *Appointment) error {
	existing, err := s.appointments.GetByID(ctx, a.OsteopathID, a.ID)
	if err != nil {
		return err
	}

	if a.Status == "" {
		a.Status = existing.Status
	}
	if !ValidStatus(a.Status) {
		return fmt.Errorf("invalid appointment status: %s", a.Status)
	}
	if !CanTransition(existing.Status, a.Status) {
		return fmt.Errorf("cannot transition appointment from %s to %s", existing.Status, a.Status)
	}
	if a.Date.IsZero() {
		a.Date = existing.Date
	}
	if a.PatientID == uuid.Nil {
		a.PatientID = existing.PatientID
	}
	if a.PatientID != existing.PatientID {
		if _, err := s.patients.GetByID(ctx, a.OsteopathID, a.PatientID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: patient %s", store.ErrReferenceNotFound, a.PatientID)
			}
			return err
		}
	}

	a.IsTestData = existing.IsTestData
	a.PatientMissing = existing.PatientMissing
	a.MigratedAt = existing.MigratedAt
	a.MigratedBy = existing.MigratedBy
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = s.now().UTC()

	if err := s.appointments.Put(ctx, a); err != nil {
		return err
	}
	s.emit(ctx, a, "update")

	s.resync(ctx, a.OsteopathID, existing.PatientID)
	if a.PatientID != existing.PatientID {
		s.resync(ctx, a.OsteopathID, a.PatientID)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, osteopathID, id uuid.UUID) error {
	existing, err := s.appointments.GetByID(ctx, osteopathID, id)
	if err != nil {
		return err
	}
	if err := s.appointments.Delete(ctx, osteopathID, id); err != nil {
		return err
	}
	s.emit(ctx, existing, "delete")
	// SyncPatient itself skips (and logs) patients deleted out of band.
	s.resync(ctx, osteopathID, existing.PatientID)
	return nil
}

// BulkDelete removes every appointment for the tenant, then re-derives the
// pointer once per touched patient. Pointer syncs run after all deletions
// so a patient with several appointments is recomputed a single time.
func (s *Service) BulkDelete(ctx context.Context, osteopathID uuid.UUID) (*BulkDeleteResult, error) {
	appointments, err := s.appointments.ListByOsteopath(ctx, osteopathID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	result := &BulkDeleteResult{}
	touched := make(map[uuid.UUID]bool)
	for _, a := range appointments {
		if err := s.appointments.Delete(ctx, osteopathID, a.ID); err != nil {
			result.Errors++
			s.logger.Error().Err(err).
				Str("appointment_id", a.ID.String()).
				Msg("bulk delete: appointment delete failed")
			continue
		}
		result.Count++
		touched[a.PatientID] = true
	}

	for patientID := range touched {
		if _, err := s.sync.SyncPatient(ctx, osteopathID, patientID); err != nil {
			result.Errors++
			s.logger.Error().Err(err).
				Str("patient_id", patientID.String()).
				Msg("bulk delete: pointer sync failed")
		}
	}

	outcome := "success"
	if result.Errors > 0 {
		outcome = "partial"
	}
	s.audit.Emit(ctx, audit.Event{
		EventKind:    "data_mutation",
		ResourcePath: "appointments",
		Action:       "delete",
		Sensitivity:  "phi",
		Outcome:      outcome,
		Detail:       fmt.Sprintf("bulk delete: %d removed, %d errors", result.Count, result.Errors),
		OsteopathID:  osteopathID,
	})
	return result, nil
}

func (s *Service) resync(ctx context.Context, osteopathID, patientID uuid.UUID) {
	if _, err := s.sync.SyncPatient(ctx, osteopathID, patientID); err != nil {
		s.logger.Error().Err(err).
			Str("patient_id", patientID.String()).
			Msg("next-appointment sync failed after appointment change")
	}
}

func (s *Service) emit(ctx context.Context, a *Appointment, action string) {
	s.audit.Emit(ctx, audit.Event{
		EventKind:    "data_mutation",
		ResourcePath: "appointments/" + a.ID.String(),
		Action:       action,
		Sensitivity:  "phi",
		Outcome:      "success",
		OsteopathID:  a.OsteopathID,
	})
}

func terminal(status string) bool {
	return status == StatusCancelled || status == StatusCompleted
}

// Package syncer owns the derived next-appointment pointer on Patient
// records. The pointer is a materialized view over the patient's
// consultations; no other code path writes it. Re-running any operation
// here against unchanged consultations is a no-op, so a crash between a
// consultation write and the pointer write heals on the next pass.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/osteopraxis/praxis/internal/domain/consultation"
	"github.com/osteopraxis/praxis/internal/domain/patient"
	"github.com/osteopraxis/praxis/internal/platform/store"
)

type Service struct {
	patients      patient.Repository
	consultations consultation.Repository
	logger        zerolog.Logger
	now           func() time.Time
}

func NewService(patients patient.Repository, consultations consultation.Repository, logger zerolog.Logger) *Service {
	return &Service{
		patients:      patients,
		consultations: consultations,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock overrides the reference clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// BatchResult aggregates a tenant-wide synchronization pass.
type BatchResult struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Errors    int `json:"errors"`
}

// SyncPatient recomputes one patient's next-appointment pointer from the
// patient's non-terminal future consultations. A patient that no longer
// exists is a logged no-op: the caller may be racing an out-of-band
// deletion. Returns whether the stored pointer changed.
func (s *Service) SyncPatient(ctx context.Context, osteopathID, patientID uuid.UUID) (bool, error) {
	p, err := s.patients.GetByID(ctx, osteopathID, patientID)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Debug().
			Str("patient_id", patientID.String()).
			Msg("skipping next-appointment sync: patient no longer exists")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	consultations, err := s.consultations.ListByPatient(ctx, osteopathID, patientID)
	if err != nil {
		return false, err
	}

	next := nextAppointment(consultations, s.now())
	if equalPointers(p.NextAppointment, next) {
		return false, nil
	}

	p.NextAppointment = next
	p.UpdatedAt = s.now().UTC()
	if err := s.patients.Put(ctx, p); err != nil {
		return false, fmt.Errorf("write next-appointment pointer: %w", err)
	}
	return true, nil
}

// PromoteIfEarlier is the fast path used when a new appointment is booked:
// if the given date is in the future and earlier than the stored pointer
// (or the pointer is unset), it is written immediately. Any discrepancy
// this shortcut introduces is healed by the next full sync.
func (s *Service) PromoteIfEarlier(ctx context.Context, osteopathID, patientID uuid.UUID, date time.Time) error {
	p, err := s.patients.GetByID(ctx, osteopathID, patientID)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Debug().
			Str("patient_id", patientID.String()).
			Msg("skipping pointer promotion: patient no longer exists")
		return nil
	}
	if err != nil {
		return err
	}

	if !date.After(s.now()) {
		return nil
	}
	truncated := date.UTC().Truncate(time.Minute)
	if p.NextAppointment != nil && !truncated.Before(*p.NextAppointment) {
		return nil
	}

	p.NextAppointment = &truncated
	p.UpdatedAt = s.now().UTC()
	return s.patients.Put(ctx, p)
}

// SyncAll re-derives the pointer for every patient of the tenant. One
// patient failing does not abort the pass; failures are counted and the
// caller reports partial success. Failing to list the patients at all
// aborts the batch.
func (s *Service) SyncAll(ctx context.Context, osteopathID uuid.UUID) (*BatchResult, error) {
	patients, err := s.patients.ListByOsteopath(ctx, osteopathID)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}

	result := &BatchResult{}
	for _, p := range patients {
		result.Processed++
		updated, err := s.SyncPatient(ctx, osteopathID, p.ID)
		if err != nil {
			result.Errors++
			s.logger.Error().Err(err).
				Str("patient_id", p.ID.String()).
				Msg("next-appointment sync failed")
			continue
		}
		if updated {
			result.Updated++
		}
	}
	return result, nil
}

// nextAppointment selects the earliest consultation date strictly after now
// among non-terminal consultations, truncated to minute resolution. Returns
// nil when the patient has no upcoming consultation.
func nextAppointment(consultations []*consultation.Consultation, now time.Time) *time.Time {
	var next *time.Time
	for _, c := range consultations {
		if consultation.Terminal(c.Status) || !c.Date.After(now) {
			continue
		}
		d := c.Date.UTC().Truncate(time.Minute)
		if next == nil || d.Before(*next) {
			next = &d
		}
	}
	return next
}

func equalPointers(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

package consultation

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

// Synchronizer re-derives a patient's next-appointment pointer. Satisfied by
// the syncer service; declared here so the dependency points outward.
type Synchronizer interface {
	SyncPatient(ctx context.Context, osteopathID, patientID uuid.UUID) (bool, error)
}

type Service struct {
	consultations Repository
	patients      patient.Repository
	sync          Synchronizer
	audit         audit.Sink
	logger        zerolog.Logger
}

func NewService(consultations Repository, patients patient.Repository, sync Synchronizer, sink audit.Sink, logger zerolog.Logger) *Service {
	return &Service{consultations: consultations, patients: patients, sync: sync, audit: sink, logger: logger}
}

func (s *Service) Create(ctx context.Context, c *Consultation) error {
	if c.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if c.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if c.Status == "" {
		c.Status = StatusDraft
	}
	if !ValidStatus(c.Status) {
		return fmt.Errorf("invalid consultation status: %s", c.Status)
	}

	if _, err := s.patients.GetByID(ctx, c.OsteopathID, c.PatientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: patient %s", store.ErrReferenceNotFound, c.PatientID)
		}
		return err
	}

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := s.consultations.Put(ctx, c); err != nil {
		return err
	}
	s.emit(ctx, c, "create")
	s.resync(ctx, c.OsteopathID, c.PatientID)
	return nil
}

func (s *Service) Get(ctx context.Context, osteopathID, id uuid.UUID) (*Consultation, error) {
	return s.consultations.GetByID(ctx, osteopathID, id)
}

func (s *Service) ListByPatient(ctx context.Context, osteopathID, patientID uuid.UUID) ([]*Consultation, error) {
	return s.consultations.ListByPatient(ctx, osteopathID, patientID)
}

func (s *Service) Update(ctx context.Context, c *Consultation) error {
	existing, err := s.consultations.GetByID(ctx, c.OsteopathID, c.ID)
	if err != nil {
		return err
	}
	if c.Status == "" {
		c.Status = existing.Status
	}
	if !ValidStatus(c.Status) {
		return fmt.Errorf("invalid consultation status: %s", c.Status)
	}
	if c.Date.IsZero() {
		c.Date = existing.Date
	}
	if c.PatientID == uuid.Nil {
		c.PatientID = existing.PatientID
	}
	if c.PatientID != existing.PatientID {
		if _, err := s.patients.GetByID(ctx, c.OsteopathID, c.PatientID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: patient %s", store.ErrReferenceNotFound, c.PatientID)
			}
			return err
		}
	}

	c.IsTestData = existing.IsTestData
	c.PatientMissing = existing.PatientMissing
	c.MigratedAt = existing.MigratedAt
	c.MigratedBy = existing.MigratedBy
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	if err := s.consultations.Put(ctx, c); err != nil {
		return err
	}
	s.emit(ctx, c, "update")

	s.resync(ctx, c.OsteopathID, existing.PatientID)
	if c.PatientID != existing.PatientID {
		s.resync(ctx, c.OsteopathID, c.PatientID)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, osteopathID, id uuid.UUID) error {
	existing, err := s.consultations.GetByID(ctx, osteopathID, id)
	if err != nil {
		return err
	}
	if err := s.consultations.Delete(ctx, osteopathID, id); err != nil {
		return err
	}
	s.emit(ctx, existing, "delete")
	s.resync(ctx, osteopathID, existing.PatientID)
	return nil
}

// resync heals the derived pointer after a consultation mutation. A sync
// failure leaves the pointer stale until the next run; it never fails the
// consultation write that already happened.
func (s *Service) resync(ctx context.Context, osteopathID, patientID uuid.UUID) {
	if _, err := s.sync.SyncPatient(ctx, osteopathID, patientID); err != nil {
		s.logger.Error().Err(err).
			Str("patient_id", patientID.String()).
			Msg("next-appointment sync failed after consultation change")
	}
}

func (s *Service) emit(ctx context.Context, c *Consultation, action string) {
	s.audit.Emit(ctx, audit.Event{
		EventKind:    "data_mutation",
		ResourcePath: "consultations/" + c.ID.String(),
		Action:       action,
		Sensitivity:  "phi",
		Outcome:      "success",
		OsteopathID:  c.OsteopathID,
	})
}

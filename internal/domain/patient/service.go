package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/osteopraxis/praxis/internal/platform/audit"
)

type Service struct {
	patients Repository
	audit    audit.Sink
	logger   zerolog.Logger
}

func NewService(patients Repository, sink audit.Sink, logger zerolog.Logger) *Service {
	return &Service{patients: patients, audit: sink, logger: logger}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if p.LastName == "" {
		return fmt.Errorf("last_name is required")
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.NextAppointment = nil
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.patients.Put(ctx, p); err != nil {
		return err
	}
	s.audit.Emit(ctx, audit.Event{
		EventKind:    "data_mutation",
		ResourcePath: "patients/" + p.ID.String(),
		Action:       "create",
		Sensitivity:  "phi",
		Outcome:      "success",
		OsteopathID:  p.OsteopathID,
	})
	return nil
}

func (s *Service) Get(ctx context.Context, osteopathID, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, osteopathID, id)
}

func (s *Service) List(ctx context.Context, osteopathID uuid.UUID) ([]*Patient, error) {
	return s.patients.ListByOsteopath(ctx, osteopathID)
}

// Update rewrites a patient's demographics. The derived next-appointment
// pointer and the test-data flags are owned by the synchronizer and the
// status migrator and are carried over from the stored record untouched.
func (s *Service) Update(ctx context.Context, p *Patient) error {
	existing, err := s.patients.GetByID(ctx, p.OsteopathID, p.ID)
	if err != nil {
		return err
	}
	if p.LastName == "" {
		return fmt.Errorf("last_name is required")
	}

	p.NextAppointment = existing.NextAppointment
	p.IsTestData = existing.IsTestData
	p.MigratedAt = existing.MigratedAt
	p.MigratedBy = existing.MigratedBy
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	if err := s.patients.Put(ctx, p); err != nil {
		return err
	}
	s.audit.Emit(ctx, audit.Event{
		EventKind:    "data_mutation",
		ResourcePath: "patients/" + p.ID.String(),
		Action:       "update",
		Sensitivity:  "phi",
		Outcome:      "success",
		OsteopathID:  p.OsteopathID,
	})
	return nil
}

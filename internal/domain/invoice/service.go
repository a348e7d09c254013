package invoice

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

type Service struct {
	invoices Repository
	patients patient.Repository
	audit    audit.Sink
	logger   zerolog.Logger
}

func NewService(invoices Repository, patients patient.Repository, sink audit.Sink, logger zerolog.Logger) *Service {
	return &Service{invoices: invoices, patients: patients, audit: sink, logger: logger}
}

func (s *Service) Create(ctx context.Context, inv *Invoice) error {
	if inv.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if inv.Status == "" {
		inv.Status = StatusDraft
	}
	if !ValidStatus(inv.Status) {
		return fmt.Errorf("invalid invoice status: %s", inv.Status)
	}

	if _, err := s.patients.GetByID(ctx, inv.OsteopathID, inv.PatientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: patient %s", store.ErrReferenceNotFound, inv.PatientID)
		}
		return err
	}

	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now

	if err := s.invoices.Put(ctx, inv); err != nil {
		return err
	}
	s.emit(ctx, inv, "create")
	return nil
}

func (s *Service) Get(ctx context.Context, osteopathID, id uuid.UUID) (*Invoice, error) {
	return s.invoices.GetByID(ctx, osteopathID, id)
}

func (s *Service) ListByPatient(ctx context.Context, osteopathID, patientID uuid.UUID) ([]*Invoice, error) {
	return s.invoices.ListByPatient(ctx, osteopathID, patientID)
}

func (s *Service) Update(ctx context.Context, inv *Invoice) error {
	existing, err := s.invoices.GetByID(ctx, inv.OsteopathID, inv.ID)
	if err != nil {
		return err
	}
	if inv.Status == "" {
		inv.Status = existing.Status
	}
	if !ValidStatus(inv.Status) {
		return fmt.Errorf("invalid invoice status: %s", inv.Status)
	}
	if inv.PatientID == uuid.Nil {
		inv.PatientID = existing.PatientID
	}

	inv.IsTestData = existing.IsTestData
	inv.PatientMissing = existing.PatientMissing
	inv.MigratedAt = existing.MigratedAt
	inv.MigratedBy = existing.MigratedBy
	inv.CreatedAt = existing.CreatedAt
	inv.UpdatedAt = time.Now().UTC()

	if err := s.invoices.Put(ctx, inv); err != nil {
		return err
	}
	s.emit(ctx, inv, "update")
	return nil
}

func (s *Service) Delete(ctx context.Context, osteopathID, id uuid.UUID) error {
	inv, err := s.invoices.GetByID(ctx, osteopathID, id)
	if err != nil {
		return err
	}
	if err := s.invoices.Delete(ctx, osteopathID, id); err != nil {
		return err
	}
	s.emit(ctx, inv, "delete")
	return nil
}

func (s *Service) emit(ctx context.Context, inv *Invoice, action string) {
	s.audit.Emit(ctx, audit.Event{
		EventKind:    "data_mutation",
		ResourcePath: "invoices/" + inv.ID.String(),
		Action:       action,
		Sensitivity:  "financial",
		Outcome:      "success",
		OsteopathID:  inv.OsteopathID,
	})
}

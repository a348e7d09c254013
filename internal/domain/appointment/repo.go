package appointment

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the store adapter surface for the appointments collection.
type Repository interface {
	GetByID(ctx context.Context, osteopathID, id uuid.UUID) (*Appointment, error)
	ListByOsteopath(ctx context.Context, osteopathID uuid.UUID) ([]*Appointment, error)
	ListByPatient(ctx context.Context, osteopathID, patientID uuid.UUID) ([]*Appointment, error)
	ListTestData(ctx context.Context, osteopathID uuid.UUID) ([]*Appointment, error)
	ListPatientMissing(ctx context.Context, osteopathID uuid.UUID) ([]*Appointment, error)
	Put(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, osteopathID, id uuid.UUID) error
}

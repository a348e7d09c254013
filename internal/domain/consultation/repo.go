package consultation

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the store adapter surface for the consultations collection.
type Repository interface {
	GetByID(ctx context.Context, osteopathID, id uuid.UUID) (*Consultation, error)
	ListByOsteopath(ctx context.Context, osteopathID uuid.UUID) ([]*Consultation, error)
	ListByPatient(ctx context.Context, osteopathID, patientID uuid.UUID) ([]*Consultation, error)
	ListTestData(ctx context.Context, osteopathID uuid.UUID) ([]*Consultation, error)
	ListPatientMissing(ctx context.Context, osteopathID uuid.UUID) ([]*Consultation, error)
	Put(ctx context.Context, c *Consultation) error
	Delete(ctx context.Context, osteopathID, id uuid.UUID) error
}

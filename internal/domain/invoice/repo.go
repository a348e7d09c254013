package invoice

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the store adapter surface for the invoices collection.
type Repository interface {
	GetByID(ctx context.Context, osteopathID, id uuid.UUID) (*Invoice, error)
	ListByOsteopath(ctx context.Context, osteopathID uuid.UUID) ([]*Invoice, error)
	ListByPatient(ctx context.Context, osteopathID, patientID uuid.UUID) ([]*Invoice, error)
	ListTestData(ctx context.Context, osteopathID uuid.UUID) ([]*Invoice, error)
	ListPatientMissing(ctx context.Context, osteopathID uuid.UUID) ([]*Invoice, error)
	Put(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, osteopathID, id uuid.UUID) error
}

package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the store adapter surface for the patients collection.
// All reads and writes are scoped to one osteopath. Put is an upsert;
// patients are never deleted through this core.
type Repository interface {
	GetByID(ctx context.Context, osteopathID, id uuid.UUID) (*Patient, error)
	ListByOsteopath(ctx context.Context, osteopathID uuid.UUID) ([]*Patient, error)
	ListTestData(ctx context.Context, osteopathID uuid.UUID) ([]*Patient, error)
	Put(ctx context.Context, p *Patient) error
}

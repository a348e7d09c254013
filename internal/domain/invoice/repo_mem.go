package invoice

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/osteopraxis/praxis/internal/platform/store"
)

// MemRepo is the in-memory invoices collection for sandbox mode and
// dependent test suites.
type MemRepo struct {
	mu       sync.RWMutex
	invoices map[uuid.UUID]*Invoice

	// FailDelete, when set, makes Delete fail for the given invoice id.
	// Test hook for best-effort batch semantics.
	FailDelete map[uuid.UUID]error
}

func NewMemRepo() *MemRepo {
	return &MemRepo{invoices: make(map[uuid.UUID]*Invoice)}
}

func (r *MemRepo) GetByID(_ context.Context, osteopathID, id uuid.UUID) (*Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if inv.OsteopathID != osteopathID {
		return nil, store.ErrPermissionDenied
	}
	cp := *inv
	return &cp, nil
}

func (r *MemRepo) ListByOsteopath(_ context.Context, osteopathID uuid.UUID) ([]*Invoice, error) {
	return r.list(osteopathID, func(*Invoice) bool { return true }), nil
}

func (r *MemRepo) ListByPatient(_ context.Context, osteopathID, patientID uuid.UUID) ([]*Invoice, error) {
	return r.list(osteopathID, func(inv *Invoice) bool { return inv.PatientID == patientID }), nil
}

func (r *MemRepo) ListTestData(_ context.Context, osteopathID uuid.UUID) ([]*Invoice, error) {
	return r.list(osteopathID, func(inv *Invoice) bool { return inv.IsTestData }), nil
}

func (r *MemRepo) ListPatientMissing(_ context.Context, osteopathID uuid.UUID) ([]*Invoice, error) {
	return r.list(osteopathID, func(inv *Invoice) bool { return inv.PatientMissing }), nil
}

func (r *MemRepo) list(osteopathID uuid.UUID, keep func(*Invoice) bool) []*Invoice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []*Invoice
	for _, inv := range r.invoices {
		if inv.OsteopathID == osteopathID && keep(inv) {
			cp := *inv
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items
}

func (r *MemRepo) Put(_ context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *MemRepo) Delete(_ context.Context, osteopathID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.FailDelete[id]; ok {
		return err
	}
	inv, ok := r.invoices[id]
	if !ok || inv.OsteopathID != osteopathID {
		return store.ErrNotFound
	}
	delete(r.invoices, id)
	return nil
}

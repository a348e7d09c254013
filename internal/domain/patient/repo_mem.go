package patient

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/osteopraxis/praxis/internal/platform/store"
)

// MemRepo is the in-memory patients collection. It backs sandbox mode and
// the test suites of the services built on top of this repository.
type MemRepo struct {
	mu       sync.RWMutex
	patients map[uuid.UUID]*Patient
}

func NewMemRepo() *MemRepo {
	return &MemRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (r *MemRepo) GetByID(_ context.Context, osteopathID, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p.OsteopathID != osteopathID {
		return nil, store.ErrPermissionDenied
	}
	cp := *p
	return &cp, nil
}

func (r *MemRepo) ListByOsteopath(_ context.Context, osteopathID uuid.UUID) ([]*Patient, error) {
	return r.list(osteopathID, func(*Patient) bool { return true }), nil
}

func (r *MemRepo) ListTestData(_ context.Context, osteopathID uuid.UUID) ([]*Patient, error) {
	return r.list(osteopathID, func(p *Patient) bool { return p.IsTestData }), nil
}

func (r *MemRepo) list(osteopathID uuid.UUID, keep func(*Patient) bool) []*Patient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []*Patient
	for _, p := range r.patients {
		if p.OsteopathID == osteopathID && keep(p) {
			cp := *p
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items
}

func (r *MemRepo) Put(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.patients[p.ID] = &cp
	return nil
}

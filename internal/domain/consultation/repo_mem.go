package consultation

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/osteopraxis/praxis/internal/platform/store"
)

// MemRepo is the in-memory consultations collection for sandbox mode and
// dependent test suites.
type MemRepo struct {
	mu            sync.RWMutex
	consultations map[uuid.UUID]*Consultation

	// FailPut, when set, makes Put fail for the given consultation id.
	// Test hook for best-effort batch semantics.
	FailPut map[uuid.UUID]error
}

func NewMemRepo() *MemRepo {
	return &MemRepo{consultations: make(map[uuid.UUID]*Consultation)}
}

func (r *MemRepo) GetByID(_ context.Context, osteopathID, id uuid.UUID) (*Consultation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.consultations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if c.OsteopathID != osteopathID {
		return nil, store.ErrPermissionDenied
	}
	cp := *c
	return &cp, nil
}

func (r *MemRepo) ListByOsteopath(_ context.Context, osteopathID uuid.UUID) ([]*Consultation, error) {
	return r.list(osteopathID, func(*Consultation) bool { return true }), nil
}

func (r *MemRepo) ListByPatient(_ context.Context, osteopathID, patientID uuid.UUID) ([]*Consultation, error) {
	return r.list(osteopathID, func(c *Consultation) bool { return c.PatientID == patientID }), nil
}

func (r *MemRepo) ListTestData(_ context.Context, osteopathID uuid.UUID) ([]*Consultation, error) {
	return r.list(osteopathID, func(c *Consultation) bool { return c.IsTestData }), nil
}

func (r *MemRepo) ListPatientMissing(_ context.Context, osteopathID uuid.UUID) ([]*Consultation, error) {
	return r.list(osteopathID, func(c *Consultation) bool { return c.PatientMissing }), nil
}

func (r *MemRepo) list(osteopathID uuid.UUID, keep func(*Consultation) bool) []*Consultation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []*Consultation
	for _, c := range r.consultations {
		if c.OsteopathID == osteopathID && keep(c) {
			cp := *c
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Date.Before(items[j].Date) })
	return items
}

func (r *MemRepo) Put(_ context.Context, c *Consultation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.FailPut[c.ID]; ok {
		return err
	}
	cp := *c
	r.consultations[c.ID] = &cp
	return nil
}

func (r *MemRepo) Delete(_ context.Context, osteopathID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.consultations[id]
	if !ok || c.OsteopathID != osteopathID {
		return store.ErrNotFound
	}
	delete(r.consultations, id)
	return nil
}

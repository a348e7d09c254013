package appointment

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/osteopraxis/praxis/internal/platform/store"
)

// MemRepo is the in-memory appointments collection for sandbox mode and
// dependent test suites.
type MemRepo struct {
	mu           sync.RWMutex
	appointments map[uuid.UUID]*Appointment

	// FailDelete and FailPut make the named operation fail for the given
	// appointment id. Test hooks for best-effort batch semantics.
	FailDelete map[uuid.UUID]error
	FailPut    map[uuid.UUID]error
}

func NewMemRepo() *MemRepo {
	return &MemRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (r *MemRepo) GetByID(_ context.Context, osteopathID, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if a.OsteopathID != osteopathID {
		return nil, store.ErrPermissionDenied
	}
	cp := *a
	return &cp, nil
}

func (r *MemRepo) ListByOsteopath(_ context.Context, osteopathID uuid.UUID) ([]*Appointment, error) {
	return r.list(osteopathID, func(*Appointment) bool { return true }), nil
}

func (r *MemRepo) ListByPatient(_ context.Context, osteopathID, patientID uuid.UUID) ([]*Appointment, error) {
	return r.list(osteopathID, func(a *Appointment) bool { return a.PatientID == patientID }), nil
}

func (r *MemRepo) ListTestData(_ context.Context, osteopathID uuid.UUID) ([]*Appointment, error) {
	return r.list(osteopathID, func(a *Appointment) bool { return a.IsTestData }), nil
}

func (r *MemRepo) ListPatientMissing(_ context.Context, osteopathID uuid.UUID) ([]*Appointment, error) {
	return r.list(osteopathID, func(a *Appointment) bool { return a.PatientMissing }), nil
}

func (r *MemRepo) list(osteopathID uuid.UUID, keep func(*Appointment) bool) []*Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []*Appointment
	for _, a := range r.appointments {
		if a.OsteopathID == osteopathID && keep(a) {
			cp := *a
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Date.Before(items[j].Date) })
	return items
}

func (r *MemRepo) Put(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.FailPut[a.ID]; ok {
		return err
	}
	cp := *a
	r.appointments[a.ID] = &cp
	return nil
}

func (r *MemRepo) Delete(_ context.Context, osteopathID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.FailDelete[id]; ok {
		return err
	}
	a, ok := r.appointments[id]
	if !ok || a.OsteopathID != osteopathID {
		return store.ErrNotFound
	}
	delete(r.appointments, id)
	return nil
}

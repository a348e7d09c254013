package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osteopraxis/praxis/internal/platform/store"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const patientCols = `id, osteopath_id, first_name, last_name, email, phone,
	next_appointment, is_test_data, migrated_at, migrated_by, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.OsteopathID, &p.FirstName, &p.LastName, &p.Email, &p.Phone,
		&p.NextAppointment, &p.IsTestData, &p.MigratedAt, &p.MigratedBy, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) GetByID(ctx context.Context, osteopathID, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get patient: %v", store.ErrUnavailable, err)
	}
	if p.OsteopathID != osteopathID {
		return nil, store.ErrPermissionDenied
	}
	return p, nil
}

func (r *repoPG) ListByOsteopath(ctx context.Context, osteopathID uuid.UUID) ([]*Patient, error) {
	return r.list(ctx, `SELECT `+patientCols+` FROM patients WHERE osteopath_id = $1 ORDER BY created_at`, osteopathID)
}

func (r *repoPG) ListTestData(ctx context.Context, osteopathID uuid.UUID) ([]*Patient, error) {
	return r.list(ctx, `SELECT `+patientCols+` FROM patients WHERE osteopath_id = $1 AND is_test_data ORDER BY created_at`, osteopathID)
}

func (r *repoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list patients: %v", store.ErrUnavailable, err)
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan patient: %v", store.ErrUnavailable, err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate patients: %v", store.ErrUnavailable, err)
	}
	return items, nil
}

func (r *repoPG) Put(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (`+patientCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			next_appointment = EXCLUDED.next_appointment,
			is_test_data = EXCLUDED.is_test_data,
			migrated_at = EXCLUDED.migrated_at,
			migrated_by = EXCLUDED.migrated_by,
			updated_at = EXCLUDED.updated_at`,
		p.ID, p.OsteopathID, p.FirstName, p.LastName, p.Email, p.Phone,
		p.NextAppointment, p.IsTestData, p.MigratedAt, p.MigratedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: put patient: %v", store.ErrUnavailable, err)
	}
	return nil
}

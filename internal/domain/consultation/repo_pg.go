package consultation

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

const consultationCols = `id, osteopath_id, patient_id, date, status, appointment_id,
	notes, is_test_data, patient_missing, migrated_at, migrated_by, created_at, updated_at`

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(&c.ID, &c.OsteopathID, &c.PatientID, &c.Date, &c.Status, &c.AppointmentID,
		&c.Notes, &c.IsTestData, &c.PatientMissing, &c.MigratedAt, &c.MigratedBy, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *repoPG) GetByID(ctx context.Context, osteopathID, id uuid.UUID) (*Consultation, error) {
	c, err := scanConsultation(r.pool.QueryRow(ctx,
		`SELECT `+consultationCols+` FROM consultations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get consultation: %v", store.ErrUnavailable, err)
	}
	if c.OsteopathID != osteopathID {
		return nil, store.ErrPermissionDenied
	}
	return c, nil
}

func (r *repoPG) ListByOsteopath(ctx context.Context, osteopathID uuid.UUID) ([]*Consultation, error) {
	return r.list(ctx, `SELECT `+consultationCols+` FROM consultations WHERE osteopath_id = $1 ORDER BY date`, osteopathID)
}

func (r *repoPG) ListByPatient(ctx context.Context, osteopathID, patientID uuid.UUID) ([]*Consultation, error) {
	return r.list(ctx, `SELECT `+consultationCols+` FROM consultations WHERE osteopath_id = $1 AND patient_id = $2 ORDER BY date`, osteopathID, patientID)
}

func (r *repoPG) ListTestData(ctx context.Context, osteopathID uuid.UUID) ([]*Consultation, error) {
	return r.list(ctx, `SELECT `+consultationCols+` FROM consultations WHERE osteopath_id = $1 AND is_test_data ORDER BY date`, osteopathID)
}

func (r *repoPG) ListPatientMissing(ctx context.Context, osteopathID uuid.UUID) ([]*Consultation, error) {
	return r.list(ctx, `SELECT `+consultationCols+` FROM consultations WHERE osteopath_id = $1 AND patient_missing ORDER BY date`, osteopathID)
}

func (r *repoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Consultation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list consultations: %v", store.ErrUnavailable, err)
	}
	defer rows.Close()

	var items []*Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan consultation: %v", store.ErrUnavailable, err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate consultations: %v", store.ErrUnavailable, err)
	}
	return items, nil
}

func (r *repoPG) Put(ctx context.Context, c *Consultation) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO consultations (`+consultationCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			date = EXCLUDED.date,
			status = EXCLUDED.status,
			appointment_id = EXCLUDED.appointment_id,
			notes = EXCLUDED.notes,
			is_test_data = EXCLUDED.is_test_data,
			patient_missing = EXCLUDED.patient_missing,
			migrated_at = EXCLUDED.migrated_at,
			migrated_by = EXCLUDED.migrated_by,
			updated_at = EXCLUDED.updated_at`,
		c.ID, c.OsteopathID, c.PatientID, c.Date, c.Status, c.AppointmentID,
		c.Notes, c.IsTestData, c.PatientMissing, c.MigratedAt, c.MigratedBy, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: put consultation: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, osteopathID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM consultations WHERE id = $1 AND osteopath_id = $2`, id, osteopathID)
	if err != nil {
		return fmt.Errorf("%w: delete consultation: %v", store.ErrUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

package appointment

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

const appointmentCols = `id, osteopath_id, patient_id, date, status, consultation_id,
	reason, notes, is_test_data, patient_missing, migrated_at, migrated_by, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.OsteopathID, &a.PatientID, &a.Date, &a.Status, &a.ConsultationID,
		&a.Reason, &a.Notes, &a.IsTestData, &a.PatientMissing, &a.MigratedAt, &a.MigratedBy, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) GetByID(ctx context.Context, osteopathID, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get appointment: %v", store.ErrUnavailable, err)
	}
	if a.OsteopathID != osteopathID {
		return nil, store.ErrPermissionDenied
	}
	return a, nil
}

func (r *repoPG) ListByOsteopath(ctx context.Context, osteopathID uuid.UUID) ([]*Appointment, error) {
	return r.list(ctx, `SELECT `+appointmentCols+` FROM appointments WHERE osteopath_id = $1 ORDER BY date`, osteopathID)
}

func (r *repoPG) ListByPatient(ctx context.Context, osteopathID, patientID uuid.UUID) ([]*Appointment, error) {
	return r.list(ctx, `SELECT `+appointmentCols+` FROM appointments WHERE osteopath_id = $1 AND patient_id = $2 ORDER BY date`, osteopathID, patientID)
}

func (r *repoPG) ListTestData(ctx context.Context, osteopathID uuid.UUID) ([]*Appointment, error) {
	return r.list(ctx, `SELECT `+appointmentCols+` FROM appointments WHERE osteopath_id = $1 AND is_test_data ORDER BY date`, osteopathID)
}

func (r *repoPG) ListPatientMissing(ctx context.Context, osteopathID uuid.UUID) ([]*Appointment, error) {
	return r.list(ctx, `SELECT `+appointmentCols+` FROM appointments WHERE osteopath_id = $1 AND patient_missing ORDER BY date`, osteopathID)
}

func (r *repoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list appointments: %v", store.ErrUnavailable, err)
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan appointment: %v", store.ErrUnavailable, err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate appointments: %v", store.ErrUnavailable, err)
	}
	return items, nil
}

func (r *repoPG) Put(ctx context.Context, a *Appointment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (`+appointmentCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			date = EXCLUDED.date,
			status = EXCLUDED.status,
			consultation_id = EXCLUDED.consultation_id,
			reason = EXCLUDED.reason,
			notes = EXCLUDED.notes,
			is_test_data = EXCLUDED.is_test_data,
			patient_missing = EXCLUDED.patient_missing,
			migrated_at = EXCLUDED.migrated_at,
			migrated_by = EXCLUDED.migrated_by,
			updated_at = EXCLUDED.updated_at`,
		a.ID, a.OsteopathID, a.PatientID, a.Date, a.Status, a.ConsultationID,
		a.Reason, a.Notes, a.IsTestData, a.PatientMissing, a.MigratedAt, a.MigratedBy, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: put appointment: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, osteopathID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM appointments WHERE id = $1 AND osteopath_id = $2`, id, osteopathID)
	if err != nil {
		return fmt.Errorf("%w: delete appointment: %v", store.ErrUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

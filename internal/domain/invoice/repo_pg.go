package invoice

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

const invoiceCols = `id, osteopath_id, patient_id, number, amount_cents, status,
	is_test_data, patient_missing, migrated_at, migrated_by, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.OsteopathID, &inv.PatientID, &inv.Number, &inv.AmountCents, &inv.Status,
		&inv.IsTestData, &inv.PatientMissing, &inv.MigratedAt, &inv.MigratedBy, &inv.CreatedAt, &inv.UpdatedAt)
	return &inv, err
}

func (r *repoPG) GetByID(ctx context.Context, osteopathID, id uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get invoice: %v", store.ErrUnavailable, err)
	}
	if inv.OsteopathID != osteopathID {
		return nil, store.ErrPermissionDenied
	}
	return inv, nil
}

func (r *repoPG) ListByOsteopath(ctx context.Context, osteopathID uuid.UUID) ([]*Invoice, error) {
	return r.list(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE osteopath_id = $1 ORDER BY created_at`, osteopathID)
}

func (r *repoPG) ListByPatient(ctx context.Context, osteopathID, patientID uuid.UUID) ([]*Invoice, error) {
	return r.list(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE osteopath_id = $1 AND patient_id = $2 ORDER BY created_at`, osteopathID, patientID)
}

func (r *repoPG) ListTestData(ctx context.Context, osteopathID uuid.UUID) ([]*Invoice, error) {
	return r.list(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE osteopath_id = $1 AND is_test_data ORDER BY created_at`, osteopathID)
}

func (r *repoPG) ListPatientMissing(ctx context.Context, osteopathID uuid.UUID) ([]*Invoice, error) {
	return r.list(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE osteopath_id = $1 AND patient_missing ORDER BY created_at`, osteopathID)
}

func (r *repoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Invoice, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list invoices: %v", store.ErrUnavailable, err)
	}
	defer rows.Close()

	var items []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan invoice: %v", store.ErrUnavailable, err)
		}
		items = append(items, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate invoices: %v", store.ErrUnavailable, err)
	}
	return items, nil
}

func (r *repoPG) Put(ctx context.Context, inv *Invoice) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO invoices (`+invoiceCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			number = EXCLUDED.number,
			amount_cents = EXCLUDED.amount_cents,
			status = EXCLUDED.status,
			is_test_data = EXCLUDED.is_test_data,
			patient_missing = EXCLUDED.patient_missing,
			migrated_at = EXCLUDED.migrated_at,
			migrated_by = EXCLUDED.migrated_by,
			updated_at = EXCLUDED.updated_at`,
		inv.ID, inv.OsteopathID, inv.PatientID, inv.Number, inv.AmountCents, inv.Status,
		inv.IsTestData, inv.PatientMissing, inv.MigratedAt, inv.MigratedBy, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: put invoice: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, osteopathID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM invoices WHERE id = $1 AND osteopath_id = $2`, id, osteopathID)
	if err != nil {
		return fmt.Errorf("%w: delete invoice: %v", store.ErrUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

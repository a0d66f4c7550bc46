package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinhq/clinic-api/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const invCols = `id, patient_id, treatment_id, appointment_id, status, subtotal, total, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	inv := &Invoice{}
	err := row.Scan(&inv.ID, &inv.PatientID, &inv.TreatmentID, &inv.AppointmentID,
		&inv.Status, &inv.Subtotal, &inv.Total, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *repoPG) GetByTreatment(ctx context.Context, treatmentID uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+invCols+` FROM invoice WHERE treatment_id = $1 AND status <> $2`, treatmentID, StatusVoid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return inv, err
}

func (r *repoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+invCols+` FROM invoice WHERE appointment_id = $1 AND status <> $2`, appointmentID, StatusVoid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return inv, err
}

func (r *repoPG) ListItems(ctx context.Context, invoiceID uuid.UUID) ([]InvoiceItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, invoice_id, position, description, kind, quantity, unit_price, line_total
		FROM invoice_item WHERE invoice_id = $1 ORDER BY position`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InvoiceItem
	for rows.Next() {
		var it InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Position, &it.Description,
			&it.Kind, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, inv *Invoice, items []InvoiceItem) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.Status == "" {
		inv.Status = StatusUnpaid
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO invoice (id, patient_id, treatment_id, appointment_id, status, subtotal, total)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		inv.ID, inv.PatientID, inv.TreatmentID, inv.AppointmentID, inv.Status, inv.Subtotal, inv.Total)
	if err != nil {
		return err
	}
	return r.insertItems(ctx, inv.ID, items)
}

func (r *repoPG) Replace(ctx context.Context, inv *Invoice, items []InvoiceItem) error {
	if _, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM invoice_item WHERE invoice_id = $1`, inv.ID); err != nil {
		return err
	}
	if _, err := r.conn(ctx).Exec(ctx, `
		UPDATE invoice SET subtotal = $2, total = $3, updated_at = NOW()
		WHERE id = $1`,
		inv.ID, inv.Subtotal, inv.Total); err != nil {
		return err
	}
	return r.insertItems(ctx, inv.ID, items)
}

func (r *repoPG) insertItems(ctx context.Context, invoiceID uuid.UUID, items []InvoiceItem) error {
	for i := range items {
		it := &items[i]
		it.ID = uuid.New()
		it.InvoiceID = invoiceID
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO invoice_item (id, invoice_id, position, description, kind, quantity, unit_price, line_total)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			it.ID, it.InvoiceID, it.Position, it.Description, it.Kind, it.Quantity, it.UnitPrice, it.LineTotal); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM invoice_item WHERE invoice_id = $1`, id); err != nil {
		return err
	}
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM invoice WHERE id = $1`, id)
	return err
}

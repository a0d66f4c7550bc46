package catalog

import (
	"context"

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

const medCols = `id, name, unit, price, stock_qty, active, created_at, updated_at`

func (r *repoPG) GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+medCols+` FROM medication WHERE id = $1`, id)
	m := &Medication{}
	err := row.Scan(&m.ID, &m.Name, &m.Unit, &m.Price, &m.StockQty, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repoPG) ListMedications(ctx context.Context, limit, offset int) ([]*Medication, int, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+medCols+` FROM medication WHERE active ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var meds []*Medication
	for rows.Next() {
		m := &Medication{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Unit, &m.Price, &m.StockQty, &m.Active, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, err
		}
		meds = append(meds, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medication WHERE active`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return meds, total, nil
}

func (r *repoPG) UpdateMedicationStock(ctx context.Context, id uuid.UUID, newQty int) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE medication SET stock_qty = $2, updated_at = NOW() WHERE id = $1`, id, newQty)
	return err
}

const svcCols = `id, name, price, duration_minutes, delivery_mode, active, created_at, updated_at`

func (r *repoPG) GetService(ctx context.Context, id uuid.UUID) (*ClinicService, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+svcCols+` FROM clinic_service WHERE id = $1`, id)
	s := &ClinicService{}
	err := row.Scan(&s.ID, &s.Name, &s.Price, &s.DurationMinutes, &s.DeliveryMode, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repoPG) ListServices(ctx context.Context, limit, offset int) ([]*ClinicService, int, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+svcCols+` FROM clinic_service WHERE active ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var svcs []*ClinicService
	for rows.Next() {
		s := &ClinicService{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Price, &s.DurationMinutes, &s.DeliveryMode, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		svcs = append(svcs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM clinic_service WHERE active`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return svcs, total, nil
}

func (r *repoPG) AddStockMovement(ctx context.Context, m *StockMovement) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO stock_movement (id, medication_id, delta, previous_qty, new_qty, reference)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		m.ID, m.MedicationID, m.Delta, m.PreviousQty, m.NewQty, m.Reference,
	)
	return err
}

func (r *repoPG) ListStockMovements(ctx context.Context, medicationID uuid.UUID, limit, offset int) ([]*StockMovement, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, medication_id, delta, previous_qty, new_qty, reference, created_at
		FROM stock_movement WHERE medication_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, medicationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moves []*StockMovement
	for rows.Next() {
		m := &StockMovement{}
		if err := rows.Scan(&m.ID, &m.MedicationID, &m.Delta, &m.PreviousQty, &m.NewQty, &m.Reference, &m.CreatedAt); err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	return moves, rows.Err()
}

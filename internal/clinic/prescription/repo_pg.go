package prescription

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

const rxCols = `id, treatment_id, patient_id, provider_id, status, notes, created_at, updated_at`

func (r *repoPG) GetByTreatment(ctx context.Context, treatmentID uuid.UUID) (*Prescription, error) {
	p := &Prescription{}
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+rxCols+` FROM prescription WHERE treatment_id = $1 AND status <> $2`,
		treatmentID, StatusCancelled).
		Scan(&p.ID, &p.TreatmentID, &p.PatientID, &p.ProviderID, &p.Status, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) ListItems(ctx context.Context, prescriptionID uuid.UUID) ([]Item, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, prescription_id, position, medication_id, name, dosage, frequency, duration, quantity, instructions
		FROM prescription_item WHERE prescription_id = $1 ORDER BY position`, prescriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.PrescriptionID, &it.Position, &it.MedicationID,
			&it.Name, &it.Dosage, &it.Frequency, &it.Duration, &it.Quantity, &it.Instructions); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, p *Prescription, items []Item) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription (id, treatment_id, patient_id, provider_id, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.TreatmentID, p.PatientID, p.ProviderID, p.Status, p.Notes)
	if err != nil {
		return err
	}
	return r.insertItems(ctx, p.ID, items)
}

func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescription SET provider_id = $2, status = $3, notes = $4, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.ProviderID, p.Status, p.Notes)
	return err
}

func (r *repoPG) ReplaceItems(ctx context.Context, prescriptionID uuid.UUID, items []Item) error {
	if _, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM prescription_item WHERE prescription_id = $1`, prescriptionID); err != nil {
		return err
	}
	return r.insertItems(ctx, prescriptionID, items)
}

func (r *repoPG) insertItems(ctx context.Context, prescriptionID uuid.UUID, items []Item) error {
	for i := range items {
		it := &items[i]
		it.ID = uuid.New()
		it.PrescriptionID = prescriptionID
		it.Position = i
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO prescription_item (id, prescription_id, position, medication_id, name, dosage, frequency, duration, quantity, instructions)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			it.ID, it.PrescriptionID, it.Position, it.MedicationID, it.Name,
			it.Dosage, it.Frequency, it.Duration, it.Quantity, it.Instructions); err != nil {
			return err
		}
	}
	return nil
}

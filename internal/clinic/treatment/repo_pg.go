package treatment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinhq/clinic-api/internal/platform/db"
)

// ErrNotFound is returned when a treatment id resolves to no row.
var ErrNotFound = errors.New("treatment not found")

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

const treatCols = `id, patient_id, provider_id, treatment_date, symptoms, diagnosis, plan, notes,
	vitals, follow_up_date, source_appointment_id, created_at, updated_at`

func scanTreatment(row pgx.Row) (*Treatment, error) {
	t := &Treatment{}
	err := row.Scan(&t.ID, &t.PatientID, &t.ProviderID, &t.TreatmentDate,
		&t.Symptoms, &t.Diagnosis, &t.Plan, &t.Notes,
		&t.Vitals, &t.FollowUpDate, &t.SourceAppointmentID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *repoPG) Create(ctx context.Context, t *Treatment) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO treatment (id, patient_id, provider_id, treatment_date, symptoms, diagnosis, plan, notes,
			vitals, follow_up_date, source_appointment_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		t.ID, t.PatientID, t.ProviderID, t.TreatmentDate, t.Symptoms, t.Diagnosis, t.Plan, t.Notes,
		t.Vitals, t.FollowUpDate, t.SourceAppointmentID)
	return err
}

func (r *repoPG) Get(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	t, err := scanTreatment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+treatCols+` FROM treatment WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, err
}

func (r *repoPG) Update(ctx context.Context, t *Treatment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE treatment SET provider_id = $2, treatment_date = $3, symptoms = $4, diagnosis = $5,
			plan = $6, notes = $7, vitals = $8, follow_up_date = $9, updated_at = NOW()
		WHERE id = $1`,
		t.ID, t.ProviderID, t.TreatmentDate, t.Symptoms, t.Diagnosis,
		t.Plan, t.Notes, t.Vitals, t.FollowUpDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, t.ID)
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Treatment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+treatCols+` FROM treatment WHERE patient_id = $1 ORDER BY treatment_date DESC, created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Treatment
	for rows.Next() {
		t, err := scanTreatment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repoPG) AddFile(ctx context.Context, f *TreatmentFile) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO treatment_file (id, treatment_id, file_name, content_type, url)
		VALUES ($1,$2,$3,$4,$5)`,
		f.ID, f.TreatmentID, f.FileName, f.ContentType, f.URL)
	return err
}

func (r *repoPG) ListFiles(ctx context.Context, treatmentID uuid.UUID) ([]TreatmentFile, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, treatment_id, file_name, content_type, url, created_at
		FROM treatment_file WHERE treatment_id = $1 ORDER BY created_at`, treatmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []TreatmentFile
	for rows.Next() {
		var f TreatmentFile
		if err := rows.Scan(&f.ID, &f.TreatmentID, &f.FileName, &f.ContentType, &f.URL, &f.CreatedAt); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

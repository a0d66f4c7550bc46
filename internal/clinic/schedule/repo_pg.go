package schedule

import (
	"context"
	"errors"
	"time"

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

func (r *repoPG) ListWindowsByProvider(ctx context.Context, providerID uuid.UUID) ([]ScheduleWindow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, provider_id, weekday, active, start_time, end_time
		FROM provider_schedule_window WHERE provider_id = $1
		ORDER BY weekday, start_time`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []ScheduleWindow
	for rows.Next() {
		var w ScheduleWindow
		var weekday int
		if err := rows.Scan(&w.ID, &w.ProviderID, &weekday, &w.Active, &w.StartTime, &w.EndTime); err != nil {
			return nil, err
		}
		w.Weekday = time.Weekday(weekday)
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

const apptCols = `id, patient_id, provider_id, date, start_time, end_time, type,
	chief_complaint, location, notes, status, source_treatment_id,
	calendar_event_id, meeting_url, created_at, updated_at`

func scanAppt(row pgx.Row) (*Appointment, error) {
	a := &Appointment{}
	err := row.Scan(
		&a.ID, &a.PatientID, &a.ProviderID, &a.Date, &a.StartTime, &a.EndTime, &a.Type,
		&a.ChiefComplaint, &a.Location, &a.Notes, &a.Status, &a.SourceTreatmentID,
		&a.CalendarEventID, &a.MeetingURL, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repoPG) CreateAppointment(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	if a.Status == "" {
		a.Status = StatusBooked
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (
			id, patient_id, provider_id, date, start_time, end_time, type,
			chief_complaint, location, notes, status, source_treatment_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		a.ID, a.PatientID, a.ProviderID, a.Date, a.StartTime, a.EndTime, a.Type,
		a.ChiefComplaint, a.Location, a.Notes, a.Status, a.SourceTreatmentID,
	)
	return err
}

func (r *repoPG) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppt(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *repoPG) UpdateAppointment(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET
			provider_id=$2, date=$3, start_time=$4, end_time=$5, type=$6,
			chief_complaint=$7, location=$8, notes=$9, status=$10, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.ProviderID, a.Date, a.StartTime, a.EndTime, a.Type,
		a.ChiefComplaint, a.Location, a.Notes, a.Status,
	)
	return err
}

func (r *repoPG) ListByProviderAndDate(ctx context.Context, providerID uuid.UUID, date time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointment
		WHERE provider_id = $1 AND date = $2 AND status != $3
		ORDER BY start_time`, providerID, dateOnly(date), StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

func (r *repoPG) FindByPatientAndDate(ctx context.Context, patientID uuid.UUID, date time.Time) (*Appointment, error) {
	a, err := scanAppt(r.conn(ctx).QueryRow(ctx, `
		SELECT `+apptCols+` FROM appointment
		WHERE patient_id = $1 AND date = $2 AND status != $3
		ORDER BY created_at LIMIT 1`, patientID, dateOnly(date), StatusCancelled))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repoPG) SetCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET calendar_event_id = $2, updated_at = NOW() WHERE id = $1`, id, eventID)
	return err
}

func (r *repoPG) SetMeetingURL(ctx context.Context, id uuid.UUID, url string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET meeting_url = $2, updated_at = NOW() WHERE id = $1`, id, url)
	return err
}

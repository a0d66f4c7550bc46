package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Schedule windows
	ListWindowsByProvider(ctx context.Context, providerID uuid.UUID) ([]ScheduleWindow, error)

	// Appointments
	CreateAppointment(ctx context.Context, a *Appointment) error
	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateAppointment(ctx context.Context, a *Appointment) error
	ListByProviderAndDate(ctx context.Context, providerID uuid.UUID, date time.Time) ([]*Appointment, error)
	// FindByPatientAndDate returns the non-cancelled appointment for the
	// patient on the date, or nil when none exists.
	FindByPatientAndDate(ctx context.Context, patientID uuid.UUID, date time.Time) (*Appointment, error)
	SetCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error
	SetMeetingURL(ctx context.Context, id uuid.UUID, url string) error
}

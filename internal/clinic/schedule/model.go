package schedule

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleWindow maps to the provider_schedule_window table: one working
// window for a provider on a weekday. Read-only input to slot generation.
type ScheduleWindow struct {
	ID         uuid.UUID    `db:"id" json:"id"`
	ProviderID uuid.UUID    `db:"provider_id" json:"provider_id"`
	Weekday    time.Weekday `db:"weekday" json:"weekday"`
	Active     bool         `db:"active" json:"active"`
	StartTime  string       `db:"start_time" json:"start_time"` // "HH:MM"
	EndTime    string       `db:"end_time" json:"end_time"`     // "HH:MM", exclusive
}

// BusySlot is an occupied time of day. Never persisted; recomputed per
// request from appointments and any externally supplied busy times.
type BusySlot struct {
	Time   string `json:"time"` // "HH:MM"
	Reason string `json:"reason,omitempty"`
}

// Appointment statuses.
const (
	StatusBooked    = "booked"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Appointment maps to the appointment table.
type Appointment struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProviderID        *uuid.UUID `db:"provider_id" json:"provider_id,omitempty"`
	Date              time.Time  `db:"date" json:"date"`
	StartTime         string     `db:"start_time" json:"start_time"`         // "HH:MM"
	EndTime           *string    `db:"end_time" json:"end_time,omitempty"`   // "HH:MM"; nil = open-ended
	Type              *string    `db:"type" json:"type,omitempty"`
	ChiefComplaint    *string    `db:"chief_complaint" json:"chief_complaint,omitempty"`
	Location          *string    `db:"location" json:"location,omitempty"`
	Notes             *string    `db:"notes" json:"notes,omitempty"`
	Status            string     `db:"status" json:"status"`
	SourceTreatmentID *uuid.UUID `db:"source_treatment_id" json:"source_treatment_id,omitempty"`
	CalendarEventID   *string    `db:"calendar_event_id" json:"calendar_event_id,omitempty"`
	MeetingURL        *string    `db:"meeting_url" json:"meeting_url,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

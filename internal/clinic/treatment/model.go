package treatment

import (
	"time"

	"github.com/google/uuid"
)

// Treatment maps to the treatment table: the documentation of record for one
// visit. Created once, then patched in place on every later save; never
// deleted from this workflow.
type Treatment struct {
	ID                  uuid.UUID          `db:"id" json:"id"`
	PatientID           uuid.UUID          `db:"patient_id" json:"patient_id"`
	ProviderID          *uuid.UUID         `db:"provider_id" json:"provider_id,omitempty"`
	TreatmentDate       time.Time          `db:"treatment_date" json:"treatment_date"`
	Symptoms            *string            `db:"symptoms" json:"symptoms,omitempty"`
	Diagnosis           *string            `db:"diagnosis" json:"diagnosis,omitempty"`
	Plan                *string            `db:"plan" json:"plan,omitempty"`
	Notes               *string            `db:"notes" json:"notes,omitempty"`
	Vitals              map[string]float64 `db:"vitals" json:"vitals,omitempty"`
	FollowUpDate        *time.Time         `db:"follow_up_date" json:"follow_up_date,omitempty"`
	SourceAppointmentID *uuid.UUID         `db:"source_appointment_id" json:"source_appointment_id,omitempty"`
	CreatedAt           time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time          `db:"updated_at" json:"updated_at"`
}

// TreatmentFile maps to the treatment_file table: one uploaded attachment
// linked to a treatment.
type TreatmentFile struct {
	ID          uuid.UUID `db:"id" json:"id"`
	TreatmentID uuid.UUID `db:"treatment_id" json:"treatment_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	ContentType string    `db:"content_type" json:"content_type"`
	URL         string    `db:"url" json:"url"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

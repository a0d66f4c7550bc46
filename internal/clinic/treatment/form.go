package treatment

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is one pending file on the form, uploaded after the treatment
// row is persisted. Data arrives base64-encoded in the JSON body.
type Attachment struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// MedicationLine is one medication row on the form. A line only becomes a
// prescription item when both the medication reference and the name snapshot
// are present.
type MedicationLine struct {
	MedicationID *uuid.UUID `json:"medication_id,omitempty"`
	Name         string     `json:"name"`
	Dosage       *string    `json:"dosage,omitempty"`
	Frequency    *string    `json:"frequency,omitempty"`
	Duration     *string    `json:"duration,omitempty"`
	Quantity     int        `json:"quantity"`
	Instructions *string    `json:"instructions,omitempty"`
}

// ServiceLine is one selected clinic service on the form.
type ServiceLine struct {
	ServiceID *uuid.UUID `json:"service_id,omitempty"`
	Name      string     `json:"name"`
	Quantity  int        `json:"quantity"`
	UnitPrice float64    `json:"unit_price"`
}

// FollowUpForm is the follow-up section of the form. A nil Date means no
// follow-up was requested.
type FollowUpForm struct {
	Date           *time.Time    `json:"date,omitempty"`
	StartTime      string        `json:"start_time,omitempty"`
	ProviderID     *uuid.UUID    `json:"provider_id,omitempty"`
	Type           *string       `json:"type,omitempty"`
	ChiefComplaint *string       `json:"chief_complaint,omitempty"`
	Location       *string       `json:"location,omitempty"`
	Notes          *string       `json:"notes,omitempty"`
	Services       []ServiceLine `json:"services,omitempty"`
}

// AppointmentPatch carries the originating appointment's editable fields.
// Only applied when the caller explicitly unlocked source-appointment edits.
type AppointmentPatch struct {
	Date           *time.Time `json:"date,omitempty"`
	StartTime      *string    `json:"start_time,omitempty"`
	Type           *string    `json:"type,omitempty"`
	ChiefComplaint *string    `json:"chief_complaint,omitempty"`
	Location       *string    `json:"location,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

// Form is the full encounter form as submitted by one save action.
type Form struct {
	PatientID     uuid.UUID          `json:"patient_id"`
	ProviderID    *uuid.UUID         `json:"provider_id,omitempty"`
	TreatmentDate time.Time          `json:"treatment_date"`
	Symptoms      *string            `json:"symptoms,omitempty"`
	Diagnosis     *string            `json:"diagnosis,omitempty"`
	Plan          *string            `json:"plan,omitempty"`
	Notes         *string            `json:"notes,omitempty"`
	Vitals        map[string]float64 `json:"vitals,omitempty"`

	SourceAppointmentID   *uuid.UUID        `json:"source_appointment_id,omitempty"`
	EditSourceAppointment bool              `json:"edit_source_appointment,omitempty"`
	SourceAppointment     *AppointmentPatch `json:"source_appointment,omitempty"`

	Attachments []Attachment     `json:"attachments,omitempty"`
	Medications []MedicationLine `json:"medications,omitempty"`
	Services    []ServiceLine    `json:"services,omitempty"`
	FollowUp    FollowUpForm     `json:"follow_up,omitempty"`
}

// prescriptionLines filters the medication rows down to the ones that can
// become prescription items.
func (f *Form) prescriptionLines() []MedicationLine {
	var lines []MedicationLine
	for _, m := range f.Medications {
		if m.MedicationID != nil && m.Name != "" {
			lines = append(lines, m)
		}
	}
	return lines
}

package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription statuses.
const (
	StatusPending   = "pending"
	StatusDispensed = "dispensed"
	StatusCancelled = "cancelled"
)

// Prescription maps to the prescription table. At most one non-cancelled
// prescription exists per treatment; repeated saves replace its items rather
// than appending a second prescription.
type Prescription struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	TreatmentID uuid.UUID  `db:"treatment_id" json:"treatment_id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProviderID  *uuid.UUID `db:"provider_id" json:"provider_id,omitempty"`
	Status      string     `db:"status" json:"status"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Item maps to the prescription_item table. Name is a snapshot of the
// medication name at prescribing time; the catalog row may change later.
type Item struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PrescriptionID uuid.UUID  `db:"prescription_id" json:"prescription_id"`
	Position       int        `db:"position" json:"position"`
	MedicationID   *uuid.UUID `db:"medication_id" json:"medication_id,omitempty"`
	Name           string     `db:"name" json:"name"`
	Dosage         *string    `db:"dosage" json:"dosage,omitempty"`
	Frequency      *string    `db:"frequency" json:"frequency,omitempty"`
	Duration       *string    `db:"duration" json:"duration,omitempty"`
	Quantity       int        `db:"quantity" json:"quantity"`
	Instructions   *string    `db:"instructions" json:"instructions,omitempty"`
}

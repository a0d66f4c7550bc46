package billing

import (
	"time"

	"github.com/google/uuid"
)

// Line item kinds.
const (
	KindService    = "treatment-service"
	KindMedication = "medication"
)

// Invoice statuses.
const (
	StatusUnpaid = "unpaid"
	StatusPaid   = "paid"
	StatusVoid   = "void"
)

// Invoice maps to the invoice table. Exactly one of TreatmentID or
// AppointmentID is set: visit charges hang off the treatment, follow-up
// service charges hang off the booked appointment.
type Invoice struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	TreatmentID   *uuid.UUID `db:"treatment_id" json:"treatment_id,omitempty"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Status        string     `db:"status" json:"status"`
	Subtotal      float64    `db:"subtotal" json:"subtotal"`
	Total         float64    `db:"total" json:"total"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// InvoiceItem maps to the invoice_item table.
type InvoiceItem struct {
	ID          uuid.UUID `db:"id" json:"id"`
	InvoiceID   uuid.UUID `db:"invoice_id" json:"invoice_id"`
	Position    int       `db:"position" json:"position"`
	Description string    `db:"description" json:"description"`
	Kind        string    `db:"kind" json:"kind"`
	Quantity    int       `db:"quantity" json:"quantity"`
	UnitPrice   float64   `db:"unit_price" json:"unit_price"`
	LineTotal   float64   `db:"line_total" json:"line_total"`
}

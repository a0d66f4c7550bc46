package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Medication maps to the medication table.
type Medication struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Unit      *string   `db:"unit" json:"unit,omitempty"`
	Price     float64   `db:"price" json:"price"`
	StockQty  int       `db:"stock_qty" json:"stock_qty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Delivery modes for clinic services.
const (
	DeliveryInPerson = "in_person"
	DeliveryRemote   = "remote"
)

// ClinicService maps to the clinic_service table: a billable service with a
// price, a duration used for follow-up end-time math, and a delivery mode.
type ClinicService struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Price           float64   `db:"price" json:"price"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	DeliveryMode    string    `db:"delivery_mode" json:"delivery_mode"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// IsRemote reports whether the service is delivered virtually.
func (s *ClinicService) IsRemote() bool { return s.DeliveryMode == DeliveryRemote }

// StockMovement maps to the stock_movement table: an append-only ledger entry
// recording one stock adjustment. Rows are never updated or deleted.
type StockMovement struct {
	ID           uuid.UUID `db:"id" json:"id"`
	MedicationID uuid.UUID `db:"medication_id" json:"medication_id"`
	Delta        int       `db:"delta" json:"delta"`
	PreviousQty  int       `db:"previous_qty" json:"previous_qty"`
	NewQty       int       `db:"new_qty" json:"new_qty"`
	Reference    string    `db:"reference" json:"reference"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

package billing

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// GetByTreatment returns the single invoice scoped to the treatment, or
	// nil when none exists.
	GetByTreatment(ctx context.Context, treatmentID uuid.UUID) (*Invoice, error)
	// GetByAppointment returns the single invoice scoped to the appointment,
	// or nil when none exists.
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Invoice, error)
	ListItems(ctx context.Context, invoiceID uuid.UUID) ([]InvoiceItem, error)
	Create(ctx context.Context, inv *Invoice, items []InvoiceItem) error
	// Replace swaps the invoice's full item set and rewrites its totals.
	Replace(ctx context.Context, inv *Invoice, items []InvoiceItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

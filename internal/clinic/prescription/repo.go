package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// GetByTreatment returns the treatment's non-cancelled prescription, or
	// nil when none exists.
	GetByTreatment(ctx context.Context, treatmentID uuid.UUID) (*Prescription, error)
	ListItems(ctx context.Context, prescriptionID uuid.UUID) ([]Item, error)
	Create(ctx context.Context, p *Prescription, items []Item) error
	// Update rewrites the prescription's metadata, not its items.
	Update(ctx context.Context, p *Prescription) error
	// ReplaceItems swaps the prescription's full item set.
	ReplaceItems(ctx context.Context, prescriptionID uuid.UUID, items []Item) error
}

package catalog

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error)
	ListMedications(ctx context.Context, limit, offset int) ([]*Medication, int, error)
	UpdateMedicationStock(ctx context.Context, id uuid.UUID, newQty int) error

	GetService(ctx context.Context, id uuid.UUID) (*ClinicService, error)
	ListServices(ctx context.Context, limit, offset int) ([]*ClinicService, int, error)

	AddStockMovement(ctx context.Context, m *StockMovement) error
	ListStockMovements(ctx context.Context, medicationID uuid.UUID, limit, offset int) ([]*StockMovement, error)
}

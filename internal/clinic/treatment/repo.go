package treatment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *Treatment) error
	Get(ctx context.Context, id uuid.UUID) (*Treatment, error)
	Update(ctx context.Context, t *Treatment) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Treatment, error)
	AddFile(ctx context.Context, f *TreatmentFile) error
	ListFiles(ctx context.Context, treatmentID uuid.UUID) ([]TreatmentFile, error)
}

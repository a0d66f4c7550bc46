package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinhq/clinic-api/internal/platform/db"
)

type Service struct {
	repo Repository
	pool *pgxpool.Pool
}

// NewService creates the catalog service. The pool may be nil in tests; it is
// only needed for the transactional dispense path.
func NewService(repo Repository, pool *pgxpool.Pool) *Service {
	return &Service{repo: repo, pool: pool}
}

// MedicationPrice resolves the current catalog price of a medication. An
// unknown medication resolves to 0 rather than an error: unpriced lines are
// skipped by the billing composer, not rejected.
func (s *Service) MedicationPrice(ctx context.Context, id uuid.UUID) (float64, error) {
	m, err := s.repo.GetMedication(ctx, id)
	if err != nil {
		return 0, nil
	}
	return m.Price, nil
}

// Service returns the clinic service row for an id.
func (s *Service) Service(ctx context.Context, id uuid.UUID) (*ClinicService, error) {
	return s.repo.GetService(ctx, id)
}

// Dispense deducts quantity from a medication's stock and appends the
// movement to the ledger, in one transaction. reference names the document
// that caused the deduction (e.g. a prescription id).
func (s *Service) Dispense(ctx context.Context, medicationID uuid.UUID, quantity int, reference string) (*StockMovement, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	var move *StockMovement
	run := func(ctx context.Context) error {
		med, err := s.repo.GetMedication(ctx, medicationID)
		if err != nil {
			return fmt.Errorf("medication not found: %w", err)
		}

		move = &StockMovement{
			MedicationID: medicationID,
			Delta:        -quantity,
			PreviousQty:  med.StockQty,
			NewQty:       med.StockQty - quantity,
			Reference:    reference,
		}
		if err := s.repo.AddStockMovement(ctx, move); err != nil {
			return fmt.Errorf("record stock movement: %w", err)
		}
		if err := s.repo.UpdateMedicationStock(ctx, medicationID, move.NewQty); err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
		return nil
	}

	var err error
	if s.pool != nil {
		err = db.WithTx(ctx, s.pool, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return nil, err
	}
	return move, nil
}

// Movements returns the ledger for a medication, newest first.
func (s *Service) Movements(ctx context.Context, medicationID uuid.UUID, limit, offset int) ([]*StockMovement, error) {
	return s.repo.ListStockMovements(ctx, medicationID, limit, offset)
}

package prescription

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

// NewService creates the prescription service. The pool may be nil in tests;
// it is only used to open the transaction around replace operations.
func NewService(repo Repository, pool *pgxpool.Pool) *Service {
	return &Service{repo: repo, pool: pool}
}

func (s *Service) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.pool != nil {
		return db.WithTx(ctx, s.pool, fn)
	}
	return fn(ctx)
}

// Upsert writes the treatment's single prescription from the given item set.
// An existing prescription keeps its id and status and has its full item set
// replaced in one transaction; saving the same N items twice leaves one
// prescription with exactly N items. When none exists yet a pending
// prescription is created. Items are stored in slice order.
func (s *Service) Upsert(ctx context.Context, treatmentID, patientID uuid.UUID, providerID *uuid.UUID, items []Item) (*Prescription, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no prescription items")
	}

	existing, err := s.repo.GetByTreatment(ctx, treatmentID)
	if err != nil {
		return nil, fmt.Errorf("load prescription: %w", err)
	}

	if existing != nil {
		existing.ProviderID = providerID
		if err := s.runTx(ctx, func(ctx context.Context) error {
			if err := s.repo.Update(ctx, existing); err != nil {
				return err
			}
			return s.repo.ReplaceItems(ctx, existing.ID, items)
		}); err != nil {
			return nil, fmt.Errorf("replace prescription items: %w", err)
		}
		return existing, nil
	}

	p := &Prescription{
		TreatmentID: treatmentID,
		PatientID:   patientID,
		ProviderID:  providerID,
		Status:      StatusPending,
	}
	if err := s.runTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, p, items)
	}); err != nil {
		return nil, fmt.Errorf("create prescription: %w", err)
	}
	return p, nil
}

// GetByTreatment returns the treatment's prescription with its items, or nil.
func (s *Service) GetByTreatment(ctx context.Context, treatmentID uuid.UUID) (*Prescription, []Item, error) {
	p, err := s.repo.GetByTreatment(ctx, treatmentID)
	if err != nil || p == nil {
		return nil, nil, err
	}
	items, err := s.repo.ListItems(ctx, p.ID)
	if err != nil {
		return nil, nil, err
	}
	return p, items, nil
}

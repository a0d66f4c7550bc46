package billing

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

// NewService creates the billing service. The pool may be nil in tests; it is
// only used to open the transaction around replace operations.
func NewService(repo Repository, pool *pgxpool.Pool) *Service {
	return &Service{repo: repo, pool: pool}
}

func (s *Service) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.pool != nil {
		return db.WithTx(ctx, s.pool, fn)
	}
	return fn(ctx)
}

// UpsertForTreatment writes the treatment-scoped invoice from a composition.
// An existing invoice keeps its id and has its full item set replaced in one
// transaction; totals are always rewritten from the composition, never
// adjusted. An empty composition removes the existing invoice.
func (s *Service) UpsertForTreatment(ctx context.Context, patientID, treatmentID uuid.UUID, comp Composition) (*Invoice, error) {
	existing, err := s.repo.GetByTreatment(ctx, treatmentID)
	if err != nil {
		return nil, fmt.Errorf("load invoice: %w", err)
	}

	if comp.Empty() {
		if existing == nil {
			return nil, nil
		}
		if err := s.runTx(ctx, func(ctx context.Context) error {
			return s.repo.Delete(ctx, existing.ID)
		}); err != nil {
			return nil, fmt.Errorf("remove invoice: %w", err)
		}
		return nil, nil
	}

	if existing != nil {
		existing.Subtotal = comp.Subtotal
		existing.Total = comp.Total
		if err := s.runTx(ctx, func(ctx context.Context) error {
			return s.repo.Replace(ctx, existing, comp.Items)
		}); err != nil {
			return nil, fmt.Errorf("replace invoice items: %w", err)
		}
		return existing, nil
	}

	inv := &Invoice{
		PatientID:   patientID,
		TreatmentID: &treatmentID,
		Status:      StatusUnpaid,
		Subtotal:    comp.Subtotal,
		Total:       comp.Total,
	}
	if err := s.runTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, inv, comp.Items)
	}); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return inv, nil
}

// CreateForAppointment writes a new appointment-scoped invoice. Follow-up
// appointments are billed once at creation; later changes go through the
// appointment surface, not here.
func (s *Service) CreateForAppointment(ctx context.Context, patientID, appointmentID uuid.UUID, comp Composition) (*Invoice, error) {
	if comp.Empty() {
		return nil, nil
	}
	inv := &Invoice{
		PatientID:     patientID,
		AppointmentID: &appointmentID,
		Status:        StatusUnpaid,
		Subtotal:      comp.Subtotal,
		Total:         comp.Total,
	}
	if err := s.runTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, inv, comp.Items)
	}); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return inv, nil
}

// GetByTreatment returns the treatment's invoice with its items, or nil.
func (s *Service) GetByTreatment(ctx context.Context, treatmentID uuid.UUID) (*Invoice, []InvoiceItem, error) {
	inv, err := s.repo.GetByTreatment(ctx, treatmentID)
	if err != nil || inv == nil {
		return nil, nil, err
	}
	items, err := s.repo.ListItems(ctx, inv.ID)
	if err != nil {
		return nil, nil, err
	}
	return inv, items, nil
}

package leasing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	appshared "github.com/propledger/backend/internal/application/shared"
	"github.com/propledger/backend/internal/domain/leasing"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/logger"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LeaseService registers, terminates and removes leases, keeping unit
// occupancy in step with them
type LeaseService struct {
	leaseRepo    leasing.LeaseRepository
	unitRepo     leasing.UnitRepository
	tenantRepo   leasing.TenantRepository
	propertyRepo leasing.PropertyRepository
	txScope      TransactionScope
	metrics      *telemetry.LedgerMetrics
	pagination   appshared.Pagination
}

// NewLeaseService creates a new LeaseService
func NewLeaseService(
	leaseRepo leasing.LeaseRepository,
	unitRepo leasing.UnitRepository,
	tenantRepo leasing.TenantRepository,
	propertyRepo leasing.PropertyRepository,
	txScope TransactionScope,
) *LeaseService {
	return &LeaseService{
		leaseRepo:    leaseRepo,
		unitRepo:     unitRepo,
		tenantRepo:   tenantRepo,
		propertyRepo: propertyRepo,
		txScope:      txScope,
		pagination:   appshared.DefaultPagination(),
	}
}

// SetMetrics sets the business metrics recorder (optional)
func (s *LeaseService) SetMetrics(metrics *telemetry.LedgerMetrics) {
	s.metrics = metrics
}

// SetPagination overrides the list page size limits
func (s *LeaseService) SetPagination(p appshared.Pagination) {
	s.pagination = p
}

// CreateLease registers an active lease, numbers it within its start year
// and marks the unit occupied
func (s *LeaseService) CreateLease(ctx context.Context, accountID uuid.UUID, req CreateLeaseRequest) (*LeaseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lease", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, accountID.String(),
		telemetry.SpanAttrUnitID, req.UnitID.String(),
	)
	fail := func(err error) (*LeaseResponse, error) {
		return nil, appshared.Fail(ctx, span, s.metrics, accountID, "lease.create", err)
	}

	if err := shared.RequireAccount(accountID); err != nil {
		return fail(err)
	}
	if err := appshared.Validate(req); err != nil {
		return fail(err)
	}
	terms := leasing.LeaseTerms{
		LeaseStartDate:      req.LeaseStartDate,
		LeaseEndDate:        req.LeaseEndDate,
		MoveInDate:          req.MoveInDate,
		MoveOutDate:         req.MoveOutDate,
		StartedMeterReading: req.StartedMeterReading,
		Notes:               req.Notes,
	}
	if err := leasing.ValidateTerms(terms); err != nil {
		return fail(err)
	}

	unit, err := s.unitRepo.FindByIDForAccount(ctx, accountID, req.UnitID)
	if err != nil {
		return fail(err)
	}
	if _, err := s.tenantRepo.FindByIDForAccount(ctx, accountID, req.TenantID); err != nil {
		return fail(err)
	}
	propertyID := unit.PropertyID
	if req.PropertyID != nil {
		if _, err := s.propertyRepo.FindByIDForAccount(ctx, accountID, *req.PropertyID); err != nil {
			return fail(err)
		}
		propertyID = *req.PropertyID
	}
	if err := s.ensureNoActiveLease(ctx, s.leaseRepo, accountID, req.UnitID); err != nil {
		return fail(err)
	}

	var lease *leasing.Lease
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		unit, err := repos.Units().FindByIDForUpdate(ctx, accountID, req.UnitID)
		if err != nil {
			return err
		}
		if err := s.ensureNoActiveLease(ctx, repos.Leases(), accountID, unit.ID); err != nil {
			return err
		}

		// the unit lock does not cover other units of the same year
		year := leasing.LeaseYearOf(req.LeaseStartDate)
		if err := repos.Leases().LockNumbering(ctx, accountID, year); err != nil {
			return fmt.Errorf("failed to lock lease numbering: %w", err)
		}
		maxNo, err := repos.Leases().MaxLeaseNo(ctx, accountID, year)
		if err != nil {
			return fmt.Errorf("failed to read lease numbers: %w", err)
		}
		lease, err = leasing.NewLease(accountID, unit.ID, req.TenantID, propertyID, leasing.NextLeaseNo(maxNo), terms)
		if err != nil {
			return err
		}
		if err := repos.Leases().Save(ctx, lease); err != nil {
			return fmt.Errorf("failed to save lease: %w", err)
		}

		unit.MarkOccupied()
		if err := repos.Units().Save(ctx, unit); err != nil {
			return fmt.Errorf("failed to update unit: %w", err)
		}
		return recordEvents(ctx, repos, lease)
	})
	if err != nil {
		return fail(err)
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrLeaseID, lease.ID.String(),
		telemetry.SpanAttrLeaseNo, lease.FullLeaseNo(),
	)
	s.metrics.RecordLeaseTransition(ctx, accountID, "create")
	logger.L(ctx).Info("lease registered",
		zap.String("lease_id", lease.ID.String()),
		zap.String("lease_no", lease.FullLeaseNo()),
		zap.String("unit_id", lease.UnitID.String()),
	)

	resp := ToLeaseResponse(lease)
	return &resp, nil
}

// TerminateLease ends an active lease and vacates its unit
func (s *LeaseService) TerminateLease(ctx context.Context, accountID, id uuid.UUID, req TerminateLeaseRequest) (*LeaseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lease", "terminate")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, accountID.String(),
		telemetry.SpanAttrLeaseID, id.String(),
	)
	fail := func(err error) (*LeaseResponse, error) {
		return nil, appshared.Fail(ctx, span, s.metrics, accountID, "lease.terminate", err)
	}

	if err := shared.RequireAccount(accountID); err != nil {
		return fail(err)
	}
	if err := appshared.Validate(req); err != nil {
		return fail(err)
	}
	current, err := s.leaseRepo.FindByIDForAccount(ctx, accountID, id)
	if err != nil {
		return fail(err)
	}

	var lease *leasing.Lease
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		unit, err := repos.Units().FindByIDForUpdate(ctx, accountID, current.UnitID)
		if err != nil {
			return err
		}
		lease, err = repos.Leases().FindByIDForAccount(ctx, accountID, id)
		if err != nil {
			return err
		}
		if err := lease.Terminate(req.MoveOutDate, req.Notes); err != nil {
			return err
		}
		if err := repos.Leases().Save(ctx, lease); err != nil {
			return fmt.Errorf("failed to save lease: %w", err)
		}

		unit.MarkVacant()
		if err := repos.Units().Save(ctx, unit); err != nil {
			return fmt.Errorf("failed to update unit: %w", err)
		}
		return recordEvents(ctx, repos, lease)
	})
	if err != nil {
		return fail(err)
	}

	s.metrics.RecordLeaseTransition(ctx, accountID, "terminate")
	logger.L(ctx).Info("lease terminated",
		zap.String("lease_id", lease.ID.String()),
		zap.String("lease_no", lease.FullLeaseNo()),
		zap.String("unit_id", lease.UnitID.String()),
	)

	resp := ToLeaseResponse(lease)
	return &resp, nil
}

// HardDeleteLease removes a lease row. The unit is vacated when it was
// occupied and no other active lease holds it.
func (s *LeaseService) HardDeleteLease(ctx context.Context, accountID, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "lease", "delete")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, accountID.String(),
		telemetry.SpanAttrLeaseID, id.String(),
	)

	if err := shared.RequireAccount(accountID); err != nil {
		return appshared.Fail(ctx, span, s.metrics, accountID, "lease.delete", err)
	}
	current, err := s.leaseRepo.FindByIDForAccount(ctx, accountID, id)
	if err != nil {
		return appshared.Fail(ctx, span, s.metrics, accountID, "lease.delete", err)
	}

	vacated := false
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		unit, err := repos.Units().FindByIDForUpdate(ctx, accountID, current.UnitID)
		if err != nil {
			return err
		}
		lease, err := repos.Leases().FindByIDForAccount(ctx, accountID, id)
		if err != nil {
			return err
		}
		if err := repos.Leases().Delete(ctx, accountID, lease.ID); err != nil {
			return fmt.Errorf("failed to delete lease: %w", err)
		}

		others, err := repos.Leases().ExistsActiveForUnit(ctx, accountID, unit.ID, &lease.ID)
		if err != nil {
			return fmt.Errorf("failed to check active leases: %w", err)
		}
		if !others && unit.IsOccupied() {
			unit.MarkVacant()
			if err := repos.Units().Save(ctx, unit); err != nil {
				return fmt.Errorf("failed to update unit: %w", err)
			}
			vacated = true
		}

		lease.ClearDomainEvents()
		lease.AddDomainEvent(leasing.NewLeaseDeletedEvent(lease, vacated))
		return recordEvents(ctx, repos, lease)
	})
	if err != nil {
		return appshared.Fail(ctx, span, s.metrics, accountID, "lease.delete", err)
	}

	s.metrics.RecordLeaseTransition(ctx, accountID, "delete")
	logger.L(ctx).Info("lease deleted",
		zap.String("lease_id", id.String()),
		zap.Bool("unit_vacated", vacated),
	)
	return nil
}

// GetLeaseByID retrieves a lease by ID
func (s *LeaseService) GetLeaseByID(ctx context.Context, accountID, id uuid.UUID) (*LeaseResponse, error) {
	if err := shared.RequireAccount(accountID); err != nil {
		return nil, err
	}
	lease, err := s.leaseRepo.FindByIDForAccount(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	resp := ToLeaseResponse(lease)
	return &resp, nil
}

// GetAllLeases lists leases with filtering and pagination
func (s *LeaseService) GetAllLeases(ctx context.Context, accountID uuid.UUID, filter LeaseListFilter) (shared.Paginated[LeaseResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lease", "list")
	defer span.End()

	if err := shared.RequireAccount(accountID); err != nil {
		return shared.Paginated[LeaseResponse]{}, err
	}
	if err := appshared.Validate(filter); err != nil {
		return shared.Paginated[LeaseResponse]{}, err
	}

	domainFilter := leasing.LeaseFilter{
		Filter: s.pagination.Filter(filter.PageRequest, "created_at",
			"created_at", "lease_start_date", "lease_no"),
		UnitID:   filter.UnitID,
		TenantID: filter.TenantID,
		Year:     filter.Year,
	}
	if filter.Status != "" {
		status := leasing.LeaseStatus(filter.Status)
		domainFilter.Status = &status
	}

	leases, err := s.leaseRepo.FindAllForAccount(ctx, accountID, domainFilter)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[LeaseResponse]{}, fmt.Errorf("failed to list leases: %w", err)
	}
	total, err := s.leaseRepo.CountForAccount(ctx, accountID, domainFilter)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[LeaseResponse]{}, fmt.Errorf("failed to count leases: %w", err)
	}

	page := shared.NewPaginated(leases, total, domainFilter.Page, domainFilter.Limit)
	return shared.MapPaginated(page, func(l leasing.Lease) LeaseResponse {
		return ToLeaseResponse(&l)
	}), nil
}

func (s *LeaseService) ensureNoActiveLease(ctx context.Context, repo leasing.LeaseRepository, accountID, unitID uuid.UUID) error {
	exists, err := repo.ExistsActiveForUnit(ctx, accountID, unitID, nil)
	if err != nil {
		return fmt.Errorf("failed to check active leases: %w", err)
	}
	if exists {
		return leasing.NewActiveLeaseExistsError(unitID)
	}
	return nil
}

func recordEvents(ctx context.Context, repos TransactionalRepositories, leases ...*leasing.Lease) error {
	for _, l := range leases {
		events := l.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		if err := repos.Events().Record(ctx, events...); err != nil {
			return fmt.Errorf("failed to record events: %w", err)
		}
		l.ClearDomainEvents()
	}
	return nil
}

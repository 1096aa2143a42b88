package metering

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	appshared "github.com/propledger/backend/internal/application/shared"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/domain/metering"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/logger"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MeterReadingService records meter readings and keeps consumption consistent
// along each meter and submeter series
type MeterReadingService struct {
	meterRepo    metering.MeterRepository
	submeterRepo metering.SubmeterRepository
	readingRepo  metering.MeterReadingRepository
	userRepo     identity.UserRepository
	txScope      TransactionScope
	metrics      *telemetry.LedgerMetrics
	pagination   appshared.Pagination
}

// NewMeterReadingService creates a new MeterReadingService
func NewMeterReadingService(
	meterRepo metering.MeterRepository,
	submeterRepo metering.SubmeterRepository,
	readingRepo metering.MeterReadingRepository,
	userRepo identity.UserRepository,
	txScope TransactionScope,
) *MeterReadingService {
	return &MeterReadingService{
		meterRepo:    meterRepo,
		submeterRepo: submeterRepo,
		readingRepo:  readingRepo,
		userRepo:     userRepo,
		txScope:      txScope,
		pagination:   appshared.DefaultPagination(),
	}
}

// SetMetrics sets the business metrics recorder (optional)
func (s *MeterReadingService) SetMetrics(metrics *telemetry.LedgerMetrics) {
	s.metrics = metrics
}

// SetPagination overrides the list page size limits
func (s *MeterReadingService) SetPagination(p appshared.Pagination) {
	s.pagination = p
}

// CreateMeterReading records a reading. Consumption is derived from the
// previous reading of the same series unless the caller supplies it.
func (s *MeterReadingService) CreateMeterReading(ctx context.Context, accountID uuid.UUID, req CreateMeterReadingRequest) (*MeterReadingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "meter_reading", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, accountID.String(),
		telemetry.SpanAttrMeterID, req.MeterID.String(),
		telemetry.SpanAttrReadingDate, req.ReadingDate.Format(time.DateOnly),
	)
	fail := func(err error) (*MeterReadingResponse, error) {
		return nil, appshared.Fail(ctx, span, s.metrics, accountID, "meter_reading.create", err)
	}

	if err := shared.RequireAccount(accountID); err != nil {
		return fail(err)
	}
	if err := appshared.Validate(req); err != nil {
		return fail(err)
	}
	fields := metering.ReadingFields{
		MeterID:         req.MeterID,
		SubmeterID:      req.SubmeterID,
		ReadingValue:    req.ReadingValue,
		ReadingDate:     shared.DateOnly(req.ReadingDate),
		EnteredByUserID: req.EnteredByUserID,
	}
	if err := fields.Validate(); err != nil {
		return fail(err)
	}
	if err := s.checkRefs(ctx, accountID, fields, nil); err != nil {
		return fail(err)
	}

	var reading *metering.MeterReading
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Meters().FindByIDForUpdate(ctx, accountID, fields.MeterID); err != nil {
			return err
		}

		consumption, err := checkSeries(ctx, repos.Readings(), accountID, fields, nil)
		if err != nil {
			return err
		}
		if req.Consumption != nil {
			consumption = *req.Consumption
		}

		reading, err = metering.NewMeterReading(accountID, fields, consumption)
		if err != nil {
			return err
		}
		if err := repos.Readings().Save(ctx, reading); err != nil {
			return fmt.Errorf("failed to save meter reading: %w", err)
		}
		if err := rederiveSuccessor(ctx, repos.Readings(), accountID, reading.Key(), reading.ReadingDate, &reading.ID); err != nil {
			return err
		}
		return recordEvents(ctx, repos, reading)
	})
	if err != nil {
		return fail(err)
	}

	s.observe(ctx, "create", reading)
	resp := ToMeterReadingResponse(reading)
	return &resp, nil
}

// UpdateMeterReading revises a reading. Consumption is re-derived only when
// the value, date or series changes and the caller does not supply one.
func (s *MeterReadingService) UpdateMeterReading(ctx context.Context, accountID, id uuid.UUID, req UpdateMeterReadingRequest) (*MeterReadingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "meter_reading", "update")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, accountID.String(),
		"reading_id", id.String(),
	)
	fail := func(err error) (*MeterReadingResponse, error) {
		return nil, appshared.Fail(ctx, span, s.metrics, accountID, "meter_reading.update", err)
	}

	if err := shared.RequireAccount(accountID); err != nil {
		return fail(err)
	}
	if err := appshared.Validate(req); err != nil {
		return fail(err)
	}
	current, err := s.readingRepo.FindByIDForAccount(ctx, accountID, id)
	if err != nil {
		return fail(err)
	}
	fields := mergeFields(current.Fields(), req)
	if err := fields.Validate(); err != nil {
		return fail(err)
	}
	if err := s.checkRefs(ctx, accountID, fields, current); err != nil {
		return fail(err)
	}

	var reading *metering.MeterReading
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := lockMeters(ctx, repos.Meters(), accountID, current.MeterID, fields.MeterID); err != nil {
			return err
		}
		var err error
		reading, err = repos.Readings().FindByIDForAccount(ctx, accountID, id)
		if err != nil {
			return err
		}
		oldKey, oldDate := reading.Key(), reading.ReadingDate

		var consumption *decimal.Decimal
		affects := reading.AffectsConsumption(fields)
		if affects {
			derived, err := checkSeries(ctx, repos.Readings(), accountID, fields, &reading.ID)
			if err != nil {
				return err
			}
			consumption = &derived
		}
		if req.Consumption != nil {
			consumption = req.Consumption
		}

		if err := reading.Revise(fields, consumption); err != nil {
			return err
		}
		if err := repos.Readings().Save(ctx, reading); err != nil {
			return fmt.Errorf("failed to save meter reading: %w", err)
		}
		if affects {
			if err := rederiveSuccessor(ctx, repos.Readings(), accountID, oldKey, oldDate, &reading.ID); err != nil {
				return err
			}
			if err := rederiveSuccessor(ctx, repos.Readings(), accountID, reading.Key(), reading.ReadingDate, &reading.ID); err != nil {
				return err
			}
		}
		return recordEvents(ctx, repos, reading)
	})
	if err != nil {
		return fail(err)
	}

	s.observe(ctx, "update", reading)
	resp := ToMeterReadingResponse(reading)
	return &resp, nil
}

// DeleteMeterReading soft-deletes a reading and re-derives the consumption
// of the reading that followed it
func (s *MeterReadingService) DeleteMeterReading(ctx context.Context, accountID, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "meter_reading", "delete")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, accountID.String(),
		"reading_id", id.String(),
	)

	if err := shared.RequireAccount(accountID); err != nil {
		return appshared.Fail(ctx, span, s.metrics, accountID, "meter_reading.delete", err)
	}
	current, err := s.readingRepo.FindByIDForAccount(ctx, accountID, id)
	if err != nil {
		return appshared.Fail(ctx, span, s.metrics, accountID, "meter_reading.delete", err)
	}

	var reading *metering.MeterReading
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Meters().FindByIDForUpdate(ctx, accountID, current.MeterID); err != nil {
			return err
		}
		var err error
		reading, err = repos.Readings().FindByIDForAccount(ctx, accountID, id)
		if err != nil {
			return err
		}
		if err := reading.SoftDelete(); err != nil {
			return err
		}
		if err := repos.Readings().Save(ctx, reading); err != nil {
			return fmt.Errorf("failed to delete meter reading: %w", err)
		}
		if err := rederiveSuccessor(ctx, repos.Readings(), accountID, reading.Key(), reading.ReadingDate, &reading.ID); err != nil {
			return err
		}
		return recordEvents(ctx, repos, reading)
	})
	if err != nil {
		return appshared.Fail(ctx, span, s.metrics, accountID, "meter_reading.delete", err)
	}

	s.observe(ctx, "delete", reading)
	return nil
}

// GetMeterReading retrieves a live reading by ID
func (s *MeterReadingService) GetMeterReading(ctx context.Context, accountID, id uuid.UUID) (*MeterReadingResponse, error) {
	if err := shared.RequireAccount(accountID); err != nil {
		return nil, err
	}
	reading, err := s.readingRepo.FindByIDForAccount(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	resp := ToMeterReadingResponse(reading)
	return &resp, nil
}

// ListMeterReadings lists live readings with filtering and pagination
func (s *MeterReadingService) ListMeterReadings(ctx context.Context, accountID uuid.UUID, filter MeterReadingListFilter) (shared.Paginated[MeterReadingResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "meter_reading", "list")
	defer span.End()

	if err := shared.RequireAccount(accountID); err != nil {
		return shared.Paginated[MeterReadingResponse]{}, err
	}
	if err := appshared.Validate(filter); err != nil {
		return shared.Paginated[MeterReadingResponse]{}, err
	}

	domainFilter := metering.MeterReadingFilter{
		Filter:     s.pagination.Filter(filter.PageRequest, "reading_date", "reading_date", "reading_value", "created_at"),
		MeterID:    filter.MeterID,
		SubmeterID: filter.SubmeterID,
		FromDate:   shared.DateOnlyPtr(filter.FromDate),
		ToDate:     shared.DateOnlyPtr(filter.ToDate),
	}
	readings, err := s.readingRepo.FindAllForAccount(ctx, accountID, domainFilter)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[MeterReadingResponse]{}, fmt.Errorf("failed to list meter readings: %w", err)
	}
	total, err := s.readingRepo.CountForAccount(ctx, accountID, domainFilter)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[MeterReadingResponse]{}, fmt.Errorf("failed to count meter readings: %w", err)
	}

	page := shared.NewPaginated(readings, total, domainFilter.Page, domainFilter.Limit)
	return shared.MapPaginated(page, func(r metering.MeterReading) MeterReadingResponse {
		return ToMeterReadingResponse(&r)
	}), nil
}

// CalculateConsumption returns the difference between the latest and the
// earliest reading of a series inside [StartDate, EndDate]. Fewer than two
// distinct readings in range yields zero.
func (s *MeterReadingService) CalculateConsumption(ctx context.Context, accountID uuid.UUID, q ConsumptionQuery) (*ConsumptionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "meter_reading", "consumption")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, accountID.String(),
		telemetry.SpanAttrMeterID, q.MeterID.String(),
	)
	fail := func(err error) (*ConsumptionResponse, error) {
		return nil, appshared.Fail(ctx, span, s.metrics, accountID, "meter_reading.consumption", err)
	}

	if err := shared.RequireAccount(accountID); err != nil {
		return fail(err)
	}
	if err := appshared.Validate(q); err != nil {
		return fail(err)
	}
	start, end := shared.DateOnly(q.StartDate), shared.DateOnly(q.EndDate)
	if start.After(end) {
		return fail(shared.NewValidationError("INVALID_DATE_RANGE", "Start date cannot be after end date"))
	}
	if _, err := s.meterRepo.FindByIDForAccount(ctx, accountID, q.MeterID); err != nil {
		return fail(err)
	}

	key := metering.SeriesKey{MeterID: q.MeterID, SubmeterID: q.SubmeterID}
	first, err := s.readingRepo.FindEarliestInRange(ctx, accountID, key, start, end)
	if err != nil {
		return fail(fmt.Errorf("failed to find earliest reading: %w", err))
	}
	last, err := s.readingRepo.FindLatestInRange(ctx, accountID, key, start, end)
	if err != nil {
		return fail(fmt.Errorf("failed to find latest reading: %w", err))
	}
	consumption, err := metering.ConsumptionBetween(first, last)
	if err != nil {
		return fail(err)
	}

	return &ConsumptionResponse{
		MeterID:      q.MeterID,
		SubmeterID:   q.SubmeterID,
		StartDate:    start,
		EndDate:      end,
		StartReading: optionalReadingResponse(first),
		EndReading:   optionalReadingResponse(last),
		Consumption:  consumption,
	}, nil
}

// checkRefs verifies the meter, submeter and entering user exist in the
// account. References unchanged from current are not looked up again.
func (s *MeterReadingService) checkRefs(ctx context.Context, accountID uuid.UUID, f metering.ReadingFields, current *metering.MeterReading) error {
	if current == nil || current.MeterID != f.MeterID {
		if _, err := s.meterRepo.FindByIDForAccount(ctx, accountID, f.MeterID); err != nil {
			return err
		}
	}
	if f.SubmeterID != nil && (current == nil || !current.Key().Equal(f.Key())) {
		sub, err := s.submeterRepo.FindByIDForAccount(ctx, accountID, *f.SubmeterID)
		if err != nil {
			return err
		}
		if !sub.BelongsTo(f.MeterID) {
			return shared.NewValidationError("SUBMETER_METER_MISMATCH", "Submeter does not belong to the given meter")
		}
	}
	if f.EnteredByUserID != nil && (current == nil || current.EnteredByUserID == nil || *current.EnteredByUserID != *f.EnteredByUserID) {
		if _, err := s.userRepo.FindByIDForAccount(ctx, accountID, *f.EnteredByUserID); err != nil {
			return err
		}
	}
	return nil
}

func (s *MeterReadingService) observe(ctx context.Context, operation string, r *metering.MeterReading) {
	s.metrics.RecordReading(ctx, r.AccountID, operation, r.SubmeterID != nil)
	logger.L(ctx).Info("meter reading "+operation+"d",
		zap.String("reading_id", r.ID.String()),
		zap.String("meter_id", r.MeterID.String()),
		zap.String("reading_date", r.ReadingDate.Format(time.DateOnly)),
		zap.String("consumption", r.Consumption.String()),
	)
}

// checkSeries rejects a second reading on the same day and any value that
// would break the non-decreasing order of the series, and returns the
// consumption derived from the previous reading
func checkSeries(ctx context.Context, repo metering.MeterReadingRepository, accountID uuid.UUID, f metering.ReadingFields, excludeID *uuid.UUID) (decimal.Decimal, error) {
	key := f.Key()
	exists, err := repo.ExistsOnDate(ctx, accountID, key, f.ReadingDate, excludeID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to check existing reading: %w", err)
	}
	if exists {
		return decimal.Zero, metering.NewDuplicateReadingError(f.ReadingDate)
	}

	prev, err := repo.FindPrevious(ctx, accountID, key, f.ReadingDate, excludeID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to find previous reading: %w", err)
	}
	consumption, err := metering.DeriveConsumption(prev, f.ReadingValue)
	if err != nil {
		return decimal.Zero, err
	}
	next, err := repo.FindNext(ctx, accountID, key, f.ReadingDate, excludeID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to find next reading: %w", err)
	}
	if err := metering.CheckBeforeNext(next, f.ReadingValue); err != nil {
		return decimal.Zero, err
	}
	return consumption, nil
}

// rederiveSuccessor recomputes the consumption of the first reading after
// date on the series, against whatever now precedes it
func rederiveSuccessor(ctx context.Context, repo metering.MeterReadingRepository, accountID uuid.UUID, key metering.SeriesKey, date time.Time, excludeID *uuid.UUID) error {
	next, err := repo.FindNext(ctx, accountID, key, date, excludeID)
	if err != nil {
		return fmt.Errorf("failed to find next reading: %w", err)
	}
	if next == nil {
		return nil
	}
	prev, err := repo.FindPrevious(ctx, accountID, key, next.ReadingDate, &next.ID)
	if err != nil {
		return fmt.Errorf("failed to find previous reading: %w", err)
	}
	version := next.Version
	if err := next.Rederive(prev); err != nil {
		return err
	}
	if next.Version == version {
		return nil
	}
	if err := repo.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save meter reading: %w", err)
	}
	return nil
}

// lockMeters locks both meters of a reading that moves series, in a stable
// order so two concurrent moves cannot deadlock
func lockMeters(ctx context.Context, repo metering.MeterRepository, accountID uuid.UUID, a, b uuid.UUID) error {
	if a == b {
		_, err := repo.FindByIDForUpdate(ctx, accountID, a)
		return err
	}
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	if _, err := repo.FindByIDForUpdate(ctx, accountID, a); err != nil {
		return err
	}
	_, err := repo.FindByIDForUpdate(ctx, accountID, b)
	return err
}

func mergeFields(f metering.ReadingFields, req UpdateMeterReadingRequest) metering.ReadingFields {
	if req.MeterID != nil {
		f.MeterID = *req.MeterID
	}
	if req.ClearSubmeter {
		f.SubmeterID = nil
	} else if req.SubmeterID != nil {
		f.SubmeterID = req.SubmeterID
	}
	if req.ReadingValue != nil {
		f.ReadingValue = *req.ReadingValue
	}
	if req.ReadingDate != nil {
		f.ReadingDate = shared.DateOnly(*req.ReadingDate)
	}
	if req.EnteredByUserID != nil {
		f.EnteredByUserID = req.EnteredByUserID
	}
	return f
}

type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

func recordEvents(ctx context.Context, repos TransactionalRepositories, aggregates ...eventSource) error {
	for _, agg := range aggregates {
		events := agg.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		if err := repos.Events().Record(ctx, events...); err != nil {
			return fmt.Errorf("failed to record events: %w", err)
		}
		agg.ClearDomainEvents()
	}
	return nil
}

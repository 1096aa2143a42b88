package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	appshared "github.com/propledger/backend/internal/application/shared"
	"github.com/propledger/backend/internal/domain/billing"
	"github.com/propledger/backend/internal/domain/leasing"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/logger"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// BillService assembles bills from rent, utilities and linked tenant charges
type BillService struct {
	billRepo    billing.BillRepository
	expenseRepo billing.ExpenseRepository
	tenantRepo  leasing.TenantRepository
	txScope     TransactionScope
	linker      *ExpenseLinker
	metrics     *telemetry.LedgerMetrics
	pagination  appshared.Pagination
}

// NewBillService creates a new BillService
func NewBillService(
	billRepo billing.BillRepository,
	expenseRepo billing.ExpenseRepository,
	tenantRepo leasing.TenantRepository,
	txScope TransactionScope,
) *BillService {
	return &BillService{
		billRepo:    billRepo,
		expenseRepo: expenseRepo,
		tenantRepo:  tenantRepo,
		txScope:     txScope,
		linker:      NewExpenseLinker(),
		pagination:  appshared.DefaultPagination(),
	}
}

// SetMetrics sets the business metrics recorder (optional)
func (s *BillService) SetMetrics(metrics *telemetry.LedgerMetrics) {
	s.metrics = metrics
}

// SetPagination overrides the list page size limits
func (s *BillService) SetPagination(p appshared.Pagination) {
	s.pagination = p
}

// CreateBill assembles a new unpaid bill and links the unit's unbilled
// tenant charges for the period, all in one transaction
func (s *BillService) CreateBill(ctx context.Context, accountID uuid.UUID, req CreateBillRequest) (*BillResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, accountID.String(),
		telemetry.SpanAttrUnitID, req.UnitID.String(),
	)
	fail := func(err error) (*BillResponse, error) {
		return nil, appshared.Fail(ctx, span, s.metrics, accountID, "bill.create", err)
	}

	if err := shared.RequireAccount(accountID); err != nil {
		return fail(err)
	}
	if err := appshared.Validate(req); err != nil {
		return fail(err)
	}
	if _, err := s.tenantRepo.FindByIDForAccount(ctx, accountID, req.TenantID); err != nil {
		return fail(err)
	}

	var bill *billing.Bill
	var linked []billing.Expense
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		unit, err := repos.Units().FindByIDForAccount(ctx, accountID, req.UnitID)
		if err != nil {
			return err
		}

		terms := billing.BillTerms{
			BillingPeriodStart: req.BillingPeriodStart,
			BillingPeriodEnd:   req.BillingPeriodEnd,
			RentAmount:         unit.RentAmount,
			TotalUtilityAmount: req.TotalUtilityAmount,
			Notes:              req.Notes,
		}
		if req.RentAmount != nil {
			terms.RentAmount = *req.RentAmount
		}
		if req.DueDate != nil {
			terms.DueDate = *req.DueDate
		}
		if req.IssueDate != nil {
			terms.IssueDate = *req.IssueDate
		}

		linked, err = s.linker.LinkableExpenses(ctx, repos.Expenses(), accountID, req.UnitID,
			req.BillingPeriodStart, req.BillingPeriodEnd, nil)
		if err != nil {
			return err
		}

		bill, err = billing.NewBill(accountID, req.TenantID, req.UnitID, terms, billing.SumExpenseAmounts(linked))
		if err != nil {
			return err
		}
		if err := repos.Bills().Save(ctx, bill); err != nil {
			return fmt.Errorf("failed to save bill: %w", err)
		}
		if err := s.linker.Link(ctx, repos.Expenses(), accountID, bill.ID, linked); err != nil {
			return err
		}
		return recordEvents(ctx, repos, bill)
	})
	if err != nil {
		return fail(err)
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrBillID, bill.ID.String(),
		telemetry.SpanAttrAmount, bill.TotalAmount.String(),
	)
	s.metrics.RecordBillAssembled(ctx, accountID, "create", bill.TotalAmount)
	logger.L(ctx).Info("bill assembled",
		zap.String("bill_id", bill.ID.String()),
		zap.String("total_amount", bill.TotalAmount.StringFixed(2)),
		zap.Int("linked_expenses", len(linked)),
	)

	resp := ToBillResponse(bill)
	resp.Expenses = toExpenseResponses(linked)
	return &resp, nil
}

// UpdateBill changes a bill's terms, re-links expenses for the new period
// and re-derives the payment status from the bill's payments
func (s *BillService) UpdateBill(ctx context.Context, accountID, id uuid.UUID, req UpdateBillRequest) (*BillResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "update")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, accountID.String(),
		telemetry.SpanAttrBillID, id.String(),
	)
	fail := func(err error) (*BillResponse, error) {
		return nil, appshared.Fail(ctx, span, s.metrics, accountID, "bill.update", err)
	}

	if err := shared.RequireAccount(accountID); err != nil {
		return fail(err)
	}
	if err := appshared.Validate(req); err != nil {
		return fail(err)
	}

	var bill *billing.Bill
	var linked []billing.Expense
	var released int
	var previousStatus billing.PaymentStatus
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		bill, err = repos.Bills().FindByIDForUpdate(ctx, accountID, id)
		if err != nil {
			return err
		}
		previousStatus = bill.PaymentStatus

		terms := applyBillPatch(bill.Terms(), req)

		linked, err = s.linker.LinkableExpenses(ctx, repos.Expenses(), accountID, bill.UnitID,
			terms.BillingPeriodStart, terms.BillingPeriodEnd, &bill.ID)
		if err != nil {
			return err
		}

		totals, err := repos.Payments().TotalsForBill(ctx, accountID, bill.ID, nil)
		if err != nil {
			return fmt.Errorf("failed to total payments: %w", err)
		}
		if err := bill.Reassemble(terms, billing.SumExpenseAmounts(linked), totals.Sum, totals.LastPaidOn(shared.Today())); err != nil {
			return err
		}

		released, err = s.linker.Release(ctx, repos.Expenses(), accountID, bill.ID, linked)
		if err != nil {
			return err
		}
		if err := repos.Bills().Save(ctx, bill); err != nil {
			return fmt.Errorf("failed to save bill: %w", err)
		}
		if err := s.linker.Link(ctx, repos.Expenses(), accountID, bill.ID, linked); err != nil {
			return err
		}
		return recordEvents(ctx, repos, bill)
	})
	if err != nil {
		return fail(err)
	}

	s.metrics.RecordBillAssembled(ctx, accountID, "update", bill.TotalAmount)
	if bill.PaymentStatus != previousStatus {
		s.metrics.RecordStatusTransition(ctx, accountID, bill.PaymentStatus.String())
	}
	logger.L(ctx).Info("bill reassembled",
		zap.String("bill_id", bill.ID.String()),
		zap.String("total_amount", bill.TotalAmount.StringFixed(2)),
		zap.String("payment_status", bill.PaymentStatus.String()),
		zap.Int("linked_expenses", len(linked)),
		zap.Int("released_expenses", released),
	)

	resp := ToBillResponse(bill)
	resp.Expenses = toExpenseResponses(linked)
	return &resp, nil
}

func applyBillPatch(terms billing.BillTerms, req UpdateBillRequest) billing.BillTerms {
	if req.BillingPeriodStart != nil {
		terms.BillingPeriodStart = *req.BillingPeriodStart
	}
	if req.BillingPeriodEnd != nil {
		terms.BillingPeriodEnd = *req.BillingPeriodEnd
	}
	if req.RentAmount != nil {
		terms.RentAmount = *req.RentAmount
	}
	if req.TotalUtilityAmount != nil {
		terms.TotalUtilityAmount = *req.TotalUtilityAmount
	}
	if req.DueDate != nil {
		terms.DueDate = *req.DueDate
	}
	if req.IssueDate != nil {
		terms.IssueDate = *req.IssueDate
	}
	if req.Notes != nil {
		terms.Notes = *req.Notes
	}
	return terms
}

// GetBill returns a live bill with the expenses linked to it
func (s *BillService) GetBill(ctx context.Context, accountID, id uuid.UUID) (*BillResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "get")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrBillID, id.String())

	if err := shared.RequireAccount(accountID); err != nil {
		return nil, err
	}
	bill, err := s.billRepo.FindByIDForAccount(ctx, accountID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	expenses, err := s.expenseRepo.FindByBill(ctx, accountID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load linked expenses: %w", err)
	}

	resp := ToBillResponse(bill)
	resp.Expenses = toExpenseResponses(expenses)
	return &resp, nil
}

// ListBills lists live bills with filtering and pagination
func (s *BillService) ListBills(ctx context.Context, accountID uuid.UUID, filter BillListFilter) (shared.Paginated[BillResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "list")
	defer span.End()

	if err := shared.RequireAccount(accountID); err != nil {
		return shared.Paginated[BillResponse]{}, err
	}
	if err := appshared.Validate(filter); err != nil {
		return shared.Paginated[BillResponse]{}, err
	}

	domainFilter := billing.BillFilter{
		Filter: s.pagination.Filter(filter.PageRequest, "created_at",
			"created_at", "billing_period_start", "due_date", "total_amount"),
		TenantID:   filter.TenantID,
		UnitID:     filter.UnitID,
		PeriodFrom: filter.PeriodFrom,
		PeriodTo:   filter.PeriodTo,
	}
	if filter.Status != "" {
		status := billing.PaymentStatus(filter.Status)
		domainFilter.Status = &status
	}

	bills, err := s.billRepo.FindAllForAccount(ctx, accountID, domainFilter)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[BillResponse]{}, fmt.Errorf("failed to list bills: %w", err)
	}
	total, err := s.billRepo.CountForAccount(ctx, accountID, domainFilter)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[BillResponse]{}, fmt.Errorf("failed to count bills: %w", err)
	}

	page := shared.NewPaginated(bills, total, domainFilter.Page, domainFilter.Limit)
	return shared.MapPaginated(page, func(b billing.Bill) BillResponse {
		return ToBillResponse(&b)
	}), nil
}

// DeleteBill soft-deletes a bill without payments and releases its
// expenses so another bill can claim them
func (s *BillService) DeleteBill(ctx context.Context, accountID, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "delete")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, accountID.String(),
		telemetry.SpanAttrBillID, id.String(),
	)
	fail := func(err error) error {
		return appshared.Fail(ctx, span, s.metrics, accountID, "bill.delete", err)
	}

	if err := shared.RequireAccount(accountID); err != nil {
		return fail(err)
	}

	var released int
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		bill, err := repos.Bills().FindByIDForUpdate(ctx, accountID, id)
		if err != nil {
			return err
		}
		count, err := repos.Payments().CountByBill(ctx, accountID, id)
		if err != nil {
			return fmt.Errorf("failed to count payments: %w", err)
		}
		if count > 0 {
			return shared.NewInvalidStateError("BILL_HAS_PAYMENTS",
				fmt.Sprintf("Cannot delete a bill with %d payment(s); remove them first", count))
		}
		if err := bill.SoftDelete(); err != nil {
			return err
		}
		released, err = s.linker.Release(ctx, repos.Expenses(), accountID, id, nil)
		if err != nil {
			return err
		}
		if err := repos.Bills().Save(ctx, bill); err != nil {
			return fmt.Errorf("failed to save bill: %w", err)
		}
		return recordEvents(ctx, repos, bill)
	})
	if err != nil {
		return fail(err)
	}

	logger.L(ctx).Info("bill deleted",
		zap.String("bill_id", id.String()),
		zap.Int("released_expenses", released),
	)
	return nil
}

type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// recordEvents writes the pending events of each aggregate to the outbox
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

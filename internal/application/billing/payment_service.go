package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	appshared "github.com/propledger/backend/internal/application/shared"
	"github.com/propledger/backend/internal/domain/billing"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/logger"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// PaymentService allocates rent payments against bills. After every
// mutation the bill's paid sum and status are re-derived from the full
// payment set under the bill's row lock.
type PaymentService struct {
	billRepo    billing.BillRepository
	paymentRepo billing.PaymentRepository
	txScope     TransactionScope
	metrics     *telemetry.LedgerMetrics
	pagination  appshared.Pagination
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	billRepo billing.BillRepository,
	paymentRepo billing.PaymentRepository,
	txScope TransactionScope,
) *PaymentService {
	return &PaymentService{
		billRepo:    billRepo,
		paymentRepo: paymentRepo,
		txScope:     txScope,
		pagination:  appshared.DefaultPagination(),
	}
}

// SetMetrics sets the business metrics recorder (optional)
func (s *PaymentService) SetMetrics(metrics *telemetry.LedgerMetrics) {
	s.metrics = metrics
}

// SetPagination overrides the list page size limits
func (s *PaymentService) SetPagination(p appshared.Pagination) {
	s.pagination = p
}

// CreateRentPayment records a payment against a bill. A payment that
// would take the paid sum above the bill total is rejected before insert.
func (s *PaymentService) CreateRentPayment(ctx context.Context, accountID uuid.UUID, req CreatePaymentRequest) (*AllocationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, accountID.String(),
		telemetry.SpanAttrBillID, req.BillID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)
	fail := func(err error) (*AllocationResponse, error) {
		return nil, appshared.Fail(ctx, span, s.metrics, accountID, "payment.create", err)
	}

	if err := shared.RequireAccount(accountID); err != nil {
		return fail(err)
	}
	if err := appshared.Validate(req); err != nil {
		return fail(err)
	}

	var payment *billing.Payment
	var bill *billing.Bill
	var previousStatus billing.PaymentStatus
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		bill, err = repos.Bills().FindByIDForUpdate(ctx, accountID, req.BillID)
		if err != nil {
			return err
		}
		previousStatus = bill.PaymentStatus

		prior, err := repos.Payments().TotalsForBill(ctx, accountID, bill.ID, nil)
		if err != nil {
			return fmt.Errorf("failed to total payments: %w", err)
		}
		if err := bill.EnsureCanAccept(prior.Sum, req.Amount); err != nil {
			return err
		}

		tenantID := req.TenantID
		if tenantID == nil {
			tenantID = &bill.TenantID
		}
		payment, err = billing.NewPayment(accountID, bill.ID, tenantID, req.Amount, req.PaymentDate,
			billing.PaymentMethod(req.PaymentMethod), req.TransactionID, req.Notes)
		if err != nil {
			return err
		}
		if err := repos.Payments().Save(ctx, payment); err != nil {
			return err
		}

		if err := s.recompute(ctx, repos, bill, payment); err != nil {
			return err
		}
		return recordEvents(ctx, repos, payment, bill)
	})
	if err != nil {
		return fail(err)
	}

	s.observeAllocation(ctx, span, accountID, "create", payment, bill, previousStatus)
	paymentResp := ToPaymentResponse(payment)
	return &AllocationResponse{Payment: &paymentResp, Bill: ToBillResponse(bill)}, nil
}

// UpdateRentPayment edits a payment. The overpayment check runs with the
// edited payment left out of the prior sum.
func (s *PaymentService) UpdateRentPayment(ctx context.Context, accountID, id uuid.UUID, req UpdatePaymentRequest) (*AllocationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "update")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, accountID.String(),
		telemetry.SpanAttrPaymentID, id.String(),
	)
	fail := func(err error) (*AllocationResponse, error) {
		return nil, appshared.Fail(ctx, span, s.metrics, accountID, "payment.update", err)
	}

	if err := shared.RequireAccount(accountID); err != nil {
		return fail(err)
	}
	if err := appshared.Validate(req); err != nil {
		return fail(err)
	}

	var payment *billing.Payment
	var bill *billing.Bill
	var previousStatus billing.PaymentStatus
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		payment, bill, err = s.lockPayment(ctx, repos, accountID, id)
		if err != nil {
			return err
		}
		previousStatus = bill.PaymentStatus

		amount := payment.Amount
		if req.Amount != nil {
			amount = *req.Amount
		}
		prior, err := repos.Payments().TotalsForBill(ctx, accountID, bill.ID, &payment.ID)
		if err != nil {
			return fmt.Errorf("failed to total payments: %w", err)
		}
		if err := bill.EnsureCanAccept(prior.Sum, amount); err != nil {
			return err
		}

		revision := billing.PaymentRevision{
			Amount:        req.Amount,
			PaymentDate:   req.PaymentDate,
			TransactionID: req.TransactionID,
			Notes:         req.Notes,
		}
		if req.PaymentMethod != nil {
			method := billing.PaymentMethod(*req.PaymentMethod)
			revision.PaymentMethod = &method
		}
		if err := payment.Revise(revision); err != nil {
			return err
		}
		if err := repos.Payments().Save(ctx, payment); err != nil {
			return err
		}

		if err := s.recompute(ctx, repos, bill, payment); err != nil {
			return err
		}
		return recordEvents(ctx, repos, payment, bill)
	})
	if err != nil {
		return fail(err)
	}

	s.observeAllocation(ctx, span, accountID, "update", payment, bill, previousStatus)
	paymentResp := ToPaymentResponse(payment)
	return &AllocationResponse{Payment: &paymentResp, Bill: ToBillResponse(bill)}, nil
}

// DeleteRentPayment removes a payment and re-derives the bill from the rest
func (s *PaymentService) DeleteRentPayment(ctx context.Context, accountID, id uuid.UUID) (*AllocationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "delete")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, accountID.String(),
		telemetry.SpanAttrPaymentID, id.String(),
	)
	fail := func(err error) (*AllocationResponse, error) {
		return nil, appshared.Fail(ctx, span, s.metrics, accountID, "payment.delete", err)
	}

	if err := shared.RequireAccount(accountID); err != nil {
		return fail(err)
	}

	var payment *billing.Payment
	var bill *billing.Bill
	var previousStatus billing.PaymentStatus
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		payment, bill, err = s.lockPayment(ctx, repos, accountID, id)
		if err != nil {
			return err
		}
		previousStatus = bill.PaymentStatus

		if err := repos.Payments().Delete(ctx, accountID, payment.ID); err != nil {
			return err
		}
		payment.AddDomainEvent(billing.NewPaymentRemovedEvent(payment))

		if err := s.recompute(ctx, repos, bill, nil); err != nil {
			return err
		}
		return recordEvents(ctx, repos, payment, bill)
	})
	if err != nil {
		return fail(err)
	}

	s.observeAllocation(ctx, span, accountID, "delete", payment, bill, previousStatus)
	return &AllocationResponse{Bill: ToBillResponse(bill)}, nil
}

// lockPayment loads a payment, locks its bill, then re-reads the payment
// so the returned values cannot be changed by a concurrent allocation
func (s *PaymentService) lockPayment(ctx context.Context, repos TransactionalRepositories, accountID, id uuid.UUID) (*billing.Payment, *billing.Bill, error) {
	payment, err := repos.Payments().FindByIDForAccount(ctx, accountID, id)
	if err != nil {
		return nil, nil, err
	}
	bill, err := repos.Bills().FindByIDForUpdate(ctx, accountID, payment.BillID)
	if err != nil {
		return nil, nil, err
	}
	payment, err = repos.Payments().FindByIDForAccount(ctx, accountID, id)
	if err != nil {
		return nil, nil, err
	}
	return payment, bill, nil
}

// recompute re-derives the bill's paid sum and status from all of its
// payments and saves the bill. trigger dates a transition into paid.
func (s *PaymentService) recompute(ctx context.Context, repos TransactionalRepositories, bill *billing.Bill, trigger *billing.Payment) error {
	totals, err := repos.Payments().TotalsForBill(ctx, bill.AccountID, bill.ID, nil)
	if err != nil {
		return fmt.Errorf("failed to total payments: %w", err)
	}
	paidOn := totals.LastPaidOn(shared.Today())
	if trigger != nil {
		paidOn = trigger.PaymentDate
	}
	if err := bill.ApplyPaymentTotal(totals.Sum, paidOn); err != nil {
		return err
	}
	if err := repos.Bills().Save(ctx, bill); err != nil {
		return fmt.Errorf("failed to save bill: %w", err)
	}
	return nil
}

func (s *PaymentService) observeAllocation(
	ctx context.Context,
	span trace.Span,
	accountID uuid.UUID,
	op string,
	payment *billing.Payment,
	bill *billing.Bill,
	previousStatus billing.PaymentStatus,
) {
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, payment.ID.String(),
		telemetry.SpanAttrPaymentStatus, bill.PaymentStatus.String(),
	)
	s.metrics.RecordPaymentAllocated(ctx, accountID, op, string(payment.PaymentMethod))
	if bill.PaymentStatus != previousStatus {
		telemetry.AddEvent(span, "payment_status_changed",
			"from", previousStatus.String(),
			"to", bill.PaymentStatus.String(),
		)
		s.metrics.RecordStatusTransition(ctx, accountID, bill.PaymentStatus.String())
	}
	logger.L(ctx).Info("payment allocated",
		zap.String("operation", op),
		zap.String("payment_id", payment.ID.String()),
		zap.String("bill_id", bill.ID.String()),
		zap.String("amount_paid", bill.AmountPaid.StringFixed(2)),
		zap.String("payment_status", bill.PaymentStatus.String()),
	)
}

// GetPayment returns a payment by ID
func (s *PaymentService) GetPayment(ctx context.Context, accountID, id uuid.UUID) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "get")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrPaymentID, id.String())

	if err := shared.RequireAccount(accountID); err != nil {
		return nil, err
	}
	payment, err := s.paymentRepo.FindByIDForAccount(ctx, accountID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// ListPayments lists the payments of a live bill, newest first
func (s *PaymentService) ListPayments(ctx context.Context, accountID uuid.UUID, filter PaymentListFilter) (shared.Paginated[PaymentResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "list")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrBillID, filter.BillID.String())

	if err := shared.RequireAccount(accountID); err != nil {
		return shared.Paginated[PaymentResponse]{}, err
	}
	if err := appshared.Validate(filter); err != nil {
		return shared.Paginated[PaymentResponse]{}, err
	}
	if _, err := s.billRepo.FindByIDForAccount(ctx, accountID, filter.BillID); err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[PaymentResponse]{}, err
	}

	f := s.pagination.Filter(filter.PageRequest, "payment_date", "payment_date", "created_at", "amount")
	payments, err := s.paymentRepo.FindByBill(ctx, accountID, filter.BillID, f)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[PaymentResponse]{}, fmt.Errorf("failed to list payments: %w", err)
	}
	total, err := s.paymentRepo.CountByBill(ctx, accountID, filter.BillID)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[PaymentResponse]{}, fmt.Errorf("failed to count payments: %w", err)
	}

	page := shared.NewPaginated(payments, total, f.Page, f.Limit)
	return shared.MapPaginated(page, func(p billing.Payment) PaymentResponse {
		return ToPaymentResponse(&p)
	}), nil
}

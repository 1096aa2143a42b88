package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	appshared "github.com/propledger/backend/internal/application/shared"
	"github.com/propledger/backend/internal/domain/billing"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/domain/leasing"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/logger"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ExpenseService records expenses and lists the charges linked to a bill
type ExpenseService struct {
	expenseRepo  billing.ExpenseRepository
	categoryRepo billing.ExpenseCategoryRepository
	billRepo     billing.BillRepository
	unitRepo     leasing.UnitRepository
	propertyRepo leasing.PropertyRepository
	userRepo     identity.UserRepository
	metrics      *telemetry.LedgerMetrics
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	expenseRepo billing.ExpenseRepository,
	categoryRepo billing.ExpenseCategoryRepository,
	billRepo billing.BillRepository,
	unitRepo leasing.UnitRepository,
	propertyRepo leasing.PropertyRepository,
	userRepo identity.UserRepository,
) *ExpenseService {
	return &ExpenseService{
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		billRepo:     billRepo,
		unitRepo:     unitRepo,
		propertyRepo: propertyRepo,
		userRepo:     userRepo,
	}
}

// SetMetrics sets the business metrics recorder (optional)
func (s *ExpenseService) SetMetrics(metrics *telemetry.LedgerMetrics) {
	s.metrics = metrics
}

// CreateExpense records an unbilled expense. Tenant charges wait for the
// next bill assembled for their unit and period.
func (s *ExpenseService) CreateExpense(ctx context.Context, accountID uuid.UUID, req CreateExpenseRequest) (*ExpenseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "expense", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, accountID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)
	fail := func(err error) (*ExpenseResponse, error) {
		return nil, appshared.Fail(ctx, span, s.metrics, accountID, "expense.create", err)
	}

	if err := shared.RequireAccount(accountID); err != nil {
		return fail(err)
	}
	if err := appshared.Validate(req); err != nil {
		return fail(err)
	}

	category, err := s.categoryRepo.FindByIDForAccount(ctx, accountID, req.CategoryID)
	if err != nil {
		return fail(err)
	}
	expenseType := billing.ExpenseType(req.ExpenseType)
	if expenseType == billing.ExpenseTypeTenantCharge && !category.IsTenantChargeable() {
		return fail(shared.NewValidationError("CATEGORY_NOT_CHARGEABLE",
			fmt.Sprintf("Category %q cannot be charged to tenants", category.Name)))
	}
	if err := s.checkRefs(ctx, accountID, req); err != nil {
		return fail(err)
	}

	expense, err := billing.NewExpense(accountID, req.CategoryID, expenseType, req.Amount, req.ExpenseDate, req.Description,
		billing.ExpenseRefs{UserID: req.UserID, UnitID: req.UnitID, PropertyID: req.PropertyID})
	if err != nil {
		return fail(err)
	}
	if err := s.expenseRepo.Save(ctx, expense); err != nil {
		return fail(fmt.Errorf("failed to save expense: %w", err))
	}

	logger.L(ctx).Info("expense recorded",
		zap.String("expense_id", expense.ID.String()),
		zap.String("expense_type", string(expense.ExpenseType)),
		zap.String("amount", expense.Amount.StringFixed(2)),
	)
	resp := ToExpenseResponse(expense)
	return &resp, nil
}

func (s *ExpenseService) checkRefs(ctx context.Context, accountID uuid.UUID, req CreateExpenseRequest) error {
	if req.UnitID != nil {
		if _, err := s.unitRepo.FindByIDForAccount(ctx, accountID, *req.UnitID); err != nil {
			return err
		}
	}
	if req.PropertyID != nil {
		if _, err := s.propertyRepo.FindByIDForAccount(ctx, accountID, *req.PropertyID); err != nil {
			return err
		}
	}
	if req.UserID != nil {
		if _, err := s.userRepo.FindByIDForAccount(ctx, accountID, *req.UserID); err != nil {
			return err
		}
	}
	return nil
}

// ListExpensesForBill returns the expenses linked to a live bill
func (s *ExpenseService) ListExpensesForBill(ctx context.Context, accountID, billID uuid.UUID) ([]ExpenseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "expense", "list_for_bill")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrBillID, billID.String())

	if err := shared.RequireAccount(accountID); err != nil {
		return nil, err
	}
	if _, err := s.billRepo.FindByIDForAccount(ctx, accountID, billID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	expenses, err := s.expenseRepo.FindByBill(ctx, accountID, billID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return toExpenseResponses(expenses), nil
}

package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ExpenseType classifies who carries an expense
type ExpenseType string

const (
	ExpenseTypeUtility      ExpenseType = "utility"
	ExpenseTypePersonal     ExpenseType = "personal"
	ExpenseTypeTenantCharge ExpenseType = "tenant_charge"
)

// IsValid checks if the type is a valid ExpenseType
func (t ExpenseType) IsValid() bool {
	switch t {
	case ExpenseTypeUtility, ExpenseTypePersonal, ExpenseTypeTenantCharge:
		return true
	}
	return false
}

// CategoryType marks what an expense category may be used for
type CategoryType string

const (
	CategoryTypeTenantChargeable CategoryType = "tenant_chargeable"
	CategoryTypeOperational      CategoryType = "operational"
	CategoryTypePersonal         CategoryType = "personal"
)

// ExpenseCategory is a lookup row owned by the account
type ExpenseCategory struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Name      string
	Type      CategoryType
}

// IsTenantChargeable reports whether expenses in the category may be billed to a tenant
func (c *ExpenseCategory) IsTenantChargeable() bool {
	return c.Type == CategoryTypeTenantChargeable
}

// ExpenseRefs are the optional owners of an expense
type ExpenseRefs struct {
	UserID     *uuid.UUID
	UnitID     *uuid.UUID
	PropertyID *uuid.UUID
}

// Expense is money spent by the account. Tenant charges are later
// attributed to at most one bill.
type Expense struct {
	shared.AccountAggregateRoot
	UserID      *uuid.UUID
	UnitID      *uuid.UUID
	PropertyID  *uuid.UUID
	CategoryID  uuid.UUID
	ExpenseType ExpenseType
	BillID      *uuid.UUID
	Amount      decimal.Decimal
	ExpenseDate time.Time
	Description string
}

// NewExpense creates a new unbilled expense
func NewExpense(
	accountID uuid.UUID,
	categoryID uuid.UUID,
	expenseType ExpenseType,
	amount decimal.Decimal,
	expenseDate time.Time,
	description string,
	refs ExpenseRefs,
) (*Expense, error) {
	if err := shared.RequireAccount(accountID); err != nil {
		return nil, err
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CATEGORY", "Category ID cannot be empty")
	}
	if !expenseType.IsValid() {
		return nil, shared.NewValidationError("INVALID_EXPENSE_TYPE", "Expense type is not valid")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Expense amount must be positive")
	}
	if expenseDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DATE", "Expense date is required")
	}

	switch expenseType {
	case ExpenseTypeUtility:
		if refs.PropertyID == nil {
			return nil, shared.NewValidationError("PROPERTY_REQUIRED", "Utility expenses require a property")
		}
	case ExpenseTypePersonal:
		if refs.UserID == nil {
			return nil, shared.NewValidationError("USER_REQUIRED", "Personal expenses require a user")
		}
	case ExpenseTypeTenantCharge:
		if refs.UnitID == nil {
			return nil, shared.NewValidationError("UNIT_REQUIRED", "Tenant charges require a unit")
		}
	}

	return &Expense{
		AccountAggregateRoot: shared.NewAccountAggregateRoot(accountID),
		UserID:               refs.UserID,
		UnitID:               refs.UnitID,
		PropertyID:           refs.PropertyID,
		CategoryID:           categoryID,
		ExpenseType:          expenseType,
		Amount:               amount,
		ExpenseDate:          shared.DateOnly(expenseDate),
		Description:          description,
	}, nil
}

// LinkTo attributes the expense to a bill. Only tenant charges can be
// billed and an expense linked elsewhere is never stolen.
func (e *Expense) LinkTo(billID uuid.UUID) error {
	if e.ExpenseType != ExpenseTypeTenantCharge {
		return shared.NewInvalidStateError("EXPENSE_NOT_BILLABLE", "Only tenant charges can be linked to a bill")
	}
	if e.BillID != nil && *e.BillID != billID {
		return shared.NewInvalidStateError("EXPENSE_ALREADY_LINKED", "Expense is already linked to another bill")
	}
	e.BillID = &billID
	e.Touch()
	return nil
}

// Unlink releases the expense so another bill may claim it
func (e *Expense) Unlink() {
	e.BillID = nil
	e.Touch()
}

// IsLinkedTo reports whether the expense belongs to billID
func (e *Expense) IsLinkedTo(billID uuid.UUID) bool {
	return e.BillID != nil && *e.BillID == billID
}

// SumExpenseAmounts totals the amounts of expenses
func SumExpenseAmounts(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

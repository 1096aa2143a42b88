package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
)

// BillFilter defines filtering options for bill queries
type BillFilter struct {
	shared.Filter
	TenantID   *uuid.UUID     // Filter by renter
	UnitID     *uuid.UUID     // Filter by unit
	Status     *PaymentStatus // Filter by derived payment status
	PeriodFrom *time.Time     // Bills whose period ends on or after this day
	PeriodTo   *time.Time     // Bills whose period starts on or before this day
}

// BillRepository defines the interface for bill persistence.
// Soft-deleted bills are invisible to every finder.
type BillRepository interface {
	// FindByIDForAccount finds a live bill by ID
	FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*Bill, error)

	// FindByIDForUpdate finds a live bill and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, accountID, id uuid.UUID) (*Bill, error)

	// FindAllForAccount lists live bills with filtering and pagination
	FindAllForAccount(ctx context.Context, accountID uuid.UUID, filter BillFilter) ([]Bill, error)

	// CountForAccount counts live bills matching the filter
	CountForAccount(ctx context.Context, accountID uuid.UUID, filter BillFilter) (int64, error)

	// Save creates or updates a bill
	Save(ctx context.Context, bill *Bill) error
}

// LinkableQuery selects the expenses a bill may claim
type LinkableQuery struct {
	UnitID        uuid.UUID
	PeriodStart   time.Time
	PeriodEnd     time.Time
	ExcludeBillID *uuid.UUID // expenses already linked to this bill stay selectable
}

// ExpenseRepository defines the interface for expense persistence
type ExpenseRepository interface {
	// FindByIDForAccount finds an expense by ID
	FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*Expense, error)

	// FindLinkable returns tenant-chargeable expenses of the unit dated inside
	// the period that are unlinked or linked to ExcludeBillID. Rows are locked.
	FindLinkable(ctx context.Context, accountID uuid.UUID, q LinkableQuery) ([]Expense, error)

	// FindByBill returns the expenses currently linked to a bill
	FindByBill(ctx context.Context, accountID, billID uuid.UUID) ([]Expense, error)

	// Save creates or updates an expense
	Save(ctx context.Context, expense *Expense) error

	// LinkToBill sets bill_id on unlinked expenses.
	// Fewer affected rows than ids means another bill claimed one first.
	LinkToBill(ctx context.Context, accountID, billID uuid.UUID, expenseIDs []uuid.UUID) error

	// UnlinkFromBill clears bill_id on the given expenses of billID
	UnlinkFromBill(ctx context.Context, accountID, billID uuid.UUID, expenseIDs []uuid.UUID) error
}

// ExpenseCategoryRepository reads the category lookup table
type ExpenseCategoryRepository interface {
	// FindByIDForAccount finds a category by ID
	FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*ExpenseCategory, error)
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByIDForAccount finds a payment by ID
	FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*Payment, error)

	// FindByBill lists the payments of a bill, newest first
	FindByBill(ctx context.Context, accountID, billID uuid.UUID, filter shared.Filter) ([]Payment, error)

	// CountByBill counts the payments of a bill
	CountByBill(ctx context.Context, accountID, billID uuid.UUID) (int64, error)

	// TotalsForBill aggregates a bill's payments, optionally leaving one out
	TotalsForBill(ctx context.Context, accountID, billID uuid.UUID, excludePaymentID *uuid.UUID) (PaymentTotals, error)

	// Save creates or updates a payment
	Save(ctx context.Context, payment *Payment) error

	// Delete removes a payment
	Delete(ctx context.Context, accountID, id uuid.UUID) error
}

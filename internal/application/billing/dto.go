package billing

import (
	"time"

	"github.com/google/uuid"
	appshared "github.com/propledger/backend/internal/application/shared"
	"github.com/propledger/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// CreateBillRequest assembles a new bill for a tenant's unit
type CreateBillRequest struct {
	TenantID           uuid.UUID        `json:"tenant_id" validate:"required"`
	UnitID             uuid.UUID        `json:"unit_id" validate:"required"`
	BillingPeriodStart time.Time        `json:"billing_period_start" validate:"required"`
	BillingPeriodEnd   time.Time        `json:"billing_period_end" validate:"required,gtefield=BillingPeriodStart"`
	RentAmount         *decimal.Decimal `json:"rent_amount" validate:"omitempty,gte=0"` // defaults to the unit's rent
	TotalUtilityAmount decimal.Decimal  `json:"total_utility_amount" validate:"gte=0"`
	DueDate            *time.Time       `json:"due_date"`   // defaults to the period end
	IssueDate          *time.Time       `json:"issue_date"` // defaults to today
	Notes              string           `json:"notes" validate:"max=2000"`
}

// UpdateBillRequest changes a bill. Nil fields keep their stored value.
type UpdateBillRequest struct {
	BillingPeriodStart *time.Time       `json:"billing_period_start"`
	BillingPeriodEnd   *time.Time       `json:"billing_period_end"`
	RentAmount         *decimal.Decimal `json:"rent_amount" validate:"omitempty,gte=0"`
	TotalUtilityAmount *decimal.Decimal `json:"total_utility_amount" validate:"omitempty,gte=0"`
	DueDate            *time.Time       `json:"due_date"`
	IssueDate          *time.Time       `json:"issue_date"`
	Notes              *string          `json:"notes" validate:"omitempty,max=2000"`
}

// BillListFilter represents filter options for bill lists
type BillListFilter struct {
	appshared.PageRequest
	TenantID   *uuid.UUID `json:"tenant_id"`
	UnitID     *uuid.UUID `json:"unit_id"`
	Status     string     `json:"status" validate:"omitempty,oneof=unpaid partially_paid paid"`
	PeriodFrom *time.Time `json:"period_from"`
	PeriodTo   *time.Time `json:"period_to"`
}

// BillResponse represents a bill in API responses
type BillResponse struct {
	ID                 uuid.UUID         `json:"id"`
	AccountID          uuid.UUID         `json:"account_id"`
	TenantID           uuid.UUID         `json:"tenant_id"`
	UnitID             uuid.UUID         `json:"unit_id"`
	BillingPeriodStart time.Time         `json:"billing_period_start"`
	BillingPeriodEnd   time.Time         `json:"billing_period_end"`
	RentAmount         decimal.Decimal   `json:"rent_amount"`
	TotalUtilityAmount decimal.Decimal   `json:"total_utility_amount"`
	OtherChargesAmount decimal.Decimal   `json:"other_charges_amount"`
	TotalAmount        decimal.Decimal   `json:"total_amount"`
	AmountPaid         decimal.Decimal   `json:"amount_paid"`
	OutstandingAmount  decimal.Decimal   `json:"outstanding_amount"`
	DueDate            time.Time         `json:"due_date"`
	IssueDate          time.Time         `json:"issue_date"`
	PaymentDate        *time.Time        `json:"payment_date,omitempty"`
	PaymentStatus      string            `json:"payment_status"`
	Notes              string            `json:"notes"`
	Expenses           []ExpenseResponse `json:"expenses,omitempty"`
	Version            int               `json:"version"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// ToBillResponse converts a domain Bill to BillResponse
func ToBillResponse(b *billing.Bill) BillResponse {
	return BillResponse{
		ID:                 b.ID,
		AccountID:          b.AccountID,
		TenantID:           b.TenantID,
		UnitID:             b.UnitID,
		BillingPeriodStart: b.BillingPeriodStart,
		BillingPeriodEnd:   b.BillingPeriodEnd,
		RentAmount:         b.RentAmount,
		TotalUtilityAmount: b.TotalUtilityAmount,
		OtherChargesAmount: b.OtherChargesAmount,
		TotalAmount:        b.TotalAmount,
		AmountPaid:         b.AmountPaid,
		OutstandingAmount:  b.OutstandingAmount(),
		DueDate:            b.DueDate,
		IssueDate:          b.IssueDate,
		PaymentDate:        b.PaymentDate,
		PaymentStatus:      b.PaymentStatus.String(),
		Notes:              b.Notes,
		Version:            b.Version,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// CreateExpenseRequest records money spent by the account
type CreateExpenseRequest struct {
	CategoryID  uuid.UUID       `json:"category_id" validate:"required"`
	ExpenseType string          `json:"expense_type" validate:"required,oneof=utility personal tenant_charge"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	ExpenseDate time.Time       `json:"expense_date" validate:"required"`
	Description string          `json:"description" validate:"max=500"`
	UserID      *uuid.UUID      `json:"user_id"`
	UnitID      *uuid.UUID      `json:"unit_id"`
	PropertyID  *uuid.UUID      `json:"property_id"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID          uuid.UUID       `json:"id"`
	CategoryID  uuid.UUID       `json:"category_id"`
	ExpenseType string          `json:"expense_type"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseDate time.Time       `json:"expense_date"`
	Description string          `json:"description"`
	UserID      *uuid.UUID      `json:"user_id,omitempty"`
	UnitID      *uuid.UUID      `json:"unit_id,omitempty"`
	PropertyID  *uuid.UUID      `json:"property_id,omitempty"`
	BillID      *uuid.UUID      `json:"bill_id,omitempty"`
}

// ToExpenseResponse converts a domain Expense to ExpenseResponse
func ToExpenseResponse(e *billing.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		CategoryID:  e.CategoryID,
		ExpenseType: string(e.ExpenseType),
		Amount:      e.Amount,
		ExpenseDate: e.ExpenseDate,
		Description: e.Description,
		UserID:      e.UserID,
		UnitID:      e.UnitID,
		PropertyID:  e.PropertyID,
		BillID:      e.BillID,
	}
}

func toExpenseResponses(expenses []billing.Expense) []ExpenseResponse {
	out := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		out[i] = ToExpenseResponse(&expenses[i])
	}
	return out
}

// CreatePaymentRequest allocates a payment to a bill
type CreatePaymentRequest struct {
	BillID        uuid.UUID       `json:"bill_id" validate:"required"`
	TenantID      *uuid.UUID      `json:"tenant_id"` // defaults to the bill's tenant
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentDate   time.Time       `json:"payment_date" validate:"required"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash bank_transfer card check mobile_money other"`
	TransactionID *string         `json:"transaction_id" validate:"omitempty,max=100"`
	Notes         string          `json:"notes" validate:"max=1000"`
}

// UpdatePaymentRequest changes a payment. Nil fields keep their stored value.
type UpdatePaymentRequest struct {
	Amount        *decimal.Decimal `json:"amount" validate:"omitempty,gt=0"`
	PaymentDate   *time.Time       `json:"payment_date"`
	PaymentMethod *string          `json:"payment_method" validate:"omitempty,oneof=cash bank_transfer card check mobile_money other"`
	TransactionID *string          `json:"transaction_id" validate:"omitempty,max=100"`
	Notes         *string          `json:"notes" validate:"omitempty,max=1000"`
}

// PaymentListFilter represents filter options for a bill's payments
type PaymentListFilter struct {
	appshared.PageRequest
	BillID uuid.UUID `json:"bill_id" validate:"required"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	BillID        uuid.UUID       `json:"bill_id"`
	TenantID      *uuid.UUID      `json:"tenant_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   time.Time       `json:"payment_date"`
	PaymentMethod string          `json:"payment_method"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToPaymentResponse converts a domain Payment to PaymentResponse
func ToPaymentResponse(p *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		BillID:        p.BillID,
		TenantID:      p.TenantID,
		Amount:        p.Amount,
		PaymentDate:   p.PaymentDate,
		PaymentMethod: string(p.PaymentMethod),
		TransactionID: p.TransactionID,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
	}
}

// AllocationResponse is the result of a payment mutation: the payment
// (absent after a delete) and the bill as re-derived from its payments
type AllocationResponse struct {
	Payment *PaymentResponse `json:"payment,omitempty"`
	Bill    BillResponse     `json:"bill"`
}

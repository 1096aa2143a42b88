package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypePayment is the aggregate type name used in events
const AggregateTypePayment = "Payment"

// PaymentMethod is how the tenant paid
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodMobileMoney  PaymentMethod = "mobile_money"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard,
		PaymentMethodCheck, PaymentMethodMobileMoney, PaymentMethodOther:
		return true
	}
	return false
}

// Payment is money received against a bill
type Payment struct {
	shared.AccountAggregateRoot
	BillID        uuid.UUID
	TenantID      *uuid.UUID
	Amount        decimal.Decimal
	PaymentDate   time.Time
	PaymentMethod PaymentMethod
	TransactionID *string
	Notes         string
}

// NewPayment creates a payment for a bill. The bill-level overpayment
// check is the allocator's job; this only guards the payment itself.
func NewPayment(
	accountID uuid.UUID,
	billID uuid.UUID,
	tenantID *uuid.UUID,
	amount decimal.Decimal,
	paymentDate time.Time,
	method PaymentMethod,
	transactionID *string,
	notes string,
) (*Payment, error) {
	if err := shared.RequireAccount(accountID); err != nil {
		return nil, err
	}
	if billID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_BILL", "Bill ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if paymentDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DATE", "Payment date is required")
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}

	p := &Payment{
		AccountAggregateRoot: shared.NewAccountAggregateRoot(accountID),
		BillID:               billID,
		TenantID:             tenantID,
		Amount:               amount,
		PaymentDate:          shared.DateOnly(paymentDate),
		PaymentMethod:        method,
		TransactionID:        normalizeTransactionID(transactionID),
		Notes:                notes,
	}
	p.AddDomainEvent(NewPaymentRecordedEvent(p))
	return p, nil
}

// PaymentRevision holds the fields a payment update may change
type PaymentRevision struct {
	Amount        *decimal.Decimal
	PaymentDate   *time.Time
	PaymentMethod *PaymentMethod
	TransactionID *string
	Notes         *string
}

// Revise applies a partial update to the payment
func (p *Payment) Revise(r PaymentRevision) error {
	if r.Amount != nil {
		if !r.Amount.IsPositive() {
			return shared.NewValidationError("INVALID_AMOUNT", "Payment amount must be positive")
		}
		p.Amount = *r.Amount
	}
	if r.PaymentDate != nil {
		p.PaymentDate = shared.DateOnly(*r.PaymentDate)
	}
	if r.PaymentMethod != nil {
		if !r.PaymentMethod.IsValid() {
			return shared.NewValidationError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
		}
		p.PaymentMethod = *r.PaymentMethod
	}
	if r.TransactionID != nil {
		p.TransactionID = normalizeTransactionID(r.TransactionID)
	}
	if r.Notes != nil {
		p.Notes = *r.Notes
	}
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewPaymentRevisedEvent(p))
	return nil
}

func normalizeTransactionID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// PaymentTotals is the authoritative aggregate over a bill's payments
type PaymentTotals struct {
	Sum               decimal.Decimal
	Count             int64
	LatestPaymentDate *time.Time
}

// LastPaidOn returns the latest payment date, or fallback when there is none
func (t PaymentTotals) LastPaidOn(fallback time.Time) time.Time {
	if t.LatestPaymentDate == nil {
		return fallback
	}
	return *t.LatestPaymentDate
}

// NewDuplicateTransactionError reports a transaction id already recorded in the account
func NewDuplicateTransactionError(transactionID *string) *shared.DomainError {
	id := ""
	if transactionID != nil {
		id = *transactionID
	}
	return shared.NewDomainError(shared.KindAlreadyExists, "DUPLICATE_TRANSACTION_ID",
		"A payment with transaction id "+id+" already exists")
}

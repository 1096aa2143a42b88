package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeBill is the aggregate type name used in events
const AggregateTypeBill = "Bill"

// PaymentStatus represents how much of a bill has been settled
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "unpaid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusPaid          PaymentStatus = "paid"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPartiallyPaid, PaymentStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// DerivePaymentStatus maps the paid sum of a bill onto its status.
// A zero sum is always unpaid, even against a zero total.
func DerivePaymentStatus(totalPaid, totalAmount decimal.Decimal) PaymentStatus {
	switch {
	case !totalPaid.IsPositive():
		return PaymentStatusUnpaid
	case totalPaid.GreaterThanOrEqual(totalAmount):
		return PaymentStatusPaid
	default:
		return PaymentStatusPartiallyPaid
	}
}

// BillTerms are the caller-controlled inputs of a bill
type BillTerms struct {
	BillingPeriodStart time.Time
	BillingPeriodEnd   time.Time
	RentAmount         decimal.Decimal
	TotalUtilityAmount decimal.Decimal
	DueDate            time.Time
	IssueDate          time.Time
	Notes              string
}

func (t BillTerms) normalize() BillTerms {
	t.BillingPeriodStart = shared.DateOnly(t.BillingPeriodStart)
	t.BillingPeriodEnd = shared.DateOnly(t.BillingPeriodEnd)
	if t.IssueDate.IsZero() {
		t.IssueDate = shared.Today()
	}
	t.IssueDate = shared.DateOnly(t.IssueDate)
	if t.DueDate.IsZero() {
		t.DueDate = t.BillingPeriodEnd
	}
	t.DueDate = shared.DateOnly(t.DueDate)
	return t
}

func (t BillTerms) validate() error {
	if t.BillingPeriodStart.IsZero() || t.BillingPeriodEnd.IsZero() {
		return shared.NewValidationError("INVALID_PERIOD", "Billing period start and end are required")
	}
	if t.BillingPeriodEnd.Before(t.BillingPeriodStart) {
		return shared.NewValidationError("INVALID_PERIOD", "Billing period end cannot be before its start")
	}
	if t.RentAmount.IsNegative() {
		return shared.NewValidationError("INVALID_AMOUNT", "Rent amount cannot be negative")
	}
	if t.TotalUtilityAmount.IsNegative() {
		return shared.NewValidationError("INVALID_AMOUNT", "Utility amount cannot be negative")
	}
	return nil
}

// Bill is a tenant's periodic charge for a unit: rent, utilities and the
// tenant-chargeable expenses linked to it.
type Bill struct {
	shared.AccountAggregateRoot
	TenantID           uuid.UUID
	UnitID             uuid.UUID
	BillingPeriodStart time.Time
	BillingPeriodEnd   time.Time
	RentAmount         decimal.Decimal
	TotalUtilityAmount decimal.Decimal
	OtherChargesAmount decimal.Decimal
	TotalAmount        decimal.Decimal
	AmountPaid         decimal.Decimal
	DueDate            time.Time
	IssueDate          time.Time
	PaymentDate        *time.Time
	PaymentStatus      PaymentStatus
	Notes              string
	IsDeleted          bool
}

// NewBill assembles a new unpaid bill. otherCharges is the sum of the
// expenses that will be linked to it.
func NewBill(accountID, tenantID, unitID uuid.UUID, terms BillTerms, otherCharges decimal.Decimal) (*Bill, error) {
	if err := shared.RequireAccount(accountID); err != nil {
		return nil, err
	}
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if unitID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_UNIT", "Unit ID cannot be empty")
	}
	terms = terms.normalize()
	if err := terms.validate(); err != nil {
		return nil, err
	}

	b := &Bill{
		AccountAggregateRoot: shared.NewAccountAggregateRoot(accountID),
		TenantID:             tenantID,
		UnitID:               unitID,
		AmountPaid:           decimal.Zero,
		PaymentStatus:        PaymentStatusUnpaid,
	}
	b.applyTerms(terms, otherCharges)

	b.AddDomainEvent(NewBillAssembledEvent(b))
	return b, nil
}

func (b *Bill) applyTerms(terms BillTerms, otherCharges decimal.Decimal) {
	b.BillingPeriodStart = terms.BillingPeriodStart
	b.BillingPeriodEnd = terms.BillingPeriodEnd
	b.RentAmount = terms.RentAmount
	b.TotalUtilityAmount = terms.TotalUtilityAmount
	b.OtherChargesAmount = otherCharges
	b.TotalAmount = terms.RentAmount.Add(terms.TotalUtilityAmount).Add(otherCharges)
	b.DueDate = terms.DueDate
	b.IssueDate = terms.IssueDate
	b.Notes = terms.Notes
}

// Terms returns the current caller-controlled inputs of the bill
func (b *Bill) Terms() BillTerms {
	return BillTerms{
		BillingPeriodStart: b.BillingPeriodStart,
		BillingPeriodEnd:   b.BillingPeriodEnd,
		RentAmount:         b.RentAmount,
		TotalUtilityAmount: b.TotalUtilityAmount,
		DueDate:            b.DueDate,
		IssueDate:          b.IssueDate,
		Notes:              b.Notes,
	}
}

// Reassemble replaces the bill's terms and linked-charge sum, then
// re-derives the payment status from totalPaid. The new total may not
// drop below what has already been paid.
func (b *Bill) Reassemble(terms BillTerms, otherCharges decimal.Decimal, totalPaid decimal.Decimal, lastPaidOn time.Time) error {
	if b.IsDeleted {
		return shared.NewInvalidStateError("BILL_DELETED", "Cannot modify a deleted bill")
	}
	terms = terms.normalize()
	if err := terms.validate(); err != nil {
		return err
	}
	newTotal := terms.RentAmount.Add(terms.TotalUtilityAmount).Add(otherCharges)
	if totalPaid.GreaterThan(newTotal) {
		return shared.NewInvalidStateError("BILL_TOTAL_BELOW_PAID",
			fmt.Sprintf("Bill total %s would fall below the %s already paid", newTotal.StringFixed(2), totalPaid.StringFixed(2)))
	}

	b.applyTerms(terms, otherCharges)
	b.AddDomainEvent(NewBillReassembledEvent(b))
	if err := b.ApplyPaymentTotal(totalPaid, lastPaidOn); err != nil {
		return err
	}
	b.Touch()
	b.IncrementVersion()
	return nil
}

// EnsureCanAccept rejects a payment that would push the paid sum above
// the bill total. priorPaid must exclude any payment being replaced.
func (b *Bill) EnsureCanAccept(priorPaid, amount decimal.Decimal) error {
	if b.IsDeleted {
		return shared.NewInvalidStateError("BILL_DELETED", "Cannot apply a payment to a deleted bill")
	}
	if priorPaid.Add(amount).GreaterThan(b.TotalAmount) {
		return shared.NewInvalidStateError("OVERPAYMENT",
			fmt.Sprintf("Payment of %s exceeds the outstanding balance %s of bill %s",
				amount.StringFixed(2), b.TotalAmount.Sub(priorPaid).StringFixed(2), b.ID))
	}
	return nil
}

// ApplyPaymentTotal stores the authoritative paid sum and re-derives the
// status from it. PaymentDate is set on the transition into paid and
// cleared whenever the bill is not paid.
func (b *Bill) ApplyPaymentTotal(totalPaid decimal.Decimal, paidOn time.Time) error {
	if totalPaid.IsNegative() {
		return shared.NewValidationError("INVALID_AMOUNT", "Paid total cannot be negative")
	}
	if totalPaid.GreaterThan(b.TotalAmount) {
		return shared.NewInvalidStateError("OVERPAYMENT",
			fmt.Sprintf("Paid total %s exceeds bill total %s", totalPaid.StringFixed(2), b.TotalAmount.StringFixed(2)))
	}

	previous := b.PaymentStatus
	b.AmountPaid = totalPaid
	b.PaymentStatus = DerivePaymentStatus(totalPaid, b.TotalAmount)

	switch {
	case b.PaymentStatus != PaymentStatusPaid:
		b.PaymentDate = nil
	case previous != PaymentStatusPaid:
		day := shared.DateOnly(paidOn)
		b.PaymentDate = &day
	}

	if previous != b.PaymentStatus {
		b.AddDomainEvent(NewBillPaymentStatusChangedEvent(b, previous))
	}
	b.Touch()
	return nil
}

// OutstandingAmount is the part of the total not yet paid
func (b *Bill) OutstandingAmount() decimal.Decimal {
	return b.TotalAmount.Sub(b.AmountPaid)
}

// SoftDelete hides the bill from every read path. Bills with payments are kept.
func (b *Bill) SoftDelete() error {
	if b.IsDeleted {
		return shared.NewInvalidStateError("BILL_DELETED", "Bill is already deleted")
	}
	if b.AmountPaid.IsPositive() {
		return shared.NewInvalidStateError("BILL_HAS_PAYMENTS", "Cannot delete a bill that has payments; remove them first")
	}
	b.IsDeleted = true
	b.Touch()
	b.IncrementVersion()
	b.AddDomainEvent(NewBillDeletedEvent(b))
	return nil
}

// IsPaid returns true if the bill is fully settled
func (b *Bill) IsPaid() bool {
	return b.PaymentStatus == PaymentStatusPaid
}

package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	EventTypeBillAssembled            = "BillAssembled"
	EventTypeBillReassembled          = "BillReassembled"
	EventTypeBillPaymentStatusChanged = "BillPaymentStatusChanged"
	EventTypeBillDeleted              = "BillDeleted"
)

// BillAssembledEvent is raised when a new bill is assembled
type BillAssembledEvent struct {
	shared.BaseDomainEvent
	BillID             uuid.UUID       `json:"bill_id"`
	TenantID           uuid.UUID       `json:"tenant_id"`
	UnitID             uuid.UUID       `json:"unit_id"`
	BillingPeriodStart time.Time       `json:"billing_period_start"`
	BillingPeriodEnd   time.Time       `json:"billing_period_end"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	DueDate            time.Time       `json:"due_date"`
}

// NewBillAssembledEvent creates a new BillAssembledEvent
func NewBillAssembledEvent(b *Bill) *BillAssembledEvent {
	return &BillAssembledEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeBillAssembled, AggregateTypeBill, b.ID, b.AccountID),
		BillID:             b.ID,
		TenantID:           b.TenantID,
		UnitID:             b.UnitID,
		BillingPeriodStart: b.BillingPeriodStart,
		BillingPeriodEnd:   b.BillingPeriodEnd,
		TotalAmount:        b.TotalAmount,
		DueDate:            b.DueDate,
	}
}

// BillReassembledEvent is raised when a bill's period or amounts change
type BillReassembledEvent struct {
	shared.BaseDomainEvent
	BillID             uuid.UUID       `json:"bill_id"`
	BillingPeriodStart time.Time       `json:"billing_period_start"`
	BillingPeriodEnd   time.Time       `json:"billing_period_end"`
	OtherChargesAmount decimal.Decimal `json:"other_charges_amount"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
}

// NewBillReassembledEvent creates a new BillReassembledEvent
func NewBillReassembledEvent(b *Bill) *BillReassembledEvent {
	return &BillReassembledEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeBillReassembled, AggregateTypeBill, b.ID, b.AccountID),
		BillID:             b.ID,
		BillingPeriodStart: b.BillingPeriodStart,
		BillingPeriodEnd:   b.BillingPeriodEnd,
		OtherChargesAmount: b.OtherChargesAmount,
		TotalAmount:        b.TotalAmount,
	}
}

// BillPaymentStatusChangedEvent is raised whenever the derived status moves
type BillPaymentStatusChangedEvent struct {
	shared.BaseDomainEvent
	BillID         uuid.UUID       `json:"bill_id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	PreviousStatus PaymentStatus   `json:"previous_status"`
	Status         PaymentStatus   `json:"status"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentDate    *time.Time      `json:"payment_date,omitempty"`
}

// NewBillPaymentStatusChangedEvent creates a new BillPaymentStatusChangedEvent
func NewBillPaymentStatusChangedEvent(b *Bill, previous PaymentStatus) *BillPaymentStatusChangedEvent {
	return &BillPaymentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillPaymentStatusChanged, AggregateTypeBill, b.ID, b.AccountID),
		BillID:          b.ID,
		TenantID:        b.TenantID,
		PreviousStatus:  previous,
		Status:          b.PaymentStatus,
		AmountPaid:      b.AmountPaid,
		TotalAmount:     b.TotalAmount,
		PaymentDate:     b.PaymentDate,
	}
}

// BillDeletedEvent is raised when a bill is soft-deleted
type BillDeletedEvent struct {
	shared.BaseDomainEvent
	BillID uuid.UUID `json:"bill_id"`
}

// NewBillDeletedEvent creates a new BillDeletedEvent
func NewBillDeletedEvent(b *Bill) *BillDeletedEvent {
	return &BillDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillDeleted, AggregateTypeBill, b.ID, b.AccountID),
		BillID:          b.ID,
	}
}

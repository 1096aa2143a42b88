package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	EventTypePaymentRecorded = "PaymentRecorded"
	EventTypePaymentRevised  = "PaymentRevised"
	EventTypePaymentRemoved  = "PaymentRemoved"
)

// PaymentRecordedEvent is raised when a payment is allocated to a bill
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID       `json:"payment_id"`
	BillID        uuid.UUID       `json:"bill_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   time.Time       `json:"payment_date"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, p.ID, p.AccountID),
		PaymentID:       p.ID,
		BillID:          p.BillID,
		Amount:          p.Amount,
		PaymentDate:     p.PaymentDate,
		PaymentMethod:   p.PaymentMethod,
	}
}

// PaymentRevisedEvent is raised when a payment is edited
type PaymentRevisedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	BillID    uuid.UUID       `json:"bill_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPaymentRevisedEvent creates a new PaymentRevisedEvent
func NewPaymentRevisedEvent(p *Payment) *PaymentRevisedEvent {
	return &PaymentRevisedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRevised, AggregateTypePayment, p.ID, p.AccountID),
		PaymentID:       p.ID,
		BillID:          p.BillID,
		Amount:          p.Amount,
	}
}

// PaymentRemovedEvent is raised when a payment is deleted
type PaymentRemovedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	BillID    uuid.UUID       `json:"bill_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPaymentRemovedEvent creates a new PaymentRemovedEvent
func NewPaymentRemovedEvent(p *Payment) *PaymentRemovedEvent {
	return &PaymentRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRemoved, AggregateTypePayment, p.ID, p.AccountID),
		PaymentID:       p.ID,
		BillID:          p.BillID,
		Amount:          p.Amount,
	}
}

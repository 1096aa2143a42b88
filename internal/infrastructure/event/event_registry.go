package event

import (
	"github.com/propledger/backend/internal/domain/billing"
	"github.com/propledger/backend/internal/domain/leasing"
	"github.com/propledger/backend/internal/domain/metering"
)

// RegisterLedgerEvents registers every event the ledger writes to the outbox
func RegisterLedgerEvents(serializer *EventSerializer) {
	// Bills
	serializer.Register(billing.EventTypeBillAssembled, &billing.BillAssembledEvent{})
	serializer.Register(billing.EventTypeBillReassembled, &billing.BillReassembledEvent{})
	serializer.Register(billing.EventTypeBillPaymentStatusChanged, &billing.BillPaymentStatusChangedEvent{})
	serializer.Register(billing.EventTypeBillDeleted, &billing.BillDeletedEvent{})

	// Payments
	serializer.Register(billing.EventTypePaymentRecorded, &billing.PaymentRecordedEvent{})
	serializer.Register(billing.EventTypePaymentRevised, &billing.PaymentRevisedEvent{})
	serializer.Register(billing.EventTypePaymentRemoved, &billing.PaymentRemovedEvent{})

	// Meter readings
	serializer.Register(metering.EventTypeMeterReadingRecorded, &metering.MeterReadingRecordedEvent{})
	serializer.Register(metering.EventTypeMeterReadingRevised, &metering.MeterReadingRevisedEvent{})
	serializer.Register(metering.EventTypeMeterReadingDeleted, &metering.MeterReadingDeletedEvent{})

	// Leases
	serializer.Register(leasing.EventTypeLeaseCreated, &leasing.LeaseCreatedEvent{})
	serializer.Register(leasing.EventTypeLeaseTerminated, &leasing.LeaseTerminatedEvent{})
	serializer.Register(leasing.EventTypeLeaseDeleted, &leasing.LeaseDeletedEvent{})
}

// NewLedgerSerializer returns a serializer with every ledger event registered
func NewLedgerSerializer() *EventSerializer {
	s := NewEventSerializer()
	RegisterLedgerEvents(s)
	return s
}

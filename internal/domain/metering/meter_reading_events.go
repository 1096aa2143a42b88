package metering

import (
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	EventTypeMeterReadingRecorded = "MeterReadingRecorded"
	EventTypeMeterReadingRevised  = "MeterReadingRevised"
	EventTypeMeterReadingDeleted  = "MeterReadingDeleted"
)

// MeterReadingRecordedEvent is raised when a reading is stored
type MeterReadingRecordedEvent struct {
	shared.BaseDomainEvent
	ReadingID    uuid.UUID       `json:"reading_id"`
	MeterID      uuid.UUID       `json:"meter_id"`
	SubmeterID   *uuid.UUID      `json:"submeter_id,omitempty"`
	ReadingValue decimal.Decimal `json:"reading_value"`
	ReadingDate  time.Time       `json:"reading_date"`
	Consumption  decimal.Decimal `json:"consumption"`
}

// NewMeterReadingRecordedEvent creates a new MeterReadingRecordedEvent
func NewMeterReadingRecordedEvent(r *MeterReading) *MeterReadingRecordedEvent {
	return &MeterReadingRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMeterReadingRecorded, AggregateTypeMeterReading, r.ID, r.AccountID),
		ReadingID:       r.ID,
		MeterID:         r.MeterID,
		SubmeterID:      r.SubmeterID,
		ReadingValue:    r.ReadingValue,
		ReadingDate:     r.ReadingDate,
		Consumption:     r.Consumption,
	}
}

// MeterReadingRevisedEvent is raised when a reading is edited
type MeterReadingRevisedEvent struct {
	shared.BaseDomainEvent
	ReadingID    uuid.UUID       `json:"reading_id"`
	ReadingValue decimal.Decimal `json:"reading_value"`
	ReadingDate  time.Time       `json:"reading_date"`
	Consumption  decimal.Decimal `json:"consumption"`
}

// NewMeterReadingRevisedEvent creates a new MeterReadingRevisedEvent
func NewMeterReadingRevisedEvent(r *MeterReading) *MeterReadingRevisedEvent {
	return &MeterReadingRevisedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMeterReadingRevised, AggregateTypeMeterReading, r.ID, r.AccountID),
		ReadingID:       r.ID,
		ReadingValue:    r.ReadingValue,
		ReadingDate:     r.ReadingDate,
		Consumption:     r.Consumption,
	}
}

// MeterReadingDeletedEvent is raised when a reading is soft-deleted
type MeterReadingDeletedEvent struct {
	shared.BaseDomainEvent
	ReadingID uuid.UUID `json:"reading_id"`
	MeterID   uuid.UUID `json:"meter_id"`
}

// NewMeterReadingDeletedEvent creates a new MeterReadingDeletedEvent
func NewMeterReadingDeletedEvent(r *MeterReading) *MeterReadingDeletedEvent {
	return &MeterReadingDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMeterReadingDeleted, AggregateTypeMeterReading, r.ID, r.AccountID),
		ReadingID:       r.ID,
		MeterID:         r.MeterID,
	}
}

package metering

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeMeterReading is the aggregate type name used in events
const AggregateTypeMeterReading = "MeterReading"

// ReadingFields are the caller-controlled values of a reading
type ReadingFields struct {
	MeterID         uuid.UUID
	SubmeterID      *uuid.UUID
	ReadingValue    decimal.Decimal
	ReadingDate     time.Time
	EnteredByUserID *uuid.UUID
}

// Key returns the series the reading belongs to
func (f ReadingFields) Key() SeriesKey {
	return SeriesKey{MeterID: f.MeterID, SubmeterID: f.SubmeterID}
}

// Validate checks the structural rules of a reading
func (f ReadingFields) Validate() error {
	if f.MeterID == uuid.Nil {
		if f.SubmeterID != nil {
			return shared.NewValidationError("SUBMETER_REQUIRES_METER", "A submeter reading must also name its meter")
		}
		return shared.NewValidationError("METER_REQUIRED", "Meter ID is required")
	}
	if f.ReadingValue.IsNegative() {
		return shared.NewValidationError("INVALID_READING_VALUE", "Reading value cannot be negative")
	}
	if f.ReadingDate.IsZero() {
		return shared.NewValidationError("READING_DATE_REQUIRED", "Reading date is required")
	}
	return nil
}

// MeterReading is one counter value taken on a calendar day
type MeterReading struct {
	shared.AccountAggregateRoot
	MeterID         uuid.UUID
	SubmeterID      *uuid.UUID
	ReadingValue    decimal.Decimal
	ReadingDate     time.Time
	Consumption     decimal.Decimal
	EnteredByUserID *uuid.UUID
	IsDeleted       bool
}

// NewMeterReading creates a reading with an already derived consumption
func NewMeterReading(accountID uuid.UUID, f ReadingFields, consumption decimal.Decimal) (*MeterReading, error) {
	if err := shared.RequireAccount(accountID); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if consumption.IsNegative() {
		return nil, shared.NewValidationError("INVALID_CONSUMPTION", "Consumption cannot be negative")
	}

	r := &MeterReading{
		AccountAggregateRoot: shared.NewAccountAggregateRoot(accountID),
		MeterID:              f.MeterID,
		SubmeterID:           f.SubmeterID,
		ReadingValue:         f.ReadingValue,
		ReadingDate:          shared.DateOnly(f.ReadingDate),
		Consumption:          consumption,
		EnteredByUserID:      f.EnteredByUserID,
	}
	r.AddDomainEvent(NewMeterReadingRecordedEvent(r))
	return r, nil
}

// Fields returns the caller-controlled values of the reading
func (r *MeterReading) Fields() ReadingFields {
	return ReadingFields{
		MeterID:         r.MeterID,
		SubmeterID:      r.SubmeterID,
		ReadingValue:    r.ReadingValue,
		ReadingDate:     r.ReadingDate,
		EnteredByUserID: r.EnteredByUserID,
	}
}

// Key returns the series the reading belongs to
func (r *MeterReading) Key() SeriesKey {
	return SeriesKey{MeterID: r.MeterID, SubmeterID: r.SubmeterID}
}

// AffectsConsumption reports whether moving from the current values to f
// changes anything consumption is derived from.
func (r *MeterReading) AffectsConsumption(f ReadingFields) bool {
	return !r.ReadingValue.Equal(f.ReadingValue) ||
		!r.ReadingDate.Equal(shared.DateOnly(f.ReadingDate)) ||
		!r.Key().Equal(f.Key())
}

// Revise replaces the reading's values. A nil consumption keeps the stored one.
func (r *MeterReading) Revise(f ReadingFields, consumption *decimal.Decimal) error {
	if r.IsDeleted {
		return shared.NewInvalidStateError("READING_DELETED", "Cannot modify a deleted reading")
	}
	if err := f.Validate(); err != nil {
		return err
	}
	if consumption != nil {
		if consumption.IsNegative() {
			return shared.NewValidationError("INVALID_CONSUMPTION", "Consumption cannot be negative")
		}
		r.Consumption = *consumption
	}
	r.MeterID = f.MeterID
	r.SubmeterID = f.SubmeterID
	r.ReadingValue = f.ReadingValue
	r.ReadingDate = shared.DateOnly(f.ReadingDate)
	r.EnteredByUserID = f.EnteredByUserID
	r.Touch()
	r.IncrementVersion()
	r.AddDomainEvent(NewMeterReadingRevisedEvent(r))
	return nil
}

// Rederive recomputes consumption against the reading now preceding it
func (r *MeterReading) Rederive(previous *MeterReading) error {
	c, err := DeriveConsumption(previous, r.ReadingValue)
	if err != nil {
		return err
	}
	if !c.Equal(r.Consumption) {
		r.Consumption = c
		r.Touch()
		r.IncrementVersion()
	}
	return nil
}

// SoftDelete hides the reading from every read path
func (r *MeterReading) SoftDelete() error {
	if r.IsDeleted {
		return shared.NewInvalidStateError("READING_DELETED", "Reading is already deleted")
	}
	r.IsDeleted = true
	r.Touch()
	r.IncrementVersion()
	r.AddDomainEvent(NewMeterReadingDeletedEvent(r))
	return nil
}

// DeriveConsumption is value minus the previous reading, or zero for the
// first reading of a series. Counters never run backwards.
func DeriveConsumption(previous *MeterReading, value decimal.Decimal) (decimal.Decimal, error) {
	if previous == nil {
		return decimal.Zero, nil
	}
	if previous.ReadingValue.GreaterThan(value) {
		return decimal.Zero, shared.NewInvalidStateError("READING_REGRESSION",
			fmt.Sprintf("Reading %s is lower than the previous reading %s on %s",
				value.String(), previous.ReadingValue.String(), previous.ReadingDate.Format(time.DateOnly)))
	}
	return value.Sub(previous.ReadingValue), nil
}

// CheckBeforeNext rejects a value that would exceed the next reading in the series
func CheckBeforeNext(next *MeterReading, value decimal.Decimal) error {
	if next == nil {
		return nil
	}
	if value.GreaterThan(next.ReadingValue) {
		return shared.NewInvalidStateError("READING_REGRESSION",
			fmt.Sprintf("Reading %s is higher than the later reading %s on %s",
				value.String(), next.ReadingValue.String(), next.ReadingDate.Format(time.DateOnly)))
	}
	return nil
}

// ConsumptionBetween is the counter delta between two readings. Either
// reading missing means nothing was measured.
func ConsumptionBetween(start, end *MeterReading) (decimal.Decimal, error) {
	if start == nil || end == nil {
		return decimal.Zero, nil
	}
	delta := end.ReadingValue.Sub(start.ReadingValue)
	if delta.IsNegative() {
		return decimal.Zero, shared.NewInvalidStateError("CONSUMPTION_INCONSISTENT",
			fmt.Sprintf("Reading on %s is lower than reading on %s",
				end.ReadingDate.Format(time.DateOnly), start.ReadingDate.Format(time.DateOnly)))
	}
	return delta, nil
}

// NewDuplicateReadingError reports a second live reading for a series and day
func NewDuplicateReadingError(date time.Time) *shared.DomainError {
	return shared.NewInvalidStateError("DUPLICATE_READING",
		fmt.Sprintf("A reading already exists for this meter on %s", shared.DateOnly(date).Format(time.DateOnly)))
}

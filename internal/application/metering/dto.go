package metering

import (
	"time"

	"github.com/google/uuid"
	appshared "github.com/propledger/backend/internal/application/shared"
	"github.com/propledger/backend/internal/domain/metering"
	"github.com/shopspring/decimal"
)

// CreateMeterReadingRequest records a counter value for a meter or one of its submeters
type CreateMeterReadingRequest struct {
	MeterID         uuid.UUID        `json:"meter_id"`
	SubmeterID      *uuid.UUID       `json:"submeter_id"`
	ReadingValue    decimal.Decimal  `json:"reading_value"`
	ReadingDate     time.Time        `json:"reading_date"`
	Consumption     *decimal.Decimal `json:"consumption"` // derived from the previous reading when nil
	EnteredByUserID *uuid.UUID       `json:"entered_by_user_id"`
}

// UpdateMeterReadingRequest changes a reading. Nil fields keep their stored
// value; ClearSubmeter moves the reading onto the meter itself.
type UpdateMeterReadingRequest struct {
	MeterID         *uuid.UUID       `json:"meter_id"`
	SubmeterID      *uuid.UUID       `json:"submeter_id"`
	ClearSubmeter   bool             `json:"clear_submeter"`
	ReadingValue    *decimal.Decimal `json:"reading_value"`
	ReadingDate     *time.Time       `json:"reading_date"`
	Consumption     *decimal.Decimal `json:"consumption"`
	EnteredByUserID *uuid.UUID       `json:"entered_by_user_id"`
}

// MeterReadingListFilter represents filter options for reading lists
type MeterReadingListFilter struct {
	appshared.PageRequest
	MeterID    *uuid.UUID `json:"meter_id"`
	SubmeterID *uuid.UUID `json:"submeter_id"`
	FromDate   *time.Time `json:"from_date"`
	ToDate     *time.Time `json:"to_date"`
}

// ConsumptionQuery asks how much a meter series measured between two days
type ConsumptionQuery struct {
	MeterID    uuid.UUID  `json:"meter_id" validate:"required"`
	SubmeterID *uuid.UUID `json:"submeter_id"`
	StartDate  time.Time  `json:"start_date" validate:"required"`
	EndDate    time.Time  `json:"end_date" validate:"required"`
}

// MeterReadingResponse represents a reading in API responses
type MeterReadingResponse struct {
	ID              uuid.UUID       `json:"id"`
	AccountID       uuid.UUID       `json:"account_id"`
	MeterID         uuid.UUID       `json:"meter_id"`
	SubmeterID      *uuid.UUID      `json:"submeter_id,omitempty"`
	ReadingValue    decimal.Decimal `json:"reading_value"`
	ReadingDate     time.Time       `json:"reading_date"`
	Consumption     decimal.Decimal `json:"consumption"`
	EnteredByUserID *uuid.UUID      `json:"entered_by_user_id,omitempty"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ToMeterReadingResponse converts a domain MeterReading to MeterReadingResponse
func ToMeterReadingResponse(r *metering.MeterReading) MeterReadingResponse {
	return MeterReadingResponse{
		ID:              r.ID,
		AccountID:       r.AccountID,
		MeterID:         r.MeterID,
		SubmeterID:      r.SubmeterID,
		ReadingValue:    r.ReadingValue,
		ReadingDate:     r.ReadingDate,
		Consumption:     r.Consumption,
		EnteredByUserID: r.EnteredByUserID,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
	}
}

// ConsumptionResponse is the measured delta over a date range
type ConsumptionResponse struct {
	MeterID      uuid.UUID             `json:"meter_id"`
	SubmeterID   *uuid.UUID            `json:"submeter_id,omitempty"`
	StartDate    time.Time             `json:"start_date"`
	EndDate      time.Time             `json:"end_date"`
	StartReading *MeterReadingResponse `json:"start_reading,omitempty"`
	EndReading   *MeterReadingResponse `json:"end_reading,omitempty"`
	Consumption  decimal.Decimal       `json:"consumption"`
}

func optionalReadingResponse(r *metering.MeterReading) *MeterReadingResponse {
	if r == nil {
		return nil
	}
	resp := ToMeterReadingResponse(r)
	return &resp
}

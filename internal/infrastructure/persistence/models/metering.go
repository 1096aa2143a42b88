package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/metering"
	"github.com/shopspring/decimal"
)

// MeterModel is the persistence model for meters
type MeterModel struct {
	BaseModel
	AccountID    uuid.UUID            `gorm:"type:uuid;not null;index"`
	PropertyID   *uuid.UUID           `gorm:"type:uuid"`
	UnitID       *uuid.UUID           `gorm:"type:uuid"`
	SerialNumber string               `gorm:"type:varchar(100);not null"`
	UtilityType  metering.UtilityType `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (MeterModel) TableName() string {
	return "meters"
}

// ToDomain converts the persistence model to a domain Meter
func (m *MeterModel) ToDomain() *metering.Meter {
	return &metering.Meter{
		ID:           m.ID,
		AccountID:    m.AccountID,
		PropertyID:   m.PropertyID,
		UnitID:       m.UnitID,
		SerialNumber: m.SerialNumber,
		UtilityType:  m.UtilityType,
	}
}

// SubmeterModel is the persistence model for submeters
type SubmeterModel struct {
	BaseModel
	AccountID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	MeterID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	UnitID       *uuid.UUID `gorm:"type:uuid"`
	SerialNumber string     `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (SubmeterModel) TableName() string {
	return "submeters"
}

// ToDomain converts the persistence model to a domain Submeter
func (m *SubmeterModel) ToDomain() *metering.Submeter {
	return &metering.Submeter{
		ID:           m.ID,
		AccountID:    m.AccountID,
		MeterID:      m.MeterID,
		UnitID:       m.UnitID,
		SerialNumber: m.SerialNumber,
	}
}

// MeterReadingModel is the persistence model for the MeterReading aggregate.
// The one-reading-per-day index is created by the migrations and AutoMigrate
// because it needs a COALESCE expression.
type MeterReadingModel struct {
	AccountAggregateModel
	MeterID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_meter_readings_series,priority:1"`
	SubmeterID      *uuid.UUID      `gorm:"type:uuid;index:idx_meter_readings_series,priority:2"`
	ReadingValue    decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	ReadingDate     time.Time       `gorm:"type:date;not null;index:idx_meter_readings_series,priority:3"`
	Consumption     decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0"`
	EnteredByUserID *uuid.UUID      `gorm:"type:uuid"`
	IsDeleted       bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (MeterReadingModel) TableName() string {
	return "meter_readings"
}

// ToDomain converts the persistence model to a domain MeterReading
func (m *MeterReadingModel) ToDomain() *metering.MeterReading {
	return &metering.MeterReading{
		AccountAggregateRoot: m.ToDomainAccountAggregateRoot(),
		MeterID:              m.MeterID,
		SubmeterID:           m.SubmeterID,
		ReadingValue:         m.ReadingValue,
		ReadingDate:          m.ReadingDate,
		Consumption:          m.Consumption,
		EnteredByUserID:      m.EnteredByUserID,
		IsDeleted:            m.IsDeleted,
	}
}

// MeterReadingModelFromDomain creates a persistence model from a domain MeterReading
func MeterReadingModelFromDomain(r *metering.MeterReading) *MeterReadingModel {
	m := &MeterReadingModel{
		MeterID:         r.MeterID,
		SubmeterID:      r.SubmeterID,
		ReadingValue:    r.ReadingValue,
		ReadingDate:     r.ReadingDate,
		Consumption:     r.Consumption,
		EnteredByUserID: r.EnteredByUserID,
		IsDeleted:       r.IsDeleted,
	}
	m.FromDomainAccountAggregateRoot(r.AccountAggregateRoot)
	return m
}

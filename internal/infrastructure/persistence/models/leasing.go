package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/domain/leasing"
	"github.com/shopspring/decimal"
)

// LeaseModel is the persistence model for the Lease aggregate.
// The active-lease and lease-number unique indexes are created alongside the table.
type LeaseModel struct {
	AccountAggregateModel
	UnitID              uuid.UUID           `gorm:"type:uuid;not null;index"`
	TenantID            uuid.UUID           `gorm:"type:uuid;not null;index"`
	PropertyID          uuid.UUID           `gorm:"type:uuid;not null"`
	LeaseNo             int                 `gorm:"not null"`
	LeaseYear           int                 `gorm:"not null"`
	LeaseStartDate      time.Time           `gorm:"type:date;not null"`
	LeaseEndDate        *time.Time          `gorm:"type:date"`
	MoveInDate          *time.Time          `gorm:"type:date"`
	MoveOutDate         *time.Time          `gorm:"type:date"`
	StartedMeterReading decimal.Decimal     `gorm:"type:decimal(14,3);not null;default:0"`
	Status              leasing.LeaseStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Notes               string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (LeaseModel) TableName() string {
	return "leases"
}

// ToDomain converts the persistence model to a domain Lease
func (m *LeaseModel) ToDomain() *leasing.Lease {
	return &leasing.Lease{
		AccountAggregateRoot: m.ToDomainAccountAggregateRoot(),
		UnitID:               m.UnitID,
		TenantID:             m.TenantID,
		PropertyID:           m.PropertyID,
		LeaseNo:              m.LeaseNo,
		LeaseYear:            m.LeaseYear,
		LeaseStartDate:       m.LeaseStartDate,
		LeaseEndDate:         m.LeaseEndDate,
		MoveInDate:           m.MoveInDate,
		MoveOutDate:          m.MoveOutDate,
		StartedMeterReading:  m.StartedMeterReading,
		Status:               m.Status,
		Notes:                m.Notes,
	}
}

// LeaseModelFromDomain creates a persistence model from a domain Lease
func LeaseModelFromDomain(l *leasing.Lease) *LeaseModel {
	m := &LeaseModel{
		UnitID:              l.UnitID,
		TenantID:            l.TenantID,
		PropertyID:          l.PropertyID,
		LeaseNo:             l.LeaseNo,
		LeaseYear:           l.LeaseYear,
		LeaseStartDate:      l.LeaseStartDate,
		LeaseEndDate:        l.LeaseEndDate,
		MoveInDate:          l.MoveInDate,
		MoveOutDate:         l.MoveOutDate,
		StartedMeterReading: l.StartedMeterReading,
		Status:              l.Status,
		Notes:               l.Notes,
	}
	m.FromDomainAccountAggregateRoot(l.AccountAggregateRoot)
	return m
}

// LeaseYearLockModel is the row that lease writers of one account and year
// lock before reading the year's highest lease number
type LeaseYearLockModel struct {
	AccountID uuid.UUID `gorm:"type:uuid;primaryKey"`
	LeaseYear int       `gorm:"primaryKey;autoIncrement:false"`
	LockedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LeaseYearLockModel) TableName() string {
	return "lease_year_locks"
}

// UnitModel is the persistence model for rentable units
type UnitModel struct {
	BaseModel
	AccountID  uuid.UUID          `gorm:"type:uuid;not null;index"`
	PropertyID uuid.UUID          `gorm:"type:uuid;not null;index"`
	UnitNumber string             `gorm:"type:varchar(50);not null"`
	Status     leasing.UnitStatus `gorm:"type:varchar(20);not null;default:'vacant'"`
	RentAmount decimal.Decimal    `gorm:"type:decimal(14,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (UnitModel) TableName() string {
	return "units"
}

// ToDomain converts the persistence model to a domain Unit
func (m *UnitModel) ToDomain() *leasing.Unit {
	return &leasing.Unit{
		BaseEntity: m.BaseModel.ToDomain(),
		AccountID:  m.AccountID,
		PropertyID: m.PropertyID,
		UnitNumber: m.UnitNumber,
		Status:     m.Status,
		RentAmount: m.RentAmount,
	}
}

// UnitModelFromDomain creates a persistence model from a domain Unit
func UnitModelFromDomain(u *leasing.Unit) *UnitModel {
	m := &UnitModel{
		AccountID:  u.AccountID,
		PropertyID: u.PropertyID,
		UnitNumber: u.UnitNumber,
		Status:     u.Status,
		RentAmount: u.RentAmount,
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	return m
}

// TenantModel is the renter lookup table
type TenantModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;index"`
	FullName  string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant
func (m *TenantModel) ToDomain() *leasing.Tenant {
	return &leasing.Tenant{ID: m.ID, AccountID: m.AccountID, FullName: m.FullName}
}

// PropertyModel is the property lookup table
type PropertyModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PropertyModel) TableName() string {
	return "properties"
}

// ToDomain converts the persistence model to a domain Property
func (m *PropertyModel) ToDomain() *leasing.Property {
	return &leasing.Property{ID: m.ID, AccountID: m.AccountID, Name: m.Name}
}

// UserModel is the user lookup table
type UserModel struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey"`
	AccountID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	Username    string              `gorm:"type:varchar(100);not null"`
	DisplayName string              `gorm:"type:varchar(200)"`
	Status      identity.UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt   time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		ID:          m.ID,
		AccountID:   m.AccountID,
		Username:    m.Username,
		DisplayName: m.DisplayName,
		Status:      m.Status,
	}
}

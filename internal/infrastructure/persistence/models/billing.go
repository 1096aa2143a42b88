package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// BillModel is the persistence model for the Bill aggregate
type BillModel struct {
	AccountAggregateModel
	TenantID           uuid.UUID             `gorm:"type:uuid;not null;index"`
	UnitID             uuid.UUID             `gorm:"type:uuid;not null;index"`
	BillingPeriodStart time.Time             `gorm:"type:date;not null"`
	BillingPeriodEnd   time.Time             `gorm:"type:date;not null"`
	RentAmount         decimal.Decimal       `gorm:"type:decimal(14,2);not null;default:0"`
	TotalUtilityAmount decimal.Decimal       `gorm:"type:decimal(14,2);not null;default:0"`
	OtherChargesAmount decimal.Decimal       `gorm:"type:decimal(14,2);not null;default:0"`
	TotalAmount        decimal.Decimal       `gorm:"type:decimal(14,2);not null;default:0"`
	AmountPaid         decimal.Decimal       `gorm:"type:decimal(14,2);not null;default:0"`
	DueDate            time.Time             `gorm:"type:date;not null"`
	IssueDate          time.Time             `gorm:"type:date;not null"`
	PaymentDate        *time.Time            `gorm:"type:date"`
	PaymentStatus      billing.PaymentStatus `gorm:"type:varchar(20);not null;default:'unpaid';index"`
	Notes              string                `gorm:"type:text"`
	IsDeleted          bool                  `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (BillModel) TableName() string {
	return "bills"
}

// ToDomain converts the persistence model to a domain Bill
func (m *BillModel) ToDomain() *billing.Bill {
	return &billing.Bill{
		AccountAggregateRoot: m.ToDomainAccountAggregateRoot(),
		TenantID:             m.TenantID,
		UnitID:               m.UnitID,
		BillingPeriodStart:   m.BillingPeriodStart,
		BillingPeriodEnd:     m.BillingPeriodEnd,
		RentAmount:           m.RentAmount,
		TotalUtilityAmount:   m.TotalUtilityAmount,
		OtherChargesAmount:   m.OtherChargesAmount,
		TotalAmount:          m.TotalAmount,
		AmountPaid:           m.AmountPaid,
		DueDate:              m.DueDate,
		IssueDate:            m.IssueDate,
		PaymentDate:          m.PaymentDate,
		PaymentStatus:        m.PaymentStatus,
		Notes:                m.Notes,
		IsDeleted:            m.IsDeleted,
	}
}

// BillModelFromDomain creates a persistence model from a domain Bill
func BillModelFromDomain(b *billing.Bill) *BillModel {
	m := &BillModel{
		TenantID:           b.TenantID,
		UnitID:             b.UnitID,
		BillingPeriodStart: b.BillingPeriodStart,
		BillingPeriodEnd:   b.BillingPeriodEnd,
		RentAmount:         b.RentAmount,
		TotalUtilityAmount: b.TotalUtilityAmount,
		OtherChargesAmount: b.OtherChargesAmount,
		TotalAmount:        b.TotalAmount,
		AmountPaid:         b.AmountPaid,
		DueDate:            b.DueDate,
		IssueDate:          b.IssueDate,
		PaymentDate:        b.PaymentDate,
		PaymentStatus:      b.PaymentStatus,
		Notes:              b.Notes,
		IsDeleted:          b.IsDeleted,
	}
	m.FromDomainAccountAggregateRoot(b.AccountAggregateRoot)
	return m
}

// ExpenseCategoryModel is the persistence model for expense categories
type ExpenseCategoryModel struct {
	ID        uuid.UUID            `gorm:"type:uuid;primaryKey"`
	AccountID uuid.UUID            `gorm:"type:uuid;not null;index"`
	Name      string               `gorm:"type:varchar(100);not null"`
	Type      billing.CategoryType `gorm:"type:varchar(30);not null"`
	CreatedAt time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExpenseCategoryModel) TableName() string {
	return "expense_categories"
}

// ToDomain converts the persistence model to a domain ExpenseCategory
func (m *ExpenseCategoryModel) ToDomain() *billing.ExpenseCategory {
	return &billing.ExpenseCategory{
		ID:        m.ID,
		AccountID: m.AccountID,
		Name:      m.Name,
		Type:      m.Type,
	}
}

// ExpenseModel is the persistence model for the Expense aggregate
type ExpenseModel struct {
	AccountAggregateModel
	UserID      *uuid.UUID          `gorm:"type:uuid"`
	UnitID      *uuid.UUID          `gorm:"type:uuid;index"`
	PropertyID  *uuid.UUID          `gorm:"type:uuid"`
	CategoryID  uuid.UUID           `gorm:"type:uuid;not null"`
	ExpenseType billing.ExpenseType `gorm:"type:varchar(20);not null"`
	BillID      *uuid.UUID          `gorm:"type:uuid;index"`
	Amount      decimal.Decimal     `gorm:"type:decimal(14,2);not null"`
	ExpenseDate time.Time           `gorm:"type:date;not null"`
	Description string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense
func (m *ExpenseModel) ToDomain() *billing.Expense {
	return &billing.Expense{
		AccountAggregateRoot: m.ToDomainAccountAggregateRoot(),
		UserID:               m.UserID,
		UnitID:               m.UnitID,
		PropertyID:           m.PropertyID,
		CategoryID:           m.CategoryID,
		ExpenseType:          m.ExpenseType,
		BillID:               m.BillID,
		Amount:               m.Amount,
		ExpenseDate:          m.ExpenseDate,
		Description:          m.Description,
	}
}

// ExpenseModelFromDomain creates a persistence model from a domain Expense
func ExpenseModelFromDomain(e *billing.Expense) *ExpenseModel {
	m := &ExpenseModel{
		UserID:      e.UserID,
		UnitID:      e.UnitID,
		PropertyID:  e.PropertyID,
		CategoryID:  e.CategoryID,
		ExpenseType: e.ExpenseType,
		BillID:      e.BillID,
		Amount:      e.Amount,
		ExpenseDate: e.ExpenseDate,
		Description: e.Description,
	}
	m.FromDomainAccountAggregateRoot(e.AccountAggregateRoot)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate
type PaymentModel struct {
	AccountAggregateModel
	BillID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	TenantID      *uuid.UUID            `gorm:"type:uuid"`
	Amount        decimal.Decimal       `gorm:"type:decimal(14,2);not null"`
	PaymentDate   time.Time             `gorm:"type:date;not null"`
	PaymentMethod billing.PaymentMethod `gorm:"type:varchar(20);not null"`
	TransactionID *string               `gorm:"type:varchar(100)"`
	Notes         string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *billing.Payment {
	return &billing.Payment{
		AccountAggregateRoot: m.ToDomainAccountAggregateRoot(),
		BillID:               m.BillID,
		TenantID:             m.TenantID,
		Amount:               m.Amount,
		PaymentDate:          m.PaymentDate,
		PaymentMethod:        m.PaymentMethod,
		TransactionID:        m.TransactionID,
		Notes:                m.Notes,
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{
		BillID:        p.BillID,
		TenantID:      p.TenantID,
		Amount:        p.Amount,
		PaymentDate:   p.PaymentDate,
		PaymentMethod: p.PaymentMethod,
		TransactionID: p.TransactionID,
		Notes:         p.Notes,
	}
	m.FromDomainAccountAggregateRoot(p.AccountAggregateRoot)
	return m
}

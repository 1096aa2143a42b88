package testdb

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/billing"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/domain/leasing"
	"github.com/propledger/backend/internal/domain/metering"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Fixtures seeds lookup rows for one account
type Fixtures struct {
	t         *testing.T
	db        *gorm.DB
	AccountID uuid.UUID
}

// NewFixtures binds seeding helpers to db under a fresh account
func NewFixtures(t *testing.T, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db, AccountID: uuid.New()}
}

// ForAccount returns fixtures that seed rows for another account on the same database
func (f *Fixtures) ForAccount(accountID uuid.UUID) *Fixtures {
	return &Fixtures{t: f.t, db: f.db, AccountID: accountID}
}

func (f *Fixtures) create(v any) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(v).Error)
}

// Property seeds a property
func (f *Fixtures) Property() uuid.UUID {
	m := &models.PropertyModel{ID: uuid.New(), AccountID: f.AccountID, Name: "Harbor View"}
	f.create(m)
	return m.ID
}

// Unit seeds a vacant unit with the given monthly rent
func (f *Fixtures) Unit(propertyID uuid.UUID, rent string) uuid.UUID {
	m := &models.UnitModel{
		AccountID:  f.AccountID,
		PropertyID: propertyID,
		UnitNumber: "U-" + uuid.NewString()[:4],
		Status:     leasing.UnitStatusVacant,
		RentAmount: decimal.RequireFromString(rent),
	}
	m.ID = uuid.New()
	f.create(m)
	return m.ID
}

// UnitStatus reads a unit's occupancy straight from the table
func (f *Fixtures) UnitStatus(unitID uuid.UUID) leasing.UnitStatus {
	f.t.Helper()
	var m models.UnitModel
	require.NoError(f.t, f.db.First(&m, "id = ?", unitID).Error)
	return m.Status
}

// Tenant seeds a renter
func (f *Fixtures) Tenant() uuid.UUID {
	m := &models.TenantModel{ID: uuid.New(), AccountID: f.AccountID, FullName: "Ada Tenant"}
	f.create(m)
	return m.ID
}

// User seeds an active operator
func (f *Fixtures) User() uuid.UUID {
	m := &models.UserModel{
		ID:        uuid.New(),
		AccountID: f.AccountID,
		Username:  "op-" + uuid.NewString()[:6],
		Status:    identity.UserStatusActive,
	}
	f.create(m)
	return m.ID
}

// Meter seeds an electricity meter
func (f *Fixtures) Meter() uuid.UUID {
	m := &models.MeterModel{
		AccountID:    f.AccountID,
		SerialNumber: "M-" + uuid.NewString()[:8],
		UtilityType:  metering.UtilityTypeElectricity,
	}
	m.ID = uuid.New()
	f.create(m)
	return m.ID
}

// Submeter seeds a submeter under meterID
func (f *Fixtures) Submeter(meterID uuid.UUID) uuid.UUID {
	m := &models.SubmeterModel{
		AccountID:    f.AccountID,
		MeterID:      meterID,
		SerialNumber: "S-" + uuid.NewString()[:8],
	}
	m.ID = uuid.New()
	f.create(m)
	return m.ID
}

// Category seeds an expense category of the given type
func (f *Fixtures) Category(kind billing.CategoryType) uuid.UUID {
	m := &models.ExpenseCategoryModel{ID: uuid.New(), AccountID: f.AccountID, Name: string(kind), Type: kind}
	f.create(m)
	return m.ID
}

// Expense seeds an unbilled expense on a unit
func (f *Fixtures) Expense(unitID, categoryID uuid.UUID, kind billing.ExpenseType, amount string, date time.Time) uuid.UUID {
	f.t.Helper()
	refs := billing.ExpenseRefs{UnitID: &unitID}
	switch kind {
	case billing.ExpenseTypeUtility:
		propertyID := f.Property()
		refs.PropertyID = &propertyID
	case billing.ExpenseTypePersonal:
		userID := f.User()
		refs.UserID = &userID
	}
	e, err := billing.NewExpense(f.AccountID, categoryID, kind, decimal.RequireFromString(amount), date, "seeded", refs)
	require.NoError(f.t, err)
	f.create(models.ExpenseModelFromDomain(e))
	return e.ID
}

// ExpenseBillID reads which bill an expense is linked to
func (f *Fixtures) ExpenseBillID(expenseID uuid.UUID) *uuid.UUID {
	f.t.Helper()
	var m models.ExpenseModel
	require.NoError(f.t, f.db.First(&m, "id = ?", expenseID).Error)
	return m.BillID
}

// Date builds a UTC calendar date
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestTenantCharge(t *testing.T) *Expense {
	unitID := uuid.New()
	e, err := NewExpense(uuid.New(), uuid.New(), ExpenseTypeTenantCharge, dec("25"), day(2025, 1, 15), "Key replacement",
		ExpenseRefs{UnitID: &unitID})
	require.NoError(t, err)
	return e
}

func TestNewExpense_TypeInvariants(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name        string
		expenseType ExpenseType
		refs        ExpenseRefs
		wantCode    string
	}{
		{"utility needs property", ExpenseTypeUtility, ExpenseRefs{}, "PROPERTY_REQUIRED"},
		{"utility with property", ExpenseTypeUtility, ExpenseRefs{PropertyID: &id}, ""},
		{"personal needs user", ExpenseTypePersonal, ExpenseRefs{}, "USER_REQUIRED"},
		{"personal with user", ExpenseTypePersonal, ExpenseRefs{UserID: &id}, ""},
		{"tenant charge needs unit", ExpenseTypeTenantCharge, ExpenseRefs{}, "UNIT_REQUIRED"},
		{"tenant charge with unit", ExpenseTypeTenantCharge, ExpenseRefs{UnitID: &id}, ""},
		{"unknown type", ExpenseType("gift"), ExpenseRefs{}, "INVALID_EXPENSE_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewExpense(uuid.New(), uuid.New(), tt.expenseType, dec("10"), time.Now(), "", tt.refs)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Nil(t, e.BillID)
				return
			}
			de, ok := shared.AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, de.Code)
		})
	}
}

func TestNewExpense_RequiresAccount(t *testing.T) {
	id := uuid.New()
	_, err := NewExpense(uuid.Nil, uuid.New(), ExpenseTypeTenantCharge, dec("10"), time.Now(), "", ExpenseRefs{UnitID: &id})
	assert.ErrorIs(t, err, shared.ErrAccountRequired)
}

func TestExpense_LinkTo(t *testing.T) {
	t.Run("links and relinks to the same bill", func(t *testing.T) {
		e := createTestTenantCharge(t)
		billID := uuid.New()
		require.NoError(t, e.LinkTo(billID))
		require.NoError(t, e.LinkTo(billID))
		assert.True(t, e.IsLinkedTo(billID))
	})

	t.Run("refuses a second bill", func(t *testing.T) {
		e := createTestTenantCharge(t)
		require.NoError(t, e.LinkTo(uuid.New()))
		assert.ErrorIs(t, e.LinkTo(uuid.New()), shared.ErrInvalidState)
	})

	t.Run("unlink frees the expense", func(t *testing.T) {
		e := createTestTenantCharge(t)
		require.NoError(t, e.LinkTo(uuid.New()))
		e.Unlink()
		assert.Nil(t, e.BillID)
		assert.NoError(t, e.LinkTo(uuid.New()))
	})

	t.Run("only tenant charges", func(t *testing.T) {
		propertyID := uuid.New()
		e, err := NewExpense(uuid.New(), uuid.New(), ExpenseTypeUtility, dec("10"), time.Now(), "", ExpenseRefs{PropertyID: &propertyID})
		require.NoError(t, err)
		assert.ErrorIs(t, e.LinkTo(uuid.New()), shared.ErrInvalidState)
	})
}

func TestSumExpenseAmounts(t *testing.T) {
	a := createTestTenantCharge(t)
	b := createTestTenantCharge(t)
	b.Amount = dec("12.50")

	assert.True(t, SumExpenseAmounts([]Expense{*a, *b}).Equal(dec("37.50")))
	assert.True(t, SumExpenseAmounts(nil).IsZero())
}

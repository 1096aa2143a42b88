package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPayment(t *testing.T) *Payment {
	txn := "  TXN-001 "
	p, err := NewPayment(uuid.New(), uuid.New(), nil, dec("500"), day(2025, 1, 10), PaymentMethodBankTransfer, &txn, "")
	require.NoError(t, err)
	return p
}

func TestNewPayment(t *testing.T) {
	p := createTestPayment(t)

	require.NotNil(t, p.TransactionID)
	assert.Equal(t, "TXN-001", *p.TransactionID)
	assert.Equal(t, day(2025, 1, 10), p.PaymentDate)
	require.Len(t, p.GetDomainEvents(), 1)
	assert.Equal(t, EventTypePaymentRecorded, p.GetDomainEvents()[0].EventType())
}

func TestNewPayment_Validation(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		method PaymentMethod
		when   time.Time
	}{
		{"zero amount", "0", PaymentMethodCash, day(2025, 1, 1)},
		{"negative amount", "-5", PaymentMethodCash, day(2025, 1, 1)},
		{"unknown method", "5", PaymentMethod("barter"), day(2025, 1, 1)},
		{"missing date", "5", PaymentMethodCash, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPayment(uuid.New(), uuid.New(), nil, dec(tt.amount), tt.when, tt.method, nil, "")
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestPayment_Revise(t *testing.T) {
	p := createTestPayment(t)
	amount := dec("650")
	blank := "   "

	require.NoError(t, p.Revise(PaymentRevision{Amount: &amount, TransactionID: &blank}))
	assert.True(t, p.Amount.Equal(amount))
	assert.Nil(t, p.TransactionID)
	assert.Equal(t, 2, p.Version)

	zero := dec("0")
	assert.ErrorIs(t, p.Revise(PaymentRevision{Amount: &zero}), shared.ErrValidation)
}

func TestPaymentTotals_LastPaidOn(t *testing.T) {
	fallback := day(2025, 3, 1)
	assert.Equal(t, fallback, PaymentTotals{}.LastPaidOn(fallback))

	latest := day(2025, 2, 14)
	assert.Equal(t, latest, PaymentTotals{LatestPaymentDate: &latest}.LastPaidOn(fallback))
}

package leasing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createTestLease(t *testing.T, leaseNo int) *Lease {
	moveIn := day(2025, 3, 1)
	l, err := NewLease(uuid.New(), uuid.New(), uuid.New(), uuid.New(), leaseNo, LeaseTerms{
		LeaseStartDate:      day(2025, 3, 1),
		MoveInDate:          &moveIn,
		StartedMeterReading: decimal.NewFromInt(1200),
	})
	require.NoError(t, err)
	return l
}

func TestFormatLeaseNo(t *testing.T) {
	tests := []struct {
		year, no int
		want     string
	}{
		{2025, 1, "LSE-2025-0001"},
		{2025, 42, "LSE-2025-0042"},
		{2024, 9999, "LSE-2024-9999"},
		{2024, 12345, "LSE-2024-12345"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLeaseNo(tt.year, tt.no))
		})
	}
}

func TestNextLeaseNo(t *testing.T) {
	assert.Equal(t, 1, NextLeaseNo(0))
	assert.Equal(t, 8, NextLeaseNo(7))
	assert.Equal(t, 1, NextLeaseNo(-3))
}

func TestNewLease(t *testing.T) {
	l := createTestLease(t, 1)

	assert.Equal(t, LeaseStatusActive, l.Status)
	assert.Equal(t, 2025, l.LeaseYear)
	assert.Equal(t, "LSE-2025-0001", l.FullLeaseNo())
	require.Len(t, l.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeLeaseCreated, l.GetDomainEvents()[0].EventType())
}

func TestNewLease_Validation(t *testing.T) {
	end := day(2024, 1, 1)
	tests := []struct {
		name    string
		account uuid.UUID
		leaseNo int
		terms   LeaseTerms
	}{
		{"no account", uuid.Nil, 1, LeaseTerms{LeaseStartDate: day(2025, 1, 1)}},
		{"zero lease number", uuid.New(), 0, LeaseTerms{LeaseStartDate: day(2025, 1, 1)}},
		{"no start", uuid.New(), 1, LeaseTerms{}},
		{"end before start", uuid.New(), 1, LeaseTerms{LeaseStartDate: day(2025, 1, 1), LeaseEndDate: &end}},
		{"negative meter start", uuid.New(), 1, LeaseTerms{LeaseStartDate: day(2025, 1, 1), StartedMeterReading: decimal.NewFromInt(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLease(tt.account, uuid.New(), uuid.New(), uuid.New(), tt.leaseNo, tt.terms)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestLease_Terminate(t *testing.T) {
	t.Run("active lease", func(t *testing.T) {
		l := createTestLease(t, 3)
		out := day(2025, 9, 30)
		notes := "keys returned"

		require.NoError(t, l.Terminate(&out, &notes))
		assert.Equal(t, LeaseStatusTerminated, l.Status)
		assert.Equal(t, out, *l.MoveOutDate)
		assert.Equal(t, notes, l.Notes)
	})

	t.Run("already terminated", func(t *testing.T) {
		l := createTestLease(t, 3)
		require.NoError(t, l.Terminate(nil, nil))

		err := l.Terminate(nil, nil)
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "LEASE_NOT_ACTIVE", de.Code)
	})

	t.Run("move out before move in", func(t *testing.T) {
		l := createTestLease(t, 3)
		out := day(2025, 2, 1)
		assert.ErrorIs(t, l.Terminate(&out, nil), shared.ErrValidation)
		assert.True(t, l.IsActive())
	})
}

func TestValidateTransition(t *testing.T) {
	assert.NoError(t, ValidateTransition(LeaseStatusActive, LeaseStatusTerminated))
	assert.ErrorIs(t, ValidateTransition(LeaseStatusTerminated, LeaseStatusActive), shared.ErrInvalidState)
	assert.ErrorIs(t, ValidateTransition(LeaseStatus("draft"), LeaseStatusActive), shared.ErrInvalidState)
}

func TestUnit_Occupancy(t *testing.T) {
	u := &Unit{Status: UnitStatusVacant}
	u.MarkOccupied()
	assert.True(t, u.IsOccupied())
	u.MarkVacant()
	assert.Equal(t, UnitStatusVacant, u.Status)
	assert.False(t, UnitStatus("rented").IsValid())
}

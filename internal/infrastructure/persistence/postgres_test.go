//go:build integration

package persistence_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/billing"
	"github.com/propledger/backend/internal/domain/leasing"
	"github.com/propledger/backend/internal/domain/metering"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/persistence"
	"github.com/propledger/backend/internal/infrastructure/persistence/testdb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPostgresConstraints checks that the migrated schema raises the same
// domain errors as the SQLite schema used by the unit tests.
func TestPostgresConstraints(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := testdb.NewPostgres(t)
	f := testdb.NewFixtures(t, db)
	ctx := context.Background()

	t.Run("one active lease per unit under concurrency", func(t *testing.T) {
		repo := persistence.NewGormLeaseRepository(db)
		unitID := f.Unit(f.Property(), "900")
		propertyID := f.Property()

		tenants := []uuid.UUID{f.Tenant(), f.Tenant(), f.Tenant(), f.Tenant()}

		var wg sync.WaitGroup
		errs := make([]error, len(tenants))
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				lease, err := leasing.NewLease(f.AccountID, unitID, tenants[i], propertyID, 100+i, leasing.LeaseTerms{
					LeaseStartDate: testdb.Date(2025, 1, 1),
				})
				if err != nil {
					errs[i] = err
					return
				}
				errs[i] = repo.Save(ctx, lease)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			requireDomainError(t, err, shared.KindInvalidState, "ACTIVE_LEASE_EXISTS")
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("lease number collision", func(t *testing.T) {
		repo := persistence.NewGormLeaseRepository(db)
		propertyID := f.Property()
		for i, unitID := range []uuid.UUID{f.Unit(propertyID, "1"), f.Unit(propertyID, "1")} {
			lease, err := leasing.NewLease(f.AccountID, unitID, f.Tenant(), propertyID, 7, leasing.LeaseTerms{
				LeaseStartDate: testdb.Date(2026, 1, 1),
			})
			require.NoError(t, err)
			err = repo.Save(ctx, lease)
			if i == 0 {
				require.NoError(t, err)
				continue
			}
			requireDomainError(t, err, shared.KindConcurrencyConflict, "LEASE_NO_TAKEN")
		}
	})

	t.Run("one reading per series and day", func(t *testing.T) {
		repo := persistence.NewGormMeterReadingRepository(db)
		meterID := f.Meter()
		for i := range 2 {
			r, err := metering.NewMeterReading(f.AccountID, metering.ReadingFields{
				MeterID:      meterID,
				ReadingValue: decimal.NewFromInt(int64(100 + i)),
				ReadingDate:  testdb.Date(2025, 1, 1),
			}, decimal.Zero)
			require.NoError(t, err)
			err = repo.Save(ctx, r)
			if i == 0 {
				require.NoError(t, err)
				continue
			}
			requireDomainError(t, err, shared.KindInvalidState, "DUPLICATE_READING")
		}
	})

	t.Run("transaction id unique per account", func(t *testing.T) {
		bills := persistence.NewGormBillRepository(db)
		payments := persistence.NewGormPaymentRepository(db)
		tenantID := f.Tenant()
		bill, err := billing.NewBill(f.AccountID, tenantID, f.Unit(f.Property(), "500"), billing.BillTerms{
			BillingPeriodStart: testdb.Date(2025, 1, 1),
			BillingPeriodEnd:   testdb.Date(2025, 1, 31),
			RentAmount:         decimal.NewFromInt(500),
		}, decimal.Zero)
		require.NoError(t, err)
		require.NoError(t, bills.Save(ctx, bill))

		txn := "PG-TXN-1"
		for i := range 2 {
			p, err := billing.NewPayment(f.AccountID, bill.ID, &tenantID, decimal.NewFromInt(10),
				testdb.Date(2025, 1, 2), billing.PaymentMethodCash, &txn, "")
			require.NoError(t, err)
			err = payments.Save(ctx, p)
			if i == 0 {
				require.NoError(t, err)
				continue
			}
			requireDomainError(t, err, shared.KindAlreadyExists, "DUPLICATE_TRANSACTION_ID")
		}
	})
}

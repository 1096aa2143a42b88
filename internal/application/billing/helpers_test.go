package billing_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	appbilling "github.com/propledger/backend/internal/application/billing"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/event"
	"github.com/propledger/backend/internal/infrastructure/persistence"
	"github.com/propledger/backend/internal/infrastructure/persistence/testdb"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type ledger struct {
	db       *gorm.DB
	f        *testdb.Fixtures
	bills    *appbilling.BillService
	payments *appbilling.PaymentService
	expenses *appbilling.ExpenseService
	outbox   *event.GormOutboxRepository
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	db := testdb.NewSQLite(t)
	scope := persistence.NewGormBillingTransactionScope(db, event.NewOutboxPublisher(event.NewLedgerSerializer()))

	billRepo := persistence.NewGormBillRepository(db)
	expenseRepo := persistence.NewGormExpenseRepository(db)
	metrics := telemetry.NewNopLedgerMetrics()

	bills := appbilling.NewBillService(billRepo, expenseRepo, persistence.NewGormTenantRepository(db), scope)
	bills.SetMetrics(metrics)
	payments := appbilling.NewPaymentService(billRepo, persistence.NewGormPaymentRepository(db), scope)
	payments.SetMetrics(metrics)
	expenses := appbilling.NewExpenseService(expenseRepo, persistence.NewGormExpenseCategoryRepository(db), billRepo,
		persistence.NewGormUnitRepository(db), persistence.NewGormPropertyRepository(db), persistence.NewGormUserRepository(db))

	return &ledger{
		db:       db,
		f:        testdb.NewFixtures(t, db),
		bills:    bills,
		payments: payments,
		expenses: expenses,
		outbox:   event.NewGormOutboxRepository(db),
	}
}

// eventTypes lists the outbox event types recorded for an aggregate, oldest first
func (l *ledger) eventTypes(t *testing.T, aggregateID uuid.UUID) []string {
	t.Helper()
	entries, err := l.outbox.FindByAggregate(context.Background(), l.f.AccountID, aggregateID)
	require.NoError(t, err)
	types := make([]string, len(entries))
	for i, e := range entries {
		types[i] = e.EventType
	}
	return types
}

func requireDomainError(t *testing.T, err error, kind shared.ErrorKind, code string) {
	t.Helper()
	require.Error(t, err)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok, "expected a domain error, got %v", err)
	require.Equal(t, kind, de.Kind, de.Message)
	require.Equal(t, code, de.Code, de.Message)
}

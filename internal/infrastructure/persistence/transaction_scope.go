package persistence

import (
	"context"

	appbilling "github.com/propledger/backend/internal/application/billing"
	appleasing "github.com/propledger/backend/internal/application/leasing"
	appmetering "github.com/propledger/backend/internal/application/metering"
	"github.com/propledger/backend/internal/domain/billing"
	"github.com/propledger/backend/internal/domain/leasing"
	"github.com/propledger/backend/internal/domain/metering"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/event"
	"gorm.io/gorm"
)

// gormTx carries one open transaction and the outbox publisher bound to it.
// Every repository it hands out runs on tx.
type gormTx struct {
	tx        *gorm.DB
	publisher *event.OutboxPublisher
}

func (r *gormTx) Units() leasing.UnitRepository { return NewGormUnitRepository(r.tx) }
func (r *gormTx) Events() shared.EventRecorder  { return r.publisher.Recorder(r.tx) }

// GormBillingTransactionScope implements the billing TransactionScope using GORM transactions.
// If fn returns an error, the transaction is rolled back. Otherwise it is committed.
type GormBillingTransactionScope struct {
	db        *gorm.DB
	publisher *event.OutboxPublisher
}

// NewGormBillingTransactionScope creates a new GormBillingTransactionScope
func NewGormBillingTransactionScope(db *gorm.DB, publisher *event.OutboxPublisher) *GormBillingTransactionScope {
	return &GormBillingTransactionScope{db: db, publisher: publisher}
}

// Execute runs fn within a database transaction
func (s *GormBillingTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&billingTx{gormTx{tx: tx, publisher: s.publisher}})
	})
}

type billingTx struct{ gormTx }

func (r *billingTx) Bills() billing.BillRepository       { return NewGormBillRepository(r.tx) }
func (r *billingTx) Expenses() billing.ExpenseRepository { return NewGormExpenseRepository(r.tx) }
func (r *billingTx) Categories() billing.ExpenseCategoryRepository {
	return NewGormExpenseCategoryRepository(r.tx)
}
func (r *billingTx) Payments() billing.PaymentRepository { return NewGormPaymentRepository(r.tx) }

// GormMeteringTransactionScope implements the metering TransactionScope using GORM transactions
type GormMeteringTransactionScope struct {
	db        *gorm.DB
	publisher *event.OutboxPublisher
}

// NewGormMeteringTransactionScope creates a new GormMeteringTransactionScope
func NewGormMeteringTransactionScope(db *gorm.DB, publisher *event.OutboxPublisher) *GormMeteringTransactionScope {
	return &GormMeteringTransactionScope{db: db, publisher: publisher}
}

// Execute runs fn within a database transaction
func (s *GormMeteringTransactionScope) Execute(ctx context.Context, fn func(repos appmetering.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&meteringTx{gormTx{tx: tx, publisher: s.publisher}})
	})
}

type meteringTx struct{ gormTx }

func (r *meteringTx) Meters() metering.MeterRepository { return NewGormMeterRepository(r.tx) }
func (r *meteringTx) Readings() metering.MeterReadingRepository {
	return NewGormMeterReadingRepository(r.tx)
}

// GormLeasingTransactionScope implements the leasing TransactionScope using GORM transactions
type GormLeasingTransactionScope struct {
	db        *gorm.DB
	publisher *event.OutboxPublisher
}

// NewGormLeasingTransactionScope creates a new GormLeasingTransactionScope
func NewGormLeasingTransactionScope(db *gorm.DB, publisher *event.OutboxPublisher) *GormLeasingTransactionScope {
	return &GormLeasingTransactionScope{db: db, publisher: publisher}
}

// Execute runs fn within a database transaction
func (s *GormLeasingTransactionScope) Execute(ctx context.Context, fn func(repos appleasing.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&leasingTx{gormTx{tx: tx, publisher: s.publisher}})
	})
}

type leasingTx struct{ gormTx }

func (r *leasingTx) Leases() leasing.LeaseRepository { return NewGormLeaseRepository(r.tx) }

var (
	_ appbilling.TransactionScope           = (*GormBillingTransactionScope)(nil)
	_ appbilling.TransactionalRepositories  = (*billingTx)(nil)
	_ appmetering.TransactionScope          = (*GormMeteringTransactionScope)(nil)
	_ appmetering.TransactionalRepositories = (*meteringTx)(nil)
	_ appleasing.TransactionScope           = (*GormLeasingTransactionScope)(nil)
	_ appleasing.TransactionalRepositories  = (*leasingTx)(nil)
)

package billing

import (
	"context"

	"github.com/propledger/backend/internal/domain/billing"
	"github.com/propledger/backend/internal/domain/leasing"
	"github.com/propledger/backend/internal/domain/shared"
)

// TransactionScope provides transactional access to billing repositories.
// Every repository handed to fn shares one database transaction, committed
// when fn returns nil and rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the billing repositories within a transaction.
//
// Bills is the aggregate the allocator and assembler lock; Expenses and
// Payments are read and written under that lock. Units is read for the rent
// default only. Events records outbox entries in the same transaction.
type TransactionalRepositories interface {
	Bills() billing.BillRepository
	Expenses() billing.ExpenseRepository
	Categories() billing.ExpenseCategoryRepository
	Payments() billing.PaymentRepository
	Units() leasing.UnitRepository
	Events() shared.EventRecorder
}

// NoOpTransactionScope runs fn against fixed repositories without a transaction.
// It is meant for tests that use in-memory fakes.
type NoOpTransactionScope struct {
	bills      billing.BillRepository
	expenses   billing.ExpenseRepository
	categories billing.ExpenseCategoryRepository
	payments   billing.PaymentRepository
	units      leasing.UnitRepository
	events     shared.EventRecorder
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	bills billing.BillRepository,
	expenses billing.ExpenseRepository,
	categories billing.ExpenseCategoryRepository,
	payments billing.PaymentRepository,
	units leasing.UnitRepository,
	events shared.EventRecorder,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		bills:      bills,
		expenses:   expenses,
		categories: categories,
		payments:   payments,
		units:      units,
		events:     events,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Bills() billing.BillRepository                 { return s.bills }
func (s *NoOpTransactionScope) Expenses() billing.ExpenseRepository           { return s.expenses }
func (s *NoOpTransactionScope) Categories() billing.ExpenseCategoryRepository { return s.categories }
func (s *NoOpTransactionScope) Payments() billing.PaymentRepository           { return s.payments }
func (s *NoOpTransactionScope) Units() leasing.UnitRepository                 { return s.units }
func (s *NoOpTransactionScope) Events() shared.EventRecorder                  { return s.events }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

package leasing

import (
	"context"

	"github.com/propledger/backend/internal/domain/leasing"
	"github.com/propledger/backend/internal/domain/shared"
)

// TransactionScope provides transactional access to leasing repositories.
type TransactionScope interface {
	// Execute runs fn within a database transaction, rolled back if fn returns an error.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the leasing repositories within a transaction.
// Writers lock the unit row through Units before touching its leases.
type TransactionalRepositories interface {
	Leases() leasing.LeaseRepository
	Units() leasing.UnitRepository
	Events() shared.EventRecorder
}

// NoOpTransactionScope runs fn against fixed repositories without a transaction.
type NoOpTransactionScope struct {
	leases leasing.LeaseRepository
	units  leasing.UnitRepository
	events shared.EventRecorder
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(leases leasing.LeaseRepository, units leasing.UnitRepository, events shared.EventRecorder) *NoOpTransactionScope {
	return &NoOpTransactionScope{leases: leases, units: units, events: events}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Leases() leasing.LeaseRepository { return s.leases }
func (s *NoOpTransactionScope) Units() leasing.UnitRepository   { return s.units }
func (s *NoOpTransactionScope) Events() shared.EventRecorder    { return s.events }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

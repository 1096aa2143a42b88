package metering

import (
	"context"

	"github.com/propledger/backend/internal/domain/metering"
	"github.com/propledger/backend/internal/domain/shared"
)

// TransactionScope provides transactional access to metering repositories.
type TransactionScope interface {
	// Execute runs fn within a database transaction, rolled back if fn returns an error.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the metering repositories within a transaction.
// Writers lock the meter row through Meters before touching its readings.
type TransactionalRepositories interface {
	Meters() metering.MeterRepository
	Readings() metering.MeterReadingRepository
	Events() shared.EventRecorder
}

// NoOpTransactionScope runs fn against fixed repositories without a transaction.
type NoOpTransactionScope struct {
	meters   metering.MeterRepository
	readings metering.MeterReadingRepository
	events   shared.EventRecorder
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(meters metering.MeterRepository, readings metering.MeterReadingRepository, events shared.EventRecorder) *NoOpTransactionScope {
	return &NoOpTransactionScope{meters: meters, readings: readings, events: events}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Meters() metering.MeterRepository          { return s.meters }
func (s *NoOpTransactionScope) Readings() metering.MeterReadingRepository { return s.readings }
func (s *NoOpTransactionScope) Events() shared.EventRecorder              { return s.events }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

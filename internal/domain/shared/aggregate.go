package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and audit timestamps
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch bumps UpdatedAt
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// BaseAggregateRoot adds an optimistic version and the events raised since
// the aggregate was loaded.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
	events  []DomainEvent
}

// IncrementVersion bumps the version after a mutation
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent queues an event for the outbox
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.events = append(a.events, event)
}

// GetDomainEvents returns the queued events in the order they were raised
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.events
}

// ClearDomainEvents drops the queued events once they have been recorded
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.events = nil
}

// AccountAggregateRoot is the root of every ledger aggregate. Rows of one
// account are never visible to another.
type AccountAggregateRoot struct {
	BaseAggregateRoot
	AccountID uuid.UUID
}

// NewAccountAggregateRoot starts a fresh aggregate at version 1
func NewAccountAggregateRoot(accountID uuid.UUID) AccountAggregateRoot {
	now := time.Now()
	return AccountAggregateRoot{
		BaseAggregateRoot: BaseAggregateRoot{
			BaseEntity: BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			Version:    1,
		},
		AccountID: accountID,
	}
}

// RequireAccount fails when no account scope was supplied
func RequireAccount(accountID uuid.UUID) error {
	if accountID == uuid.Nil {
		return ErrAccountRequired
	}
	return nil
}

package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact raised by an aggregate and stored in the outbox
// together with the mutation that caused it.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	AccountID() uuid.UUID
}

// BaseDomainEvent is embedded by the concrete events. Its fields are the
// envelope of the serialized payload.
type BaseDomainEvent struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Occurred    time.Time `json:"occurred_at"`
	Aggregate   uuid.UUID `json:"aggregate_id"`
	AggregateOf string    `json:"aggregate_type"`
	Account     uuid.UUID `json:"account_id"`
}

// NewBaseDomainEvent stamps a new event for the aggregate aggregateID
func NewBaseDomainEvent(eventType, aggregateType string, aggregateID, accountID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:          uuid.New(),
		Type:        eventType,
		Occurred:    time.Now(),
		Aggregate:   aggregateID,
		AggregateOf: aggregateType,
		Account:     accountID,
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.Occurred }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.Aggregate }
func (e *BaseDomainEvent) AggregateType() string  { return e.AggregateOf }
func (e *BaseDomainEvent) AccountID() uuid.UUID   { return e.Account }

// EventRecorder persists domain events in the caller's transaction
type EventRecorder interface {
	Record(ctx context.Context, events ...DomainEvent) error
}

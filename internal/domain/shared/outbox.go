package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus represents the status of an outbox entry
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "PENDING"
	OutboxStatusSent    OutboxStatus = "SENT"
)

// OutboxEntry is a domain event stored alongside the mutation that raised it.
// Delivery is owned by the notification layer, which flips Status to SENT.
type OutboxEntry struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	EventID       uuid.UUID
	EventType     string
	AggregateID   uuid.UUID
	AggregateType string
	Payload       []byte
	Status        OutboxStatus
	CreatedAt     time.Time
}

// NewOutboxEntry creates a new outbox entry for a domain event
func NewOutboxEntry(event DomainEvent, payload []byte) *OutboxEntry {
	return &OutboxEntry{
		ID:            uuid.New(),
		AccountID:     event.AccountID(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		Payload:       payload,
		Status:        OutboxStatusPending,
		CreatedAt:     time.Now(),
	}
}

// OutboxRepository defines the interface for outbox persistence
type OutboxRepository interface {
	// Save persists one or more outbox entries
	Save(ctx context.Context, entries ...*OutboxEntry) error
	// FindPending retrieves the oldest pending entries of an account up to limit
	FindPending(ctx context.Context, accountID uuid.UUID, limit int) ([]*OutboxEntry, error)
	// FindByAggregate retrieves every entry raised by one aggregate, oldest first
	FindByAggregate(ctx context.Context, accountID, aggregateID uuid.UUID) ([]*OutboxEntry, error)
	// MarkSent flags pending entries as delivered and returns how many changed
	MarkSent(ctx context.Context, accountID uuid.UUID, ids []uuid.UUID) (int64, error)
	// CountByStatus counts an account's entries per status
	CountByStatus(ctx context.Context, accountID uuid.UUID) (map[OutboxStatus]int64, error)
}

package leasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
)

const (
	EventTypeLeaseCreated    = "LeaseCreated"
	EventTypeLeaseTerminated = "LeaseTerminated"
	EventTypeLeaseDeleted    = "LeaseDeleted"
)

// LeaseCreatedEvent is raised when a lease is registered
type LeaseCreatedEvent struct {
	shared.BaseDomainEvent
	LeaseID        uuid.UUID `json:"lease_id"`
	FullLeaseNo    string    `json:"full_lease_no"`
	UnitID         uuid.UUID `json:"unit_id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	LeaseStartDate time.Time `json:"lease_start_date"`
}

// NewLeaseCreatedEvent creates a new LeaseCreatedEvent
func NewLeaseCreatedEvent(l *Lease) *LeaseCreatedEvent {
	return &LeaseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeaseCreated, AggregateTypeLease, l.ID, l.AccountID),
		LeaseID:         l.ID,
		FullLeaseNo:     l.FullLeaseNo(),
		UnitID:          l.UnitID,
		TenantID:        l.TenantID,
		LeaseStartDate:  l.LeaseStartDate,
	}
}

// LeaseTerminatedEvent is raised when a lease ends
type LeaseTerminatedEvent struct {
	shared.BaseDomainEvent
	LeaseID     uuid.UUID  `json:"lease_id"`
	UnitID      uuid.UUID  `json:"unit_id"`
	MoveOutDate *time.Time `json:"move_out_date,omitempty"`
}

// NewLeaseTerminatedEvent creates a new LeaseTerminatedEvent
func NewLeaseTerminatedEvent(l *Lease) *LeaseTerminatedEvent {
	return &LeaseTerminatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeaseTerminated, AggregateTypeLease, l.ID, l.AccountID),
		LeaseID:         l.ID,
		UnitID:          l.UnitID,
		MoveOutDate:     l.MoveOutDate,
	}
}

// LeaseDeletedEvent is raised when a lease row is destroyed
type LeaseDeletedEvent struct {
	shared.BaseDomainEvent
	LeaseID     uuid.UUID `json:"lease_id"`
	FullLeaseNo string    `json:"full_lease_no"`
	UnitID      uuid.UUID `json:"unit_id"`
	UnitVacated bool      `json:"unit_vacated"`
}

// NewLeaseDeletedEvent creates a new LeaseDeletedEvent
func NewLeaseDeletedEvent(l *Lease, unitVacated bool) *LeaseDeletedEvent {
	return &LeaseDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeaseDeleted, AggregateTypeLease, l.ID, l.AccountID),
		LeaseID:         l.ID,
		FullLeaseNo:     l.FullLeaseNo(),
		UnitID:          l.UnitID,
		UnitVacated:     unitVacated,
	}
}

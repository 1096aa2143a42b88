package leasing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeLease is the aggregate type name used in events
const AggregateTypeLease = "Lease"

// LeaseNoPrefix starts every rendered lease number
const LeaseNoPrefix = "LSE"

// LeaseStatus represents the lifecycle state of a lease
type LeaseStatus string

const (
	LeaseStatusActive     LeaseStatus = "active"
	LeaseStatusTerminated LeaseStatus = "terminated"
)

// IsValid checks if the status is a valid LeaseStatus
func (s LeaseStatus) IsValid() bool {
	return s == LeaseStatusActive || s == LeaseStatusTerminated
}

var leaseTransitions = map[LeaseStatus][]LeaseStatus{
	LeaseStatusActive:     {LeaseStatusTerminated},
	LeaseStatusTerminated: {},
}

// ValidateTransition checks a lease status change against the lifecycle
func ValidateTransition(current, target LeaseStatus) error {
	allowed, ok := leaseTransitions[current]
	if !ok {
		return shared.NewInvalidStateError("UNKNOWN_LEASE_STATUS", fmt.Sprintf("Unknown lease status: %s", current))
	}
	for _, s := range allowed {
		if s == target {
			return nil
		}
	}
	return shared.NewInvalidStateError("LEASE_NOT_ACTIVE",
		fmt.Sprintf("Lease cannot move from %s to %s", current, target))
}

// FormatLeaseNo renders the display number of a lease, e.g. LSE-2025-0001
func FormatLeaseNo(year, leaseNo int) string {
	return fmt.Sprintf("%s-%d-%04d", LeaseNoPrefix, year, leaseNo)
}

// LeaseYearOf is the numbering year of a lease starting on start
func LeaseYearOf(start time.Time) int {
	return shared.DateOnly(start).Year()
}

// NextLeaseNo continues the per-account yearly sequence
func NextLeaseNo(currentMax int) int {
	if currentMax < 0 {
		currentMax = 0
	}
	return currentMax + 1
}

// LeaseTerms are the caller-controlled dates and values of a lease
type LeaseTerms struct {
	LeaseStartDate      time.Time
	LeaseEndDate        *time.Time
	MoveInDate          *time.Time
	MoveOutDate         *time.Time
	StartedMeterReading decimal.Decimal
	Notes               string
}

// Lease binds a tenant to a unit for a period
type Lease struct {
	shared.AccountAggregateRoot
	UnitID              uuid.UUID
	TenantID            uuid.UUID
	PropertyID          uuid.UUID
	LeaseNo             int
	LeaseYear           int
	LeaseStartDate      time.Time
	LeaseEndDate        *time.Time
	MoveInDate          *time.Time
	MoveOutDate         *time.Time
	StartedMeterReading decimal.Decimal
	Status              LeaseStatus
	Notes               string
}

// NewLease creates an active lease carrying an already allocated number
func NewLease(accountID, unitID, tenantID, propertyID uuid.UUID, leaseNo int, terms LeaseTerms) (*Lease, error) {
	if err := shared.RequireAccount(accountID); err != nil {
		return nil, err
	}
	if unitID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_UNIT", "Unit ID cannot be empty")
	}
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if propertyID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PROPERTY", "Property ID cannot be empty")
	}
	if leaseNo < 1 {
		return nil, shared.NewValidationError("INVALID_LEASE_NO", "Lease number must start at 1")
	}
	if err := ValidateTerms(terms); err != nil {
		return nil, err
	}

	l := &Lease{
		AccountAggregateRoot: shared.NewAccountAggregateRoot(accountID),
		UnitID:               unitID,
		TenantID:             tenantID,
		PropertyID:           propertyID,
		LeaseNo:              leaseNo,
		LeaseYear:            LeaseYearOf(terms.LeaseStartDate),
		LeaseStartDate:       shared.DateOnly(terms.LeaseStartDate),
		LeaseEndDate:         shared.DateOnlyPtr(terms.LeaseEndDate),
		MoveInDate:           shared.DateOnlyPtr(terms.MoveInDate),
		MoveOutDate:          shared.DateOnlyPtr(terms.MoveOutDate),
		StartedMeterReading:  terms.StartedMeterReading,
		Status:               LeaseStatusActive,
		Notes:                terms.Notes,
	}
	l.AddDomainEvent(NewLeaseCreatedEvent(l))
	return l, nil
}

// ValidateTerms checks the structural rules of lease terms
func ValidateTerms(terms LeaseTerms) error {
	if terms.LeaseStartDate.IsZero() {
		return shared.NewValidationError("LEASE_START_REQUIRED", "Lease start date is required")
	}
	if terms.LeaseEndDate != nil && shared.DateOnly(*terms.LeaseEndDate).Before(shared.DateOnly(terms.LeaseStartDate)) {
		return shared.NewValidationError("INVALID_LEASE_PERIOD", "Lease end date cannot be before its start")
	}
	if terms.MoveInDate != nil && terms.MoveOutDate != nil && terms.MoveOutDate.Before(*terms.MoveInDate) {
		return shared.NewValidationError("INVALID_MOVE_DATES", "Move-out date cannot be before move-in date")
	}
	if terms.StartedMeterReading.IsNegative() {
		return shared.NewValidationError("INVALID_READING_VALUE", "Started meter reading cannot be negative")
	}
	return nil
}

// FullLeaseNo renders the lease number for display. It is never stored.
func (l *Lease) FullLeaseNo() string {
	return FormatLeaseNo(l.LeaseYear, l.LeaseNo)
}

// IsActive returns true if the lease currently holds its unit
func (l *Lease) IsActive() bool {
	return l.Status == LeaseStatusActive
}

// Terminate ends an active lease
func (l *Lease) Terminate(moveOutDate *time.Time, notes *string) error {
	if err := ValidateTransition(l.Status, LeaseStatusTerminated); err != nil {
		return err
	}
	if moveOutDate != nil {
		out := shared.DateOnly(*moveOutDate)
		if l.MoveInDate != nil && out.Before(*l.MoveInDate) {
			return shared.NewValidationError("INVALID_MOVE_DATES", "Move-out date cannot be before move-in date")
		}
		l.MoveOutDate = &out
	}
	if notes != nil {
		l.Notes = *notes
	}
	l.Status = LeaseStatusTerminated
	l.Touch()
	l.IncrementVersion()
	l.AddDomainEvent(NewLeaseTerminatedEvent(l))
	return nil
}

// NewActiveLeaseExistsError reports that the unit is already held by an active lease
func NewActiveLeaseExistsError(unitID uuid.UUID) *shared.DomainError {
	return shared.NewInvalidStateError("ACTIVE_LEASE_EXISTS",
		fmt.Sprintf("Unit %s already has an active lease", unitID))
}

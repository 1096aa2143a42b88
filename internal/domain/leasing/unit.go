package leasing

import (
	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// UnitStatus is the occupancy state of a rentable unit
type UnitStatus string

const (
	UnitStatusOccupied    UnitStatus = "occupied"
	UnitStatusVacant      UnitStatus = "vacant"
	UnitStatusMaintenance UnitStatus = "maintenance"
	UnitStatusInactive    UnitStatus = "inactive"
)

// IsValid checks if the status is a valid UnitStatus
func (s UnitStatus) IsValid() bool {
	switch s {
	case UnitStatusOccupied, UnitStatusVacant, UnitStatusMaintenance, UnitStatusInactive:
		return true
	}
	return false
}

// Unit is a rentable space. Its occupancy follows the lease lifecycle.
type Unit struct {
	shared.BaseEntity
	AccountID  uuid.UUID
	PropertyID uuid.UUID
	UnitNumber string
	Status     UnitStatus
	RentAmount decimal.Decimal
}

// MarkOccupied records that an active lease now holds the unit
func (u *Unit) MarkOccupied() {
	u.Status = UnitStatusOccupied
	u.Touch()
}

// MarkVacant frees the unit
func (u *Unit) MarkVacant() {
	u.Status = UnitStatusVacant
	u.Touch()
}

// IsOccupied returns true if a lease holds the unit
func (u *Unit) IsOccupied() bool {
	return u.Status == UnitStatusOccupied
}

// Tenant is the renter named on leases and bills
type Tenant struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	FullName  string
}

// Property groups units at one address
type Property struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Name      string
}

package leasing

import (
	"context"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
)

// LeaseFilter defines filtering options for lease queries
type LeaseFilter struct {
	shared.Filter
	UnitID   *uuid.UUID
	TenantID *uuid.UUID
	Status   *LeaseStatus
	Year     *int
}

// LeaseRepository defines the interface for lease persistence
type LeaseRepository interface {
	// FindByIDForAccount finds a lease by ID
	FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*Lease, error)

	// FindAllForAccount lists leases with filtering and pagination
	FindAllForAccount(ctx context.Context, accountID uuid.UUID, filter LeaseFilter) ([]Lease, error)

	// CountForAccount counts leases matching the filter
	CountForAccount(ctx context.Context, accountID uuid.UUID, filter LeaseFilter) (int64, error)

	// ExistsActiveForUnit reports whether the unit has an active lease other than excludeID
	ExistsActiveForUnit(ctx context.Context, accountID, unitID uuid.UUID, excludeID *uuid.UUID) (bool, error)

	// LockNumbering serializes lease numbering of the account's year until the
	// surrounding transaction ends
	LockNumbering(ctx context.Context, accountID uuid.UUID, year int) error

	// MaxLeaseNo returns the highest lease number of the account's year, 0 if none
	MaxLeaseNo(ctx context.Context, accountID uuid.UUID, year int) (int, error)

	// Save creates or updates a lease
	Save(ctx context.Context, lease *Lease) error

	// Delete destroys a lease row
	Delete(ctx context.Context, accountID, id uuid.UUID) error
}

// UnitRepository defines the interface for unit persistence
type UnitRepository interface {
	// FindByIDForAccount finds a unit by ID
	FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*Unit, error)

	// FindByIDForUpdate finds a unit and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, accountID, id uuid.UUID) (*Unit, error)

	// Save updates a unit
	Save(ctx context.Context, unit *Unit) error
}

// TenantRepository reads the renter lookup table
type TenantRepository interface {
	// FindByIDForAccount finds a tenant by ID
	FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*Tenant, error)
}

// PropertyRepository reads the property lookup table
type PropertyRepository interface {
	// FindByIDForAccount finds a property by ID
	FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*Property, error)
}

package leasing

import (
	"time"

	"github.com/google/uuid"
	appshared "github.com/propledger/backend/internal/application/shared"
	"github.com/propledger/backend/internal/domain/leasing"
	"github.com/shopspring/decimal"
)

// CreateLeaseRequest registers a new active lease on a unit
type CreateLeaseRequest struct {
	UnitID              uuid.UUID       `json:"unit_id" validate:"required"`
	TenantID            uuid.UUID       `json:"tenant_id" validate:"required"`
	PropertyID          *uuid.UUID      `json:"property_id"` // defaults to the unit's property
	LeaseStartDate      time.Time       `json:"lease_start_date" validate:"required"`
	LeaseEndDate        *time.Time      `json:"lease_end_date"`
	MoveInDate          *time.Time      `json:"move_in_date"`
	MoveOutDate         *time.Time      `json:"move_out_date"`
	StartedMeterReading decimal.Decimal `json:"started_meter_reading"`
	Notes               string          `json:"notes" validate:"max=2000"`
}

// TerminateLeaseRequest ends an active lease
type TerminateLeaseRequest struct {
	MoveOutDate *time.Time `json:"move_out_date"`
	Notes       *string    `json:"notes" validate:"omitempty,max=2000"`
}

// LeaseListFilter represents filter options for lease lists
type LeaseListFilter struct {
	appshared.PageRequest
	UnitID   *uuid.UUID `json:"unit_id"`
	TenantID *uuid.UUID `json:"tenant_id"`
	Status   string     `json:"status" validate:"omitempty,oneof=active terminated"`
	Year     *int       `json:"year" validate:"omitempty,gte=1900,lte=9999"`
}

// LeaseResponse represents a lease in API responses
type LeaseResponse struct {
	ID                  uuid.UUID       `json:"id"`
	AccountID           uuid.UUID       `json:"account_id"`
	UnitID              uuid.UUID       `json:"unit_id"`
	TenantID            uuid.UUID       `json:"tenant_id"`
	PropertyID          uuid.UUID       `json:"property_id"`
	LeaseNo             int             `json:"lease_no"`
	LeaseYear           int             `json:"lease_year"`
	FullLeaseNo         string          `json:"full_lease_no"`
	LeaseStartDate      time.Time       `json:"lease_start_date"`
	LeaseEndDate        *time.Time      `json:"lease_end_date,omitempty"`
	MoveInDate          *time.Time      `json:"move_in_date,omitempty"`
	MoveOutDate         *time.Time      `json:"move_out_date,omitempty"`
	StartedMeterReading decimal.Decimal `json:"started_meter_reading"`
	Status              string          `json:"status"`
	Notes               string          `json:"notes,omitempty"`
	Version             int             `json:"version"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// ToLeaseResponse converts a domain Lease to LeaseResponse
func ToLeaseResponse(l *leasing.Lease) LeaseResponse {
	return LeaseResponse{
		ID:                  l.ID,
		AccountID:           l.AccountID,
		UnitID:              l.UnitID,
		TenantID:            l.TenantID,
		PropertyID:          l.PropertyID,
		LeaseNo:             l.LeaseNo,
		LeaseYear:           l.LeaseYear,
		FullLeaseNo:         l.FullLeaseNo(),
		LeaseStartDate:      l.LeaseStartDate,
		LeaseEndDate:        l.LeaseEndDate,
		MoveInDate:          l.MoveInDate,
		MoveOutDate:         l.MoveOutDate,
		StartedMeterReading: l.StartedMeterReading,
		Status:              string(l.Status),
		Notes:               l.Notes,
		Version:             l.Version,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
}

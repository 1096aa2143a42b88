package metering

import "github.com/google/uuid"

// UtilityType is the commodity a meter measures
type UtilityType string

const (
	UtilityTypeElectricity UtilityType = "electricity"
	UtilityTypeWater       UtilityType = "water"
	UtilityTypeGas         UtilityType = "gas"
	UtilityTypeOther       UtilityType = "other"
)

// Meter is a physical utility counter installed at a property or unit
type Meter struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	PropertyID   *uuid.UUID
	UnitID       *uuid.UUID
	SerialNumber string
	UtilityType  UtilityType
}

// Submeter is a secondary counter downstream of a meter
type Submeter struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	MeterID      uuid.UUID
	UnitID       *uuid.UUID
	SerialNumber string
}

// BelongsTo reports whether the submeter hangs off meterID
func (s *Submeter) BelongsTo(meterID uuid.UUID) bool {
	return s.MeterID == meterID
}

// SeriesKey identifies one sequence of readings: a meter, or a submeter of it
type SeriesKey struct {
	MeterID    uuid.UUID
	SubmeterID *uuid.UUID
}

// Equal compares two keys, treating nil submeters as equal
func (k SeriesKey) Equal(other SeriesKey) bool {
	if k.MeterID != other.MeterID {
		return false
	}
	if k.SubmeterID == nil || other.SubmeterID == nil {
		return k.SubmeterID == nil && other.SubmeterID == nil
	}
	return *k.SubmeterID == *other.SubmeterID
}

package domain

import "time"

// TruckStatus represents whether a truck can be used for bids.
type TruckStatus string

const (
	TruckStatusActive   TruckStatus = "ACTIVE"
	TruckStatusInactive TruckStatus = "INACTIVE"
)

// Truck is a vehicle owned by a truck owner (or an independent driver).
type Truck struct {
	ID          string
	OwnerID     string
	DriverID    string
	PlateNumber string
	TruckType   string
	CapacityKg  float64
	Status      TruckStatus
	CreatedAt   time.Time
}

// CanCarry reports whether the truck is usable and big enough for weightKg.
func (t *Truck) CanCarry(weightKg float64) bool {
	return t.Status == TruckStatusActive && t.CapacityKg >= weightKg
}

package domain

import "time"

// DriverStatus represents the current availability of a driver.
type DriverStatus string

const (
	DriverStatusOffline   DriverStatus = "OFFLINE"
	DriverStatusAvailable DriverStatus = "AVAILABLE"
	DriverStatusOnJob     DriverStatus = "ON_JOB"
)

// Driver is the driving profile attached to a DRIVER user.
type Driver struct {
	ID            string
	UserID        string
	TruckOwnerID  string // empty for independent drivers
	LicenseNumber string
	Status        DriverStatus
	CreatedAt     time.Time
}

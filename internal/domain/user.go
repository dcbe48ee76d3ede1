package domain

import "time"

// Role is the marketplace role carried by a user and its access token.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleCargoOwner Role = "CARGO_OWNER"
	RoleTruckOwner Role = "TRUCK_OWNER"
	RoleDriver     Role = "DRIVER"
)

// SelfRegistrable reports whether users can sign up with this role.
// Admins are only created by the startup bootstrap.
func (r Role) SelfRegistrable() bool {
	switch r {
	case RoleCargoOwner, RoleTruckOwner, RoleDriver:
		return true
	}
	return false
}

// User represents an account in the marketplace.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	BusinessID   string // set for cargo owners once they register a business
	CreatedAt    time.Time
}

package service

import "cargo/internal/domain"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID     string
	Role       domain.Role
	BusinessID string
}

// IsAdmin reports whether the actor is an admin.
func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

func (a Actor) is(role domain.Role) bool {
	return a.Role == role
}

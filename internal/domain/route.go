package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Route is an admin-managed lane with an advisory base price.
type Route struct {
	ID          string
	Origin      string
	Destination string
	DistanceKm  float64
	BasePrice   decimal.Decimal
	Active      bool
	CreatedAt   time.Time
}

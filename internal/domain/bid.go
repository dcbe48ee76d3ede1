package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BidStatus represents the state of a driver's offer.
type BidStatus string

const (
	BidStatusPending   BidStatus = "PENDING"
	BidStatusAccepted  BidStatus = "ACCEPTED"
	BidStatusRejected  BidStatus = "REJECTED"
	BidStatusWithdrawn BidStatus = "WITHDRAWN"
)

// Bid is a driver's price offer for an order.
type Bid struct {
	ID        string
	OrderID   string
	DriverID  string
	TruckID   string
	Amount    decimal.Decimal
	Note      string
	Status    BidStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

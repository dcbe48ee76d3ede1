package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Payment is the charge taken from a cargo owner for a completed order.
type Payment struct {
	ID                string
	OrderID           string
	Amount            decimal.Decimal
	Currency          string
	Status            PaymentStatus
	IdempotencyKey    string
	ProviderReference string
	CreatedAt         time.Time
}

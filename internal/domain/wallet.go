package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a wallet movement.
type TransactionType string

const (
	TransactionCredit TransactionType = "CREDIT"
	TransactionDebit  TransactionType = "DEBIT"
)

// Wallet holds a driver's earnings.
type Wallet struct {
	ID        string
	DriverID  string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transaction is a single wallet movement. Credits carry the date they
// become payable; PayoutID is set once a payout settles them.
type Transaction struct {
	ID          string
	WalletID    string
	OrderID     string
	PayoutID    string
	Type        TransactionType
	Amount      decimal.Decimal
	Description string
	AvailableOn time.Time
	CreatedAt   time.Time
}

// Settled reports whether the transaction has been paid out.
func (t *Transaction) Settled() bool {
	return t.PayoutID != ""
}

// PayoutBatchStatus is the outcome of a weekly batch.
type PayoutBatchStatus string

const PayoutBatchCompleted PayoutBatchStatus = "COMPLETED"

// PayoutBatch groups the payouts produced by one Friday run.
type PayoutBatch struct {
	ID          string
	RunDate     time.Time
	TotalAmount decimal.Decimal
	PayoutCount int
	Status      PayoutBatchStatus
	CreatedAt   time.Time
}

// PayoutStatus represents the transfer state of a payout.
type PayoutStatus string

const (
	PayoutStatusPending PayoutStatus = "PENDING"
	PayoutStatusPaid    PayoutStatus = "PAID"
	PayoutStatusFailed  PayoutStatus = "FAILED"
)

// Payout is the money sent to one driver in a batch.
type Payout struct {
	ID        string
	BatchID   string
	WalletID  string
	DriverID  string
	Amount    decimal.Decimal
	Status    PayoutStatus
	Reference string
	CreatedAt time.Time
}

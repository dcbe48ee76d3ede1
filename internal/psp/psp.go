// Package psp holds the payment service provider and payout provider clients.
package psp

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// ChargeRequest describes one charge against a cargo owner.
type ChargeRequest struct {
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
}

// ChargeResult is the provider's answer to a charge.
type ChargeResult struct {
	Success   bool
	Reference string
}

// PSP is the interface for a Payment Service Provider.
type PSP interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// TransferRequest describes one payout to a driver.
type TransferRequest struct {
	PayoutID string
	DriverID string
	Amount   decimal.Decimal
}

// PayoutProvider sends payout money to drivers.
type PayoutProvider interface {
	Transfer(ctx context.Context, req TransferRequest) (reference string, err error)
}

// MockPSP is a mock implementation of PSP. It always succeeds.
type MockPSP struct {
	seq atomic.Int64
}

// NewMockPSP creates a new mock PSP.
func NewMockPSP() *MockPSP {
	return &MockPSP{}
}

// Charge simulates a payment charge.
func (p *MockPSP) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	return &ChargeResult{
		Success:   true,
		Reference: fmt.Sprintf("mock_pi_%d", p.seq.Add(1)),
	}, nil
}

// MockPayoutProvider is a payout provider that accepts every transfer.
type MockPayoutProvider struct{}

// NewMockPayoutProvider creates a new MockPayoutProvider.
func NewMockPayoutProvider() *MockPayoutProvider {
	return &MockPayoutProvider{}
}

// Transfer simulates a bank transfer.
func (p *MockPayoutProvider) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	return "mock_po_" + req.PayoutID, nil
}

// ToMinorUnits converts a decimal amount to cents.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

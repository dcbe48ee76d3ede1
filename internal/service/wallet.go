package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cargo/internal/domain"
	"cargo/internal/repository"
)

// WalletService exposes driver earnings and credits completed orders.
type WalletService struct {
	store      repository.Store
	commission decimal.Decimal
	loc        *time.Location
	now        func() time.Time
}

// NewWalletService creates a new WalletService. commission is the platform
// share of the agreed price; loc is the timezone of the payout calendar.
func NewWalletService(store repository.Store, commission decimal.Decimal, loc *time.Location) *WalletService {
	if loc == nil {
		loc = time.UTC
	}
	return &WalletService{
		store:      store,
		commission: commission,
		loc:        loc,
		now:        time.Now,
	}
}

// WithClock replaces the service clock.
func (s *WalletService) WithClock(now func() time.Time) *WalletService {
	s.now = now
	return s
}

// WalletSummary is a wallet's balance split into payout buckets.
type WalletSummary struct {
	Wallet  *domain.Wallet
	Buckets domain.WithdrawalBuckets
}

// GetSummary returns the actor's wallet with its withdrawal buckets.
func (s *WalletService) GetSummary(ctx context.Context, actor Actor) (*WalletSummary, error) {
	repos := s.store.Repositories()
	driver, err := driverOf(ctx, repos, actor)
	if err != nil {
		return nil, err
	}

	wallet, err := repos.Wallets.GetByDriverID(ctx, driver.ID)
	if err != nil {
		return nil, err
	}

	credits, err := repos.Wallets.GetUnsettledCredits(ctx, wallet.ID)
	if err != nil {
		return nil, err
	}

	return &WalletSummary{
		Wallet:  wallet,
		Buckets: domain.ComputeWithdrawalBuckets(credits, s.now(), s.loc),
	}, nil
}

// ListTransactions returns a page of the actor's wallet transactions, newest first.
func (s *WalletService) ListTransactions(ctx context.Context, actor Actor, limit, offset int) ([]*domain.Transaction, error) {
	repos := s.store.Repositories()
	driver, err := driverOf(ctx, repos, actor)
	if err != nil {
		return nil, err
	}

	wallet, err := repos.Wallets.GetByDriverID(ctx, driver.ID)
	if err != nil {
		return nil, err
	}

	return repos.Wallets.GetTransactions(ctx, wallet.ID, limit, offset)
}

// NetEarning returns the driver's share of an agreed price.
func (s *WalletService) NetEarning(agreed decimal.Decimal) decimal.Decimal {
	return agreed.Mul(decimal.NewFromInt(1).Sub(s.commission)).Round(2)
}

// CreditOrder credits the driver of a completed order, payable on the
// payout date of the completion time. It runs on the caller's repositories
// so it joins the caller's transaction.
func (s *WalletService) CreditOrder(ctx context.Context, repos repository.Repositories, order *domain.Order) (*domain.Transaction, error) {
	if order.DriverID == "" {
		return nil, fmt.Errorf("%w: order %s has no driver", ErrInvalidInput, order.ID)
	}

	wallet, err := repos.Wallets.GetByDriverID(ctx, order.DriverID)
	if err != nil {
		return nil, err
	}

	at := order.CompletedAt
	if at.IsZero() {
		at = s.now()
	}

	txn := &domain.Transaction{
		ID:          uuid.New().String(),
		WalletID:    wallet.ID,
		OrderID:     order.ID,
		Type:        domain.TransactionCredit,
		Amount:      s.NetEarning(order.AgreedPrice),
		Description: fmt.Sprintf("Earnings for order %s", order.ID),
		AvailableOn: domain.PayoutDateFor(at, s.loc),
		CreatedAt:   at,
	}

	if err := repos.Wallets.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	if err := repos.Wallets.AdjustBalance(ctx, wallet.ID, txn.Amount); err != nil {
		return nil, err
	}

	return txn, nil
}

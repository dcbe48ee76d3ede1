package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cargo/internal/domain"
	"cargo/internal/psp"
	"cargo/internal/redis"
	"cargo/internal/repository"
)

// PayoutService runs the weekly payout batch and exposes its history.
type PayoutService struct {
	store    repository.Store
	locks    redis.LockStoreInterface
	provider psp.PayoutProvider
	notifier *NotificationService
	logger   *zap.Logger
}

// NewPayoutService creates a new PayoutService.
func NewPayoutService(
	store repository.Store,
	locks redis.LockStoreInterface,
	provider psp.PayoutProvider,
	notifier *NotificationService,
	logger *zap.Logger,
) *PayoutService {
	return &PayoutService{
		store:    store,
		locks:    locks,
		provider: provider,
		notifier: notifier,
		logger:   logger.Named("payouts"),
	}
}

// BatchResult is a completed batch with the payouts it produced.
type BatchResult struct {
	Batch   *domain.PayoutBatch
	Payouts []*domain.Payout
}

// RunWeeklyBatch settles every unsettled credit payable on or before runDate.
// runDate is a calendar date and must be a payout weekday. Each date runs at
// most once. Settlement is one transaction; transfers happen after commit and
// mark each payout PAID or FAILED.
func (s *PayoutService) RunWeeklyBatch(ctx context.Context, runDate time.Time) (*BatchResult, error) {
	date := domain.CivilDate(runDate)
	if date.Weekday() != domain.PayoutWeekday {
		return nil, ErrNotPayoutDay
	}

	start := time.Now()
	var result *BatchResult

	err := withLock(ctx, s.locks, redis.PayoutLockName(date), payoutLockTTL, func() error {
		existing, err := s.store.Repositories().Payouts.GetBatchByRunDate(ctx, date)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrPayoutAlreadyRun
		}

		result, err = s.settle(ctx, date)
		if errors.Is(err, repository.ErrConflict) {
			return ErrPayoutAlreadyRun
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.transfer(ctx, result.Payouts)
	payoutBatchDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("payout batch completed",
		zap.String("batch_id", result.Batch.ID),
		zap.String("run_date", date.Format("2006-01-02")),
		zap.Int("payouts", result.Batch.PayoutCount),
		zap.String("total", result.Batch.TotalAmount.StringFixed(2)),
	)

	return result, nil
}

func (s *PayoutService) settle(ctx context.Context, date time.Time) (*BatchResult, error) {
	now := time.Now()
	batch := &domain.PayoutBatch{
		ID:          uuid.New().String(),
		RunDate:     date,
		TotalAmount: decimal.Zero,
		Status:      domain.PayoutBatchCompleted,
		CreatedAt:   now,
	}
	var payouts []*domain.Payout

	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Payouts.CreateBatch(ctx, batch); err != nil {
			return err
		}

		credits, err := repos.Wallets.GetPayableCredits(ctx, date)
		if err != nil {
			return err
		}

		byWallet := make(map[string][]*domain.Transaction)
		for _, credit := range domain.PayableBy(credits, date) {
			byWallet[credit.WalletID] = append(byWallet[credit.WalletID], credit)
		}
		walletIDs := make([]string, 0, len(byWallet))
		for id := range byWallet {
			walletIDs = append(walletIDs, id)
		}
		sort.Strings(walletIDs)

		for _, walletID := range walletIDs {
			due := byWallet[walletID]
			wallet, err := repos.Wallets.GetByID(ctx, walletID)
			if err != nil {
				return err
			}

			amount := decimal.Zero
			ids := make([]string, 0, len(due))
			for _, credit := range due {
				amount = amount.Add(credit.Amount)
				ids = append(ids, credit.ID)
			}
			if !amount.IsPositive() {
				continue
			}

			payout := &domain.Payout{
				ID:        uuid.New().String(),
				BatchID:   batch.ID,
				WalletID:  wallet.ID,
				DriverID:  wallet.DriverID,
				Amount:    amount,
				Status:    domain.PayoutStatusPending,
				CreatedAt: now,
			}
			if err := repos.Payouts.Create(ctx, payout); err != nil {
				return err
			}

			if err := repos.Wallets.CreateTransaction(ctx, &domain.Transaction{
				ID:          uuid.New().String(),
				WalletID:    wallet.ID,
				PayoutID:    payout.ID,
				Type:        domain.TransactionDebit,
				Amount:      amount,
				Description: fmt.Sprintf("Payout %s", date.Format("2006-01-02")),
				AvailableOn: date,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
			if err := repos.Wallets.AdjustBalance(ctx, wallet.ID, amount.Neg()); err != nil {
				return err
			}
			if err := repos.Wallets.SettleTransactions(ctx, ids, payout.ID); err != nil {
				return err
			}

			batch.TotalAmount = batch.TotalAmount.Add(amount)
			batch.PayoutCount++
			payouts = append(payouts, payout)
		}

		return repos.Payouts.UpdateBatchTotals(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	return &BatchResult{Batch: batch, Payouts: payouts}, nil
}

// transfer sends each settled payout through the provider.
func (s *PayoutService) transfer(ctx context.Context, payouts []*domain.Payout) {
	repos := s.store.Repositories()
	for _, payout := range payouts {
		status := domain.PayoutStatusPaid
		reference, err := s.provider.Transfer(ctx, psp.TransferRequest{
			PayoutID: payout.ID,
			DriverID: payout.DriverID,
			Amount:   payout.Amount,
		})
		if err != nil {
			status = domain.PayoutStatusFailed
			s.logger.Error("payout transfer failed", zap.String("payout_id", payout.ID), zap.Error(err))
		}

		if err := repos.Payouts.UpdateStatus(ctx, payout.ID, status, reference); err != nil {
			s.logger.Error("failed to record payout status", zap.String("payout_id", payout.ID), zap.Error(err))
			continue
		}
		payout.Status = status
		payout.Reference = reference
		payoutsSent.WithLabelValues(string(status)).Inc()

		userID := driverUserID(ctx, repos, s.logger, payout.DriverID)
		if status == domain.PayoutStatusPaid {
			s.notifier.Notifyf(ctx, userID, domain.NotificationPayoutSent,
				"Payout sent", "%s is on its way to your account", payout.Amount.StringFixed(2))
		} else {
			s.notifier.Notifyf(ctx, userID, domain.NotificationPayoutFailed,
				"Payout failed", "We could not send your payout of %s, support will follow up", payout.Amount.StringFixed(2))
		}
	}
}

// ListBatches returns the most recent batches.
func (s *PayoutService) ListBatches(ctx context.Context, limit int) ([]*domain.PayoutBatch, error) {
	return s.store.Repositories().Payouts.GetBatches(ctx, limit)
}

// GetBatch returns a batch with its payouts.
func (s *PayoutService) GetBatch(ctx context.Context, batchID string) (*BatchResult, error) {
	if batchID == "" {
		return nil, fmt.Errorf("%w: batch id is required", ErrInvalidInput)
	}

	repos := s.store.Repositories()
	batch, err := repos.Payouts.GetBatchByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	payouts, err := repos.Payouts.GetByBatchID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return &BatchResult{Batch: batch, Payouts: payouts}, nil
}

// ListMyPayouts returns the acting driver's payouts.
func (s *PayoutService) ListMyPayouts(ctx context.Context, actor Actor) ([]*domain.Payout, error) {
	repos := s.store.Repositories()
	driver, err := driverOf(ctx, repos, actor)
	if err != nil {
		return nil, err
	}
	return repos.Payouts.GetByDriverID(ctx, driver.ID)
}

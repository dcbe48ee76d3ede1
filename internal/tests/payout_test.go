package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cargo/internal/domain"
	"cargo/internal/service"
)

// ──────────────────────────────────────────────
// 6. WALLET AND WEEKLY PAYOUT
// ──────────────────────────────────────────────

var (
	friday7  = time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)
	friday14 = time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	monday3  = time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
)

func TestPayout_RejectsNonFriday(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	if _, err := e.payouts.RunWeeklyBatch(context.Background(), wednesday); !errors.Is(err, service.ErrNotPayoutDay) {
		t.Errorf("expected ErrNotPayoutDay, got %v", err)
	}
	if e.store.Payouts.CountBatches() != 0 {
		t.Error("no batch should be created")
	}
}

func TestPayout_SettlesOnlyDueCredits(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	// Monday completion is payable on the coming Friday.
	e.clock.Set(monday3)
	early := e.completedOrder(t, "1000")
	// Wednesday completion waits for the Friday after.
	e.clock.Set(wednesday)
	e.completedOrder(t, "500")

	wallet := e.store.Wallets.GetWalletByDriver("driver-1")
	if !wallet.Balance.Equal(decimal.NewFromInt(1350)) {
		t.Fatalf("expected balance 1350, got %s", wallet.Balance)
	}

	// Thursday view: 900 goes out tomorrow, 450 the week after.
	e.clock.Set(time.Date(2024, 6, 6, 12, 0, 0, 0, time.UTC))
	summary, err := e.wallets.GetSummary(ctx, driverActor("1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !summary.Buckets.Withdrawable.IsZero() {
		t.Errorf("nothing is withdrawable before Friday, got %s", summary.Buckets.Withdrawable)
	}
	if !summary.Buckets.NextPayoutDate.Equal(friday7) {
		t.Errorf("expected next payout %s, got %s", friday7.Format("2006-01-02"), summary.Buckets.NextPayoutDate.Format("2006-01-02"))
	}
	if !summary.Buckets.NextPayoutAmount.Equal(decimal.NewFromInt(900)) || !summary.Buckets.Pending.Equal(decimal.NewFromInt(450)) {
		t.Errorf("unexpected buckets next=%s pending=%s", summary.Buckets.NextPayoutAmount, summary.Buckets.Pending)
	}

	result, err := e.payouts.RunWeeklyBatch(ctx, friday7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Batch.PayoutCount != 1 || !result.Batch.TotalAmount.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("unexpected batch count=%d total=%s", result.Batch.PayoutCount, result.Batch.TotalAmount)
	}
	payout := result.Payouts[0]
	if payout.DriverID != "driver-1" || payout.Status != domain.PayoutStatusPaid || payout.Reference == "" {
		t.Errorf("unexpected payout %+v", payout)
	}

	wallet = e.store.Wallets.GetWalletByDriver("driver-1")
	if !wallet.Balance.Equal(decimal.NewFromInt(450)) {
		t.Errorf("expected balance 450 after payout, got %s", wallet.Balance)
	}

	var debits, settled int
	for _, txn := range e.store.Wallets.Transactions(wallet.ID) {
		switch {
		case txn.Type == domain.TransactionDebit:
			debits++
			if txn.PayoutID != payout.ID || !txn.Amount.Equal(decimal.NewFromInt(900)) {
				t.Errorf("unexpected debit %+v", txn)
			}
		case txn.Settled():
			settled++
			if txn.OrderID != early.ID {
				t.Errorf("only the early credit should settle, got order %s", txn.OrderID)
			}
		}
	}
	if debits != 1 || settled != 1 {
		t.Errorf("expected 1 debit and 1 settled credit, got %d and %d", debits, settled)
	}

	if n := e.store.Notifications.CountFor("duser-1", domain.NotificationPayoutSent); n != 1 {
		t.Errorf("driver should be told about the payout, got %d", n)
	}

	// The following Friday picks up the rest.
	next, err := e.payouts.RunWeeklyBatch(ctx, friday14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !next.Batch.TotalAmount.Equal(decimal.NewFromInt(450)) {
		t.Errorf("expected 450 in the second batch, got %s", next.Batch.TotalAmount)
	}
	if !e.store.Wallets.GetWalletByDriver("driver-1").Balance.IsZero() {
		t.Error("wallet should be empty after both batches")
	}
}

func TestPayout_RunsOncePerDate(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.payouts.RunWeeklyBatch(ctx, friday7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Same calendar date, different clock time.
	if _, err := e.payouts.RunWeeklyBatch(ctx, friday7.Add(15*time.Hour)); !errors.Is(err, service.ErrPayoutAlreadyRun) {
		t.Errorf("expected ErrPayoutAlreadyRun, got %v", err)
	}
	if e.store.Payouts.CountBatches() != 1 {
		t.Errorf("expected 1 batch, got %d", e.store.Payouts.CountBatches())
	}
}

func TestPayout_EmptyBatchIsRecorded(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	result, err := e.payouts.RunWeeklyBatch(context.Background(), friday7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Batch.PayoutCount != 0 || !result.Batch.TotalAmount.IsZero() || len(result.Payouts) != 0 {
		t.Errorf("expected an empty batch, got %+v", result.Batch)
	}
}

func TestPayout_LockedRunIsBusy(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.locks.Hold("payout:2024-06-07")

	if _, err := e.payouts.RunWeeklyBatch(context.Background(), friday7); !errors.Is(err, service.ErrResourceBusy) {
		t.Errorf("expected ErrResourceBusy, got %v", err)
	}
}

func TestPayout_TransferFailureMarksPayoutFailed(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	e.clock.Set(monday3)
	e.completedOrder(t, "1000")
	e.provider.FailFor("driver-1")

	result, err := e.payouts.RunWeeklyBatch(ctx, friday7)
	if err != nil {
		t.Fatalf("a failed transfer does not fail the batch: %v", err)
	}
	if result.Payouts[0].Status != domain.PayoutStatusFailed {
		t.Errorf("expected %s, got %s", domain.PayoutStatusFailed, result.Payouts[0].Status)
	}
	if n := e.store.Notifications.CountFor("duser-1", domain.NotificationPayoutFailed); n != 1 {
		t.Errorf("driver should be told the payout failed, got %d", n)
	}

	mine, err := e.payouts.ListMyPayouts(ctx, driverActor("1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mine) != 1 || mine[0].Status != domain.PayoutStatusFailed {
		t.Errorf("driver should see the failed payout, got %+v", mine)
	}

	batch, err := e.payouts.GetBatch(ctx, result.Batch.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Payouts) != 1 {
		t.Errorf("expected 1 payout in the batch, got %d", len(batch.Payouts))
	}
}

func TestWallet_NetEarningRoundsToCents(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	got := e.wallets.NetEarning(decimal.RequireFromString("333.33"))
	if !got.Equal(decimal.RequireFromString("300.00")) {
		t.Errorf("expected 300.00, got %s", got)
	}
}

func TestWallet_TransactionsNewestFirst(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	e.completedOrder(t, "100")
	e.completedOrder(t, "200")

	txns, err := e.wallets.ListTransactions(ctx, driverActor("1"), 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txns) != 1 || !txns[0].Amount.Equal(decimal.NewFromInt(180)) {
		t.Errorf("expected the latest 180 credit first, got %+v", txns)
	}

	if _, err := e.wallets.GetSummary(ctx, ownerActor); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-drivers, got %v", err)
	}
}

package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"cargo/internal/domain"
)

// WalletRepository is a PostgreSQL implementation of repository.WalletRepository.
type WalletRepository struct {
	q Querier
}

const walletColumns = `id, driver_id, balance, created_at, updated_at`

const transactionColumns = `id, wallet_id, order_id, payout_id, type, amount, description, available_on, created_at`

// Create persists a new wallet.
func (r *WalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		INSERT INTO wallets (id, driver_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.q.ExecContext(ctx, query,
		wallet.ID,
		wallet.DriverID,
		wallet.Balance,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)
	return mapError(err)
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return scanWallet(r.q.QueryRowContext(ctx, query, id))
}

// GetByDriverID retrieves the wallet of a driver.
func (r *WalletRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE driver_id = $1`
	return scanWallet(r.q.QueryRowContext(ctx, query, driverID))
}

// AdjustBalance adds delta to the wallet balance. The balance CHECK
// constraint rejects adjustments that would make it negative.
func (r *WalletRepository) AdjustBalance(ctx context.Context, walletID string, delta decimal.Decimal) error {
	result, err := r.q.ExecContext(ctx, `UPDATE wallets SET balance = balance + $1, updated_at = $2 WHERE id = $3`,
		delta, time.Now(), walletID)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// CreateTransaction persists a wallet transaction.
func (r *WalletRepository) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, wallet_id, order_id, payout_id, type, amount, description, available_on, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.q.ExecContext(ctx, query,
		txn.ID,
		txn.WalletID,
		nullString(txn.OrderID),
		nullString(txn.PayoutID),
		txn.Type,
		txn.Amount,
		txn.Description,
		domain.CivilDate(txn.AvailableOn),
		txn.CreatedAt,
	)
	return mapError(err)
}

// GetTransactions retrieves a page of wallet transactions, newest first.
func (r *WalletRepository) GetTransactions(ctx context.Context, walletID string, limit, offset int) ([]*domain.Transaction, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE wallet_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.queryTransactions(ctx, query, walletID, limit, offset)
}

// GetUnsettledCredits retrieves credits of the wallet not yet paid out.
func (r *WalletRepository) GetUnsettledCredits(ctx context.Context, walletID string) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + ` FROM transactions
		WHERE wallet_id = $1 AND type = $2 AND payout_id IS NULL
		ORDER BY available_on ASC
	`
	return r.queryTransactions(ctx, query, walletID, domain.TransactionCredit)
}

// GetPayableCredits retrieves unsettled credits due on or before date across
// all wallets. Rows are locked until the surrounding transaction ends.
func (r *WalletRepository) GetPayableCredits(ctx context.Context, date time.Time) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + ` FROM transactions
		WHERE type = $1 AND payout_id IS NULL AND available_on <= $2
		ORDER BY wallet_id, available_on
		FOR UPDATE
	`
	return r.queryTransactions(ctx, query, domain.TransactionCredit, domain.CivilDate(date))
}

// SettleTransactions marks transactions as paid by a payout.
func (r *WalletRepository) SettleTransactions(ctx context.Context, ids []string, payoutID string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.q.ExecContext(ctx, `UPDATE transactions SET payout_id = $1 WHERE id::text = ANY($2::text[])`,
		payoutID, pq.Array(ids))
	return err
}

func (r *WalletRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		var txn domain.Transaction
		var orderID, payoutID sql.NullString
		if err := rows.Scan(
			&txn.ID,
			&txn.WalletID,
			&orderID,
			&payoutID,
			&txn.Type,
			&txn.Amount,
			&txn.Description,
			&txn.AvailableOn,
			&txn.CreatedAt,
		); err != nil {
			return nil, err
		}
		txn.OrderID = orderID.String
		txn.PayoutID = payoutID.String
		txn.AvailableOn = domain.CivilDate(txn.AvailableOn)
		txns = append(txns, &txn)
	}
	return txns, rows.Err()
}

func scanWallet(row rowScanner) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := row.Scan(
		&wallet.ID,
		&wallet.DriverID,
		&wallet.Balance,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &wallet, nil
}

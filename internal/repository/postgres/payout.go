package postgres

import (
	"context"
	"errors"
	"time"

	"cargo/internal/domain"
	"cargo/internal/repository"
)

// PayoutRepository is a PostgreSQL implementation of repository.PayoutRepository.
type PayoutRepository struct {
	q Querier
}

const batchColumns = `id, run_date, total_amount, payout_count, status, created_at`

const payoutColumns = `id, batch_id, wallet_id, driver_id, amount, status, reference, created_at`

// CreateBatch persists a new payout batch. A second batch for the same
// run date fails with repository.ErrConflict.
func (r *PayoutRepository) CreateBatch(ctx context.Context, batch *domain.PayoutBatch) error {
	query := `
		INSERT INTO payout_batches (id, run_date, total_amount, payout_count, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.ExecContext(ctx, query,
		batch.ID,
		domain.CivilDate(batch.RunDate),
		batch.TotalAmount,
		batch.PayoutCount,
		batch.Status,
		batch.CreatedAt,
	)
	return mapError(err)
}

// GetBatchByID retrieves a batch by ID.
func (r *PayoutRepository) GetBatchByID(ctx context.Context, id string) (*domain.PayoutBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM payout_batches WHERE id = $1`
	return scanBatch(r.q.QueryRowContext(ctx, query, id))
}

// GetBatchByRunDate returns the batch for runDate, or nil.
func (r *PayoutRepository) GetBatchByRunDate(ctx context.Context, runDate time.Time) (*domain.PayoutBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM payout_batches WHERE run_date = $1`
	batch, err := scanBatch(r.q.QueryRowContext(ctx, query, domain.CivilDate(runDate)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return batch, err
}

// GetBatches retrieves recent batches, newest first.
func (r *PayoutRepository) GetBatches(ctx context.Context, limit int) ([]*domain.PayoutBatch, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	rows, err := r.q.QueryContext(ctx, `SELECT `+batchColumns+` FROM payout_batches ORDER BY run_date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*domain.PayoutBatch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

// UpdateBatchTotals writes the total amount and payout count of a batch.
func (r *PayoutRepository) UpdateBatchTotals(ctx context.Context, batch *domain.PayoutBatch) error {
	result, err := r.q.ExecContext(ctx, `UPDATE payout_batches SET total_amount = $1, payout_count = $2, status = $3 WHERE id = $4`,
		batch.TotalAmount, batch.PayoutCount, batch.Status, batch.ID)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// Create persists a new payout.
func (r *PayoutRepository) Create(ctx context.Context, payout *domain.Payout) error {
	query := `
		INSERT INTO payouts (id, batch_id, wallet_id, driver_id, amount, status, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.ExecContext(ctx, query,
		payout.ID,
		payout.BatchID,
		payout.WalletID,
		payout.DriverID,
		payout.Amount,
		payout.Status,
		payout.Reference,
		payout.CreatedAt,
	)
	return mapError(err)
}

// GetByBatchID retrieves the payouts of a batch.
func (r *PayoutRepository) GetByBatchID(ctx context.Context, batchID string) ([]*domain.Payout, error) {
	return r.queryPayouts(ctx, `SELECT `+payoutColumns+` FROM payouts WHERE batch_id = $1 ORDER BY created_at`, batchID)
}

// GetByDriverID retrieves the payouts of a driver, newest first.
func (r *PayoutRepository) GetByDriverID(ctx context.Context, driverID string) ([]*domain.Payout, error) {
	return r.queryPayouts(ctx, `SELECT `+payoutColumns+` FROM payouts WHERE driver_id = $1 ORDER BY created_at DESC`, driverID)
}

// UpdateStatus records the transfer outcome of a payout.
func (r *PayoutRepository) UpdateStatus(ctx context.Context, id string, status domain.PayoutStatus, reference string) error {
	result, err := r.q.ExecContext(ctx, `UPDATE payouts SET status = $1, reference = $2 WHERE id = $3`, status, reference, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *PayoutRepository) queryPayouts(ctx context.Context, query string, args ...any) ([]*domain.Payout, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payouts []*domain.Payout
	for rows.Next() {
		var payout domain.Payout
		if err := rows.Scan(
			&payout.ID,
			&payout.BatchID,
			&payout.WalletID,
			&payout.DriverID,
			&payout.Amount,
			&payout.Status,
			&payout.Reference,
			&payout.CreatedAt,
		); err != nil {
			return nil, err
		}
		payouts = append(payouts, &payout)
	}
	return payouts, rows.Err()
}

func scanBatch(row rowScanner) (*domain.PayoutBatch, error) {
	var batch domain.PayoutBatch
	err := row.Scan(
		&batch.ID,
		&batch.RunDate,
		&batch.TotalAmount,
		&batch.PayoutCount,
		&batch.Status,
		&batch.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	batch.RunDate = domain.CivilDate(batch.RunDate)
	return &batch, nil
}

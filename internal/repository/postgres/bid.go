package postgres

import (
	"context"
	"time"

	"cargo/internal/domain"
)

// BidRepository is a PostgreSQL implementation of repository.BidRepository.
type BidRepository struct {
	q Querier
}

const bidColumns = `id, order_id, driver_id, truck_id, amount, note, status, created_at, updated_at`

// Create persists a new bid.
func (r *BidRepository) Create(ctx context.Context, bid *domain.Bid) error {
	query := `
		INSERT INTO bids (id, order_id, driver_id, truck_id, amount, note, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.q.ExecContext(ctx, query,
		bid.ID,
		bid.OrderID,
		bid.DriverID,
		bid.TruckID,
		bid.Amount,
		bid.Note,
		bid.Status,
		bid.CreatedAt,
		bid.UpdatedAt,
	)
	return mapError(err)
}

// GetByID retrieves a bid by ID.
func (r *BidRepository) GetByID(ctx context.Context, id string) (*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`
	return scanBid(r.q.QueryRowContext(ctx, query, id))
}

// GetByOrderID retrieves all bids of an order, lowest amount first.
func (r *BidRepository) GetByOrderID(ctx context.Context, orderID string) ([]*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE order_id = $1 ORDER BY amount ASC, created_at ASC`
	return r.query(ctx, query, orderID)
}

// GetPendingByOrderAndDriver returns the driver's pending bid on the order, or nil.
func (r *BidRepository) GetPendingByOrderAndDriver(ctx context.Context, orderID, driverID string) (*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE order_id = $1 AND driver_id = $2 AND status = $3`
	bids, err := r.query(ctx, query, orderID, driverID, domain.BidStatusPending)
	if err != nil || len(bids) == 0 {
		return nil, err
	}
	return bids[0], nil
}

// CountPending counts pending bids on an order.
func (r *BidRepository) CountPending(ctx context.Context, orderID string) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM bids WHERE order_id = $1 AND status = $2`,
		orderID, domain.BidStatusPending).Scan(&count)
	return count, err
}

// UpdateStatus updates the status of a bid.
func (r *BidRepository) UpdateStatus(ctx context.Context, id string, status domain.BidStatus) error {
	result, err := r.q.ExecContext(ctx, `UPDATE bids SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// RejectPending rejects all other pending bids of the order.
func (r *BidRepository) RejectPending(ctx context.Context, orderID, keepID string) ([]*domain.Bid, error) {
	query := `
		UPDATE bids SET status = $1, updated_at = $2
		WHERE order_id = $3 AND status = $4 AND id::text <> $5
		RETURNING ` + bidColumns
	return r.query(ctx, query, domain.BidStatusRejected, time.Now(), orderID, domain.BidStatusPending, keepID)
}

func (r *BidRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Bid, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}

func scanBid(row rowScanner) (*domain.Bid, error) {
	var bid domain.Bid
	err := row.Scan(
		&bid.ID,
		&bid.OrderID,
		&bid.DriverID,
		&bid.TruckID,
		&bid.Amount,
		&bid.Note,
		&bid.Status,
		&bid.CreatedAt,
		&bid.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &bid, nil
}

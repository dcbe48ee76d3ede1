package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"cargo/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier          = (*sql.DB)(nil)
	_ Querier          = (*sql.Tx)(nil)
	_ repository.Store = (*Store)(nil)
)

// PostgreSQL error codes mapped to repository errors.
const (
	uniqueViolation  = "23505"
	invalidTextInput = "22P02" // malformed UUID in a lookup
)

// Store hands out repositories bound to the pool or to a transaction.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Repositories returns repositories bound to the connection pool.
func (s *Store) Repositories() repository.Repositories {
	return newRepositories(s.db)
}

// WithinTx runs fn with transaction-scoped repositories.
func (s *Store) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(newRepositories(tx)); err != nil {
		return err
	}

	return tx.Commit()
}

func newRepositories(q Querier) repository.Repositories {
	return repository.Repositories{
		Users:         &UserRepository{q: q},
		Businesses:    &BusinessRepository{q: q},
		Drivers:       &DriverRepository{q: q},
		Trucks:        &TruckRepository{q: q},
		Routes:        &RouteRepository{q: q},
		Orders:        &OrderRepository{q: q},
		Bids:          &BidRepository{q: q},
		Wallets:       &WalletRepository{q: q},
		Payouts:       &PayoutRepository{q: q},
		Payments:      &PaymentRepository{q: q},
		Notifications: &NotificationRepository{q: q},
	}
}

// mapError converts driver errors into repository errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return repository.ErrConflict
		case invalidTextInput:
			return repository.ErrNotFound
		}
	}
	return err
}

// expectAffected returns ErrNotFound when an UPDATE touched no rows.
func expectAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

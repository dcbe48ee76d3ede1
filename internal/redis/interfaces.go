package redis

import (
	"context"
	"time"

	"cargo/internal/domain"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, name, token string) error
}

// OrderCache defines the interface for order read caching.
type OrderCache interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	SetOrder(ctx context.Context, order *domain.Order) error
	InvalidateOrder(ctx context.Context, orderID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface = (*LockStore)(nil)
	_ OrderCache         = (*CacheStore)(nil)
)

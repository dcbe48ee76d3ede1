package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cargo/internal/domain"
	"cargo/internal/redis"
	"cargo/internal/repository"
)

const (
	orderLockTTL  = 10 * time.Second
	payoutLockTTL = 5 * time.Minute
)

// withLock runs fn while holding the named distributed lock.
func withLock(ctx context.Context, locks redis.LockStoreInterface, name string, ttl time.Duration, fn func() error) error {
	token, acquired, err := locks.Acquire(ctx, name, ttl)
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !acquired {
		return ErrResourceBusy
	}
	defer func() {
		_ = locks.Release(context.WithoutCancel(ctx), name, token)
	}()

	return fn()
}

// orderCache fronts order reads with the Redis cache. Cache failures are
// logged and fall through to the database.
type orderCache struct {
	cache  redis.OrderCache
	logger *zap.Logger
}

func (c orderCache) get(ctx context.Context, repos repository.Repositories, id string) (*domain.Order, error) {
	if c.cache != nil {
		order, err := c.cache.GetOrder(ctx, id)
		if err != nil {
			c.logger.Warn("order cache read failed", zap.String("order_id", id), zap.Error(err))
		} else if order != nil {
			return order, nil
		}
	}

	order, err := repos.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetOrder(ctx, order); err != nil {
			c.logger.Warn("order cache write failed", zap.String("order_id", id), zap.Error(err))
		}
	}
	return order, nil
}

func (c orderCache) invalidate(ctx context.Context, id string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.InvalidateOrder(ctx, id); err != nil {
		c.logger.Warn("order cache invalidate failed", zap.String("order_id", id), zap.Error(err))
	}
}

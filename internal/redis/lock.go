package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// Acquire attempts to take the named lock for ttl. On success it returns
// the holder token that Release needs; ok is false when the lock is held.
func (s *LockStore) Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	token := uuid.New().String()
	ok, err := s.client.SetNX(ctx, lockKey(name), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the named lock if token still owns it. A lock that expired
// and was taken by another holder is left alone.
func (s *LockStore) Release(ctx context.Context, name, token string) error {
	return releaseScript.Run(ctx, s.client, []string{lockKey(name)}, token).Err()
}

// OrderLockName is the lock serializing changes on one order.
func OrderLockName(orderID string) string {
	return "order:" + orderID
}

// PayoutLockName is the lock guarding the payout batch of one date.
func PayoutLockName(runDate time.Time) string {
	return "payout:" + runDate.Format("2006-01-02")
}

func lockKey(name string) string {
	return fmt.Sprintf("lock:%s", name)
}

package redis

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter combines a per-key local token bucket with a Redis fixed
// window so the limit also holds across instances.
type RateLimiter struct {
	client *redis.Client
	logger *zap.Logger
	limit  int
	window time.Duration
	now    func() time.Time

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

// NewRateLimiter allows limit requests per window for each key.
// A limit of zero disables limiting.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		logger: logger,
		limit:  limit,
		window: window,
		now:    time.Now,
		local:  make(map[string]*rate.Limiter),
	}
}

// WithClock replaces the clock that picks the Redis window.
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	l.now = now
	return l
}

// Allow reports whether another request for key fits in the current window.
func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	if l.limit <= 0 {
		return true
	}

	// Local check first (fast path).
	if !l.localLimiter(key).Allow() {
		return false
	}

	if l.client == nil {
		return true
	}

	redisKey := l.windowKey(key)
	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Error("redis rate limit error; falling back to local", zap.Error(err))
		return true
	}

	if incr.Val() > int64(l.limit) {
		l.logger.Warn("rate limit exceeded", zap.String("key", key), zap.Int64("count", incr.Val()))
		return false
	}
	return true
}

func (l *RateLimiter) localLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.local[key]
	if !ok {
		every := l.window / time.Duration(l.limit)
		limiter = rate.NewLimiter(rate.Every(every), l.limit)
		l.local[key] = limiter
	}
	return limiter
}

// windowKey names the counter of the window containing now. Each window
// gets its own key, so requests never stretch a window past its end.
func (l *RateLimiter) windowKey(key string) string {
	start := l.now().Truncate(l.window).Unix()
	return "ratelimit:" + key + ":" + strconv.FormatInt(start, 10)
}

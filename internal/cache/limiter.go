package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter tracks failed login attempts per identifier in Redis. Keys
// expire after the configured window, so a quiet identifier resets on its
// own. Redis being unavailable is the caller's problem to treat as fail-open.
type LoginLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

func NewLoginLimiter(client *redis.Client, max int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		client: client,
		max:    max,
		window: window,
	}
}

func key(identifier string) string {
	return fmt.Sprintf("login:fail:%s", identifier)
}

// Allowed reports whether the identifier is still under the attempt limit.
// A non-positive limit disables throttling.
func (l *LoginLimiter) Allowed(ctx context.Context, identifier string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}
	count, err := l.client.Get(ctx, key(identifier)).Int()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("get attempt count: %w", err)
	}
	return count < l.max, nil
}

// RecordFailure bumps the identifier's failure count and refreshes the
// window.
func (l *LoginLimiter) RecordFailure(ctx context.Context, identifier string) error {
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, key(identifier))
	pipe.Expire(ctx, key(identifier), l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}

// Reset clears the identifier's failure count after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, identifier string) error {
	if err := l.client.Del(ctx, key(identifier)).Err(); err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}

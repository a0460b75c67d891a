package rate

import (
	"context"
	"fmt"
	"time"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Limiter throttles login attempts per client IP over a fixed window. The
// first maxAttempts attempts in a window pass, everything after is rejected
// until the window expires.
type Limiter struct {
	store       WindowStore
	maxAttempts int
	window      time.Duration
}

func NewLimiter(store WindowStore, maxAttempts int, window time.Duration) *Limiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}

	return &Limiter{
		store:       store,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// AllowLogin counts one attempt for ip and reports whether it may proceed.
// When blocked, retryAfterSec tells the caller how long to wait.
func (l *Limiter) AllowLogin(ctx context.Context, ip string) (int64, bool, error) {
	if ip == "" {
		return 0, false, fmt.Errorf("client ip is required")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	count, ttl, err := l.store.IncrementWindow(ctx, loginKey(ip), l.window)
	if err != nil {
		return 0, false, err
	}
	if count > int64(l.maxAttempts) {
		return ceilSeconds(ttl), false, nil
	}

	return 0, true, nil
}

// RetryAfterLogin reports the remaining wait for ip without counting an
// attempt. Zero means the next attempt would pass.
func (l *Limiter) RetryAfterLogin(ctx context.Context, ip string) (int64, error) {
	if ip == "" {
		return 0, fmt.Errorf("client ip is required")
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}

	count, ttl, err := l.store.WindowState(ctx, loginKey(ip))
	if err != nil {
		return 0, err
	}
	if count >= int64(l.maxAttempts) {
		return ceilSeconds(ttl), nil
	}

	return 0, nil
}

func loginKey(ip string) string {
	return "rate:login:" + ip
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}

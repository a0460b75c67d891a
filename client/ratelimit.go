package client

import (
	"sync"
	"time"
)

const (
	retryWindow    = 60 * time.Second
	maxAttempts    = 5
	resetAfter     = 5 * time.Minute
	maxServerRetry = 10 * time.Minute
)

// Guard paces repeated authentication attempts before they ever reach the
// network. It is advisory only; the server enforces the authoritative limit
// and its retry hint, when present, wins over the local estimate.
//
// The boundary is fixed as: attempts 1 through 5 pass, the 6th within a
// window fails. The counter resets after 5 minutes of inactivity.
type Guard struct {
	mu sync.Mutex

	attempts         int
	lastBlock        time.Time
	serverRetryUntil time.Time

	now func() time.Time
}

func NewGuard() *Guard {
	return &Guard{now: time.Now}
}

// CheckAndRecord counts one attempt and reports whether it may proceed.
func (g *Guard) CheckAndRecord() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	if !g.serverRetryUntil.IsZero() {
		if now.Before(g.serverRetryUntil) {
			return &RetryAfterError{Seconds: ceilSeconds(g.serverRetryUntil.Sub(now))}
		}
		g.serverRetryUntil = time.Time{}
	}

	if !g.lastBlock.IsZero() && now.Sub(g.lastBlock) > resetAfter {
		g.attempts = 0
		g.lastBlock = time.Time{}
	}

	if !g.lastBlock.IsZero() && now.Sub(g.lastBlock) < retryWindow {
		remaining := retryWindow - now.Sub(g.lastBlock)
		return &RetryAfterError{Seconds: ceilSeconds(remaining)}
	}

	g.attempts++
	if g.attempts > maxAttempts {
		g.lastBlock = now
		return ErrTooManyAttempts
	}

	return nil
}

// ObserveServerRetry records a server-supplied retry hint, capped at 10
// minutes. Subsequent checks defer to it until it lapses.
func (g *Guard) ObserveServerRetry(seconds int64) {
	if seconds <= 0 {
		return
	}

	wait := time.Duration(seconds) * time.Second
	if wait > maxServerRetry {
		wait = maxServerRetry
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.serverRetryUntil = g.now().Add(wait)
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

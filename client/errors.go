package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNoToken means an authenticated call was attempted with no stored
	// token. The call fails before any network traffic.
	ErrNoToken = errors.New("no token")
	// ErrValidation means the input failed local checks; nothing was sent to
	// the server.
	ErrValidation         = errors.New("validation failed")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionExpired is returned after a 403 evicted the stored token.
	ErrSessionExpired = errors.New("session expired")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrServer         = errors.New("server error")
)

// RetryAfterError tells the caller when the next attempt may be made.
type RetryAfterError struct {
	Seconds int64
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("retry after %d seconds", e.Seconds)
}

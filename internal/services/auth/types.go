package auth

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidState       = errors.New("unknown or consumed sso state")
	ErrDuplicateEmail     = errors.New("email already registered")
)

type AccessClaims struct {
	UserID    int64
	Email     string
	ExpiresAt time.Time
}

type Me struct {
	ID        int64
	Username  string
	Email     string
	AvatarURL string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Me        Me
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/LeXarDev/Server-Monitoring/internal/domain/model"
	"github.com/LeXarDev/Server-Monitoring/internal/pkg/sanitize"
	"github.com/LeXarDev/Server-Monitoring/internal/pkg/validate"
	pgrepo "github.com/LeXarDev/Server-Monitoring/internal/repo/postgres"
)

const bcryptCost = 10

type UserStore interface {
	CreateLocal(ctx context.Context, username, email, passwordHash string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, userID int64) (model.User, error)
	UpsertSSO(ctx context.Context, subject, email, username string) (model.User, error)
	UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error
}

type LoginRecorder interface {
	Record(ctx context.Context, userID int64, ipAddress, userAgent string) error
}

type Service struct {
	users  UserStore
	logins LoginRecorder
	jwt    *JWTManager
	now    func() time.Time
}

func NewService(users UserStore, logins LoginRecorder, jwtManager *JWTManager) *Service {
	return &Service{
		users:  users,
		logins: logins,
		jwt:    jwtManager,
		now:    time.Now,
	}
}

// Register creates a local-credentials account. The password never touches
// storage in clear text.
func (s *Service) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	if s.users == nil {
		return AuthResult{}, fmt.Errorf("user store is nil")
	}

	username = sanitize.Clean(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if !validate.Required(username) {
		return AuthResult{}, fmt.Errorf("username is required: %w", ErrInvalidInput)
	}
	if !validate.IsValidEmail(email) {
		return AuthResult{}, fmt.Errorf("invalid email: %w", ErrInvalidInput)
	}
	if !validate.IsStrongPassword(password) {
		return AuthResult{}, fmt.Errorf("weak password: %w", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateLocal(ctx, username, email, string(hash))
	if err != nil {
		if errors.Is(err, pgrepo.ErrDuplicateUser) {
			return AuthResult{}, ErrDuplicateEmail
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	return s.issueForUser(user)
}

// Login verifies local credentials and records the attempt origin on success.
func (s *Service) Login(ctx context.Context, email, password, ip, userAgent string) (AuthResult, error) {
	if s.users == nil {
		return AuthResult{}, fmt.Errorf("user store is nil")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("find user: %w", err)
	}

	// SSO-only accounts carry no local hash and cannot log in with a password.
	if user.PasswordHash == "" {
		return AuthResult{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	if s.logins != nil {
		if err := s.logins.Record(ctx, user.ID, ip, userAgent); err != nil {
			return AuthResult{}, fmt.Errorf("record login: %w", err)
		}
	}

	return s.issueForUser(user)
}

// ChangePassword re-verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if s.users == nil {
		return fmt.Errorf("user store is nil")
	}
	if userID <= 0 {
		return ErrInvalidInput
	}
	if !validate.IsStrongPassword(newPassword) {
		return fmt.Errorf("weak password: %w", ErrInvalidInput)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("find user: %w", err)
	}

	if user.PasswordHash == "" {
		return ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}

	return nil
}

// Check validates a bearer token and confirms the account still exists.
func (s *Service) Check(ctx context.Context, token string) (Me, error) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return Me{}, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return Me{}, ErrUnauthorized
		}
		return Me{}, fmt.Errorf("find user: %w", err)
	}

	return Me{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
	}, nil
}

func (s *Service) ValidateToken(token string) (AccessClaims, error) {
	if s.jwt == nil {
		return AccessClaims{}, fmt.Errorf("jwt manager is nil")
	}

	claims, err := s.jwt.Parse(token)
	if err != nil {
		return AccessClaims{}, ErrUnauthorized
	}
	if s.now().After(claims.ExpiresAt) {
		return AccessClaims{}, ErrUnauthorized
	}

	return claims, nil
}

func (s *Service) issueForUser(user model.User) (AuthResult, error) {
	token, expiresAt, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate token: %w", err)
	}

	return AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Me: Me{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			AvatarURL: user.AvatarURL,
		},
	}, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LeXarDev/Server-Monitoring/internal/domain/model"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("email or username already registered")
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// CreateLocal inserts a credential-based user together with its empty profile
// row in one transaction.
func (r *UserRepo) CreateLocal(ctx context.Context, username, email, passwordHash string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || passwordHash == "" {
		return model.User{}, fmt.Errorf("invalid user payload")
	}

	var user model.User
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
INSERT INTO users (username, email, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
RETURNING id, username, email, password_hash, created_at, updated_at
`, username, email, passwordHash).Scan(
			&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
INSERT INTO profiles (user_id, created_at, updated_at)
VALUES ($1, NOW(), NOW())
ON CONFLICT (user_id) DO NOTHING
`, user.ID)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, ErrDuplicateUser
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	var user model.User
	var subject, passwordHash, avatarURL *string
	err := r.pool.QueryRow(ctx, `
SELECT u.id, u.sso_subject, u.username, u.email, u.password_hash, p.avatar_url, u.created_at, u.updated_at
FROM users u
LEFT JOIN profiles p ON p.user_id = u.id
WHERE u.email = $1
`, email).Scan(&user.ID, &subject, &user.Username, &user.Email, &passwordHash, &avatarURL, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}

	if subject != nil {
		user.SSOSubject = *subject
	}
	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	if avatarURL != nil {
		user.AvatarURL = *avatarURL
	}
	return user, nil
}

func (r *UserRepo) FindByID(ctx context.Context, userID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return model.User{}, fmt.Errorf("invalid user id")
	}

	var user model.User
	var subject, passwordHash *string
	var avatarURL *string
	err := r.pool.QueryRow(ctx, `
SELECT u.id, u.sso_subject, u.username, u.email, u.password_hash, p.avatar_url, u.created_at, u.updated_at
FROM users u
LEFT JOIN profiles p ON p.user_id = u.id
WHERE u.id = $1
`, userID).Scan(&user.ID, &subject, &user.Username, &user.Email, &passwordHash, &avatarURL, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}

	if subject != nil {
		user.SSOSubject = *subject
	}
	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	if avatarURL != nil {
		user.AvatarURL = *avatarURL
	}
	return user, nil
}

// UpsertSSO creates or refreshes a user row keyed by the identity provider
// subject. The profile row is created alongside on first sign-in.
func (r *UserRepo) UpsertSSO(ctx context.Context, subject, email, username string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(email) == "" {
		return model.User{}, fmt.Errorf("invalid sso payload")
	}

	var user model.User
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
INSERT INTO users (sso_subject, username, email, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
ON CONFLICT (sso_subject) DO UPDATE SET
	email = EXCLUDED.email,
	updated_at = NOW()
RETURNING id, sso_subject, username, email, created_at, updated_at
`, subject, username, email).Scan(
			&user.ID, &user.SSOSubject, &user.Username, &user.Email, &user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
INSERT INTO profiles (user_id, created_at, updated_at)
VALUES ($1, NOW(), NOW())
ON CONFLICT (user_id) DO NOTHING
`, user.ID)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, ErrDuplicateUser
		}
		return model.User{}, fmt.Errorf("upsert sso user: %w", err)
	}

	return user, nil
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || passwordHash == "" {
		return fmt.Errorf("invalid password payload")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET password_hash = $2, updated_at = NOW()
WHERE id = $1
`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

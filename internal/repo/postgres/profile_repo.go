package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LeXarDev/Server-Monitoring/internal/domain/model"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

// GetOrCreate returns the profile joined with its user row, creating an empty
// profile on first read.
func (r *ProfileRepo) GetOrCreate(ctx context.Context, userID int64) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid user id")
	}

	var profile model.Profile
	err := r.pool.QueryRow(ctx, `
INSERT INTO profiles (user_id, created_at, updated_at)
VALUES ($1, NOW(), NOW())
ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
RETURNING user_id, full_name, bio, phone, location, avatar_url, created_at, updated_at
`, userID).Scan(
		&profile.UserID, &profile.FullName, &profile.Bio, &profile.Phone,
		&profile.Location, &profile.AvatarURL, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get or create profile: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
SELECT username, email FROM users WHERE id = $1
`, userID).Scan(&profile.Username, &profile.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("load profile user: %w", err)
	}

	return profile, nil
}

// Update applies the non-nil fields and leaves the rest untouched.
func (r *ProfileRepo) Update(ctx context.Context, userID int64, fullName, bio, phone, location *string) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid user id")
	}

	var profile model.Profile
	err := r.pool.QueryRow(ctx, `
UPDATE profiles
SET full_name = COALESCE($2, full_name),
	bio = COALESCE($3, bio),
	phone = COALESCE($4, phone),
	location = COALESCE($5, location),
	updated_at = NOW()
WHERE user_id = $1
RETURNING user_id, full_name, bio, phone, location, avatar_url, created_at, updated_at
`, userID, fullName, bio, phone, location).Scan(
		&profile.UserID, &profile.FullName, &profile.Bio, &profile.Phone,
		&profile.Location, &profile.AvatarURL, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("update profile: %w", err)
	}

	return profile, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func (r *ProfileRepo) SetAvatarURL(ctx context.Context, userID int64, avatarURL string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || avatarURL == "" {
		return fmt.Errorf("invalid avatar payload")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE profiles
SET avatar_url = $2, updated_at = NOW()
WHERE user_id = $1
`, userID, avatarURL)
	if err != nil {
		return fmt.Errorf("set avatar url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LeXarDev/Server-Monitoring/internal/domain/model"
)

type LoginHistoryRepo struct {
	pool *pgxpool.Pool
}

func NewLoginHistoryRepo(pool *pgxpool.Pool) *LoginHistoryRepo {
	return &LoginHistoryRepo{pool: pool}
}

func (r *LoginHistoryRepo) Record(ctx context.Context, userID int64, ipAddress, userAgent string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO login_history (user_id, ip_address, user_agent, created_at)
VALUES ($1, $2, $3, NOW())
`, userID, ipAddress, userAgent); err != nil {
		return fmt.Errorf("record login: %w", err)
	}

	return nil
}

func (r *LoginHistoryRepo) ListRecent(ctx context.Context, userID int64, limit int) ([]model.LoginRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, ip_address, user_agent, created_at
FROM login_history
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list login history: %w", err)
	}
	defer rows.Close()

	records := make([]model.LoginRecord, 0, limit)
	for rows.Next() {
		var record model.LoginRecord
		if err := rows.Scan(&record.ID, &record.UserID, &record.IPAddress, &record.UserAgent, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan login row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate login rows: %w", err)
	}

	return records, nil
}

func (r *LoginHistoryRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM login_history
WHERE created_at < $1
`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale login history: %w", err)
	}

	return tag.RowsAffected(), nil
}

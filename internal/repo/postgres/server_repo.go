package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LeXarDev/Server-Monitoring/internal/domain/model"
)

var ErrServerNotFound = errors.New("server not found")

type ServerRepo struct {
	pool *pgxpool.Pool
}

func NewServerRepo(pool *pgxpool.Pool) *ServerRepo {
	return &ServerRepo{pool: pool}
}

func (r *ServerRepo) ListByOwner(ctx context.Context, ownerID int64) ([]model.MonitoredServer, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if ownerID <= 0 {
		return nil, fmt.Errorf("invalid owner id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, name, address, created_at
FROM servers
WHERE user_id = $1
ORDER BY created_at DESC
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	defer rows.Close()

	servers := make([]model.MonitoredServer, 0)
	for rows.Next() {
		var server model.MonitoredServer
		if err := rows.Scan(&server.ID, &server.OwnerID, &server.Name, &server.Address, &server.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan server row: %w", err)
		}
		servers = append(servers, server)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate server rows: %w", err)
	}

	return servers, nil
}

func (r *ServerRepo) Create(ctx context.Context, ownerID int64, name, address string) (model.MonitoredServer, error) {
	if r.pool == nil {
		return model.MonitoredServer{}, fmt.Errorf("postgres pool is nil")
	}
	if ownerID <= 0 || strings.TrimSpace(name) == "" || strings.TrimSpace(address) == "" {
		return model.MonitoredServer{}, fmt.Errorf("invalid server payload")
	}

	var server model.MonitoredServer
	err := r.pool.QueryRow(ctx, `
INSERT INTO servers (user_id, name, address, created_at)
VALUES ($1, $2, $3, NOW())
RETURNING id, user_id, name, address, created_at
`, ownerID, name, address).Scan(&server.ID, &server.OwnerID, &server.Name, &server.Address, &server.CreatedAt)
	if err != nil {
		return model.MonitoredServer{}, fmt.Errorf("create server: %w", err)
	}

	return server, nil
}

// DeleteOwned removes the row only when it belongs to ownerID, so one user can
// never delete another user's endpoint.
func (r *ServerRepo) DeleteOwned(ctx context.Context, ownerID, serverID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if ownerID <= 0 || serverID <= 0 {
		return fmt.Errorf("invalid delete payload")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM servers
WHERE id = $1 AND user_id = $2
`, serverID, ownerID)
	if err != nil {
		return fmt.Errorf("delete server: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrServerNotFound
	}

	return nil
}

package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const ssoStateKeyPrefix = "sso:state:"

// SSOStateRepo tracks states minted for the authorization-code flow. A state
// is single-use: Consume removes it, so a replayed callback finds nothing.
type SSOStateRepo struct {
	client *goredis.Client
}

func NewSSOStateRepo(client *goredis.Client) *SSOStateRepo {
	return &SSOStateRepo{client: client}
}

func (r *SSOStateRepo) Save(ctx context.Context, state string, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if state == "" {
		return fmt.Errorf("state is required")
	}

	if err := r.client.Set(ctx, ssoStateKeyPrefix+state, 1, ttl).Err(); err != nil {
		return fmt.Errorf("save sso state: %w", err)
	}

	return nil
}

func (r *SSOStateRepo) Consume(ctx context.Context, state string) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if state == "" {
		return false, nil
	}

	removed, err := r.client.Del(ctx, ssoStateKeyPrefix+state).Result()
	if err != nil {
		return false, fmt.Errorf("consume sso state: %w", err)
	}

	return removed > 0, nil
}

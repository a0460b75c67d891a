package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/LeXarDev/Server-Monitoring/internal/domain/model"
)

const geoKeyPrefix = "geo:ip:"

// GeoCacheRepo stores lookup results keyed by IP so repeated queries skip the
// external providers.
type GeoCacheRepo struct {
	client *goredis.Client
}

func NewGeoCacheRepo(client *goredis.Client) *GeoCacheRepo {
	return &GeoCacheRepo{client: client}
}

func (r *GeoCacheRepo) Get(ctx context.Context, ip string) (model.GeoLocation, bool, error) {
	if r.client == nil {
		return model.GeoLocation{}, false, fmt.Errorf("redis client is nil")
	}
	if ip == "" {
		return model.GeoLocation{}, false, fmt.Errorf("ip is required")
	}

	raw, err := r.client.Get(ctx, geoKeyPrefix+ip).Bytes()
	if err == goredis.Nil {
		return model.GeoLocation{}, false, nil
	}
	if err != nil {
		return model.GeoLocation{}, false, fmt.Errorf("get cached lookup: %w", err)
	}

	var loc model.GeoLocation
	if err := json.Unmarshal(raw, &loc); err != nil {
		// Corrupt entries behave as a miss so the caller refreshes them.
		return model.GeoLocation{}, false, nil
	}

	return loc, true, nil
}

func (r *GeoCacheRepo) Set(ctx context.Context, ip string, loc model.GeoLocation, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if ip == "" {
		return fmt.Errorf("ip is required")
	}

	raw, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("marshal cached lookup: %w", err)
	}

	if err := r.client.Set(ctx, geoKeyPrefix+ip, raw, ttl).Err(); err != nil {
		return fmt.Errorf("set cached lookup: %w", err)
	}

	return nil
}

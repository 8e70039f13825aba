package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/craftrealm/realm-api/internal/models"
)

// CatalogKey holds the JSON-encoded item list.
const CatalogKey = "craftrealm:catalog:items"

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "store: ping redis")
	}
	return rdb, nil
}

// RedisCatalogCache caches the shop catalog. Items never change once
// created, so entries only go stale when an import adds rows.
type RedisCatalogCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCatalogCache(rdb *redis.Client, ttl time.Duration) *RedisCatalogCache {
	return &RedisCatalogCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached catalog. ok is false on a miss.
func (c *RedisCatalogCache) Get(ctx context.Context) ([]models.Item, bool, error) {
	raw, err := c.rdb.Get(ctx, CatalogKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "store: read catalog cache")
	}
	var items []models.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, errors.Wrap(err, "store: decode catalog cache")
	}
	return items, true, nil
}

func (c *RedisCatalogCache) Set(ctx context.Context, items []models.Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return errors.Wrap(err, "store: encode catalog cache")
	}
	return errors.Wrap(c.rdb.Set(ctx, CatalogKey, raw, c.ttl).Err(), "store: write catalog cache")
}

func (c *RedisCatalogCache) Invalidate(ctx context.Context) error {
	return errors.Wrap(c.rdb.Del(ctx, CatalogKey).Err(), "store: invalidate catalog cache")
}

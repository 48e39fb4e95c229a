package statecache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/config"
)

const keyPrefix = "device:state:"

const defaultTTL = 24 * time.Hour

func key(id string) string { return keyPrefix + id }

// Cache stores one JSON state document per device in Redis.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, cfg config.RedisConfig) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("connecting to redis %s: %w", cfg.Addr, err)
	}
	return NewCache(rdb, cfg.TTL), nil
}

// NewCache wraps an existing client. ttl <= 0 uses 24h.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Set stores a device's state document.
func (c *Cache) Set(ctx context.Context, id string, stateJSON []byte) error {
	return c.rdb.Set(ctx, key(id), stateJSON, c.ttl).Err()
}

// Get returns a device's state document, or nil if there is none.
func (c *Cache) Get(ctx context.Context, id string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}

// Delete removes a device's state document.
func (c *Cache) Delete(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, key(id)).Err()
}

// RemoveAllExcept deletes every device document whose id is not in keepIDs
// and returns the removed ids.
func (c *Cache) RemoveAllExcept(ctx context.Context, keepIDs []string) ([]string, error) {
	keep := make(map[string]struct{}, len(keepIDs))
	for _, id := range keepIDs {
		if id != "" {
			keep[id] = struct{}{}
		}
	}

	iter := c.rdb.Scan(ctx, 0, key("*"), 100).Iterator()
	var removed []string
	for iter.Next(ctx) {
		full := iter.Val()
		id, ok := strings.CutPrefix(full, keyPrefix)
		if !ok {
			continue
		}
		if _, ok := keep[id]; ok {
			continue
		}
		if err := c.rdb.Del(ctx, full).Err(); err != nil {
			return removed, err
		}
		removed = append(removed, id)
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	return removed, nil
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

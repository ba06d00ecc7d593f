package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"estate-notify-go/internal/models"
)

const (
	feedKey = "notifications:feed"

	// Cached feed entries age out on their own; the poller rewrites the key
	// every cycle anyway.
	feedTTL = 10 * time.Minute
)

// RedisCache backs the notification query cache with Redis, so multiple
// console readers see one coherent snapshot between polls.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(opts *redis.Options) *RedisCache {
	return &RedisCache{client: redis.NewClient(opts)}
}

func (c *RedisCache) Get(ctx context.Context) ([]models.Notification, bool, error) {
	val, err := c.client.Get(ctx, feedKey).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read notification cache: %w", err)
	}

	var records []models.Notification
	if err := json.Unmarshal([]byte(val), &records); err != nil {
		// A corrupt entry is treated as a cold cache; the next Set replaces it.
		return nil, false, fmt.Errorf("decode notification cache: %w", err)
	}
	return records, true, nil
}

func (c *RedisCache) Set(ctx context.Context, records []models.Notification) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode notification cache: %w", err)
	}
	return c.client.Set(ctx, feedKey, data, feedTTL).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, feedKey).Err()
}

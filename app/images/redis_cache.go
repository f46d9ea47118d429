package images

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a shared query-cache backend for deployments running more
// than one instance against the same provider quota. Entries are stored
// without a TTL; expiry is left to external Redis policy.
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisCache(addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis query cache", "addr", addr)

	return &RedisCache{
		client: client,
		ctx:    ctx,
	}, nil
}

func (c *RedisCache) Get(query string) ([]Image, error) {
	val, err := c.client.Get(c.ctx, c.key(query)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached query: %w", err)
	}

	var results []Image
	if err := json.Unmarshal([]byte(val), &results); err != nil {
		return nil, fmt.Errorf("failed to parse cached query: %w", err)
	}
	return results, nil
}

func (c *RedisCache) Set(query string, results []Image) error {
	if len(results) == 0 {
		return nil
	}

	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := c.client.Set(c.ctx, c.key(query), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store cached query: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) key(query string) string {
	return "images:query:" + NormalizeQuery(query)
}

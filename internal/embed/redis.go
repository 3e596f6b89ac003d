package embed

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/docpipe/docpipe/internal/config"
)

// RedisCache is an optional shared cache tier in front of the disk
// cache. Failures degrade to a miss; the pipeline never depends on
// Redis being up.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache connects to the configured Redis instance.
func NewRedisCache(cfg config.RedisConfig, ttlDays int, logger *slog.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})
	return &RedisCache{
		client: client,
		ttl:    time.Duration(ttlDays) * 24 * time.Hour,
		logger: logger.With("component", "embed-cache"),
	}
}

// Get returns the cached vector or a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.client.Get(ctx, "embedding:"+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("redis get failed", "error", err)
		}
		return nil, false
	}
	var vector []float32
	if err := json.Unmarshal(data, &vector); err != nil {
		return nil, false
	}
	return vector, true
}

// Put stores one vector with the cache TTL.
func (c *RedisCache) Put(ctx context.Context, key string, vector []float32) {
	data, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, "embedding:"+key, data, c.ttl).Err(); err != nil {
		c.logger.Debug("redis set failed", "error", err)
	}
}

// Close releases the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

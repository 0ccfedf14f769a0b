// Package cache provides a best-effort Redis cache for completed analysis
// results. The durable store stays the source of truth: any cache miss or
// error falls back to a database read.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/findoc-ai/analyzer-be/internal/api/domain"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 1 * time.Hour

// ResultCache caches the results of terminal jobs
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a ResultCache from a Redis URL
func New(redisURL string, ttl time.Duration) (*ResultCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &ResultCache{
		client: redis.NewClient(opts),
		ttl:    ttl,
	}, nil
}

// Ping checks Redis connectivity
func (c *ResultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetResult returns a cached result, reporting whether one was found.
// Errors are treated as misses.
func (c *ResultCache) GetResult(ctx context.Context, jobID string) (*domain.Result, bool) {
	raw, err := c.client.Get(ctx, ResultKey(jobID)).Bytes()
	if err != nil {
		return nil, false
	}

	var res domain.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, false
	}

	return &res, true
}

// SetResult stores a result with the configured TTL, best effort
func (c *ResultCache) SetResult(ctx context.Context, jobID string, res *domain.Result) {
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	c.client.Set(ctx, ResultKey(jobID), raw, c.ttl)
}

// Delete drops a cached result, best effort
func (c *ResultCache) Delete(ctx context.Context, jobID string) {
	c.client.Del(ctx, ResultKey(jobID))
}

// Close releases the Redis connection
func (c *ResultCache) Close() error {
	return c.client.Close()
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheHelper provides common caching operations for repositories
type CacheHelper struct {
	client *redis.Client
	prefix string
}

// NewCacheHelper creates a new cache helper instance
func NewCacheHelper(client *redis.Client, prefix string) *CacheHelper {
	return &CacheHelper{
		client: client,
		prefix: prefix,
	}
}

// CacheConfig defines cache configuration for different data types
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

var (
	// Published catalog entries, read far more often than written
	CourseCacheConfig = CacheConfig{
		TTL:    10 * time.Minute,
		Prefix: "course:",
	}

	// Token email -> local account lookups done by the auth middleware
	AccountCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "account:",
	}
)

// GetCacheKey generates a cache key with prefix
func (c *CacheHelper) GetCacheKey(key string) string {
	return c.prefix + key
}

// Get retrieves and unmarshals data from cache
func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.getRaw(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache unmarshal %s: %w", key, err)
	}
	return nil
}

func (c *CacheHelper) getRaw(ctx context.Context, key string) ([]byte, error) {
	if c.client == nil {
		return nil, ErrCacheNotAvailable
	}
	raw, err := c.client.Get(ctx, c.GetCacheKey(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrCacheNotFound
	case err != nil:
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	return raw, nil
}

// Set marshals and stores data in cache. Without a client it is a no-op.
func (c *CacheHelper) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	return c.client.Set(ctx, c.GetCacheKey(key), raw, ttl).Err()
}

// Delete removes the given keys in a single round trip
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, key := range keys {
		full = append(full, c.GetCacheKey(key))
	}
	return c.client.Del(ctx, full...).Err()
}

// InvalidatePattern removes every key under the prefix matching pattern.
// Keys are walked with SCAN and unlinked in batches.
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}

	const batchSize = 100
	batch := make([]string, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := c.client.Unlink(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}

	iter := c.client.Scan(ctx, 0, c.GetCacheKey(pattern), batchSize).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return fmt.Errorf("cache unlink: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		slog.ErrorContext(ctx, "Cache scan failed", "error", err, "pattern", pattern)
		return fmt.Errorf("cache scan %s: %w", pattern, err)
	}
	if err := flush(); err != nil {
		return fmt.Errorf("cache unlink: %w", err)
	}
	return nil
}

// CacheOrExecute implements cache-aside: a hit fills dest, a miss runs fetchFunc and stores the result.
// Redis failures degrade to calling fetchFunc.
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetchFunc func() (interface{}, error)) error {
	raw, err := c.getRaw(ctx, key)
	if err == nil {
		if err = json.Unmarshal(raw, dest); err == nil {
			return nil
		}
	}
	if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		slog.WarnContext(ctx, "Cache read failed, fetching", "error", err, "key", c.GetCacheKey(key))
	}

	value, err := fetchFunc()
	if err != nil {
		return err
	}

	raw, err = json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	if c.client != nil {
		if err := c.client.Set(ctx, c.GetCacheKey(key), raw, ttl).Err(); err != nil {
			slog.ErrorContext(ctx, "Cache write failed", "error", err, "key", c.GetCacheKey(key))
		}
	}
	return json.Unmarshal(raw, dest)
}

// Cache errors
var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
)

// CacheManager manages multiple cache helpers
type CacheManager struct {
	client *redis.Client

	Course  *CacheHelper
	Account *CacheHelper
}

// NewCacheManager creates cache manager with all cache helpers. A nil client yields no-op helpers.
func NewCacheManager(client *redis.Client) *CacheManager {
	return &CacheManager{
		client:  client,
		Course:  NewCacheHelper(client, CourseCacheConfig.Prefix),
		Account: NewCacheHelper(client, AccountCacheConfig.Prefix),
	}
}

// Enabled reports whether a redis client is attached
func (cm *CacheManager) Enabled() bool {
	return cm != nil && cm.client != nil
}

// HealthCheck verifies cache connectivity
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if !cm.Enabled() {
		return ErrCacheNotAvailable
	}

	if _, err := cm.client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}

	return nil
}

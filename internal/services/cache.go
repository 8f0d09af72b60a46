package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AnshRaj112/serenify-journal/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "cache:"
	// DefaultCacheTTL applies when a caller passes a non-positive TTL
	DefaultCacheTTL = 10 * time.Minute

	cacheOpTimeout = 2 * time.Second
	clearScanCount = 500
)

// ErrCorruptCacheData means a cached payload exists but cannot be decoded.
// It points at a versioning or backend bug and must not be treated as a miss.
var ErrCorruptCacheData = errors.New("corrupt cache data")

// CacheService is a best-effort JSON cache on top of Redis.
// A nil client turns every call into a miss/no-op.
type CacheService struct {
	client  *redis.Client
	metrics *metrics.CacheMetrics
}

func NewCacheService(client *redis.Client, m *metrics.CacheMetrics) *CacheService {
	return &CacheService{client: client, metrics: m}
}

// Get decodes the value stored under key into dest. A miss, or an unreachable
// backend, returns (false, nil).
func (c *CacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	val, err := c.client.Get(ctx, CacheKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache get failed, treating as miss", "key", key, "error", err)
		}
		c.miss()
		return false, nil
	}

	if err := json.Unmarshal(val, dest); err != nil {
		if c.metrics != nil {
			c.metrics.Corrupt.Inc()
		}
		slog.Error("cached payload could not be decoded", "key", key, "error", err)
		return false, fmt.Errorf("%w for %s: %v", ErrCorruptCacheData, key, err)
	}

	if c.metrics != nil {
		c.metrics.Hits.Inc()
	}
	return true, nil
}

// Set stores value under key for ttl. Failures are logged and swallowed.
func (c *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		slog.Error("cache set: marshal failed", "key", key, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	if err := c.client.Set(ctx, CacheKeyPrefix+key, data, ttl).Err(); err != nil {
		slog.Error("cache set failed", "key", key, "error", err)
	}
}

// Delete removes key. Failures are logged and swallowed.
func (c *CacheService) Delete(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	if err := c.client.Del(ctx, CacheKeyPrefix+key).Err(); err != nil {
		slog.Warn("cache delete failed", "key", key, "error", err)
	}
}

// Clear drops every key under CacheKeyPrefix. Sessions and other Redis
// namespaces are left alone.
func (c *CacheService) Clear(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, CacheKeyPrefix+"*", clearScanCount).Result()
		if err != nil {
			return fmt.Errorf("scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete cache keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *CacheService) miss() {
	if c.metrics != nil {
		c.metrics.Misses.Inc()
	}
}

// CacheKey generates a cache key for a specific resource
func CacheKey(resource string, identifier string) string {
	return fmt.Sprintf("%s:%s", resource, identifier)
}

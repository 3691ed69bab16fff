// Package cache provides a two-tier byte cache: an in-process Ristretto L1
// backed by an optional shared Redis L2.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// L1Cache provides a two-tier caching system:
// - L1: In-memory Ristretto cache (microsecond latency)
// - L2: Redis cache (millisecond latency, shared across instances)
type L1Cache struct {
	l1        *ristretto.Cache[string, []byte]
	l2        *redis.Client
	ttl       time.Duration
	l1MaxCost int64
	prefix    string
	logger    *zap.Logger
	metrics   Metrics
	metricsMu sync.Mutex
}

// Metrics tracks cache performance
type Metrics struct {
	L1Hits   int64
	L1Misses int64
	L2Hits   int64
	L2Misses int64
}

// NewL1Cache creates a new two-tier cache.
// l1MaxCost bounds L1 by total value bytes (default 1MB); ttl defaults to 5 minutes.
// redisClient may be nil, in which case only L1 is used.
func NewL1Cache(l1MaxCost int64, ttl time.Duration, prefix string, redisClient *redis.Client, logger *zap.Logger) (*L1Cache, error) {
	if l1MaxCost == 0 {
		l1MaxCost = 1 << 20
	}
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: l1MaxCost / 10,
		MaxCost:     l1MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}

	return &L1Cache{
		l1:        cache,
		l2:        redisClient,
		ttl:       ttl,
		l1MaxCost: l1MaxCost,
		prefix:    prefix,
		logger:    logger.Named("l1cache"),
	}, nil
}

func (c *L1Cache) key(k string) string {
	return c.prefix + k
}

// Get retrieves a value from L1, falling back to L2 if needed
func (c *L1Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	key = c.key(key)

	val, found := c.l1.Get(key)
	if found {
		c.record(func(m *Metrics) { m.L1Hits++ })
		return val, true
	}
	c.record(func(m *Metrics) { m.L1Misses++ })

	if c.l2 == nil {
		return nil, false
	}

	data, err := c.l2.Get(ctx, key).Bytes()
	if err != nil || len(data) == 0 {
		if err != nil && err != redis.Nil {
			c.logger.Warn("L2 cache read failed", zap.String("key", key), zap.Error(err))
		}
		c.record(func(m *Metrics) { m.L2Misses++ })
		return nil, false
	}

	c.record(func(m *Metrics) { m.L2Hits++ })
	// Promote to L1
	c.l1.SetWithTTL(key, data, int64(len(data)), c.ttl)
	return data, true
}

// Set stores a value in both tiers. L2 write failures are logged, not returned.
func (c *L1Cache) Set(ctx context.Context, key string, data []byte) {
	key = c.key(key)
	c.l1.SetWithTTL(key, data, int64(len(data)), c.ttl)

	if c.l2 != nil {
		if err := c.l2.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("Failed to set L2 cache", zap.String("key", key), zap.Error(err))
		}
	}
}

// Delete removes a value from both tiers
func (c *L1Cache) Delete(ctx context.Context, key string) error {
	key = c.key(key)
	c.l1.Del(key)

	if c.l2 != nil {
		if err := c.l2.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("L2 delete failed: %w", err)
		}
	}
	return nil
}

// Wait blocks until buffered L1 writes are applied
func (c *L1Cache) Wait() {
	c.l1.Wait()
}

// Stats returns cache statistics
func (c *L1Cache) Stats() Metrics {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()
	return c.metrics
}

func (c *L1Cache) record(fn func(*Metrics)) {
	c.metricsMu.Lock()
	fn(&c.metrics)
	c.metricsMu.Unlock()
}

// Close releases L1 resources. The Redis client is owned by the caller.
func (c *L1Cache) Close() error {
	c.l1.Close()
	return nil
}

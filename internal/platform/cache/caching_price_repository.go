// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stockwatch/internal/feature/prices/domain/entity"
	"stockwatch/internal/feature/prices/usecase"
)

const dateKeyFormat = "2006-01-02"

// CachingPriceRepository decorates a PriceRepository with Redis caching
// of range queries. It implements the decorator pattern, transparently
// adding caching without modifying the underlying repository.
type CachingPriceRepository struct {
	inner     usecase.PriceRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.PriceRepository = (*CachingPriceRepository)(nil)

// NewCachingPriceRepository decorates a PriceRepository with Redis
// caching. If ttl is 0, it defaults to 5 minutes. If namespace is
// empty, it uses "prices".
func NewCachingPriceRepository(rdb *redis.Client, ttl time.Duration, inner usecase.PriceRepository, namespace string) *CachingPriceRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "prices"
	}
	return &CachingPriceRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// UpsertBatch writes through to the underlying repository and
// invalidates the cached ranges of every touched symbol.
func (c *CachingPriceRepository) UpsertBatch(ctx context.Context, prices []entity.StoredPrice) error {
	if err := c.inner.UpsertBatch(ctx, prices); err != nil {
		return err
	}
	if c.rdb == nil || len(prices) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	for _, p := range prices {
		prefix := c.cacheKeyPrefix(p.Symbol)
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		_ = c.deleteByPattern(ctx, prefix+"*") // Best effort: don't fail if cache deletion fails
	}
	return nil
}

// FindRange retrieves prices, checking cache first then falling back to
// the database.
func (c *CachingPriceRepository) FindRange(ctx context.Context, symbol string, from, to time.Time) ([]entity.StoredPrice, error) {
	if c.rdb == nil {
		return c.inner.FindRange(ctx, symbol, from, to)
	}

	key := c.cacheKey(symbol, from, to)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.StoredPrice
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.FindRange(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// LatestDate always reads from the underlying repository. Staleness
// monitoring depends on this value being live, so it is never cached.
func (c *CachingPriceRepository) LatestDate(ctx context.Context, symbol string) (*time.Time, error) {
	return c.inner.LatestDate(ctx, symbol)
}

// DistinctSymbols always reads from the underlying repository.
func (c *CachingPriceRepository) DistinctSymbols(ctx context.Context) ([]string, error) {
	return c.inner.DistinctSymbols(ctx)
}

// cacheKey generates a cache key for a specific range query.
func (c *CachingPriceRepository) cacheKey(symbol string, from, to time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s",
		c.namespace,
		safe(symbol),
		from.UTC().Format(dateKeyFormat),
		to.UTC().Format(dateKeyFormat),
	)
}

// cacheKeyPrefix generates a prefix for invalidating a symbol's cached
// ranges.
func (c *CachingPriceRepository) cacheKeyPrefix(symbol string) string {
	return fmt.Sprintf("%s:%s:", c.namespace, safe(symbol))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingPriceRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}

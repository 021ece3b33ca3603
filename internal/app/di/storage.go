package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	pricesadapters "stockwatch/internal/feature/prices/adapters"
	pricesusecase "stockwatch/internal/feature/prices/usecase"
	"stockwatch/internal/platform/cache"
)

// NewPriceStore creates the price repository.
// If Redis is available, range reads go through the caching decorator.
// Otherwise it falls back to hitting the database directly.
func NewPriceStore(db *gorm.DB, rdb *redis.Client, ttl time.Duration) pricesusecase.PriceRepository {
	repo := pricesadapters.NewPriceRepository(db)
	if rdb != nil {
		return cache.NewCachingPriceRepository(rdb, ttl, repo, "prices")
	}
	return repo
}

// Package usecase implements the business logic of the prices feature:
// storage-aware fetching, batch updates and point lookups.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"stockwatch/internal/feature/prices/domain/entity"
)

const (
	// DefaultLookbackDays bounds the backward scan of GetPriceOnDate.
	DefaultLookbackDays = 5

	// coverageToleranceDays is how far a stored endpoint may sit inside
	// the requested range while the range still counts as covered.
	// Five calendar days absorb weekends plus holiday clusters.
	coverageToleranceDays = 5
)

// PriceFetcher is the retry-wrapped fetch path over the provider chain.
// Following Go convention, interfaces are defined by the consumer.
type PriceFetcher interface {
	FetchPrices(ctx context.Context, symbol string, start, end time.Time) ([]entity.PriceRecord, error)
}

// PriceRepository abstracts price storage.
type PriceRepository interface {
	// UpsertBatch writes all rows in one transaction, inserting or
	// updating by (symbol, date).
	UpsertBatch(ctx context.Context, prices []entity.StoredPrice) error
	// FindRange returns stored rows for symbol in [from, to], ascending by date.
	FindRange(ctx context.Context, symbol string, from, to time.Time) ([]entity.StoredPrice, error)
	// LatestDate returns the newest stored date for symbol, nil when no rows exist.
	LatestDate(ctx context.Context, symbol string) (*time.Time, error)
	// DistinctSymbols lists every symbol with at least one stored row.
	DistinctSymbols(ctx context.Context) ([]string, error)
}

// MarketDataUsecase orchestrates the storage-first fetch flow: check
// stored coverage, fetch through the retrying chain only when needed,
// persist transactionally.
type MarketDataUsecase struct {
	fetcher PriceFetcher
	prices  PriceRepository
	now     func() time.Time
}

// NewMarketDataUsecase creates a MarketDataUsecase.
func NewMarketDataUsecase(fetcher PriceFetcher, prices PriceRepository) *MarketDataUsecase {
	return &MarketDataUsecase{fetcher: fetcher, prices: prices, now: time.Now}
}

// FetchPriceHistory returns price rows for symbol in [start, end].
// Unless forceRefresh is set, stored rows that already cover the range
// are returned without contacting any provider. Otherwise the whole
// range is refetched through the retrying chain and upserted in one
// transaction; the (symbol, date) key makes overlap idempotent. An
// exhausted chain surfaces here as an empty result, never an error.
func (mu *MarketDataUsecase) FetchPriceHistory(ctx context.Context, symbol string, start, end time.Time, forceRefresh bool) ([]entity.StoredPrice, error) {
	start = entity.NormalizeDate(start)
	end = entity.NormalizeDate(end)

	if !forceRefresh {
		existing, err := mu.prices.FindRange(ctx, symbol, start, end)
		if err != nil {
			return nil, &StorageError{Op: "find range", Err: err}
		}
		if coversRange(existing, start, end) {
			slog.Info("range already stored, skipping fetch", "symbol", symbol, "rows", len(existing))
			return existing, nil
		}
	}

	records, err := mu.fetcher.FetchPrices(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []entity.StoredPrice{}, nil
	}

	observed := mu.now()
	stored := make([]entity.StoredPrice, len(records))
	for i, r := range records {
		stored[i] = entity.StoredPrice{PriceRecord: r, ObservedAt: observed}
	}
	if err := mu.prices.UpsertBatch(ctx, stored); err != nil {
		return nil, &StorageError{Op: "upsert batch", Err: err}
	}
	slog.Info("stored price history", "symbol", symbol, "rows", len(stored), "source", records[0].Source)
	return stored, nil
}

// coversRange reports whether rows span both endpoints of [start, end]
// within coverageToleranceDays. A 90-day request backed by a single
// stored day must refetch; rows starting on a Monday when the range
// starts on a Saturday must not.
func coversRange(rows []entity.StoredPrice, start, end time.Time) bool {
	if len(rows) == 0 {
		return false
	}
	first := rows[0].Date
	last := rows[len(rows)-1].Date
	return !first.After(start.AddDate(0, 0, coverageToleranceDays)) &&
		!last.Before(end.AddDate(0, 0, -coverageToleranceDays))
}

// UpdateForSymbols refreshes each symbol strictly sequentially and
// returns the row count obtained per symbol. One symbol failing never
// aborts the rest; its count stays zero. Partial success is the normal
// outcome, so there is no error return. Sequential iteration is what
// keeps quota-limited fallback providers inside their caps.
func (mu *MarketDataUsecase) UpdateForSymbols(ctx context.Context, symbols []string, start, end time.Time, forceRefresh bool) map[string]int {
	counts := make(map[string]int, len(symbols))
	for _, s := range symbols {
		counts[s] = 0
	}
	for _, s := range symbols {
		if err := ctx.Err(); err != nil {
			slog.Info("update canceled, skipping remaining symbols", "error", err)
			break
		}
		rows, err := mu.FetchPriceHistory(ctx, s, start, end, forceRefresh)
		if err != nil {
			slog.Error("failed to update symbol", "symbol", s, "error", err)
			continue
		}
		counts[s] = len(rows)
	}
	return counts
}

// GetPriceOnDate returns the stored price for symbol on date, scanning
// backward over market-closed days up to lookbackDays. ErrPriceNotFound
// once the window is exhausted. lookbackDays <= 0 uses the default.
func (mu *MarketDataUsecase) GetPriceOnDate(ctx context.Context, symbol string, date time.Time, lookbackDays int) (*entity.StoredPrice, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	day := entity.NormalizeDate(date)
	rows, err := mu.prices.FindRange(ctx, symbol, day.AddDate(0, 0, -lookbackDays), day)
	if err != nil {
		return nil, &StorageError{Op: "find range", Err: err}
	}
	if len(rows) == 0 {
		return nil, ErrPriceNotFound
	}
	// Rows come back ascending; the newest one at or before date wins.
	latest := rows[len(rows)-1]
	return &latest, nil
}

// History returns stored rows only. It exists for read surfaces that
// must never generate provider traffic.
func (mu *MarketDataUsecase) History(ctx context.Context, symbol string, start, end time.Time) ([]entity.StoredPrice, error) {
	rows, err := mu.prices.FindRange(ctx, symbol, entity.NormalizeDate(start), entity.NormalizeDate(end))
	if err != nil {
		return nil, &StorageError{Op: "find range", Err: err}
	}
	return rows, nil
}

package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stockwatch/internal/feature/prices/domain/entity"
)

// Fetcher is one whole-chain fetch attempt as the Retryer drives it.
type Fetcher interface {
	FetchWithFallback(ctx context.Context, symbol string, start, end time.Time) ([]entity.PriceRecord, error)
}

// AlertSender delivers operator-facing infrastructure alerts. The bool
// reports whether the alert actually went out on a channel.
type AlertSender interface {
	SendInfraAlert(ctx context.Context, title, body string) (bool, error)
}

// RetryConfig controls the exponential backoff schedule.
type RetryConfig struct {
	MaxRetries int           // additional attempts after the first, so total = MaxRetries+1
	BaseDelay  time.Duration // wait before the first retry
	Multiplier float64       // growth factor applied to each subsequent wait
}

// DefaultRetryConfig returns the schedule used when nothing is
// configured: 4 total attempts with waits of 2s, 4s and 8s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, BaseDelay: 2 * time.Second, Multiplier: 2}
}

// Retryer re-runs the whole fallback chain with exponential backoff.
// The unit of retry is one complete pass over the chain, not a single
// provider. Retryer is the subsystem's failure boundary: once the
// schedule is exhausted it alerts once and returns an empty result with
// a nil error, so batch callers keep going instead of crashing.
type Retryer struct {
	fetcher Fetcher
	cfg     RetryConfig
	alerts  AlertSender

	// sleep waits for d or until ctx is done. Replaced in tests to
	// verify the schedule without real waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryer wraps fetcher with the given schedule. Out-of-range config
// values fall back to the defaults. alerts may be nil, in which case
// exhaustion is only logged.
func NewRetryer(fetcher Fetcher, cfg RetryConfig, alerts AlertSender) *Retryer {
	def := DefaultRetryConfig()
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = def.Multiplier
	}
	return &Retryer{
		fetcher: fetcher,
		cfg:     cfg,
		alerts:  alerts,
		sleep:   sleepContext,
	}
}

// FetchPrices runs the chain up to MaxRetries+1 times, waiting
// BaseDelay*Multiplier^(i-1) before retry i. On the first success the
// records are returned untouched. After exhaustion it sends exactly one
// alert and returns an empty result with a nil error. Context
// cancellation during a wait ends the episode quietly without alerting.
func (r *Retryer) FetchPrices(ctx context.Context, symbol string, start, end time.Time) ([]entity.PriceRecord, error) {
	total := r.cfg.MaxRetries + 1
	delay := r.cfg.BaseDelay

	var lastErr error
	for attempt := 1; attempt <= total; attempt++ {
		if attempt > 1 {
			slog.Warn("retrying price fetch",
				"symbol", symbol, "attempt", attempt, "of", total, "wait", delay)
			if err := r.sleep(ctx, delay); err != nil {
				slog.Info("price fetch canceled during backoff", "symbol", symbol, "error", err)
				return nil, nil
			}
			delay = time.Duration(float64(delay) * r.cfg.Multiplier)
		}

		records, err := r.fetcher.FetchWithFallback(ctx, symbol, start, end)
		if err == nil {
			return records, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			slog.Info("price fetch canceled", "symbol", symbol, "error", ctx.Err())
			return nil, nil
		}
	}

	slog.Error("price fetch exhausted all retries",
		"symbol", symbol, "attempts", total, "error", lastErr)
	r.alertExhausted(ctx, symbol, total, start, end, lastErr)
	return nil, nil
}

func (r *Retryer) alertExhausted(ctx context.Context, symbol string, attempts int, start, end time.Time, cause error) {
	if r.alerts == nil {
		return
	}
	title := "price fetch failed: " + symbol
	body := fmt.Sprintf("giving up after %d attempts for %s (%s to %s): %v",
		attempts, symbol, start.Format("2006-01-02"), end.Format("2006-01-02"), cause)
	if _, err := r.alerts.SendInfraAlert(ctx, title, body); err != nil {
		slog.Warn("failed to send fetch-failure alert", "symbol", symbol, "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

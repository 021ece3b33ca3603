// Package usecase implements the health-check logic: canary probes per
// provider and staleness checks per symbol, aggregated into one report
// with at most one alert per unhealthy run.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stockwatch/internal/feature/health/domain/entity"
	"stockwatch/internal/feature/prices/provider"
)

const (
	// DefaultProbeSymbol is the liquid reference symbol probes fetch.
	DefaultProbeSymbol = "AAPL"
	// DefaultProbeLookbackDays bounds the probe window.
	DefaultProbeLookbackDays = 7
	// DefaultThresholdHours is the staleness threshold when none is
	// configured.
	DefaultThresholdHours = 48
)

// FreshnessStore is the slice of price storage the health checks need.
type FreshnessStore interface {
	// LatestDate returns the newest stored date for symbol, nil when no rows exist.
	LatestDate(ctx context.Context, symbol string) (*time.Time, error)
	// DistinctSymbols lists every symbol with at least one stored row.
	DistinctSymbols(ctx context.Context) ([]string, error)
}

// AlertSender delivers operator-facing infrastructure alerts.
type AlertSender interface {
	SendInfraAlert(ctx context.Context, title, body string) (bool, error)
}

// Config holds the health-check settings.
type Config struct {
	ProbeSymbol       string   // canary symbol, DefaultProbeSymbol when empty
	ProbeLookbackDays int      // probe window length, DefaultProbeLookbackDays when <= 0
	ThresholdHours    int      // staleness threshold, DefaultThresholdHours when <= 0
	Symbols           []string // symbols checked for freshness when the caller names none
}

// RunOptions select which checks a RunHealthCheck call performs.
type RunOptions struct {
	SkipProviders  bool
	SkipFreshness  bool
	Symbols        []string // overrides Config.Symbols
	AlertOnFailure bool
}

// HealthUsecase runs canary probes and freshness checks. Probes go
// straight at individual providers, bypassing the fallback chain and
// retry schedule, so one degraded source cannot hide behind another.
type HealthUsecase struct {
	providers []provider.Provider
	store     FreshnessStore
	alerts    AlertSender
	cfg       Config
	now       func() time.Time
}

// NewHealthUsecase creates a HealthUsecase over the configured provider
// list. alerts may be nil, disabling alert dispatch.
func NewHealthUsecase(providers []provider.Provider, store FreshnessStore, alerts AlertSender, cfg Config) *HealthUsecase {
	if cfg.ProbeSymbol == "" {
		cfg.ProbeSymbol = DefaultProbeSymbol
	}
	if cfg.ProbeLookbackDays <= 0 {
		cfg.ProbeLookbackDays = DefaultProbeLookbackDays
	}
	if cfg.ThresholdHours <= 0 {
		cfg.ThresholdHours = DefaultThresholdHours
	}
	return &HealthUsecase{
		providers: providers,
		store:     store,
		alerts:    alerts,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CheckProviderHealth probes the named provider with one bounded fetch
// of the reference symbol. Unknown and unconfigured providers are
// reported without any fetch.
func (hu *HealthUsecase) CheckProviderHealth(ctx context.Context, name string) entity.ProviderHealth {
	p := hu.findProvider(name)
	if p == nil {
		return entity.ProviderHealth{Name: name, Error: "unknown provider"}
	}
	if !p.Available() {
		return entity.ProviderHealth{Name: name}
	}

	end := hu.now()
	start := end.AddDate(0, 0, -hu.cfg.ProbeLookbackDays)

	began := time.Now()
	records, err := p.FetchPrices(ctx, hu.cfg.ProbeSymbol, start, end)
	elapsed := time.Since(began)

	status := entity.ProviderHealth{
		Name:         name,
		Available:    true,
		ResponseTime: elapsed,
		Records:      len(records),
	}
	switch {
	case err != nil:
		status.Error = err.Error()
	case len(records) == 0:
		// A canary symbol with no rows over a week of trading days
		// means the source is answering but not usable.
		status.Error = fmt.Sprintf("no data returned for probe symbol %s", hu.cfg.ProbeSymbol)
	default:
		status.CanFetch = true
	}
	return status
}

func (hu *HealthUsecase) findProvider(name string) provider.Provider {
	for _, p := range hu.providers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// CheckDataFreshness computes how stale each symbol's stored history
// is. With no symbols given, every stored symbol is checked. A symbol
// is stale when whole days since its latest row exceed
// max(thresholdHours/24, 1); zero stored rows is always stale.
func (hu *HealthUsecase) CheckDataFreshness(ctx context.Context, symbols []string, thresholdHours int) ([]entity.SymbolFreshness, error) {
	if thresholdHours <= 0 {
		thresholdHours = hu.cfg.ThresholdHours
	}
	if len(symbols) == 0 {
		var err error
		symbols, err = hu.store.DistinctSymbols(ctx)
		if err != nil {
			return nil, fmt.Errorf("list stored symbols: %w", err)
		}
	}

	allowedDays := thresholdHours / 24
	if allowedDays < 1 {
		allowedDays = 1
	}

	out := make([]entity.SymbolFreshness, 0, len(symbols))
	for _, s := range symbols {
		latest, err := hu.store.LatestDate(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("latest date for %s: %w", s, err)
		}
		fs := entity.SymbolFreshness{Symbol: s, ThresholdHours: thresholdHours}
		if latest == nil {
			fs.DaysStale = -1
			fs.IsStale = true
		} else {
			fs.LatestDate = latest
			fs.DaysStale = int(hu.now().Sub(*latest).Hours() / 24)
			fs.IsStale = fs.DaysStale > allowedDays
		}
		out = append(out, fs)
	}
	return out, nil
}

// RunHealthCheck aggregates provider probes and freshness checks into
// one report. The report is unhealthy iff an available provider cannot
// fetch or a checked symbol is stale; unconfigured providers are noted
// but are not failures. On an unhealthy run with AlertOnFailure set,
// exactly one alert describes every issue together.
func (hu *HealthUsecase) RunHealthCheck(ctx context.Context, opts RunOptions) (*entity.Report, error) {
	report := &entity.Report{CheckedAt: hu.now()}
	var issues []string

	if !opts.SkipProviders {
		for _, p := range hu.providers {
			status := hu.CheckProviderHealth(ctx, p.Name())
			report.Providers = append(report.Providers, status)
			if status.Available && !status.CanFetch {
				issues = append(issues, fmt.Sprintf("provider %s cannot fetch: %s", status.Name, status.Error))
			}
		}
	}

	if !opts.SkipFreshness {
		symbols := opts.Symbols
		if len(symbols) == 0 {
			symbols = hu.cfg.Symbols
		}
		freshness, err := hu.CheckDataFreshness(ctx, symbols, hu.cfg.ThresholdHours)
		if err != nil {
			return nil, err
		}
		report.Freshness = freshness
		for _, fs := range freshness {
			if !fs.IsStale {
				continue
			}
			if fs.LatestDate == nil {
				issues = append(issues, fmt.Sprintf("symbol %s has no stored data", fs.Symbol))
			} else {
				issues = append(issues, fmt.Sprintf("symbol %s is stale: %d days since %s",
					fs.Symbol, fs.DaysStale, fs.LatestDate.Format("2006-01-02")))
			}
		}
	}

	report.OverallHealthy = len(issues) == 0
	if report.OverallHealthy {
		report.Summary = fmt.Sprintf("healthy: %d providers checked, %d symbols fresh",
			len(report.Providers), len(report.Freshness))
	} else {
		report.Summary = "unhealthy: " + strings.Join(issues, "; ")
		slog.Warn("health check found issues", "count", len(issues))
		if opts.AlertOnFailure {
			hu.alertUnhealthy(ctx, report.Summary)
		}
	}
	return report, nil
}

func (hu *HealthUsecase) alertUnhealthy(ctx context.Context, summary string) {
	if hu.alerts == nil {
		return
	}
	if _, err := hu.alerts.SendInfraAlert(ctx, "market data health check failed", summary); err != nil {
		slog.Warn("failed to send health alert", "error", err)
	}
}

package di

import (
	"stockwatch/internal/config"
	healthusecase "stockwatch/internal/feature/health/usecase"
	"stockwatch/internal/feature/prices/provider"
	pricesusecase "stockwatch/internal/feature/prices/usecase"
)

// NewMarketData assembles the full fetch pipeline: provider chain,
// retry wrapper and the storage-first usecase on top.
func NewMarketData(cfg *config.Config, prices pricesusecase.PriceRepository, alerts provider.AlertSender) (*pricesusecase.MarketDataUsecase, error) {
	chain, err := NewProviderChain(cfg.Providers)
	if err != nil {
		return nil, err
	}
	retryer := NewRetryer(chain, cfg.Retry, alerts)
	return pricesusecase.NewMarketDataUsecase(retryer, prices), nil
}

// NewHealth assembles the health usecase over the same provider set the
// fetch pipeline uses. Probes address providers individually, so the
// chain only contributes its configured list here.
func NewHealth(cfg *config.Config, store healthusecase.FreshnessStore, alerts healthusecase.AlertSender) (*healthusecase.HealthUsecase, error) {
	chain, err := NewProviderChain(cfg.Providers)
	if err != nil {
		return nil, err
	}
	return healthusecase.NewHealthUsecase(chain.Configured(), store, alerts, healthusecase.Config{
		ProbeSymbol:       cfg.Health.ProbeSymbol,
		ProbeLookbackDays: cfg.Health.ProbeLookbackDays,
		ThresholdHours:    cfg.Health.StalenessThresholdHours,
		Symbols:           cfg.Health.Symbols,
	}), nil
}

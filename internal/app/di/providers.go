// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"

	"stockwatch/internal/config"
	"stockwatch/internal/feature/prices/provider"
	"stockwatch/internal/feature/prices/provider/alphavantage"
	"stockwatch/internal/feature/prices/provider/yahoo"
	infrahttp "stockwatch/internal/platform/http"
)

// NewProviderChain builds the fallback chain in the configured order,
// first entry primary. Vendor defaults (env, public base URLs) apply
// wherever the config leaves a field empty.
func NewProviderChain(cfg config.ProvidersConfig) (*provider.Chain, error) {
	providers := make([]provider.Provider, 0, len(cfg.Order))
	for _, name := range cfg.Order {
		switch name {
		case "yahoo":
			ycfg := yahoo.LoadConfig()
			if cfg.YahooBaseURL != "" {
				ycfg.BaseURL = cfg.YahooBaseURL
			}
			providers = append(providers, yahoo.NewClient(ycfg, infrahttp.NewHTTPClient(ycfg.Timeout)))
		case "alphavantage":
			acfg := alphavantage.LoadConfig()
			if cfg.AlphaVantageBaseURL != "" {
				acfg.BaseURL = cfg.AlphaVantageBaseURL
			}
			if cfg.AlphaVantageAPIKey != "" {
				acfg.APIKey = cfg.AlphaVantageAPIKey
			}
			providers = append(providers, alphavantage.NewClient(acfg, infrahttp.NewHTTPClient(acfg.Timeout)))
		default:
			return nil, fmt.Errorf("unknown provider %q in providers.order", name)
		}
	}
	return provider.NewChain(providers...), nil
}

// NewRetryer wraps the chain with the configured backoff schedule.
func NewRetryer(chain *provider.Chain, cfg config.RetryConfig, alerts provider.AlertSender) *provider.Retryer {
	delay, _ := cfg.ParseBaseDelay() // validated at config load, zero falls back to the default
	return provider.NewRetryer(chain, provider.RetryConfig{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  delay,
		Multiplier: cfg.BackoffMultiplier,
	}, alerts)
}

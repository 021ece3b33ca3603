// Package entity defines the domain models for the health feature.
package entity

import "time"

// ProviderHealth is the outcome of one canary probe against a single
// provider.
type ProviderHealth struct {
	Name         string        // Provider name
	Available    bool          // Configured and eligible for fetching
	CanFetch     bool          // Probe returned usable data
	Error        string        // Probe failure detail, empty when healthy
	ResponseTime time.Duration // Probe latency
	Records      int           // Rows returned by the probe
}

// SymbolFreshness describes how current the stored history of one
// symbol is. A symbol with no rows at all has a nil LatestDate and
// DaysStale of -1, and is always stale.
type SymbolFreshness struct {
	Symbol         string
	LatestDate     *time.Time // Newest stored trading day, nil when no rows
	DaysStale      int        // Whole days since LatestDate, -1 when no rows
	IsStale        bool
	ThresholdHours int // Threshold the verdict was computed against
}

// Report aggregates one health-check run.
type Report struct {
	CheckedAt      time.Time
	Providers      []ProviderHealth
	Freshness      []SymbolFreshness
	OverallHealthy bool   // False iff at least one issue was recorded
	Summary        string // Human-readable digest of all issues
}

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	pricesentity "stockwatch/internal/feature/prices/domain/entity"
	"stockwatch/internal/feature/prices/provider"
)

var errStore = errors.New("storage unavailable")

// mockProvider is a mock implementation of provider.Provider.
type mockProvider struct {
	name       string
	available  bool
	FetchFunc  func(ctx context.Context, symbol string, start, end time.Time) ([]pricesentity.PriceRecord, error)
	FetchCalls int
}

func (m *mockProvider) Name() string    { return m.name }
func (m *mockProvider) Available() bool { return m.available }

func (m *mockProvider) FetchPrices(ctx context.Context, symbol string, start, end time.Time) ([]pricesentity.PriceRecord, error) {
	m.FetchCalls++
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, symbol, start, end)
	}
	return nil, errors.New("FetchFunc is not implemented")
}

// mockFreshnessStore is a mock implementation of the FreshnessStore interface.
type mockFreshnessStore struct {
	LatestDateFunc      func(ctx context.Context, symbol string) (*time.Time, error)
	LatestDateCalls     []string
	DistinctSymbolsFunc func(ctx context.Context) ([]string, error)
}

func (m *mockFreshnessStore) LatestDate(ctx context.Context, symbol string) (*time.Time, error) {
	m.LatestDateCalls = append(m.LatestDateCalls, symbol)
	if m.LatestDateFunc != nil {
		return m.LatestDateFunc(ctx, symbol)
	}
	return nil, errors.New("LatestDateFunc is not implemented")
}

func (m *mockFreshnessStore) DistinctSymbols(ctx context.Context) ([]string, error) {
	if m.DistinctSymbolsFunc != nil {
		return m.DistinctSymbolsFunc(ctx)
	}
	return nil, errors.New("DistinctSymbolsFunc is not implemented")
}

// mockAlertSender is a mock implementation of the AlertSender interface.
type mockAlertSender struct {
	SendFunc  func(ctx context.Context, title, body string) (bool, error)
	SendCalls int
	LastBody  string
}

func (m *mockAlertSender) SendInfraAlert(ctx context.Context, title, body string) (bool, error) {
	m.SendCalls++
	m.LastBody = body
	if m.SendFunc != nil {
		return m.SendFunc(ctx, title, body)
	}
	return true, nil
}

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestHealth(providers []provider.Provider, store FreshnessStore, alerts AlertSender, cfg Config) *HealthUsecase {
	hu := NewHealthUsecase(providers, store, alerts, cfg)
	hu.now = func() time.Time { return fixedNow }
	return hu
}

func probeRecords(n int) []pricesentity.PriceRecord {
	out := make([]pricesentity.PriceRecord, n)
	for i := range out {
		out[i] = pricesentity.PriceRecord{
			Symbol: "AAPL",
			Date:   time.Date(2024, 3, 4+i, 0, 0, 0, 0, time.UTC),
			Close:  100,
			Source: "yahoo",
		}
	}
	return out
}

func datePtr(s string) *time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &d
}

// freshStore answers every LatestDate call with yesterday, so all
// symbols come back fresh under the default threshold.
func freshStore() *mockFreshnessStore {
	return &mockFreshnessStore{
		LatestDateFunc: func(ctx context.Context, symbol string) (*time.Time, error) {
			return datePtr("2024-03-09"), nil
		},
	}
}

func TestHealthUsecase_CheckProviderHealth(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name          string
		probeName     string
		provider      *mockProvider
		wantAvailable bool
		wantCanFetch  bool
		wantRecords   int
		wantErrPart   string
		wantFetches   int
	}{
		{
			name:      "probe succeeds",
			probeName: "yahoo",
			provider: &mockProvider{
				name: "yahoo", available: true,
				FetchFunc: func(ctx context.Context, symbol string, start, end time.Time) ([]pricesentity.PriceRecord, error) {
					return probeRecords(5), nil
				},
			},
			wantAvailable: true,
			wantCanFetch:  true,
			wantRecords:   5,
			wantFetches:   1,
		},
		{
			name:      "probe errors",
			probeName: "yahoo",
			provider: &mockProvider{
				name: "yahoo", available: true,
				FetchFunc: func(ctx context.Context, symbol string, start, end time.Time) ([]pricesentity.PriceRecord, error) {
					return nil, errors.New("connection refused")
				},
			},
			wantAvailable: true,
			wantErrPart:   "connection refused",
			wantFetches:   1,
		},
		{
			name:      "probe returns nothing for the canary symbol",
			probeName: "yahoo",
			provider: &mockProvider{
				name: "yahoo", available: true,
				FetchFunc: func(ctx context.Context, symbol string, start, end time.Time) ([]pricesentity.PriceRecord, error) {
					return nil, nil
				},
			},
			wantAvailable: true,
			wantErrPart:   "no data returned",
			wantFetches:   1,
		},
		{
			name:        "unavailable provider is never probed",
			probeName:   "alphavantage",
			provider:    &mockProvider{name: "alphavantage", available: false},
			wantFetches: 0,
		},
		{
			name:        "unknown provider name",
			probeName:   "bloomberg",
			provider:    &mockProvider{name: "yahoo", available: true},
			wantErrPart: "unknown provider",
			wantFetches: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			hu := newTestHealth([]provider.Provider{tc.provider}, freshStore(), nil, Config{})

			got := hu.CheckProviderHealth(ctx, tc.probeName)

			if got.Name != tc.probeName {
				t.Errorf("Name = %q, want %q", got.Name, tc.probeName)
			}
			if got.Available != tc.wantAvailable {
				t.Errorf("Available = %v, want %v", got.Available, tc.wantAvailable)
			}
			if got.CanFetch != tc.wantCanFetch {
				t.Errorf("CanFetch = %v, want %v", got.CanFetch, tc.wantCanFetch)
			}
			if got.Records != tc.wantRecords {
				t.Errorf("Records = %d, want %d", got.Records, tc.wantRecords)
			}
			if tc.wantErrPart == "" && got.Error != "" {
				t.Errorf("unexpected Error %q", got.Error)
			}
			if tc.wantErrPart != "" && !strings.Contains(got.Error, tc.wantErrPart) {
				t.Errorf("Error = %q, want it to contain %q", got.Error, tc.wantErrPart)
			}
			if tc.provider.FetchCalls != tc.wantFetches {
				t.Errorf("FetchCalls = %d, want %d", tc.provider.FetchCalls, tc.wantFetches)
			}
		})
	}
}

func TestHealthUsecase_CheckProviderHealth_ProbeWindow(t *testing.T) {
	var gotSymbol string
	var gotStart, gotEnd time.Time
	p := &mockProvider{
		name: "yahoo", available: true,
		FetchFunc: func(ctx context.Context, symbol string, start, end time.Time) ([]pricesentity.PriceRecord, error) {
			gotSymbol, gotStart, gotEnd = symbol, start, end
			return probeRecords(3), nil
		},
	}
	hu := newTestHealth([]provider.Provider{p}, freshStore(), nil, Config{})

	status := hu.CheckProviderHealth(context.Background(), "yahoo")

	if !status.CanFetch {
		t.Fatalf("CanFetch = false, want true (error %q)", status.Error)
	}
	if gotSymbol != DefaultProbeSymbol {
		t.Errorf("probe symbol = %q, want %q", gotSymbol, DefaultProbeSymbol)
	}
	if !gotEnd.Equal(fixedNow) {
		t.Errorf("probe end = %v, want %v", gotEnd, fixedNow)
	}
	wantStart := fixedNow.AddDate(0, 0, -DefaultProbeLookbackDays)
	if !gotStart.Equal(wantStart) {
		t.Errorf("probe start = %v, want %v", gotStart, wantStart)
	}
	if status.ResponseTime < 0 {
		t.Errorf("ResponseTime = %v, want >= 0", status.ResponseTime)
	}
}

func TestHealthUsecase_CheckDataFreshness(t *testing.T) {
	ctx := context.Background()

	// Reference time is 2024-03-10 12:00 UTC throughout.
	testCases := []struct {
		name           string
		latest         *time.Time
		thresholdHours int
		wantDaysStale  int
		wantStale      bool
	}{
		{
			name:           "one day old is fresh",
			latest:         datePtr("2024-03-09"),
			thresholdHours: 48,
			wantDaysStale:  1,
			wantStale:      false,
		},
		{
			name:           "exactly at the threshold is fresh",
			latest:         datePtr("2024-03-08"),
			thresholdHours: 48,
			wantDaysStale:  2,
			wantStale:      false,
		},
		{
			name:           "one day beyond the threshold is stale",
			latest:         datePtr("2024-03-07"),
			thresholdHours: 48,
			wantDaysStale:  3,
			wantStale:      true,
		},
		{
			name:           "no stored rows is always stale",
			latest:         nil,
			thresholdHours: 48,
			wantDaysStale:  -1,
			wantStale:      true,
		},
		{
			name:           "sub-day threshold still allows one day",
			latest:         datePtr("2024-03-09"),
			thresholdHours: 12,
			wantDaysStale:  1,
			wantStale:      false,
		},
		{
			name:           "zero threshold falls back to the default",
			latest:         datePtr("2024-03-07"),
			thresholdHours: 0,
			wantDaysStale:  3,
			wantStale:      true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockFreshnessStore{
				LatestDateFunc: func(ctx context.Context, symbol string) (*time.Time, error) {
					return tc.latest, nil
				},
			}
			hu := newTestHealth(nil, store, nil, Config{})

			got, err := hu.CheckDataFreshness(ctx, []string{"AAPL"}, tc.thresholdHours)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("len = %d, want 1", len(got))
			}
			fs := got[0]
			if fs.Symbol != "AAPL" {
				t.Errorf("Symbol = %q, want AAPL", fs.Symbol)
			}
			if fs.DaysStale != tc.wantDaysStale {
				t.Errorf("DaysStale = %d, want %d", fs.DaysStale, tc.wantDaysStale)
			}
			if fs.IsStale != tc.wantStale {
				t.Errorf("IsStale = %v, want %v", fs.IsStale, tc.wantStale)
			}
			if tc.latest == nil && fs.LatestDate != nil {
				t.Errorf("LatestDate = %v, want nil", fs.LatestDate)
			}
		})
	}
}

func TestHealthUsecase_CheckDataFreshness_DefaultsToStoredSymbols(t *testing.T) {
	store := &mockFreshnessStore{
		DistinctSymbolsFunc: func(ctx context.Context) ([]string, error) {
			return []string{"AAPL", "MSFT"}, nil
		},
		LatestDateFunc: func(ctx context.Context, symbol string) (*time.Time, error) {
			return datePtr("2024-03-09"), nil
		},
	}
	hu := newTestHealth(nil, store, nil, Config{})

	got, err := hu.CheckDataFreshness(context.Background(), nil, 48)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Symbol != "AAPL" || got[1].Symbol != "MSFT" {
		t.Errorf("symbols = %q, %q, want AAPL, MSFT", got[0].Symbol, got[1].Symbol)
	}
}

func TestHealthUsecase_CheckDataFreshness_StoreError(t *testing.T) {
	store := &mockFreshnessStore{
		LatestDateFunc: func(ctx context.Context, symbol string) (*time.Time, error) {
			return nil, errStore
		},
	}
	hu := newTestHealth(nil, store, nil, Config{})

	_, err := hu.CheckDataFreshness(context.Background(), []string{"AAPL"}, 48)
	if !errors.Is(err, errStore) {
		t.Fatalf("error = %v, want it to wrap %v", err, errStore)
	}
}

func TestHealthUsecase_RunHealthCheck_Healthy(t *testing.T) {
	p := &mockProvider{
		name: "yahoo", available: true,
		FetchFunc: func(ctx context.Context, symbol string, start, end time.Time) ([]pricesentity.PriceRecord, error) {
			return probeRecords(5), nil
		},
	}
	alerts := &mockAlertSender{}
	hu := newTestHealth([]provider.Provider{p}, freshStore(), alerts, Config{Symbols: []string{"AAPL", "MSFT"}})

	report, err := hu.RunHealthCheck(context.Background(), RunOptions{AlertOnFailure: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.OverallHealthy {
		t.Fatalf("OverallHealthy = false, want true (summary %q)", report.Summary)
	}
	if !strings.HasPrefix(report.Summary, "healthy") {
		t.Errorf("Summary = %q, want healthy prefix", report.Summary)
	}
	if len(report.Providers) != 1 || len(report.Freshness) != 2 {
		t.Errorf("providers = %d, freshness = %d, want 1 and 2", len(report.Providers), len(report.Freshness))
	}
	if !report.CheckedAt.Equal(fixedNow) {
		t.Errorf("CheckedAt = %v, want %v", report.CheckedAt, fixedNow)
	}
	if alerts.SendCalls != 0 {
		t.Errorf("SendCalls = %d, want 0 on a healthy run", alerts.SendCalls)
	}
}

func TestHealthUsecase_RunHealthCheck_UnavailableProviderIsNotAnIssue(t *testing.T) {
	p := &mockProvider{name: "alphavantage", available: false}
	hu := newTestHealth([]provider.Provider{p}, freshStore(), nil, Config{Symbols: []string{"AAPL"}})

	report, err := hu.RunHealthCheck(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.OverallHealthy {
		t.Fatalf("OverallHealthy = false, want true (summary %q)", report.Summary)
	}
	if p.FetchCalls != 0 {
		t.Errorf("FetchCalls = %d, want 0 for an unavailable provider", p.FetchCalls)
	}
	if len(report.Providers) != 1 || report.Providers[0].Available {
		t.Errorf("report.Providers = %+v, want one unavailable entry", report.Providers)
	}
}

func TestHealthUsecase_RunHealthCheck_SingleAlertCoversAllIssues(t *testing.T) {
	p := &mockProvider{
		name: "yahoo", available: true,
		FetchFunc: func(ctx context.Context, symbol string, start, end time.Time) ([]pricesentity.PriceRecord, error) {
			return nil, errors.New("bad gateway")
		},
	}
	store := &mockFreshnessStore{
		LatestDateFunc: func(ctx context.Context, symbol string) (*time.Time, error) {
			if symbol == "MSFT" {
				return nil, nil
			}
			return datePtr("2024-03-01"), nil
		},
	}
	alerts := &mockAlertSender{}
	hu := newTestHealth([]provider.Provider{p}, store, alerts, Config{Symbols: []string{"AAPL", "MSFT"}})

	report, err := hu.RunHealthCheck(context.Background(), RunOptions{AlertOnFailure: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.OverallHealthy {
		t.Fatal("OverallHealthy = true, want false")
	}
	if alerts.SendCalls != 1 {
		t.Fatalf("SendCalls = %d, want exactly 1 for the whole run", alerts.SendCalls)
	}
	for _, part := range []string{"yahoo", "AAPL", "MSFT"} {
		if !strings.Contains(alerts.LastBody, part) {
			t.Errorf("alert body %q does not mention %q", alerts.LastBody, part)
		}
	}
}

func TestHealthUsecase_RunHealthCheck_NoAlertWithoutOptIn(t *testing.T) {
	p := &mockProvider{
		name: "yahoo", available: true,
		FetchFunc: func(ctx context.Context, symbol string, start, end time.Time) ([]pricesentity.PriceRecord, error) {
			return nil, errors.New("bad gateway")
		},
	}
	alerts := &mockAlertSender{}
	hu := newTestHealth([]provider.Provider{p}, freshStore(), alerts, Config{Symbols: []string{"AAPL"}})

	report, err := hu.RunHealthCheck(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.OverallHealthy {
		t.Fatal("OverallHealthy = true, want false")
	}
	if alerts.SendCalls != 0 {
		t.Errorf("SendCalls = %d, want 0 without AlertOnFailure", alerts.SendCalls)
	}
}

func TestHealthUsecase_RunHealthCheck_AlertFailureIsSwallowed(t *testing.T) {
	p := &mockProvider{
		name: "yahoo", available: true,
		FetchFunc: func(ctx context.Context, symbol string, start, end time.Time) ([]pricesentity.PriceRecord, error) {
			return nil, errors.New("bad gateway")
		},
	}
	alerts := &mockAlertSender{
		SendFunc: func(ctx context.Context, title, body string) (bool, error) {
			return false, errors.New("webhook down")
		},
	}
	hu := newTestHealth([]provider.Provider{p}, freshStore(), alerts, Config{Symbols: []string{"AAPL"}})

	report, err := hu.RunHealthCheck(context.Background(), RunOptions{AlertOnFailure: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report == nil || report.OverallHealthy {
		t.Fatalf("report = %+v, want an unhealthy report despite the alert failure", report)
	}
	if alerts.SendCalls != 1 {
		t.Errorf("SendCalls = %d, want 1", alerts.SendCalls)
	}
}

func TestHealthUsecase_RunHealthCheck_NilAlerter(t *testing.T) {
	p := &mockProvider{
		name: "yahoo", available: true,
		FetchFunc: func(ctx context.Context, symbol string, start, end time.Time) ([]pricesentity.PriceRecord, error) {
			return nil, errors.New("bad gateway")
		},
	}
	hu := newTestHealth([]provider.Provider{p}, freshStore(), nil, Config{Symbols: []string{"AAPL"}})

	report, err := hu.RunHealthCheck(context.Background(), RunOptions{AlertOnFailure: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.OverallHealthy {
		t.Fatal("OverallHealthy = true, want false")
	}
}

func TestHealthUsecase_RunHealthCheck_SkipFlags(t *testing.T) {
	p := &mockProvider{name: "yahoo", available: true}
	store := freshStore()
	hu := newTestHealth([]provider.Provider{p}, store, nil, Config{Symbols: []string{"AAPL"}})

	report, err := hu.RunHealthCheck(context.Background(), RunOptions{SkipProviders: true, SkipFreshness: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.FetchCalls != 0 {
		t.Errorf("FetchCalls = %d, want 0 with SkipProviders", p.FetchCalls)
	}
	if len(store.LatestDateCalls) != 0 {
		t.Errorf("LatestDate calls = %v, want none with SkipFreshness", store.LatestDateCalls)
	}
	if len(report.Providers) != 0 || len(report.Freshness) != 0 {
		t.Errorf("report = %+v, want empty sections", report)
	}
	if !report.OverallHealthy {
		t.Error("OverallHealthy = false, want true when nothing was checked")
	}
}

func TestHealthUsecase_RunHealthCheck_SymbolsOverrideConfig(t *testing.T) {
	store := freshStore()
	hu := newTestHealth(nil, store, nil, Config{Symbols: []string{"AAPL", "MSFT"}})

	_, err := hu.RunHealthCheck(context.Background(), RunOptions{SkipProviders: true, Symbols: []string{"GOOG"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.LatestDateCalls) != 1 || store.LatestDateCalls[0] != "GOOG" {
		t.Errorf("LatestDate calls = %v, want [GOOG]", store.LatestDateCalls)
	}
}

func TestHealthUsecase_RunHealthCheck_FreshnessErrorPropagates(t *testing.T) {
	store := &mockFreshnessStore{
		LatestDateFunc: func(ctx context.Context, symbol string) (*time.Time, error) {
			return nil, errStore
		},
	}
	hu := newTestHealth(nil, store, nil, Config{Symbols: []string{"AAPL"}})

	report, err := hu.RunHealthCheck(context.Background(), RunOptions{SkipProviders: true})
	if !errors.Is(err, errStore) {
		t.Fatalf("error = %v, want it to wrap %v", err, errStore)
	}
	if report != nil {
		t.Errorf("report = %+v, want nil on error", report)
	}
}

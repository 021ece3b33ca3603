package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/guregu/null/v6"

	"stockwatch/internal/feature/prices/domain/entity"
	"stockwatch/internal/feature/prices/provider"
)

// Name identifies this provider in chain order and record sources.
const Name = "alphavantage"

// Client fetches daily price history from the Alpha Vantage API.
type Client struct {
	cfg    Config
	client *http.Client
}

// Client implements provider.Provider.
var _ provider.Provider = (*Client)(nil)

// NewClient creates a Client with the given configuration and HTTP client.
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

func (a *Client) Name() string { return Name }

// Available reports true only when an API key is configured.
func (a *Client) Available() bool { return a.cfg.APIKey != "" }

// FetchPrices retrieves daily records for symbol between start and end
// inclusive. The endpoint always returns the full history, so rows
// outside the requested window are filtered out here.
func (a *Client) FetchPrices(ctx context.Context, symbol string, start, end time.Time) ([]entity.PriceRecord, error) {
	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY_ADJUSTED")
	q.Set("symbol", symbol)
	q.Set("outputsize", "full")
	q.Set("apikey", a.cfg.APIKey)

	u := fmt.Sprintf("%s/query?%s", a.cfg.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, provider.NewError(Name, "build request", err)
	}

	res, err := a.client.Do(req)
	if err != nil {
		return nil, provider.NewError(Name, "request failed", err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "provider", Name, "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return nil, provider.NewError(Name, fmt.Sprintf("http %d", res.StatusCode), nil)
	}

	var body dailyResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, provider.NewError(Name, "decode response", err)
	}
	if body.ErrorMessage != "" {
		return nil, provider.NewError(Name, "api error: "+body.ErrorMessage, nil)
	}
	if body.Note != "" {
		return nil, provider.NewError(Name, "rate limited: "+body.Note, nil)
	}
	if body.Information != "" {
		return nil, provider.NewError(Name, "rate limited: "+body.Information, nil)
	}

	return a.toRecords(symbol, entity.NormalizeDate(start), entity.NormalizeDate(end), body.TimeSeries)
}

func (a *Client) toRecords(symbol string, start, end time.Time, series map[string]dailyQuote) ([]entity.PriceRecord, error) {
	records := make([]entity.PriceRecord, 0, len(series))
	for day, quote := range series {
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			return nil, provider.NewError(Name, fmt.Sprintf("parse date %q", day), err)
		}
		date = entity.NormalizeDate(date)
		if date.Before(start) || date.After(end) {
			continue
		}

		o, err := strconv.ParseFloat(quote.Open, 64)
		if err != nil {
			return nil, provider.NewError(Name, fmt.Sprintf("parse open %q", quote.Open), err)
		}
		h, err := strconv.ParseFloat(quote.High, 64)
		if err != nil {
			return nil, provider.NewError(Name, fmt.Sprintf("parse high %q", quote.High), err)
		}
		l, err := strconv.ParseFloat(quote.Low, 64)
		if err != nil {
			return nil, provider.NewError(Name, fmt.Sprintf("parse low %q", quote.Low), err)
		}
		c, err := strconv.ParseFloat(quote.Close, 64)
		if err != nil {
			return nil, provider.NewError(Name, fmt.Sprintf("parse close %q", quote.Close), err)
		}
		adj, err := strconv.ParseFloat(quote.AdjClose, 64)
		if err != nil {
			return nil, provider.NewError(Name, fmt.Sprintf("parse adjusted close %q", quote.AdjClose), err)
		}
		vol, err := strconv.ParseInt(quote.Volume, 10, 64)
		if err != nil {
			return nil, provider.NewError(Name, fmt.Sprintf("parse volume %q", quote.Volume), err)
		}

		records = append(records, entity.PriceRecord{
			Symbol:   symbol,
			Date:     date,
			Open:     null.FloatFrom(o),
			High:     null.FloatFrom(h),
			Low:      null.FloatFrom(l),
			Close:    c,
			AdjClose: null.FloatFrom(adj),
			Volume:   null.IntFrom(vol),
			Source:   Name,
		})
	}

	// The series arrives as a map; callers expect ascending dates.
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

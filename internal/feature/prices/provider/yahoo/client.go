package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/guregu/null/v6"

	"stockwatch/internal/feature/prices/domain/entity"
	"stockwatch/internal/feature/prices/provider"
)

// Name identifies this provider in chain order and record sources.
const Name = "yahoo"

// Client fetches daily price history from the Yahoo Finance chart API.
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

func (y *Client) Name() string { return Name }

// Available reports true whenever a base URL is configured; the chart
// API takes no API key.
func (y *Client) Available() bool { return y.cfg.BaseURL != "" }

// FetchPrices retrieves daily records for symbol between start and end
// inclusive. Non-trading slots (null close) are skipped; other null
// fields are kept as invalid optionals.
func (y *Client) FetchPrices(ctx context.Context, symbol string, start, end time.Time) ([]entity.PriceRecord, error) {
	startDay := entity.NormalizeDate(start)
	endDay := entity.NormalizeDate(end)

	q := url.Values{}
	q.Set("period1", strconv.FormatInt(startDay.Unix(), 10))
	// period2 is exclusive, so push it one day past the requested end.
	q.Set("period2", strconv.FormatInt(endDay.AddDate(0, 0, 1).Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "div,split")
	q.Set("includeAdjustedClose", "true")

	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.cfg.BaseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, provider.NewError(Name, "build request", err)
	}
	// The chart endpoint rejects the default Go user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; stockwatch/1.0)")

	res, err := y.client.Do(req)
	if err != nil {
		return nil, provider.NewError(Name, "request failed", err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "provider", Name, "error", err)
		}
	}()

	// Unknown or delisted symbols come back as 404; that is a
	// legitimately empty range, not a provider failure.
	if res.StatusCode == http.StatusNotFound {
		return []entity.PriceRecord{}, nil
	}
	if res.StatusCode == http.StatusTooManyRequests {
		return nil, provider.NewError(Name, "rate limited", nil)
	}
	if res.StatusCode >= 400 {
		return nil, provider.NewError(Name, fmt.Sprintf("http %d", res.StatusCode), nil)
	}

	var body chartResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, provider.NewError(Name, "decode response", err)
	}
	if body.Chart.Error != nil {
		return nil, provider.NewError(Name,
			fmt.Sprintf("chart error %s: %s", body.Chart.Error.Code, body.Chart.Error.Description), nil)
	}
	if len(body.Chart.Result) == 0 {
		return []entity.PriceRecord{}, nil
	}

	return y.toRecords(symbol, startDay, endDay, body.Chart.Result[0])
}

func (y *Client) toRecords(symbol string, start, end time.Time, result chartResult) ([]entity.PriceRecord, error) {
	if len(result.Timestamp) == 0 {
		return []entity.PriceRecord{}, nil
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, provider.NewError(Name, "malformed payload: no quote block", nil)
	}
	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(quote.Close) != n || len(quote.Open) != n || len(quote.High) != n || len(quote.Low) != n || len(quote.Volume) != n {
		return nil, provider.NewError(Name,
			fmt.Sprintf("malformed payload: %d timestamps vs %d closes", n, len(quote.Close)), nil)
	}

	var adjClose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	records := make([]entity.PriceRecord, 0, n)
	for i, ts := range result.Timestamp {
		if quote.Close[i] == nil {
			// Null close marks a non-trading slot.
			continue
		}
		date := entity.NormalizeDate(time.Unix(ts, 0))
		if date.Before(start) || date.After(end) {
			continue
		}
		rec := entity.PriceRecord{
			Symbol: symbol,
			Date:   date,
			Open:   null.FloatFromPtr(quote.Open[i]),
			High:   null.FloatFromPtr(quote.High[i]),
			Low:    null.FloatFromPtr(quote.Low[i]),
			Close:  *quote.Close[i],
			Volume: null.IntFromPtr(quote.Volume[i]),
			Source: Name,
		}
		if i < len(adjClose) {
			rec.AdjClose = null.FloatFromPtr(adjClose[i])
		}
		records = append(records, rec)
	}
	return records, nil
}

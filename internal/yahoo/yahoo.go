// Package yahoo fetches historical price series from the quote provider's
// chart API through a TTL response cache: repeated identical requests within
// the freshness window never touch the network.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"resty.dev/v3"

	"midasfetch/internal/cache"
	"midasfetch/internal/fetcher"
	"midasfetch/internal/ratelimit"
	"midasfetch/internal/series"
)

// chartResponse represents the quote provider's chart API response
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Client fetches daily history from the quote provider.
type Client struct {
	suffix string
	client *resty.Client
	cache  *cache.Cache
}

// NewClient creates a quote client. suffix is the exchange suffix appended
// to every identifier (e.g. ".BK"). The cache may be nil to disable caching.
func NewClient(baseURL, suffix string, c *cache.Cache) *Client {
	return &Client{
		suffix: suffix,
		client: fetcher.NewHTTPClient("yahoo", baseURL),
		cache:  c,
	}
}

// FetchDaily retrieves the daily history for the quote identifier and
// normalizes it: ascending dates, prices rounded, returns derived from the
// adjusted close.
func (c *Client) FetchDaily(ctx context.Context, id string, from, to time.Time) (*series.PriceSeries, error) {
	if id == "" {
		return nil, fetcher.NewValidationError("no quote identifier configured")
	}

	body, err := c.responseBody(ctx, id, from, to)
	if err != nil {
		return nil, err
	}
	return parseChart(body, id)
}

// responseBody serves the raw chart response, preferring the cache. The
// cache key is the full request identity: identifier plus date range.
func (c *Client) responseBody(ctx context.Context, id string, from, to time.Time) ([]byte, error) {
	key := fmt.Sprintf("yahoo:%s:%d:%d", id, from.Unix(), to.Unix())
	if c.cache != nil {
		if body, ok := c.cache.Get(key); ok {
			return body, nil
		}
	}

	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APIYahoo); err != nil {
		return nil, fetcher.NewTimeoutError(err)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("symbol", id+c.suffix).
		SetQueryParams(map[string]string{
			"period1":  fmt.Sprintf("%d", from.Unix()),
			"period2":  fmt.Sprintf("%d", to.Unix()),
			"interval": "1d",
			"events":   "div,split",
		}).
		Get("/v8/finance/chart/{symbol}")

	if err != nil {
		return nil, fetcher.NewNetworkError(err)
	}
	if !resp.IsSuccess() {
		return nil, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	body := resp.Bytes()
	if c.cache != nil {
		if err := c.cache.Set(key, body); err != nil {
			// Cache write failures degrade to uncached operation.
			return body, nil
		}
	}
	return body, nil
}

func parseChart(body []byte, id string) (*series.PriceSeries, error) {
	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fetcher.NewValidationError(fmt.Sprintf("failed to decode chart response: %v", err))
	}
	if chart.Chart.Error != nil {
		return nil, fetcher.NewValidationError(fmt.Sprintf("chart API error: %s", chart.Chart.Error.Description))
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fetcher.NewValidationError(fmt.Sprintf("no historical data returned for %s", id))
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 || len(result.Indicators.AdjClose) == 0 {
		return nil, fetcher.NewValidationError("chart response missing quote indicators")
	}
	quote := result.Indicators.Quote[0]
	adj := result.Indicators.AdjClose[0]

	points := make([]series.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		p := series.PricePoint{Date: time.Unix(ts, 0).UTC()}
		ok := deref(quote.Open, i, &p.Open) &&
			deref(quote.High, i, &p.High) &&
			deref(quote.Low, i, &p.Low) &&
			deref(quote.Close, i, &p.Close) &&
			deref(adj.AdjClose, i, &p.AdjClose)
		if !ok {
			// Null bars (holidays, halted sessions) are dropped.
			continue
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			p.Volume = *quote.Volume[i]
		}
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil, fetcher.NewValidationError(fmt.Sprintf("no usable bars for %s", id))
	}

	s, err := series.Normalize(points, series.BasisAdjClose)
	if err != nil {
		return nil, fetcher.NewValidationError(err.Error())
	}
	return s, nil
}

func deref(vals []*float64, i int, dst *float64) bool {
	if i >= len(vals) || vals[i] == nil {
		return false
	}
	*dst = *vals[i]
	return true
}

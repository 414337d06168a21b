// Package investing fetches historical price series from the market-data
// portal API. The portal takes a country parameter and an ascending date
// range and returns daily OHLCV rows with a currency column the canonical
// schema drops.
package investing

import (
	"context"
	"fmt"
	"time"

	"resty.dev/v3"

	"midasfetch/internal/fetcher"
	"midasfetch/internal/ratelimit"
	"midasfetch/internal/series"
)

// dateParam is the portal's dd/mm/yyyy query format.
const dateParam = "02/01/2006"

// historyResponse represents the portal API response for historical data
type historyResponse struct {
	Data []struct {
		Date     string  `json:"date"`
		Open     float64 `json:"open"`
		High     float64 `json:"high"`
		Low      float64 `json:"low"`
		Close    float64 `json:"close"`
		Volume   string  `json:"volume"`
		Currency string  `json:"currency"`
	} `json:"data"`
}

// Client fetches daily history for one market from the portal.
type Client struct {
	country string
	client  *resty.Client
}

// NewClient creates a portal client for the given market.
func NewClient(baseURL, country string) *Client {
	return &Client{
		country: country,
		client:  fetcher.NewHTTPClient("investing", baseURL),
	}
}

// FetchDaily retrieves the full daily history for the portal identifier and
// normalizes it: currency dropped, ascending dates, returns derived from the
// closing price.
func (c *Client) FetchDaily(ctx context.Context, id string, from, to time.Time) (*series.PriceSeries, error) {
	if id == "" {
		return nil, fetcher.NewValidationError("no portal identifier configured")
	}

	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APIInvesting); err != nil {
		return nil, fetcher.NewTimeoutError(err)
	}

	var result historyResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":    id,
			"country":   c.country,
			"from_date": from.Format(dateParam),
			"to_date":   to.Format(dateParam),
			"interval":  "daily",
			"order":     "ascending",
		}).
		SetResult(&result).
		Get("")

	if err != nil {
		return nil, fetcher.NewNetworkError(err)
	}
	if !resp.IsSuccess() {
		return nil, fetcher.ClassifyHTTPError(resp.StatusCode())
	}
	if len(result.Data) == 0 {
		return nil, fetcher.NewValidationError(fmt.Sprintf("no historical data returned for %s", id))
	}

	points := make([]series.PricePoint, 0, len(result.Data))
	for _, row := range result.Data {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			return nil, fetcher.NewValidationError(fmt.Sprintf("invalid date %q: %v", row.Date, err))
		}
		volume, err := series.ParseVolume(row.Volume)
		if err != nil {
			return nil, fetcher.NewValidationError(err.Error())
		}
		points = append(points, series.PricePoint{
			Date:   date,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: volume,
		})
	}

	s, err := series.Normalize(points, series.BasisClose)
	if err != nil {
		return nil, fetcher.NewValidationError(err.Error())
	}
	return s, nil
}

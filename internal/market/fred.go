package market

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"macro-trader/internal/errors"
)

// FRED series identifiers for the rate inputs.
const (
	seriesFedFunds   = "DFF"      // effective federal funds rate, daily
	seriesTreasury10 = "GS10"     // 10-year treasury constant maturity, monthly
	seriesCPI        = "CPIAUCSL" // CPI all urban consumers, monthly index
)

// FREDClient fetches observations from the St. Louis Fed FRED API.
type FREDClient struct {
	client *resty.Client
	apiKey string
}

// NewFREDClient creates a FRED client against the given base URL.
func NewFREDClient(baseURL, apiKey string) *FREDClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second)

	return &FREDClient{client: client, apiKey: apiKey}
}

type fredObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type fredResponse struct {
	Observations []fredObservation `json:"observations"`
}

// LatestValue returns the most recent reported value of a series.
// FRED reports missing observations as "."; those are skipped.
func (c *FREDClient) LatestValue(ctx context.Context, seriesID string) (float64, error) {
	values, err := c.observations(ctx, seriesID, 10)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, errors.NewDataError(seriesID, fmt.Errorf("no reported observations"))
	}
	return values[0], nil
}

// CPIYoY computes the year-over-year CPI change from the last thirteen
// monthly index values, rounded to one decimal place.
func (c *FREDClient) CPIYoY(ctx context.Context) (float64, error) {
	values, err := c.observations(ctx, seriesCPI, 13)
	if err != nil {
		return 0, err
	}
	if len(values) < 13 {
		return 0, errors.NewDataError(seriesCPI,
			fmt.Errorf("need 13 monthly observations, got %d", len(values)))
	}

	latest, yearAgo := values[0], values[12]
	if yearAgo == 0 {
		return 0, errors.NewDataError(seriesCPI, fmt.Errorf("zero index value a year ago"))
	}
	yoy := (latest/yearAgo - 1) * 100
	return math.Round(yoy*10) / 10, nil
}

// observations fetches up to limit reported values for a series, newest
// first, skipping missing ("." ) observations.
func (c *FREDClient) observations(ctx context.Context, seriesID string, limit int) ([]float64, error) {
	var result fredResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"series_id":  seriesID,
			"api_key":    c.apiKey,
			"file_type":  "json",
			"sort_order": "desc",
			// Fetch extra rows so missing observations do not starve us.
			"limit": strconv.Itoa(limit + 5),
		}).
		SetResult(&result).
		Get("/series/observations")
	if err != nil {
		return nil, errors.NewDataError(seriesID, err)
	}
	if resp.IsError() {
		return nil, errors.NewDataError(seriesID,
			fmt.Errorf("FRED returned %s", resp.Status()))
	}

	values := make([]float64, 0, limit)
	for _, obs := range result.Observations {
		if obs.Value == "." {
			continue
		}
		v, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			continue
		}
		values = append(values, v)
		if len(values) == limit {
			break
		}
	}
	return values, nil
}

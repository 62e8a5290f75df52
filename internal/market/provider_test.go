package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macro-trader/internal/config"
	"macro-trader/internal/errors"
)

var testDefaults = config.DefaultValues{
	FedRate:     5.25,
	Treasury10Y: 4.3,
	CPIYoY:      3.0,
	GoldPrice:   2050.0,
	DXYLevel:    103.5,
}

// fakeQuoter serves canned prices per symbol.
type fakeQuoter struct {
	prices map[string]float64
}

func (f fakeQuoter) Price(symbol string) (float64, error) {
	if v, ok := f.prices[symbol]; ok {
		return v, nil
	}
	return 0, errors.NewDataError(symbol, fmt.Errorf("no quote"))
}

// fredHandler serves FRED-style observation responses keyed by series.
func fredHandler(t *testing.T, series map[string][]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("series_id")
		values, ok := series[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"observations":[`)
		for i, v := range values {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"date":"2024-01-%02d","value":"%s"}`, 28-i, v)
		}
		fmt.Fprint(w, `]}`)
	}
}

func TestFREDLatestValue(t *testing.T) {
	srv := httptest.NewServer(fredHandler(t, map[string][]string{
		"DFF": {"5.33", "5.33", "5.32"},
	}))
	defer srv.Close()

	c := NewFREDClient(srv.URL, "test-key")
	v, err := c.LatestValue(context.Background(), "DFF")
	require.NoError(t, err)
	assert.Equal(t, 5.33, v)
}

func TestFREDLatestValueSkipsMissing(t *testing.T) {
	srv := httptest.NewServer(fredHandler(t, map[string][]string{
		"GS10": {".", ".", "4.25"},
	}))
	defer srv.Close()

	c := NewFREDClient(srv.URL, "test-key")
	v, err := c.LatestValue(context.Background(), "GS10")
	require.NoError(t, err)
	assert.Equal(t, 4.25, v)
}

func TestFREDCPIYoY(t *testing.T) {
	// 13 monthly index values, newest first: 308.417 vs 299.170 a year
	// earlier gives 3.0909...% which rounds to 3.1.
	values := []string{"308.417"}
	for i := 0; i < 11; i++ {
		values = append(values, "305.000")
	}
	values = append(values, "299.170")

	srv := httptest.NewServer(fredHandler(t, map[string][]string{
		"CPIAUCSL": values,
	}))
	defer srv.Close()

	c := NewFREDClient(srv.URL, "test-key")
	v, err := c.CPIYoY(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.1, v)
}

func TestFREDCPIYoYTooFewObservations(t *testing.T) {
	srv := httptest.NewServer(fredHandler(t, map[string][]string{
		"CPIAUCSL": {"308.417", "307.000"},
	}))
	defer srv.Close()

	c := NewFREDClient(srv.URL, "test-key")
	_, err := c.CPIYoY(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDataUnavailable))
}

func TestFREDServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewFREDClient(srv.URL, "test-key")
	_, err := c.LatestValue(context.Background(), "DFF")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDataUnavailable))
}

func TestStaticProvider(t *testing.T) {
	at := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	p := StaticProvider{Defaults: testDefaults, Now: func() time.Time { return at }}

	snap, fallbacks, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fallbacks)
	assert.Equal(t, 5.25, snap.FedRate)
	assert.Equal(t, 4.3, snap.Treasury10Y)
	assert.Equal(t, 3.0, snap.CPIYoY)
	assert.Equal(t, 2050.0, snap.GoldPrice)
	assert.Equal(t, 103.5, snap.DXYLevel)
	assert.Equal(t, at, snap.FetchedAt)
}

func TestLiveProviderFallsBackPerSource(t *testing.T) {
	// FRED serves only the fed funds series; everything else fails.
	srv := httptest.NewServer(fredHandler(t, map[string][]string{
		"DFF": {"5.33"},
	}))
	defer srv.Close()

	p := &LiveProvider{
		fred:     NewFREDClient(srv.URL, "test-key"),
		quotes:   fakeQuoter{prices: map[string]float64{"GLD": 190.5}},
		defaults: testDefaults,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}

	snap, fallbacks, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5.33, snap.FedRate)
	assert.Equal(t, 1905.0, snap.GoldPrice) // GLD scaled to spot
	assert.Equal(t, 4.3, snap.Treasury10Y)  // default
	assert.Equal(t, 3.0, snap.CPIYoY)       // default
	assert.Equal(t, 103.5, snap.DXYLevel)   // default
	assert.Equal(t, []string{"treasury_10y", "cpi_yoy", "dxy_level"}, fallbacks)
}

func TestGoldPriceChain(t *testing.T) {
	v, err := goldPrice(fakeQuoter{prices: map[string]float64{"GLD": 200}})
	require.NoError(t, err)
	assert.Equal(t, 2000.0, v)

	v, err = goldPrice(fakeQuoter{prices: map[string]float64{"GC=F": 2045.5}})
	require.NoError(t, err)
	assert.Equal(t, 2045.5, v)

	_, err = goldPrice(fakeQuoter{})
	require.Error(t, err)
}

func TestDXYChain(t *testing.T) {
	v, err := dxyLevel(fakeQuoter{prices: map[string]float64{"DX-Y.NYB": 104.2}})
	require.NoError(t, err)
	assert.Equal(t, 104.2, v)

	v, err = dxyLevel(fakeQuoter{prices: map[string]float64{"UUP": 28.0}})
	require.NoError(t, err)
	assert.InDelta(t, 103.6, v, 1e-9)

	v, err = dxyLevel(fakeQuoter{prices: map[string]float64{"USDU": 27.0}})
	require.NoError(t, err)
	assert.InDelta(t, 105.3, v, 1e-9)

	_, err = dxyLevel(fakeQuoter{})
	require.Error(t, err)
}

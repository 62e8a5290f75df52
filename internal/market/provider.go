// Package market fetches the macro indicators the signal engine runs
// on: fed funds rate, 10-year treasury yield, CPI YoY, gold and the
// dollar index. Every source degrades independently to a configured
// default, so a fetch always yields a complete snapshot.
package market

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"macro-trader/internal/config"
	"macro-trader/internal/logging"
	"macro-trader/internal/models"
)

// Provider yields macro snapshots. The returned fallback list names the
// inputs that came from defaults rather than live data.
type Provider interface {
	Fetch(ctx context.Context) (models.MacroSnapshot, []string, error)
}

// StaticProvider always returns the configured defaults. Used for
// offline runs and tests.
type StaticProvider struct {
	Defaults config.DefaultValues
	Now      func() time.Time
}

// Fetch returns a snapshot built entirely from the defaults.
func (s StaticProvider) Fetch(ctx context.Context) (models.MacroSnapshot, []string, error) {
	now := s.Now
	if now == nil {
		now = time.Now
	}
	return models.MacroSnapshot{
		FedRate:     s.Defaults.FedRate,
		Treasury10Y: s.Defaults.Treasury10Y,
		CPIYoY:      s.Defaults.CPIYoY,
		GoldPrice:   s.Defaults.GoldPrice,
		DXYLevel:    s.Defaults.DXYLevel,
		FetchedAt:   now(),
	}, nil, nil
}

// LiveProvider combines FRED rate series with Yahoo Finance quotes.
type LiveProvider struct {
	fred     *FREDClient
	quotes   Quoter
	defaults config.DefaultValues
	logger   zerolog.Logger
	now      func() time.Time
}

// NewLiveProvider creates a provider against the real data sources.
func NewLiveProvider(cfg config.DataConfig, fredAPIKey string, logger zerolog.Logger) *LiveProvider {
	return &LiveProvider{
		fred:     NewFREDClient(cfg.FREDBaseURL, fredAPIKey),
		quotes:   YahooQuoter{},
		defaults: cfg.Defaults,
		logger:   logger,
		now:      time.Now,
	}
}

// Fetch gathers all five inputs. A failed source falls back to its
// default and is reported in the fallback list; Fetch itself never
// fails.
func (p *LiveProvider) Fetch(ctx context.Context) (models.MacroSnapshot, []string, error) {
	snap := models.MacroSnapshot{FetchedAt: p.now()}
	var fallbacks []string

	if v, err := p.fred.LatestValue(ctx, seriesFedFunds); err == nil {
		snap.FedRate = v
	} else {
		p.logger.Warn().Err(err).Msg("Fed rate fetch failed, using default")
		snap.FedRate = p.defaults.FedRate
		fallbacks = append(fallbacks, "fed_rate")
	}

	if v, err := p.fred.LatestValue(ctx, seriesTreasury10); err == nil {
		snap.Treasury10Y = v
	} else {
		p.logger.Warn().Err(err).Msg("10Y treasury fetch failed, using default")
		snap.Treasury10Y = p.defaults.Treasury10Y
		fallbacks = append(fallbacks, "treasury_10y")
	}

	if v, err := p.fred.CPIYoY(ctx); err == nil {
		snap.CPIYoY = v
	} else {
		p.logger.Warn().Err(err).Msg("CPI fetch failed, using default")
		snap.CPIYoY = p.defaults.CPIYoY
		fallbacks = append(fallbacks, "cpi_yoy")
	}

	if v, err := goldPrice(p.quotes); err == nil {
		snap.GoldPrice = v
	} else {
		p.logger.Warn().Err(err).Msg("Gold quote failed, using default")
		snap.GoldPrice = p.defaults.GoldPrice
		fallbacks = append(fallbacks, "gold_price")
	}

	if v, err := dxyLevel(p.quotes); err == nil {
		snap.DXYLevel = v
	} else {
		p.logger.Warn().Err(err).Msg("DXY quote failed, using default")
		snap.DXYLevel = p.defaults.DXYLevel
		fallbacks = append(fallbacks, "dxy_level")
	}

	logging.LogFetch(p.logger, snap, fallbacks)
	return snap, fallbacks, nil
}

// Package signal implements the rule-based gold signal engine.
//
// The engine classifies the Fed funds rate and the dollar index into
// discrete policy/strength buckets, combines them through a fixed 3x3
// matrix into a LONG/SHORT/WAIT signal, and attaches a qualitative
// confidence tier. It is stateless and safe for concurrent use.
package signal

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"macro-trader/internal/config"
	"macro-trader/internal/errors"
	"macro-trader/internal/models"
)

// Thresholds holds the classifier cut-offs. Boundary values resolve to
// the named bucket (closed intervals on the extremes).
type Thresholds struct {
	FedHawkish float64
	FedDovish  float64
	DxyStrong  float64
	DxyWeak    float64
}

// DefaultThresholds returns the standard cut-offs: Fed 5.0/3.0,
// DXY 105.0/100.0.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FedHawkish: 5.0,
		FedDovish:  3.0,
		DxyStrong:  105.0,
		DxyWeak:    100.0,
	}
}

// ThresholdsFromConfig builds Thresholds from the signal configuration.
func ThresholdsFromConfig(cfg config.SignalConfig) Thresholds {
	return Thresholds{
		FedHawkish: cfg.FedHawkishThreshold,
		FedDovish:  cfg.FedDovishThreshold,
		DxyStrong:  cfg.DxyStrongThreshold,
		DxyWeak:    cfg.DxyWeakThreshold,
	}
}

// Engine is the deterministic signal classifier.
type Engine struct {
	thresholds Thresholds
	logger     zerolog.Logger
}

// NewEngine creates an engine with the given thresholds.
func NewEngine(thresholds Thresholds, logger zerolog.Logger) *Engine {
	return &Engine{thresholds: thresholds, logger: logger}
}

// New creates an engine with default thresholds.
func New(logger zerolog.Logger) *Engine {
	return NewEngine(DefaultThresholds(), logger)
}

// ClassifyFed assesses the Fed policy stance from the funds rate.
func (e *Engine) ClassifyFed(fedRate float64) models.FedBias {
	switch {
	case fedRate >= e.thresholds.FedHawkish:
		return models.FedHawkish
	case fedRate <= e.thresholds.FedDovish:
		return models.FedDovish
	default:
		return models.FedNeutral
	}
}

// ClassifyDXY assesses dollar-index strength relative to gold.
func (e *Engine) ClassifyDXY(dxyLevel float64) models.DxyBias {
	switch {
	case dxyLevel >= e.thresholds.DxyStrong:
		return models.DxyStrong
	case dxyLevel <= e.thresholds.DxyWeak:
		return models.DxyWeak
	default:
		return models.DxyNeutral
	}
}

type matrixKey struct {
	fed models.FedBias
	dxy models.DxyBias
}

type matrixCell struct {
	signal models.Signal
	bias   string
}

// signalMatrix is the exhaustive 3x3 combination table.
var signalMatrix = map[matrixKey]matrixCell{
	{models.FedDovish, models.DxyWeak}:    {models.SignalLong, "Strong Bullish"},
	{models.FedDovish, models.DxyNeutral}: {models.SignalLong, "Bullish"},
	{models.FedDovish, models.DxyStrong}:  {models.SignalWait, "Mixed - DXY Override"},

	{models.FedNeutral, models.DxyWeak}:    {models.SignalLong, "Bullish"},
	{models.FedNeutral, models.DxyNeutral}: {models.SignalWait, "Neutral"},
	{models.FedNeutral, models.DxyStrong}:  {models.SignalShort, "Bearish"},

	{models.FedHawkish, models.DxyWeak}:    {models.SignalWait, "Mixed - Conflicting"},
	{models.FedHawkish, models.DxyNeutral}: {models.SignalShort, "Bearish"},
	{models.FedHawkish, models.DxyStrong}:  {models.SignalShort, "Strong Bearish"},
}

// Combine maps a (fed, dxy) bias pair to the signal and overall bias
// label. Pairs outside the table cannot occur with the engine's own
// classifiers but degrade to WAIT/"Uncertain" rather than erroring.
func (e *Engine) Combine(fed models.FedBias, dxy models.DxyBias) (models.Signal, string) {
	if cell, ok := signalMatrix[matrixKey{fed, dxy}]; ok {
		return cell.signal, cell.bias
	}
	return models.SignalWait, "Uncertain"
}

// Confidence returns the confidence tier, evaluated in strict priority
// order: the first matching tier wins.
func (e *Engine) Confidence(fed models.FedBias, dxy models.DxyBias, fedRate, dxyLevel float64) models.Confidence {
	switch {
	case fed == models.FedDovish && dxy == models.DxyWeak,
		fed == models.FedHawkish && dxy == models.DxyStrong,
		fedRate < 2.0,
		fedRate > 6.0,
		dxyLevel < 95,
		dxyLevel > 110:
		return models.ConfidenceHigh

	case (fed == models.FedDovish || fed == models.FedHawkish) && dxy == models.DxyNeutral,
		fed == models.FedNeutral && (dxy == models.DxyWeak || dxy == models.DxyStrong),
		fedRate >= 3.5 && fedRate <= 4.5,
		dxyLevel >= 102 && dxyLevel <= 103:
		return models.ConfidenceMedium

	default:
		return models.ConfidenceLow
	}
}

// Evaluate runs the full classification pipeline on a snapshot. It
// never fails on finite inputs; a NaN or infinite field is the only
// error path.
func (e *Engine) Evaluate(snap models.MacroSnapshot) (models.SignalResult, error) {
	if err := validateSnapshot(snap); err != nil {
		return models.SignalResult{}, err
	}

	fed := e.ClassifyFed(snap.FedRate)
	dxy := e.ClassifyDXY(snap.DXYLevel)
	sig, bias := e.Combine(fed, dxy)
	confidence := e.Confidence(fed, dxy, snap.FedRate, snap.DXYLevel)

	result := models.SignalResult{
		Signal:     sig,
		Bias:       bias,
		Confidence: confidence,
		Components: models.SignalComponents{
			FedBias:  fed,
			DxyBias:  dxy,
			FedRate:  snap.FedRate,
			DxyLevel: snap.DXYLevel,
		},
	}

	e.logger.Info().
		Str("signal", string(sig)).
		Str("confidence", string(confidence)).
		Msg("Signal generated")

	return result, nil
}

func validateSnapshot(snap models.MacroSnapshot) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"fed_rate", snap.FedRate},
		{"treasury_10y", snap.Treasury10Y},
		{"cpi_yoy", snap.CPIYoY},
		{"gold_price", snap.GoldPrice},
		{"dxy_level", snap.DXYLevel},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return errors.NewInputError("Evaluate", f.name, f.value)
		}
	}
	return nil
}

// Explain builds a human-readable explanation of a signal from its
// components alone, with no external services involved.
func Explain(result models.SignalResult) string {
	c := result.Components
	var sb strings.Builder
	fmt.Fprintf(&sb, "Fed policy at %.1f%% is %s, ", c.FedRate, strings.ToLower(string(c.FedBias)))
	fmt.Fprintf(&sb, "while DXY at %.1f is %s for gold. ", c.DxyLevel, strings.ToLower(string(c.DxyBias)))

	switch result.Signal {
	case models.SignalLong:
		sb.WriteString("This combination favors higher gold prices.")
	case models.SignalShort:
		sb.WriteString("This combination suggests lower gold prices ahead.")
	default:
		sb.WriteString("Mixed signals suggest waiting for clearer direction.")
	}
	return sb.String()
}

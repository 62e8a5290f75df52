package signal

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"macro-trader/internal/models"
)

// Property: the Fed and DXY classifiers partition their input ranges
// exhaustively — every finite rate lands in exactly one bucket, and the
// bucket agrees with the threshold definition.
func TestProperty_ClassifiersPartitionInputRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	e := New(zerolog.Nop())

	properties.Property("Fed bucket matches thresholds", prop.ForAll(
		func(rate float64) bool {
			bias := e.ClassifyFed(rate)
			switch {
			case rate >= 5.0:
				return bias == models.FedHawkish
			case rate <= 3.0:
				return bias == models.FedDovish
			default:
				return bias == models.FedNeutral
			}
		},
		gen.Float64Range(-1.0, 12.0),
	))

	properties.Property("DXY bucket matches thresholds", prop.ForAll(
		func(level float64) bool {
			bias := e.ClassifyDXY(level)
			switch {
			case level >= 105.0:
				return bias == models.DxyStrong
			case level <= 100.0:
				return bias == models.DxyWeak
			default:
				return bias == models.DxyNeutral
			}
		},
		gen.Float64Range(80.0, 130.0),
	))

	properties.TestingRun(t)
}

// Property: Evaluate is total over finite inputs — it never errors, the
// signal is one of the three defined values, and the bias label is
// never empty.
func TestProperty_EvaluateTotalOverFiniteInputs(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	e := New(zerolog.Nop())

	properties.Property("Evaluate never fails and always classifies", prop.ForAll(
		func(fedRate, dxyLevel float64) bool {
			result, err := e.Evaluate(models.MacroSnapshot{
				FedRate:     fedRate,
				Treasury10Y: 4.3,
				CPIYoY:      3.0,
				GoldPrice:   2050.0,
				DXYLevel:    dxyLevel,
				FetchedAt:   time.Now(),
			})
			if err != nil {
				return false
			}
			validSignal := result.Signal == models.SignalLong ||
				result.Signal == models.SignalShort ||
				result.Signal == models.SignalWait
			validConfidence := result.Confidence == models.ConfidenceHigh ||
				result.Confidence == models.ConfidenceMedium ||
				result.Confidence == models.ConfidenceLow
			return validSignal && validConfidence && result.Bias != ""
		},
		gen.Float64Range(-2.0, 15.0),
		gen.Float64Range(70.0, 140.0),
	))

	// Aligned extremes always produce a directional signal with High
	// confidence.
	properties.Property("Dovish+Weak is always LONG/High", prop.ForAll(
		func(fedRate, dxyLevel float64) bool {
			result, err := e.Evaluate(models.MacroSnapshot{
				FedRate:  fedRate,
				DXYLevel: dxyLevel,
			})
			if err != nil {
				return false
			}
			return result.Signal == models.SignalLong &&
				result.Confidence == models.ConfidenceHigh
		},
		gen.Float64Range(0.0, 3.0),
		gen.Float64Range(90.0, 100.0),
	))

	properties.Property("Hawkish+Strong is always SHORT/High", prop.ForAll(
		func(fedRate, dxyLevel float64) bool {
			result, err := e.Evaluate(models.MacroSnapshot{
				FedRate:  fedRate,
				DXYLevel: dxyLevel,
			})
			if err != nil {
				return false
			}
			return result.Signal == models.SignalShort &&
				result.Confidence == models.ConfidenceHigh
		},
		gen.Float64Range(5.0, 9.0),
		gen.Float64Range(105.0, 120.0),
	))

	properties.TestingRun(t)
}

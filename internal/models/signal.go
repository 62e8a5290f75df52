package models

import "time"

// Signal represents the directional trading signal for gold.
type Signal string

const (
	SignalLong  Signal = "LONG"
	SignalShort Signal = "SHORT"
	SignalWait  Signal = "WAIT"
)

// FedBias represents the Fed policy stance derived from the funds rate.
type FedBias string

const (
	FedHawkish FedBias = "Hawkish"
	FedNeutral FedBias = "Neutral"
	FedDovish  FedBias = "Dovish"
)

// DxyBias represents dollar-index strength relative to gold.
type DxyBias string

const (
	DxyStrong  DxyBias = "Strong"
	DxyNeutral DxyBias = "Neutral"
	DxyWeak    DxyBias = "Weak"
)

// Confidence is the qualitative confidence tier of a signal.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// SignalComponents captures the intermediate classifications and the raw
// values they were derived from.
type SignalComponents struct {
	FedBias  FedBias `json:"fed_bias"`
	DxyBias  DxyBias `json:"dxy_bias"`
	FedRate  float64 `json:"fed_rate"`
	DxyLevel float64 `json:"dxy_level"`
}

// SignalResult is the immutable output of one signal evaluation.
type SignalResult struct {
	Signal     Signal           `json:"signal"`
	Bias       string           `json:"bias"`
	Confidence Confidence       `json:"confidence"`
	Components SignalComponents `json:"components"`
}

// Analysis is a full daily analysis: the signal, the narrated reasoning
// and the snapshot it was derived from.
type Analysis struct {
	Result      SignalResult  `json:"result"`
	Reasoning   string        `json:"reasoning"`
	Snapshot    MacroSnapshot `json:"snapshot"`
	GeneratedAt time.Time     `json:"generated_at"`
}

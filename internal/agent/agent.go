// Package agent orchestrates the daily analysis run: fetch the macro
// snapshot, evaluate the signal, narrate it, persist the snapshot and
// notify the configured channels.
package agent

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"macro-trader/internal/ledger"
	"macro-trader/internal/logging"
	"macro-trader/internal/market"
	"macro-trader/internal/models"
	"macro-trader/internal/narrator"
	"macro-trader/internal/notify"
	"macro-trader/internal/signal"
	"macro-trader/internal/store"
)

// Config wires an Agent. Snapshots and Notifier are optional; a nil
// value disables that step.
type Config struct {
	Provider  market.Provider
	Engine    *signal.Engine
	Narrator  *narrator.Narrator
	Ledger    *ledger.Ledger
	Snapshots store.SnapshotStore
	Notifier  notify.Notifier
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Agent runs the analysis pipeline.
type Agent struct {
	provider  market.Provider
	engine    *signal.Engine
	narrator  *narrator.Narrator
	ledger    *ledger.Ledger
	snapshots store.SnapshotStore
	notifier  notify.Notifier
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates an agent from the wired components.
func New(cfg Config) *Agent {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.NoOpNotifier{}
	}
	return &Agent{
		provider:  cfg.Provider,
		engine:    cfg.Engine,
		narrator:  cfg.Narrator,
		ledger:    cfg.Ledger,
		snapshots: cfg.Snapshots,
		notifier:  notifier,
		logger:    cfg.Logger,
		now:       now,
	}
}

// RunOnce executes one full analysis pass and returns the result.
// Snapshot persistence and notification failures are logged but do not
// fail the run; the analysis itself is the product.
func (a *Agent) RunOnce(ctx context.Context) (models.Analysis, error) {
	snap, fallbacks, err := a.provider.Fetch(ctx)
	if err != nil {
		a.notifyError(ctx, err, "fetching macro data")
		return models.Analysis{}, err
	}
	if len(fallbacks) > 0 {
		a.logger.Warn().Strs("fallback_sources", fallbacks).Msg("Some inputs came from defaults")
	}

	result, err := a.engine.Evaluate(snap)
	if err != nil {
		a.notifyError(ctx, err, "evaluating signal")
		return models.Analysis{}, err
	}
	logging.LogSignal(a.logger, result)

	reasoning := signal.Explain(result)
	if a.narrator != nil {
		reasoning = a.narrator.Narrate(ctx, snap, result)
	}

	analysis := models.Analysis{
		Result:      result,
		Reasoning:   reasoning,
		Snapshot:    snap,
		GeneratedAt: a.now(),
	}

	if a.snapshots != nil {
		if err := a.snapshots.SaveSnapshot(snap); err != nil {
			a.logger.Warn().Err(err).Msg("Snapshot persistence failed")
		}
	}

	if err := a.notifier.SendAnalysis(ctx, analysis); err != nil {
		a.logger.Warn().Err(err).Msg("Analysis notification failed")
	}

	return analysis, nil
}

// RecordOutcome books a completed trade into the ledger.
func (a *Agent) RecordOutcome(in ledger.TradeInput) (models.Trade, error) {
	return a.ledger.RecordTrade(in)
}

func (a *Agent) notifyError(ctx context.Context, err error, errContext string) {
	if sendErr := a.notifier.SendError(ctx, err, errContext); sendErr != nil {
		a.logger.Warn().Err(sendErr).Msg("Error notification failed")
	}
}

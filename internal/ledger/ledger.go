// Package ledger manages the simulated trading account: balance, the
// append-only trade and balance-event logs, and the derived statistics.
//
// All mutations are serialized by a mutex and applied in memory first;
// the configured store is asked to save after every mutation, and a
// save failure surfaces as a persistence error without rolling the
// in-memory state back. Losing a ledger-true event silently is worse
// than reporting a durability gap.
package ledger

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"macro-trader/internal/errors"
	"macro-trader/internal/logging"
	"macro-trader/internal/models"
	"macro-trader/internal/store"
)

// Config configures a Ledger.
type Config struct {
	InitialCapital float64
	Store          store.AccountStore
	Logger         zerolog.Logger
	Now            func() time.Time // defaults to time.Now
}

// Ledger owns one AccountState. Orchestrators never mutate the state
// directly, only through ledger operations.
type Ledger struct {
	mu             sync.Mutex
	state          *models.AccountState
	initialCapital float64
	store          store.AccountStore
	logger         zerolog.Logger
	now            func() time.Time
}

// TradeInput is the caller-provided description of a completed trade.
// Entry, exit and position size should be positive, but the ledger does
// not reject non-positive values; validation is the caller's concern.
type TradeInput struct {
	Signal       models.Signal
	EntryPrice   float64
	ExitPrice    float64
	PositionSize float64
	PnL          float64
	DateOpened   time.Time
	DateClosed   time.Time
	CloseReason  string
}

// StatisticsReport combines trade statistics with the account-level
// figures derived from them.
type StatisticsReport struct {
	models.Statistics
	InitialCapital float64 `json:"initial_capital"`
	CurrentBalance float64 `json:"current_balance"`
	TotalReturnPct float64 `json:"total_return_pct"`
}

// New creates a ledger, loading existing state from the store or
// initializing a fresh account.
func New(cfg Config) (*Ledger, error) {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	l := &Ledger{
		initialCapital: cfg.InitialCapital,
		store:          cfg.Store,
		logger:         cfg.Logger,
		now:            now,
	}

	state, err := cfg.Store.Load()
	if err != nil {
		return nil, errors.NewPersistenceError("Load", err)
	}
	if state != nil {
		l.state = state
		l.initialCapital = state.InitialCapital
		l.logger.Info().
			Float64("balance", state.CurrentBalance).
			Int("trades", len(state.Trades)).
			Msg("Account state loaded")
		return l, nil
	}

	l.state = models.NewAccountState(cfg.InitialCapital, now(), "Account initialized")
	if err := cfg.Store.Save(l.state); err != nil {
		return nil, errors.NewPersistenceError("Save", err)
	}
	l.logger.Info().
		Float64("balance", cfg.InitialCapital).
		Msg("Fresh account initialized")
	return l, nil
}

// RecordTrade appends a completed trade, applies its PnL to the balance
// and updates the statistics, all as one logical transaction. The
// stored trade (with its assigned id) is returned even when the
// subsequent save fails; in that case the error is a persistence
// failure and the in-memory mutation stands.
func (l *Ledger) RecordTrade(in TradeInput) (models.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	trade := models.Trade{
		ID:           len(l.state.Trades) + 1,
		Signal:       in.Signal,
		EntryPrice:   in.EntryPrice,
		ExitPrice:    in.ExitPrice,
		PositionSize: in.PositionSize,
		PnL:          in.PnL,
		DateOpened:   in.DateOpened,
		DateClosed:   in.DateClosed,
		CloseReason:  in.CloseReason,
		RecordedAt:   now,
	}
	l.state.Trades = append(l.state.Trades, trade)

	newBalance := l.state.CurrentBalance + in.PnL
	l.state.CurrentBalance = newBalance

	stats := &l.state.Statistics
	stats.TotalTrades++
	stats.TotalPnL += in.PnL
	if in.PnL > 0 {
		stats.WinningTrades++
		if in.PnL > stats.LargestWin {
			stats.LargestWin = in.PnL
		}
	} else {
		// A zero PnL counts as a loss for the win rate, but only a
		// negative PnL can move largest_loss below its 0 seed.
		stats.LosingTrades++
		if in.PnL < stats.LargestLoss {
			stats.LargestLoss = in.PnL
		}
	}
	stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100

	l.updatePeakAndDrawdown(newBalance)

	l.state.BalanceHistory = append(l.state.BalanceHistory, models.BalanceEvent{
		Timestamp: now,
		Balance:   newBalance,
		Delta:     in.PnL,
		Event:     tradeEventLabel(trade),
	})

	logging.LogTradeRecorded(l.logger, trade, newBalance)

	if err := l.store.Save(l.state); err != nil {
		return trade, errors.NewPersistenceError("RecordTrade", err)
	}
	return trade, nil
}

// UpdateBalance sets the balance to newBalance (not a delta) and logs
// the signed change. Deposits and withdrawals are balance-only events;
// trade statistics are untouched. Negative balances are allowed.
func (l *Ledger) UpdateBalance(newBalance float64, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	oldBalance := l.state.CurrentBalance
	l.state.CurrentBalance = newBalance

	l.updatePeakAndDrawdown(newBalance)

	l.state.BalanceHistory = append(l.state.BalanceHistory, models.BalanceEvent{
		Timestamp: l.now(),
		Balance:   newBalance,
		Delta:     newBalance - oldBalance,
		Event:     reason,
	})

	logging.LogBalanceUpdate(l.logger, oldBalance, newBalance, reason)

	if err := l.store.Save(l.state); err != nil {
		return errors.NewPersistenceError("UpdateBalance", err)
	}
	return nil
}

// Statistics returns the current statistics together with the balance
// and the total return percentage. A zero initial capital makes the
// return undefined and is reported as an error rather than coerced.
func (l *Ledger) Statistics() (StatisticsReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	report := StatisticsReport{
		Statistics:     l.state.Statistics,
		InitialCapital: l.state.InitialCapital,
		CurrentBalance: l.state.CurrentBalance,
	}
	if l.state.InitialCapital == 0 {
		return report, errors.NewDivisionError("Statistics", "initial_capital")
	}
	report.TotalReturnPct = (l.state.CurrentBalance - l.state.InitialCapital) /
		l.state.InitialCapital * 100
	return report, nil
}

// RecentTrades returns the last n trades in chronological order, fewer
// if fewer exist.
func (l *Ledger) RecentTrades(n int) []models.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || len(l.state.Trades) == 0 {
		return []models.Trade{}
	}
	start := len(l.state.Trades) - n
	if start < 0 {
		start = 0
	}
	out := make([]models.Trade, len(l.state.Trades)-start)
	copy(out, l.state.Trades[start:])
	return out
}

// BalanceHistory returns balance events no older than since, in their
// original order.
func (l *Ledger) BalanceHistory(since time.Duration) []models.BalanceEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-since)
	out := []models.BalanceEvent{}
	for _, e := range l.state.BalanceHistory {
		if !e.Timestamp.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// Reset archives the current state and replaces it with a fresh account
// at the ledger's configured initial capital. Trade ids restart at 1.
func (l *Ledger) Reset() error {
	return l.ResetTo(l.initialCapital)
}

// ResetTo archives the current state under a timestamp-derived identity
// and replaces it with a fresh account at newBalance. The reset is
// aborted if the archive cannot be written: destroying the only copy of
// the history is not acceptable.
func (l *Ledger) ResetTo(newBalance float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	identity := store.BackupIdentity(now)
	if err := l.store.Archive(l.state.Clone(), identity); err != nil {
		return errors.NewPersistenceError("Archive", err)
	}

	l.initialCapital = newBalance
	l.state = models.NewAccountState(newBalance, now, "Account reset")

	l.logger.Info().
		Str("backup", identity).
		Float64("balance", newBalance).
		Msg("Account reset")

	if err := l.store.Save(l.state); err != nil {
		return errors.NewPersistenceError("Reset", err)
	}
	return nil
}

// PositionSize computes the units to trade so that a stop-out loses
// riskPct percent of the current balance.
func (l *Ledger) PositionSize(stopDistance, riskPct float64) (float64, error) {
	if stopDistance <= 0 {
		return 0, errors.NewArgumentError("PositionSize", "stop_distance", stopDistance,
			"must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	riskAmount := l.state.CurrentBalance * riskPct / 100
	return riskAmount / stopDistance, nil
}

// CurrentBalance returns the current account balance.
func (l *Ledger) CurrentBalance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.CurrentBalance
}

// State returns a deep copy of the account state for reporting.
func (l *Ledger) State() *models.AccountState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone()
}

// updatePeakAndDrawdown must be called with the mutex held.
func (l *Ledger) updatePeakAndDrawdown(balance float64) {
	stats := &l.state.Statistics
	if balance > stats.PeakBalance {
		stats.PeakBalance = balance
	}
	if stats.PeakBalance > 0 {
		drawdown := (stats.PeakBalance - balance) / stats.PeakBalance * 100
		if drawdown < 0 {
			drawdown = 0
		}
		stats.Drawdown = drawdown
	} else {
		stats.Drawdown = 0
	}
}

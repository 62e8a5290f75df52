package models

import "time"

// AccountSchemaVersion is bumped whenever AccountState gains fields, so
// historical files and archives remain loadable.
const AccountSchemaVersion = 1

// Trade is a completed round-trip. Once recorded by the ledger it is
// immutable; the trade list is append-only.
type Trade struct {
	ID           int       `json:"id"`
	Signal       Signal    `json:"signal"`
	EntryPrice   float64   `json:"entry"`
	ExitPrice    float64   `json:"exit"`
	PositionSize float64   `json:"position_size"`
	PnL          float64   `json:"pnl"`
	DateOpened   time.Time `json:"date_opened"`
	DateClosed   time.Time `json:"date_closed"`
	CloseReason  string    `json:"close_reason"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// BalanceEvent is one entry in the chronological balance history log.
// Delta is zero for pure snapshots such as account initialization.
type BalanceEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Balance   float64   `json:"balance"`
	Delta     float64   `json:"delta,omitempty"`
	Event     string    `json:"event"`
}

// Statistics holds trade-derived statistics. They are recomputed
// incrementally on every ledger mutation, never set directly.
type Statistics struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	TotalPnL      float64 `json:"total_pnl"`
	WinRate       float64 `json:"win_rate"`
	LargestWin    float64 `json:"largest_win"`
	LargestLoss   float64 `json:"largest_loss"`
	PeakBalance   float64 `json:"peak_balance"`
	Drawdown      float64 `json:"drawdown"`
}

// AccountState is the aggregate root owned by the ledger. Invariant:
// CurrentBalance == InitialCapital + sum of trade PnL + sum of
// non-trade balance deltas.
type AccountState struct {
	SchemaVersion  int            `json:"schema_version"`
	InitialCapital float64        `json:"initial_capital"`
	CurrentBalance float64        `json:"current_balance"`
	Trades         []Trade        `json:"trades"`
	BalanceHistory []BalanceEvent `json:"balance_history"`
	Statistics     Statistics     `json:"statistics"`
}

// NewAccountState creates a fresh account with a single initializing
// balance event and zeroed statistics except the peak balance.
func NewAccountState(initialCapital float64, now time.Time, event string) *AccountState {
	return &AccountState{
		SchemaVersion:  AccountSchemaVersion,
		InitialCapital: initialCapital,
		CurrentBalance: initialCapital,
		Trades:         []Trade{},
		BalanceHistory: []BalanceEvent{
			{Timestamp: now, Balance: initialCapital, Event: event},
		},
		Statistics: Statistics{PeakBalance: initialCapital},
	}
}

// Clone returns a deep copy, so archived or reported state cannot alias
// the ledger's live slices.
func (s *AccountState) Clone() *AccountState {
	c := *s
	c.Trades = make([]Trade, len(s.Trades))
	copy(c.Trades, s.Trades)
	c.BalanceHistory = make([]BalanceEvent, len(s.BalanceHistory))
	copy(c.BalanceHistory, s.BalanceHistory)
	return &c
}

package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macro-trader/internal/errors"
	"macro-trader/internal/models"
)

// memStore is an in-memory AccountStore for ledger tests.
type memStore struct {
	state      *models.AccountState
	archives   map[string]*models.AccountState
	saveErr    error
	archiveErr error
	saves      int
}

func newMemStore() *memStore {
	return &memStore{archives: map[string]*models.AccountState{}}
}

func (m *memStore) Load() (*models.AccountState, error) {
	return m.state, nil
}

func (m *memStore) Save(state *models.AccountState) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = state.Clone()
	return nil
}

func (m *memStore) Archive(state *models.AccountState, identity string) error {
	if m.archiveErr != nil {
		return m.archiveErr
	}
	m.archives[identity] = state.Clone()
	return nil
}

func (m *memStore) Close() error { return nil }

func newTestLedger(t *testing.T, initialCapital float64) (*Ledger, *memStore) {
	t.Helper()
	ms := newMemStore()
	l, err := New(Config{
		InitialCapital: initialCapital,
		Store:          ms,
		Logger:         zerolog.Nop(),
	})
	require.NoError(t, err)
	return l, ms
}

func longTrade(pnl float64) TradeInput {
	return TradeInput{
		Signal:       models.SignalLong,
		EntryPrice:   2000,
		ExitPrice:    2000 + pnl/5,
		PositionSize: 5,
		PnL:          pnl,
		DateOpened:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		DateClosed:   time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC),
		CloseReason:  "Target reached",
	}
}

func TestFreshAccountInitialized(t *testing.T) {
	l, ms := newTestLedger(t, 10000)

	state := l.State()
	assert.Equal(t, models.AccountSchemaVersion, state.SchemaVersion)
	assert.Equal(t, 10000.0, state.CurrentBalance)
	assert.Equal(t, 10000.0, state.Statistics.PeakBalance)
	require.Len(t, state.BalanceHistory, 1)
	assert.Equal(t, "Account initialized", state.BalanceHistory[0].Event)
	assert.Equal(t, 1, ms.saves)
}

func TestLoadExistingState(t *testing.T) {
	ms := newMemStore()
	ms.state = models.NewAccountState(5000, time.Now(), "Account initialized")
	ms.state.CurrentBalance = 5500

	l, err := New(Config{InitialCapital: 10000, Store: ms, Logger: zerolog.Nop()})
	require.NoError(t, err)

	// The stored initial capital wins over the configured one.
	assert.Equal(t, 5500.0, l.CurrentBalance())
	assert.Equal(t, 5000.0, l.State().InitialCapital)
}

func TestRecordTradeScenario(t *testing.T) {
	l, _ := newTestLedger(t, 10000)

	trade, err := l.RecordTrade(longTrade(100))
	require.NoError(t, err)
	assert.Equal(t, 1, trade.ID)

	stats, err := l.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 10100.0, stats.CurrentBalance)
	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, 1, stats.WinningTrades)
	assert.Equal(t, 100.0, stats.WinRate)
	assert.Equal(t, 100.0, stats.LargestWin)

	_, err = l.RecordTrade(longTrade(-50))
	require.NoError(t, err)

	stats, err = l.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 10050.0, stats.CurrentBalance)
	assert.Equal(t, 50.0, stats.WinRate)
	assert.Equal(t, -50.0, stats.LargestLoss)
	assert.Equal(t, 10100.0, stats.PeakBalance)
	assert.InDelta(t, (10100.0-10050.0)/10100.0*100, stats.Drawdown, 1e-9)
	assert.InDelta(t, 0.495, stats.Drawdown, 0.001)
	assert.InDelta(t, 0.5, stats.TotalReturnPct, 1e-9)
}

func TestZeroPnLCountsAsLoss(t *testing.T) {
	l, _ := newTestLedger(t, 10000)

	_, err := l.RecordTrade(longTrade(0))
	require.NoError(t, err)

	stats, err := l.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LosingTrades)
	assert.Equal(t, 0, stats.WinningTrades)
	assert.Equal(t, 0.0, stats.WinRate)
	// largest_loss keeps its zero seed: only a negative PnL moves it.
	assert.Equal(t, 0.0, stats.LargestLoss)
}

func TestWinRateRounding(t *testing.T) {
	l, _ := newTestLedger(t, 10000)

	_, err := l.RecordTrade(longTrade(100))
	require.NoError(t, err)
	_, err = l.RecordTrade(longTrade(50))
	require.NoError(t, err)
	_, err = l.RecordTrade(longTrade(-20))
	require.NoError(t, err)

	stats, err := l.Statistics()
	require.NoError(t, err)
	assert.InDelta(t, 200.0/3.0, stats.WinRate, 1e-9)
	assert.Equal(t, "66.67", fmt.Sprintf("%.2f", stats.WinRate))
}

func TestTradeIDsSequential(t *testing.T) {
	l, _ := newTestLedger(t, 10000)

	for i := 1; i <= 5; i++ {
		trade, err := l.RecordTrade(longTrade(float64(i)))
		require.NoError(t, err)
		assert.Equal(t, i, trade.ID)
	}
}

func TestBalanceEventForTrade(t *testing.T) {
	l, _ := newTestLedger(t, 10000)

	_, err := l.RecordTrade(longTrade(120))
	require.NoError(t, err)
	_, err = l.RecordTrade(longTrade(-30.5))
	require.NoError(t, err)

	history := l.BalanceHistory(time.Hour)
	require.Len(t, history, 3)
	assert.Equal(t, "Trade #1 closed: Win $120.00", history[1].Event)
	assert.Equal(t, 120.0, history[1].Delta)
	assert.Equal(t, "Trade #2 closed: Loss $30.50", history[2].Event)
}

func TestUpdateBalance(t *testing.T) {
	l, _ := newTestLedger(t, 10000)

	require.NoError(t, l.UpdateBalance(15000, "Deposit"))

	stats, err := l.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 15000.0, stats.CurrentBalance)
	assert.Equal(t, 15000.0, stats.PeakBalance)
	assert.Equal(t, 0, stats.TotalTrades) // balance-only event

	history := l.BalanceHistory(time.Hour)
	require.Len(t, history, 2)
	assert.Equal(t, "Deposit", history[1].Event)
	assert.Equal(t, 5000.0, history[1].Delta)

	// Withdrawal below the peak raises the drawdown.
	require.NoError(t, l.UpdateBalance(12000, "Withdrawal"))
	stats, err = l.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 15000.0, stats.PeakBalance)
	assert.InDelta(t, 20.0, stats.Drawdown, 1e-9)
}

func TestNegativeBalanceAllowed(t *testing.T) {
	l, _ := newTestLedger(t, 100)

	require.NoError(t, l.UpdateBalance(-250, "Margin call"))
	assert.Equal(t, -250.0, l.CurrentBalance())
}

func TestStatisticsZeroInitialCapital(t *testing.T) {
	l, _ := newTestLedger(t, 0)

	_, err := l.Statistics()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDivisionUndefined))
}

func TestRecentTrades(t *testing.T) {
	l, _ := newTestLedger(t, 10000)

	assert.Empty(t, l.RecentTrades(10))

	for i := 1; i <= 7; i++ {
		_, err := l.RecordTrade(longTrade(float64(i)))
		require.NoError(t, err)
	}

	recent := l.RecentTrades(3)
	require.Len(t, recent, 3)
	assert.Equal(t, 5, recent[0].ID)
	assert.Equal(t, 7, recent[2].ID)

	all := l.RecentTrades(100)
	assert.Len(t, all, 7)
	assert.Empty(t, l.RecentTrades(0))
}

func TestBalanceHistorySinceFilter(t *testing.T) {
	current := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	ms := newMemStore()
	l, err := New(Config{InitialCapital: 10000, Store: ms, Logger: zerolog.Nop(), Now: clock})
	require.NoError(t, err)

	current = current.Add(10 * 24 * time.Hour)
	require.NoError(t, l.UpdateBalance(11000, "Deposit"))

	current = current.Add(10 * 24 * time.Hour)
	require.NoError(t, l.UpdateBalance(12000, "Deposit"))

	// 5-day window only covers the second deposit.
	events := l.BalanceHistory(5 * 24 * time.Hour)
	require.Len(t, events, 1)
	assert.Equal(t, 12000.0, events[0].Balance)

	// 15 days reaches the first deposit but not the initial event.
	events = l.BalanceHistory(15 * 24 * time.Hour)
	assert.Len(t, events, 2)

	events = l.BalanceHistory(30 * 24 * time.Hour)
	assert.Len(t, events, 3)
}

func TestResetArchivesAndRestartsIDs(t *testing.T) {
	l, ms := newTestLedger(t, 10000)

	_, err := l.RecordTrade(longTrade(500))
	require.NoError(t, err)
	require.NoError(t, l.UpdateBalance(12000, "Deposit"))

	require.NoError(t, l.Reset())

	// Prior state is retrievable via its archived identity.
	require.Len(t, ms.archives, 1)
	for _, archived := range ms.archives {
		assert.Len(t, archived.Trades, 1)
		assert.Equal(t, 12000.0, archived.CurrentBalance)
	}

	state := l.State()
	assert.Equal(t, 10000.0, state.CurrentBalance)
	assert.Empty(t, state.Trades)
	require.Len(t, state.BalanceHistory, 1)
	assert.Equal(t, "Account reset", state.BalanceHistory[0].Event)
	assert.Equal(t, 10000.0, state.Statistics.PeakBalance)
	assert.Equal(t, models.Statistics{PeakBalance: 10000}, state.Statistics)

	trade, err := l.RecordTrade(longTrade(10))
	require.NoError(t, err)
	assert.Equal(t, 1, trade.ID)
}

func TestResetToNewBalance(t *testing.T) {
	l, _ := newTestLedger(t, 10000)

	require.NoError(t, l.ResetTo(25000))

	state := l.State()
	assert.Equal(t, 25000.0, state.InitialCapital)
	assert.Equal(t, 25000.0, state.CurrentBalance)

	stats, err := l.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.TotalReturnPct)
}

func TestResetAbortsWhenArchiveFails(t *testing.T) {
	l, ms := newTestLedger(t, 10000)
	_, err := l.RecordTrade(longTrade(500))
	require.NoError(t, err)

	ms.archiveErr = fmt.Errorf("disk full")
	err = l.Reset()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPersistence))

	// The live state survives an aborted reset.
	assert.Equal(t, 10500.0, l.CurrentBalance())
	assert.Len(t, l.State().Trades, 1)
}

func TestSaveFailureKeepsMutation(t *testing.T) {
	l, ms := newTestLedger(t, 10000)
	ms.saveErr = fmt.Errorf("disk full")

	trade, err := l.RecordTrade(longTrade(100))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPersistence))

	// The mutation applied in memory: the trade has its id and the
	// balance reflects the PnL.
	assert.Equal(t, 1, trade.ID)
	assert.Equal(t, 10100.0, l.CurrentBalance())

	err = l.UpdateBalance(9000, "Withdrawal")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPersistence))
	assert.Equal(t, 9000.0, l.CurrentBalance())
}

func TestPositionSize(t *testing.T) {
	l, _ := newTestLedger(t, 10000)

	// 2% of 10000 = 200 at risk; $20 stop distance -> 10 units.
	units, err := l.PositionSize(20, 2.0)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, units, 1e-9)

	_, err = l.PositionSize(0, 2.0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = l.PositionSize(-5, 2.0)
	require.Error(t, err)
}

func TestBalanceIdentityInvariant(t *testing.T) {
	l, _ := newTestLedger(t, 10000)

	pnls := []float64{100, -50, 0, 300.25, -120.75}
	var tradeSum float64
	for _, pnl := range pnls {
		_, err := l.RecordTrade(longTrade(pnl))
		require.NoError(t, err)
		tradeSum += pnl
	}

	// A deposit on top of trade PnL.
	before := l.CurrentBalance()
	require.NoError(t, l.UpdateBalance(before+1000, "Deposit"))

	assert.InDelta(t, 10000+tradeSum+1000, l.CurrentBalance(), 1e-9)
}

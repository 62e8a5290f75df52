package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccountState(t *testing.T) {
	now := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	state := NewAccountState(10000, now, "Account initialized")

	assert.Equal(t, AccountSchemaVersion, state.SchemaVersion)
	assert.Equal(t, 10000.0, state.InitialCapital)
	assert.Equal(t, 10000.0, state.CurrentBalance)
	assert.Equal(t, 10000.0, state.Statistics.PeakBalance)
	assert.Empty(t, state.Trades)
	require.Len(t, state.BalanceHistory, 1)
	assert.Equal(t, now, state.BalanceHistory[0].Timestamp)
	assert.Equal(t, 0.0, state.BalanceHistory[0].Delta)
}

func TestCloneIsDeep(t *testing.T) {
	state := NewAccountState(10000, time.Now(), "Account initialized")
	state.Trades = append(state.Trades, Trade{ID: 1, Signal: SignalLong, PnL: 50})

	clone := state.Clone()
	clone.Trades[0].PnL = 999
	clone.BalanceHistory[0].Event = "mutated"
	clone.CurrentBalance = 0

	assert.Equal(t, 50.0, state.Trades[0].PnL)
	assert.Equal(t, "Account initialized", state.BalanceHistory[0].Event)
	assert.Equal(t, 10000.0, state.CurrentBalance)
}

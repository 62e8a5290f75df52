package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macro-trader/internal/config"
	"macro-trader/internal/models"
)

func testOutput(jsonMode bool) (*Output, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &Output{writer: buf, jsonMode: jsonMode}, buf
}

func TestParseSignal(t *testing.T) {
	sig, err := parseSignal("long")
	require.NoError(t, err)
	assert.Equal(t, models.SignalLong, sig)

	sig, err = parseSignal("SHORT")
	require.NoError(t, err)
	assert.Equal(t, models.SignalShort, sig)

	_, err = parseSignal("sideways")
	require.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", d.Format("2006-01-02"))

	d, err = parseDate("")
	require.NoError(t, err)
	assert.False(t, d.IsZero())

	_, err = parseDate("15/01/2024")
	require.Error(t, err)
}

func TestFormatPnLSign(t *testing.T) {
	o, _ := testOutput(false)
	assert.Equal(t, "+$120.00", o.FormatPnL(120))
	assert.Equal(t, "-$30.50", o.FormatPnL(-30.5))
	assert.Equal(t, "$0.00", o.FormatPnL(0))
}

func TestTableRender(t *testing.T) {
	o, buf := testOutput(false)
	table := NewTable(o, "ID", "Signal")
	table.AddRow("1", "LONG")
	table.AddRow("12", "SHORT")
	table.Render()

	// Header, separator, then the rows.
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID  Signal", lines[0])
	assert.Equal(t, "1   LONG", lines[2])
	assert.Equal(t, "12  SHORT", lines[3])
}

func TestTableRowsCarryNoTrailingWhitespace(t *testing.T) {
	o, buf := testOutput(false)
	table := NewTable(o, "ID", "Signal", "P&L")
	table.AddRow("1", "LONG", "$100.00")
	table.AddRow("2", "SHORT", "")
	table.Render()

	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		assert.Equal(t, strings.TrimRight(line, " "), line)
	}
}

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "LONG", stripANSI(ColorGreen+"LONG"+ColorReset))
	assert.Equal(t, "plain", stripANSI("plain"))
}

func execute(t *testing.T, root *cobra.Command, args ...string) string {
	t.Helper()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return buf.String()
}

func testConfig(t *testing.T) *config.Config {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	cfg.Store.Path = t.TempDir()
	return cfg
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCmd(testConfig(t), zerolog.Nop())
	out := execute(t, root, "version")
	assert.Contains(t, out, "Macro Trader v"+Version)
}

func TestSignalCommandOffline(t *testing.T) {
	root := NewRootCmd(testConfig(t), zerolog.Nop())
	out := execute(t, root, "signal", "--offline")

	// Defaults (fed 5.25 hawkish, DXY 103.5 neutral) combine to SHORT.
	assert.Contains(t, out, "Fed Funds Rate:  5.25%")
	assert.Contains(t, out, "SHORT")
	assert.Contains(t, out, "Bearish")
}

func TestTradeRecordAndReport(t *testing.T) {
	cfg := testConfig(t)

	root := NewRootCmd(cfg, zerolog.Nop())
	out := execute(t, root, "trade", "record",
		"--signal", "LONG", "--entry", "2000", "--exit", "2020", "--size", "5")
	assert.Contains(t, out, "Trade #1 recorded")
	assert.Contains(t, out, "$10,100.00")

	// Same store, fresh command tree: the trade persisted.
	root = NewRootCmd(cfg, zerolog.Nop())
	out = execute(t, root, "report")
	assert.Contains(t, out, "Total Trades:")
	assert.Contains(t, out, "$10,100.00")
}

func TestBalanceSetCommand(t *testing.T) {
	cfg := testConfig(t)
	root := NewRootCmd(cfg, zerolog.Nop())
	out := execute(t, root, "balance", "set", "15000")
	assert.Contains(t, out, "$15,000.00")
	assert.Contains(t, out, "Deposit")

	root = NewRootCmd(cfg, zerolog.Nop())
	out = execute(t, root, "balance", "show")
	assert.Contains(t, out, "$15,000.00")
}

func TestResetRequiresConfirmation(t *testing.T) {
	root := NewRootCmd(testConfig(t), zerolog.Nop())
	root.SetArgs([]string{"reset"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

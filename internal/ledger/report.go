package ledger

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"macro-trader/internal/models"
)

const reportRule = "=================================================="

// Report renders the textual performance report: account summary,
// trade statistics and the last five trades. It is a pure projection
// of the current state.
func (l *Ledger) Report() string {
	return RenderReport(l.State(), l.now())
}

// RenderReport renders a performance report for the given state.
func RenderReport(state *models.AccountState, generatedAt time.Time) string {
	stats := state.Statistics

	totalReturn := "         n/a"
	if state.InitialCapital != 0 {
		pct := (state.CurrentBalance - state.InitialCapital) / state.InitialCapital * 100
		totalReturn = fmt.Sprintf("%11.1f%%", pct)
	}

	var sb strings.Builder
	sb.WriteString("\nTRADING PERFORMANCE REPORT\n")
	fmt.Fprintf(&sb, "Generated: %s\n", generatedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString(reportRule + "\n\n")

	sb.WriteString("ACCOUNT SUMMARY\n")
	fmt.Fprintf(&sb, "Initial Capital:     %s\n", pad(FormatUSD(state.InitialCapital), 13))
	fmt.Fprintf(&sb, "Current Balance:     %s\n", pad(FormatUSD(state.CurrentBalance), 13))
	fmt.Fprintf(&sb, "Total Return:        %s\n", totalReturn)
	fmt.Fprintf(&sb, "Peak Balance:        %s\n", pad(FormatUSD(stats.PeakBalance), 13))
	fmt.Fprintf(&sb, "Max Drawdown:        %11.1f%%\n\n", stats.Drawdown)

	sb.WriteString("TRADE STATISTICS\n")
	fmt.Fprintf(&sb, "Total Trades:        %13d\n", stats.TotalTrades)
	fmt.Fprintf(&sb, "Winning Trades:      %13d\n", stats.WinningTrades)
	fmt.Fprintf(&sb, "Losing Trades:       %13d\n", stats.LosingTrades)
	fmt.Fprintf(&sb, "Win Rate:            %11.1f%%\n", stats.WinRate)
	fmt.Fprintf(&sb, "Total P&L:           %s\n", pad(FormatUSD(stats.TotalPnL), 13))
	fmt.Fprintf(&sb, "Largest Win:         %s\n", pad(FormatUSD(stats.LargestWin), 13))
	fmt.Fprintf(&sb, "Largest Loss:        %s\n\n", pad(FormatUSD(stats.LargestLoss), 13))

	sb.WriteString("RECENT TRADES (Last 5)\n")
	sb.WriteString(reportRule + "\n")

	start := len(state.Trades) - 5
	if start < 0 {
		start = 0
	}
	for _, t := range state.Trades[start:] {
		closed := "N/A"
		if !t.DateClosed.IsZero() {
			closed = t.DateClosed.Format("2006-01-02")
		}
		fmt.Fprintf(&sb, "#%3d | %-5s | P&L: %9s | %s\n",
			t.ID, t.Signal, FormatUSD(t.PnL), closed)
	}

	return sb.String()
}

// tradeEventLabel builds the balance-event label for a recorded trade,
// e.g. `Trade #7 closed: Win $120.00`.
func tradeEventLabel(trade models.Trade) string {
	result := "Loss"
	if trade.PnL > 0 {
		result = "Win"
	}
	return fmt.Sprintf("Trade #%d closed: %s $%.2f", trade.ID, result, math.Abs(trade.PnL))
}

// FormatUSD formats an amount as a dollar figure with thousands
// separators, e.g. -1234.5 -> "-$1,234.50".
func FormatUSD(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	s := strconv.FormatFloat(amount, 'f', 2, 64)
	dot := strings.IndexByte(s, '.')
	intPart, decPart := s[:dot], s[dot+1:]

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := "$" + strings.Join(groups, ",") + "." + decPart
	if negative {
		out = "-" + out
	}
	return out
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

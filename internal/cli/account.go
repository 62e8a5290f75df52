package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"macro-trader/internal/ledger"
	"macro-trader/internal/models"
)

func newReportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show the trading performance report",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			l, ds, err := app.openLedger()
			if err != nil {
				return err
			}
			defer ds.Close()

			if output.IsJSON() {
				stats, statsErr := l.Statistics()
				payload := map[string]interface{}{
					"statistics":    stats,
					"recent_trades": l.RecentTrades(5),
				}
				if statsErr != nil {
					payload["error"] = statsErr.Error()
				}
				return output.JSON(payload)
			}

			output.Println(l.Report())
			return nil
		},
	}
}

func newTradeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Trade management",
	}
	cmd.AddCommand(newTradeRecordCmd(app))
	cmd.AddCommand(newTradeListCmd(app))
	return cmd
}

func newTradeRecordCmd(app *App) *cobra.Command {
	var (
		signalStr string
		entry     float64
		exit      float64
		size      float64
		pnl       float64
		opened    string
		closed    string
		reason    string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a completed trade",
		Long: `Record a completed round-trip trade. The PnL is applied to the
account balance and the statistics are updated. If --pnl is omitted it is
computed from entry, exit and size according to the trade direction.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			sig, err := parseSignal(signalStr)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("pnl") {
				switch sig {
				case models.SignalShort:
					pnl = (entry - exit) * size
				default:
					pnl = (exit - entry) * size
				}
			}

			dateOpened, err := parseDate(opened)
			if err != nil {
				return fmt.Errorf("invalid --opened: %w", err)
			}
			dateClosed, err := parseDate(closed)
			if err != nil {
				return fmt.Errorf("invalid --closed: %w", err)
			}

			l, ds, err := app.openLedger()
			if err != nil {
				return err
			}
			defer ds.Close()

			trade, err := l.RecordTrade(ledger.TradeInput{
				Signal:       sig,
				EntryPrice:   entry,
				ExitPrice:    exit,
				PositionSize: size,
				PnL:          pnl,
				DateOpened:   dateOpened,
				DateClosed:   dateClosed,
				CloseReason:  reason,
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trade)
			}
			output.Success("Trade #%d recorded: %s P&L", trade.ID, output.FormatPnL(trade.PnL))
			output.Printf("Balance: %s\n", ledger.FormatUSD(l.CurrentBalance()))
			return nil
		},
	}

	cmd.Flags().StringVar(&signalStr, "signal", "", "trade direction: LONG or SHORT (required)")
	cmd.Flags().Float64Var(&entry, "entry", 0, "entry price")
	cmd.Flags().Float64Var(&exit, "exit", 0, "exit price")
	cmd.Flags().Float64Var(&size, "size", 0, "position size in units")
	cmd.Flags().Float64Var(&pnl, "pnl", 0, "realized P&L (computed from prices if omitted)")
	cmd.Flags().StringVar(&opened, "opened", "", "open date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&closed, "closed", "", "close date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&reason, "reason", "", "close reason")
	cmd.MarkFlagRequired("signal")

	return cmd
}

func newTradeListCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			l, ds, err := app.openLedger()
			if err != nil {
				return err
			}
			defer ds.Close()

			trades := l.RecentTrades(limit)
			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Println("No trades recorded.")
				return nil
			}

			table := NewTable(output, "ID", "Signal", "Entry", "Exit", "Size", "P&L", "Closed")
			for _, t := range trades {
				closed := ""
				if !t.DateClosed.IsZero() {
					closed = t.DateClosed.Format("2006-01-02")
				}
				table.AddRow(
					strconv.Itoa(t.ID),
					output.SignalString(t.Signal),
					ledger.FormatUSD(t.EntryPrice),
					ledger.FormatUSD(t.ExitPrice),
					fmt.Sprintf("%.2f", t.PositionSize),
					output.FormatPnL(t.PnL),
					closed,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of trades to show")
	return cmd
}

func newBalanceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Account balance",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			l, ds, err := app.openLedger()
			if err != nil {
				return err
			}
			defer ds.Close()

			if output.IsJSON() {
				return output.JSON(map[string]float64{"balance": l.CurrentBalance()})
			}
			output.Printf("Current balance: %s\n", ledger.FormatUSD(l.CurrentBalance()))
			return nil
		},
	})

	var reason string
	setCmd := &cobra.Command{
		Use:   "set <amount>",
		Short: "Set the balance to an absolute amount",
		Long: `Set the account balance directly, recording the change as a deposit
or withdrawal event. Trade statistics are not affected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}

			l, ds, err := app.openLedger()
			if err != nil {
				return err
			}
			defer ds.Close()

			old := l.CurrentBalance()
			if reason == "" {
				if amount >= old {
					reason = "Deposit"
				} else {
					reason = "Withdrawal"
				}
			}
			if err := l.UpdateBalance(amount, reason); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"balance": amount,
					"delta":   amount - old,
					"reason":  reason,
				})
			}
			output.Success("Balance updated: %s (%s)", ledger.FormatUSD(amount), reason)
			return nil
		},
	}
	setCmd.Flags().StringVar(&reason, "reason", "", "event label (default Deposit/Withdrawal)")
	cmd.AddCommand(setCmd)

	return cmd
}

func newHistoryCmd(app *App) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent balance history",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			l, ds, err := app.openLedger()
			if err != nil {
				return err
			}
			defer ds.Close()

			events := l.BalanceHistory(time.Duration(days) * 24 * time.Hour)
			if output.IsJSON() {
				return output.JSON(events)
			}
			if len(events) == 0 {
				output.Printf("No balance events in the last %d days.\n", days)
				return nil
			}

			table := NewTable(output, "Time", "Balance", "Delta", "Event")
			for _, e := range events {
				delta := ""
				if e.Delta != 0 {
					delta = output.FormatPnL(e.Delta)
				}
				table.AddRow(
					e.Timestamp.Format("2006-01-02 15:04"),
					ledger.FormatUSD(e.Balance),
					delta,
					e.Event,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "window in days")
	return cmd
}

func newResetCmd(app *App) *cobra.Command {
	var balance float64
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the account, archiving current history",
		Long: `Archive the current account state and start fresh. The archive keeps
the full trade and balance history; trade numbering restarts at 1.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if !yes {
				return fmt.Errorf("pass --yes to confirm the reset")
			}

			l, ds, err := app.openLedger()
			if err != nil {
				return err
			}
			defer ds.Close()

			if cmd.Flags().Changed("balance") {
				err = l.ResetTo(balance)
			} else {
				err = l.Reset()
			}
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]float64{"balance": l.CurrentBalance()})
			}
			output.Success("Account reset. Balance: %s", ledger.FormatUSD(l.CurrentBalance()))
			return nil
		},
	}

	cmd.Flags().Float64Var(&balance, "balance", 0, "new starting balance (default: configured initial capital)")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newSizeCmd(app *App) *cobra.Command {
	var stop, risk float64

	cmd := &cobra.Command{
		Use:   "size",
		Short: "Compute position size for a stop distance",
		Long: `Compute how many units to trade so that a stop-out loses the given
percentage of the current balance.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if risk == 0 {
				risk = app.Config.Trading.RiskPercent
			}

			l, ds, err := app.openLedger()
			if err != nil {
				return err
			}
			defer ds.Close()

			units, err := l.PositionSize(stop, risk)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]float64{
					"units":         units,
					"stop_distance": stop,
					"risk_percent":  risk,
				})
			}
			output.Printf("Position size: %.2f units (%.1f%% risk, $%.2f stop)\n", units, risk, stop)
			return nil
		},
	}

	cmd.Flags().Float64Var(&stop, "stop", 0, "stop distance in dollars per unit (required)")
	cmd.Flags().Float64Var(&risk, "risk", 0, "percent of balance to risk (default: configured)")
	cmd.MarkFlagRequired("stop")
	return cmd
}

// tradeCSVRow is the flattened CSV projection of a trade.
type tradeCSVRow struct {
	ID           int     `csv:"id"`
	Signal       string  `csv:"signal"`
	EntryPrice   float64 `csv:"entry"`
	ExitPrice    float64 `csv:"exit"`
	PositionSize float64 `csv:"position_size"`
	PnL          float64 `csv:"pnl"`
	DateOpened   string  `csv:"date_opened"`
	DateClosed   string  `csv:"date_closed"`
	CloseReason  string  `csv:"close_reason"`
}

func newExportCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all trades to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			l, ds, err := app.openLedger()
			if err != nil {
				return err
			}
			defer ds.Close()

			state := l.State()
			rows := make([]tradeCSVRow, 0, len(state.Trades))
			for _, t := range state.Trades {
				rows = append(rows, tradeCSVRow{
					ID:           t.ID,
					Signal:       string(t.Signal),
					EntryPrice:   t.EntryPrice,
					ExitPrice:    t.ExitPrice,
					PositionSize: t.PositionSize,
					PnL:          t.PnL,
					DateOpened:   formatDate(t.DateOpened),
					DateClosed:   formatDate(t.DateClosed),
					CloseReason:  t.CloseReason,
				})
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			defer f.Close()

			if err := gocsv.MarshalFile(&rows, f); err != nil {
				return fmt.Errorf("writing CSV: %w", err)
			}

			output.Success("Exported %d trades to %s", len(rows), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "trades.csv", "output file path")
	return cmd
}

func parseSignal(s string) (models.Signal, error) {
	switch strings.ToUpper(s) {
	case "LONG":
		return models.SignalLong, nil
	case "SHORT":
		return models.SignalShort, nil
	case "WAIT":
		return models.SignalWait, nil
	default:
		return "", fmt.Errorf("invalid signal %q (LONG, SHORT or WAIT)", s)
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", s)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

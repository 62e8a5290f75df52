package cli

import (
	"github.com/spf13/cobra"

	"macro-trader/internal/agent"
	"macro-trader/internal/market"
	"macro-trader/internal/models"
	"macro-trader/internal/narrator"
	"macro-trader/internal/notify"
	"macro-trader/internal/signal"
)

// provider builds the market data provider; --offline skips all network
// sources and serves the configured defaults.
func (app *App) provider(offline bool) market.Provider {
	if offline {
		return market.StaticProvider{Defaults: app.Config.Data.Defaults}
	}
	return market.NewLiveProvider(app.Config.Data, app.Config.Credentials.FREDAPIKey, app.Logger)
}

func (app *App) engine() *signal.Engine {
	return signal.NewEngine(signal.ThresholdsFromConfig(app.Config.Signal), app.Logger)
}

func newSignalCmd(app *App) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "signal",
		Short: "Evaluate the current gold signal",
		Long:  "Fetch the macro snapshot and print the derived LONG/SHORT/WAIT signal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			snap, fallbacks, err := app.provider(offline).Fetch(cmd.Context())
			if err != nil {
				return err
			}

			result, err := app.engine().Evaluate(snap)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"snapshot": snap,
					"result":   result,
				})
			}

			printSnapshot(output, snap)
			if len(fallbacks) > 0 {
				output.Warning("Defaults used for: %v", fallbacks)
			}
			output.Println()
			printSignal(output, result)
			output.Println()
			output.Dim("%s", signal.Explain(result))
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "use configured default values, no network")
	return cmd
}

func newRunCmd(app *App) *cobra.Command {
	var offline, daemon bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full daily analysis",
		Long: `Run the complete analysis pipeline: fetch macro data, evaluate the
signal, narrate it, persist the snapshot and notify the configured channels.
With --daemon the analysis repeats daily at the scheduled hour.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			l, ds, err := app.openLedger()
			if err != nil {
				return err
			}
			defer ds.Close()

			a := agent.New(agent.Config{
				Provider:  app.provider(offline),
				Engine:    app.engine(),
				Narrator:  narrator.New(app.Config.Narrator, app.Config.Credentials.OpenAIAPIKey, app.Logger),
				Ledger:    l,
				Snapshots: ds,
				Notifier:  notify.NewMultiNotifier(app.Config.Notifications),
				Logger:    app.Logger,
			})

			if daemon {
				scheduler, err := agent.NewScheduler(a, app.Config.Schedule, app.Logger)
				if err != nil {
					return err
				}
				output.Info("Running daily at %02d:00 %s, Ctrl-C to stop",
					app.Config.Schedule.Hour, app.Config.Schedule.Timezone)
				return scheduler.Run(cmd.Context())
			}

			analysis, err := a.RunOnce(cmd.Context())
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(analysis)
			}

			printSnapshot(output, analysis.Snapshot)
			output.Println()
			printSignal(output, analysis.Result)
			output.Println()
			output.Bold("Rationale")
			output.Printf("  %s\n", analysis.Reasoning)
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "use configured default values, no network")
	cmd.Flags().BoolVar(&daemon, "daemon", false, "keep running, executing daily at the scheduled hour")
	return cmd
}

func printSnapshot(output *Output, snap models.MacroSnapshot) {
	output.Bold("Macro Snapshot")
	output.Printf("  Fed Funds Rate:  %.2f%%\n", snap.FedRate)
	output.Printf("  10Y Treasury:    %.2f%%\n", snap.Treasury10Y)
	output.Printf("  CPI YoY:         %.1f%%\n", snap.CPIYoY)
	output.Printf("  Gold Price:      $%.2f\n", snap.GoldPrice)
	output.Printf("  Dollar Index:    %.1f\n", snap.DXYLevel)
}

func printSignal(output *Output, result models.SignalResult) {
	output.Bold("Signal")
	output.Printf("  Direction:   %s\n", output.SignalString(result.Signal))
	output.Printf("  Bias:        %s\n", result.Bias)
	output.Printf("  Confidence:  %s\n", result.Confidence)
	output.Printf("  Fed Stance:  %s\n", result.Components.FedBias)
	output.Printf("  USD Stance:  %s\n", result.Components.DxyBias)
}

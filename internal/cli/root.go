// Package cli provides the command-line interface for the macro
// trading agent.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"macro-trader/internal/config"
	"macro-trader/internal/ledger"
	"macro-trader/internal/logging"
	"macro-trader/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// dataStore is what the CLI needs from persistence: account state plus
// macro snapshots. Both backends implement it.
type dataStore interface {
	store.AccountStore
	store.SnapshotStore
}

// openStore opens the configured persistence backend.
func (app *App) openStore() (dataStore, error) {
	path := app.Config.Store.Path
	if path == "" {
		path = config.DefaultConfigDir()
	}

	switch app.Config.Store.Backend {
	case "sqlite":
		return store.NewSQLiteStore(filepath.Join(path, "macro-trader.db"))
	default:
		return store.NewFileStore(path)
	}
}

// openLedger opens the store and loads the ledger over it. The caller
// closes the returned store.
func (app *App) openLedger() (*ledger.Ledger, dataStore, error) {
	ds, err := app.openStore()
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	l, err := ledger.New(ledger.Config{
		InitialCapital: app.Config.Trading.InitialCapital,
		Store:          ds,
		Logger:         app.Logger,
	})
	if err != nil {
		ds.Close()
		return nil, nil, err
	}
	return l, ds, nil
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "macro-trader",
		Short: "Macro-driven gold trading agent",
		Long: `Macro Trader derives a daily LONG/SHORT/WAIT signal for gold from
macro indicators (Fed funds rate, 10Y treasury yield, CPI, gold price and the
dollar index) and tracks a simulated trading account.

Use 'macro-trader help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/macro-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newSignalCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newReportCmd(app))
	rootCmd.AddCommand(newTradeCmd(app))
	rootCmd.AddCommand(newBalanceCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newResetCmd(app))
	rootCmd.AddCommand(newSizeCmd(app))
	rootCmd.AddCommand(newExportCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("Macro Trader v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Signal Thresholds")
	output.Printf("  Fed Hawkish:     %.2f%%\n", cfg.Signal.FedHawkishThreshold)
	output.Printf("  Fed Dovish:      %.2f%%\n", cfg.Signal.FedDovishThreshold)
	output.Printf("  DXY Strong:      %.1f\n", cfg.Signal.DxyStrongThreshold)
	output.Printf("  DXY Weak:        %.1f\n", cfg.Signal.DxyWeakThreshold)
	output.Println()

	output.Bold("Trading")
	output.Printf("  Initial Capital: %s\n", ledger.FormatUSD(cfg.Trading.InitialCapital))
	output.Printf("  Risk Percent:    %.1f%%\n", cfg.Trading.RiskPercent)
	output.Println()

	output.Bold("Schedule")
	output.Printf("  Hour:            %02d:00\n", cfg.Schedule.Hour)
	output.Printf("  Timezone:        %s\n", cfg.Schedule.Timezone)
	output.Println()

	output.Bold("Store")
	output.Printf("  Backend:         %s\n", cfg.Store.Backend)
	output.Printf("  Path:            %s\n", cfg.Store.Path)
	output.Println()

	output.Bold("Narrator")
	output.Printf("  Enabled:         %v\n", cfg.Narrator.Enabled)
	output.Printf("  Model:           %s\n", cfg.Narrator.Model)
	output.Println()

	output.Bold("Notifications")
	output.Printf("  Enabled:         %v\n", cfg.Notifications.Enabled)
	output.Printf("  Email:           %v\n", cfg.Notifications.Email.Enabled)
	output.Printf("  Webhook:         %v\n", cfg.Notifications.Webhook.Enabled)
}

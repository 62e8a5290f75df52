// Package logging provides structured logging functionality.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"macro-trader/internal/models"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "macro-trader", "logs", "macro-trader.log"),
		MaxSize:    50,
		MaxBackups: 7,
		MaxAge:     30,
	}
}

// NewLogger creates a new logger with default configuration.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// File writer with rotation
	if cfg.File {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = os.Stdout
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetDebugLevel sets the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// ContextKey is the type for context keys.
type ContextKey string

// LoggerKey is the context key for the logger.
const LoggerKey ContextKey = "logger"

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithOperation adds an operation name to the logger context.
func WithOperation(logger zerolog.Logger, operation string) zerolog.Logger {
	return logger.With().Str("operation", operation).Logger()
}

// LogSignal logs a generated signal.
func LogSignal(logger zerolog.Logger, result models.SignalResult) {
	logger.Info().
		Str("event", "signal").
		Str("signal", string(result.Signal)).
		Str("bias", result.Bias).
		Str("confidence", string(result.Confidence)).
		Str("fed_bias", string(result.Components.FedBias)).
		Str("dxy_bias", string(result.Components.DxyBias)).
		Msg("Signal generated")
}

// LogTradeRecorded logs a recorded trade outcome.
func LogTradeRecorded(logger zerolog.Logger, trade models.Trade, balance float64) {
	result := "LOSS"
	if trade.PnL > 0 {
		result = "WIN"
	}
	logger.Info().
		Str("event", "trade").
		Int("trade_id", trade.ID).
		Str("signal", string(trade.Signal)).
		Str("result", result).
		Float64("pnl", trade.PnL).
		Float64("balance", balance).
		Msg("Trade recorded")
}

// LogBalanceUpdate logs a direct balance change.
func LogBalanceUpdate(logger zerolog.Logger, oldBalance, newBalance float64, reason string) {
	logger.Info().
		Str("event", "balance").
		Float64("old_balance", oldBalance).
		Float64("new_balance", newBalance).
		Str("reason", reason).
		Msg("Balance updated")
}

// LogFetch logs a data-provider fetch, including per-source fallbacks.
func LogFetch(logger zerolog.Logger, snap models.MacroSnapshot, fallbacks []string) {
	event := logger.Info().
		Str("event", "fetch").
		Float64("fed_rate", snap.FedRate).
		Float64("treasury_10y", snap.Treasury10Y).
		Float64("cpi_yoy", snap.CPIYoY).
		Float64("gold_price", snap.GoldPrice).
		Float64("dxy_level", snap.DXYLevel)
	if len(fallbacks) > 0 {
		event = event.Strs("fallback_sources", fallbacks)
	}
	event.Msg("Macro data fetched")
}

// Package config provides configuration management for the macro trading agent.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Signal        SignalConfig       `mapstructure:"signal"`
	Trading       TradingConfig      `mapstructure:"trading"`
	Data          DataConfig         `mapstructure:"data"`
	Narrator      NarratorConfig     `mapstructure:"narrator"`
	Schedule      ScheduleConfig     `mapstructure:"schedule"`
	Store         StoreConfig        `mapstructure:"store"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Credentials   Credentials        `mapstructure:"-"` // Loaded separately
}

// SignalConfig holds the classifier thresholds.
type SignalConfig struct {
	FedHawkishThreshold float64 `mapstructure:"fed_hawkish_threshold"`
	FedDovishThreshold  float64 `mapstructure:"fed_dovish_threshold"`
	DxyStrongThreshold  float64 `mapstructure:"dxy_strong_threshold"`
	DxyWeakThreshold    float64 `mapstructure:"dxy_weak_threshold"`
}

// TradingConfig holds simulated-account configuration.
type TradingConfig struct {
	InitialCapital float64 `mapstructure:"initial_capital"`
	RiskPercent    float64 `mapstructure:"risk_percent"`
}

// DataConfig holds data-provider configuration. Defaults are the
// per-source fallback values used when a fetch fails.
type DataConfig struct {
	FREDBaseURL string        `mapstructure:"fred_base_url"`
	Defaults    DefaultValues `mapstructure:"defaults"`
}

// DefaultValues are the fallback values for the five macro inputs.
type DefaultValues struct {
	FedRate     float64 `mapstructure:"fed_rate"`
	Treasury10Y float64 `mapstructure:"treasury_10y"`
	CPIYoY      float64 `mapstructure:"cpi_yoy"`
	GoldPrice   float64 `mapstructure:"gold_price"`
	DXYLevel    float64 `mapstructure:"dxy_level"`
}

// NarratorConfig holds LLM narration configuration.
type NarratorConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// ScheduleConfig holds the daily run schedule.
type ScheduleConfig struct {
	Hour     int    `mapstructure:"hour"`
	Timezone string `mapstructure:"timezone"`
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Backend string `mapstructure:"backend"` // "file", "sqlite"
	Path    string `mapstructure:"path"`    // data dir (file) or db path (sqlite)
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Email   EmailConfig   `mapstructure:"email"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// EmailConfig holds email notification configuration.
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// Credentials holds API credentials.
type Credentials struct {
	FREDAPIKey   string `mapstructure:"fred_api_key"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/macro-trader"
	}
	return filepath.Join(home, ".config", "macro-trader")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// .env in the working directory, if present. Missing file is fine.
	_ = godotenv.Load()

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		// Config file not found, write a template and continue with defaults.
		if err := createTemplateConfig(configDir); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("signal.fed_hawkish_threshold", 5.0)
	v.SetDefault("signal.fed_dovish_threshold", 3.0)
	v.SetDefault("signal.dxy_strong_threshold", 105.0)
	v.SetDefault("signal.dxy_weak_threshold", 100.0)

	v.SetDefault("trading.initial_capital", 10000.0)
	v.SetDefault("trading.risk_percent", 2.0)

	v.SetDefault("data.fred_base_url", "https://api.stlouisfed.org/fred")
	v.SetDefault("data.defaults.fed_rate", 5.25)
	v.SetDefault("data.defaults.treasury_10y", 4.3)
	v.SetDefault("data.defaults.cpi_yoy", 3.0)
	v.SetDefault("data.defaults.gold_price", 2050.0)
	v.SetDefault("data.defaults.dxy_level", 103.5)

	v.SetDefault("narrator.enabled", true)
	v.SetDefault("narrator.model", "gpt-4o-mini")
	v.SetDefault("narrator.max_tokens", 300)

	v.SetDefault("schedule.hour", 8)
	v.SetDefault("schedule.timezone", "Australia/Sydney")

	v.SetDefault("store.backend", "file")
	v.SetDefault("store.path", DefaultConfigDir())

	v.SetDefault("notifications.enabled", false)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		cfg.Credentials.FREDAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAIAPIKey = v
	}
	if v := os.Getenv("EMAIL_FROM"); v != "" {
		cfg.Notifications.Email.From = v
	}
	if v := os.Getenv("EMAIL_TO"); v != "" {
		cfg.Notifications.Email.To = v
	}
	if v := os.Getenv("EMAIL_PASSWORD"); v != "" {
		cfg.Notifications.Email.Password = v
	}
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		cfg.Notifications.Email.SMTPHost = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Signal.FedHawkishThreshold <= c.Signal.FedDovishThreshold {
		return fmt.Errorf("fed_hawkish_threshold (%.2f) must exceed fed_dovish_threshold (%.2f)",
			c.Signal.FedHawkishThreshold, c.Signal.FedDovishThreshold)
	}
	if c.Signal.DxyStrongThreshold <= c.Signal.DxyWeakThreshold {
		return fmt.Errorf("dxy_strong_threshold (%.2f) must exceed dxy_weak_threshold (%.2f)",
			c.Signal.DxyStrongThreshold, c.Signal.DxyWeakThreshold)
	}
	if c.Trading.InitialCapital < 0 {
		return fmt.Errorf("initial_capital must be non-negative")
	}
	if c.Trading.RiskPercent <= 0 || c.Trading.RiskPercent > 100 {
		return fmt.Errorf("risk_percent must be between 0 and 100")
	}
	if c.Store.Backend != "" && c.Store.Backend != "file" && c.Store.Backend != "sqlite" {
		return fmt.Errorf("invalid store backend: %s (must be 'file' or 'sqlite')", c.Store.Backend)
	}
	if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 {
		return fmt.Errorf("schedule hour must be between 0 and 23")
	}
	return nil
}

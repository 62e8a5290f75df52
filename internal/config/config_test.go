package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesTemplatesAndUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	// Templates written for the next edit.
	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	info, err := os.Stat(filepath.Join(dir, "credentials.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	assert.Equal(t, 5.0, cfg.Signal.FedHawkishThreshold)
	assert.Equal(t, 3.0, cfg.Signal.FedDovishThreshold)
	assert.Equal(t, 105.0, cfg.Signal.DxyStrongThreshold)
	assert.Equal(t, 100.0, cfg.Signal.DxyWeakThreshold)
	assert.Equal(t, 10000.0, cfg.Trading.InitialCapital)
	assert.Equal(t, 2.0, cfg.Trading.RiskPercent)
	assert.Equal(t, 5.25, cfg.Data.Defaults.FedRate)
	assert.Equal(t, 103.5, cfg.Data.Defaults.DXYLevel)
	assert.Equal(t, "gpt-4o-mini", cfg.Narrator.Model)
	assert.Equal(t, 8, cfg.Schedule.Hour)
	assert.Equal(t, "file", cfg.Store.Backend)
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[signal]
fed_hawkish_threshold = 6.0
fed_dovish_threshold = 2.0

[trading]
initial_capital = 25000.0

[store]
backend = "sqlite"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 6.0, cfg.Signal.FedHawkishThreshold)
	assert.Equal(t, 2.0, cfg.Signal.FedDovishThreshold)
	assert.Equal(t, 25000.0, cfg.Trading.InitialCapital)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	// Untouched sections keep their defaults.
	assert.Equal(t, 105.0, cfg.Signal.DxyStrongThreshold)
	assert.Equal(t, 2.0, cfg.Trading.RiskPercent)
}

func TestLoadCredentialsFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	creds := `
fred_api_key = "file-fred-key"
openai_api_key = "file-openai-key"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials.toml"), []byte(creds), 0600))

	t.Setenv("FRED_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "file-fred-key", cfg.Credentials.FREDAPIKey)
	assert.Equal(t, "file-openai-key", cfg.Credentials.OpenAIAPIKey)

	// Environment overrides the file.
	t.Setenv("FRED_API_KEY", "env-fred-key")
	t.Setenv("EMAIL_FROM", "bot@example.com")

	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "env-fred-key", cfg.Credentials.FREDAPIKey)
	assert.Equal(t, "file-openai-key", cfg.Credentials.OpenAIAPIKey)
	assert.Equal(t, "bot@example.com", cfg.Notifications.Email.From)
}

func TestLoadRejectsInvertedThresholds(t *testing.T) {
	dir := t.TempDir()
	content := `
[signal]
fed_hawkish_threshold = 2.0
fed_dovish_threshold = 5.0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fed_hawkish_threshold")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Signal: SignalConfig{
				FedHawkishThreshold: 5.0,
				FedDovishThreshold:  3.0,
				DxyStrongThreshold:  105.0,
				DxyWeakThreshold:    100.0,
			},
			Trading:  TradingConfig{InitialCapital: 10000, RiskPercent: 2},
			Store:    StoreConfig{Backend: "file"},
			Schedule: ScheduleConfig{Hour: 8},
		}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.Trading.InitialCapital = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Trading.RiskPercent = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Store.Backend = "redis"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Schedule.Hour = 24
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Signal.DxyStrongThreshold = 99
	assert.Error(t, cfg.Validate())
}

func TestTemplateDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	custom := "[trading]\ninitial_capital = 500.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(custom), 0644))

	require.NoError(t, createTemplateConfig(dir))

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# macro-trader configuration

[signal]
fed_hawkish_threshold = 5.0
fed_dovish_threshold = 3.0
dxy_strong_threshold = 105.0
dxy_weak_threshold = 100.0

[trading]
initial_capital = 10000.0
risk_percent = 2.0

[data]
fred_base_url = "https://api.stlouisfed.org/fred"

# Fallback values used when a data source is unavailable.
[data.defaults]
fed_rate = 5.25
treasury_10y = 4.3
cpi_yoy = 3.0
gold_price = 2050.0
dxy_level = 103.5

[narrator]
enabled = true
model = "gpt-4o-mini"
max_tokens = 300

[schedule]
hour = 8
timezone = "Australia/Sydney"

[store]
backend = "file"   # "file" or "sqlite"
# path = "~/.config/macro-trader"

[notifications]
enabled = false

[notifications.email]
enabled = false
smtp_host = "smtp.gmail.com"
smtp_port = 587
from = ""
to = ""

[notifications.webhook]
enabled = false
url = ""
`

const credentialsTemplate = `# macro-trader credentials
# Values here can be overridden by FRED_API_KEY and OPENAI_API_KEY
# environment variables (or a .env file in the working directory).

fred_api_key = ""
openai_api_key = ""
`

func createTemplateConfig(configDir string) error {
	return writeTemplate(configDir, "config.toml", configTemplate, 0644)
}

func createTemplateCredentials(configDir string) error {
	// Credentials are secrets; restrict to the owner.
	return writeTemplate(configDir, "credentials.toml", credentialsTemplate, 0600)
}

func writeTemplate(configDir, name, content string, perm os.FileMode) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	path := filepath.Join(configDir, name)
	if _, err := os.Stat(path); err == nil {
		return nil // already exists
	}

	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("writing %s template: %w", name, err)
	}
	return nil
}

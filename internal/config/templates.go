package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# F&O Returns Reporter Configuration

[ledger]
# Header of the column holding contract symbols
symbol_column = "Symbol"
# Header of the per-trade realized return (percent)
return_column = "Realized P&L Pct."
# Header of the per-trade notional used as the netting basis
notional_column = "Buy Value"
# Cell text that marks the charges row
charges_token = "Charges"

[symbol]
# Characters before the two-digit year; 0 detects the leading letters
root_length = 5

[report]
# List months April-first within each year
fiscal_order = false
# Decimal places in tables
precision = 2
# Enable colored output
color_enabled = true
# Ledgers processed in parallel by the report command
workers = 4

[logging]
# debug, info, warn, error
level = "warn"
# Also write a rotating log file
file = false
file_path = ""
max_size = 20
max_backups = 3
max_age = 30

[store]
# SQLite database for saved reports
path = ""
`

// TemplatePath returns where the config template is written for configDir.
func TemplatePath(configDir string) string {
	return filepath.Join(configDir, "config.toml")
}

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := TemplatePath(configDir)
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}

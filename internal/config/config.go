// Package config provides configuration management for the returns reporter.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"fno-returns/internal/errors"
	"fno-returns/internal/symbol"
)

// EnvPrefix prefixes every environment override, e.g. FNORETURNS_SYMBOL_ROOT_LENGTH.
const EnvPrefix = "FNORETURNS"

// Config holds all application configuration.
type Config struct {
	Ledger  LedgerConfig  `mapstructure:"ledger"`
	Symbol  SymbolConfig  `mapstructure:"symbol"`
	Report  ReportConfig  `mapstructure:"report"`
	Logging LoggingConfig `mapstructure:"logging"`
	Store   StoreConfig   `mapstructure:"store"`

	// Path is the config file that was read, empty when running on defaults.
	Path string `mapstructure:"-"`
}

// LedgerConfig names the ledger columns and the charges marker.
type LedgerConfig struct {
	SymbolColumn   string `mapstructure:"symbol_column"`
	ReturnColumn   string `mapstructure:"return_column"`
	NotionalColumn string `mapstructure:"notional_column"`
	ChargesToken   string `mapstructure:"charges_token"`
}

// SymbolConfig controls symbol decoding. RootLength 0 detects the root.
type SymbolConfig struct {
	RootLength int `mapstructure:"root_length"`
}

// ReportConfig controls report presentation.
type ReportConfig struct {
	FiscalOrder  bool `mapstructure:"fiscal_order"`
	Precision    int  `mapstructure:"precision"`
	ColorEnabled bool `mapstructure:"color_enabled"`
	Workers      int  `mapstructure:"workers"`
}

// LoggingConfig mirrors logging.LogConfig.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// StoreConfig controls the report history database.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/fno-returns"
	}
	return filepath.Join(home, ".config", "fno-returns")
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	cfg := &Config{}
	v := newViper("")
	_ = v.Unmarshal(cfg)
	return cfg
}

func newViper(configDir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	base := configDir
	if base != "" {
		v.AddConfigPath(configDir)
	} else {
		base = DefaultConfigDir()
	}

	v.SetDefault("ledger.symbol_column", "Symbol")
	v.SetDefault("ledger.return_column", "Realized P&L Pct.")
	v.SetDefault("ledger.notional_column", "Buy Value")
	v.SetDefault("ledger.charges_token", "Charges")
	v.SetDefault("symbol.root_length", symbol.DefaultRootLength)
	v.SetDefault("report.fiscal_order", false)
	v.SetDefault("report.precision", 2)
	v.SetDefault("report.color_enabled", true)
	v.SetDefault("report.workers", 4)
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.file_path", filepath.Join(base, "logs", "fno-returns.log"))
	v.SetDefault("logging.max_size", 20)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 30)
	v.SetDefault("store.path", filepath.Join(base, "history.db"))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by a commented template and defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := newViper(configDir)
	cfg := &Config{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrapf(errors.ErrConfigInvalid, "reading config.toml: %v", err)
		}
		// A read-only home is not fatal; defaults still apply.
		_ = createTemplateConfig(configDir)
	} else {
		cfg.Path = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrapf(errors.ErrConfigInvalid, "decoding config: %v", err)
	}
	cfg.fillPaths(configDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// fillPaths resolves empty file locations to configDir.
func (c *Config) fillPaths(configDir string) {
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(configDir, "logs", "fno-returns.log")
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(configDir, "history.db")
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Ledger.SymbolColumn) == "" {
		return errors.NewValidationError("ledger.symbol_column", c.Ledger.SymbolColumn, "must not be empty")
	}
	if strings.TrimSpace(c.Ledger.ReturnColumn) == "" {
		return errors.NewValidationError("ledger.return_column", c.Ledger.ReturnColumn, "must not be empty")
	}
	if strings.TrimSpace(c.Ledger.ChargesToken) == "" {
		return errors.NewValidationError("ledger.charges_token", c.Ledger.ChargesToken, "must not be empty")
	}
	if c.Symbol.RootLength < 0 {
		return errors.NewValidationError("symbol.root_length", c.Symbol.RootLength, "must be 0 (detect) or positive")
	}
	if c.Report.Precision < 0 || c.Report.Precision > 10 {
		return errors.NewValidationError("report.precision", c.Report.Precision, "must be between 0 and 10")
	}
	if c.Report.Workers < 1 {
		return errors.NewValidationError("report.workers", c.Report.Workers, "must be at least 1")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.NewValidationError("logging.level", c.Logging.Level, "must be debug, info, warn or error")
	}
	return nil
}

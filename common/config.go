// Package common holds the configuration and logging shared by the
// valuation commands.
package common

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the valuation engine and its commands.
type Config struct {
	Portfolio string          `toml:"portfolio"`  // default portfolio
	Currency  string          `toml:"currency"`   // reporting currency
	LotMethod string          `toml:"lot_method"` // fifo, lifo or hifo
	Ledger    LedgerConfig    `toml:"ledger"`
	Market    MarketConfig    `toml:"market"`
	Storage   StorageConfig   `toml:"storage"`
	Logging   LoggingConfig   `toml:"logging"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

// LedgerConfig locates the JSONL transaction ledger.
type LedgerConfig struct {
	Path string `toml:"path"`
}

// MarketConfig locates the market data folder.
type MarketConfig struct {
	Path string `toml:"path"`
}

// StorageConfig selects where transactions, holdings and prices are kept.
type StorageConfig struct {
	Driver string `toml:"driver"` // "file" (ledger and market folder) or "sqlite"
	Path   string `toml:"path"`   // sqlite database file
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// SchedulerConfig holds the recompute debounce configuration.
type SchedulerConfig struct {
	Debounce string `toml:"debounce"`
}

// GetDebounce parses the debounce window, defaulting to one second.
func (c *SchedulerConfig) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil || d < 0 {
		return time.Second
	}
	return d
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Portfolio: "default",
		Currency:  "USD",
		LotMethod: "fifo",
		Ledger:    LedgerConfig{Path: "ledger.jsonl"},
		Market:    MarketConfig{Path: "market"},
		Storage:   StorageConfig{Driver: "file", Path: "valuation.db"},
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{Debounce: "1s"},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones, missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("VALUATION_PORTFOLIO"); v != "" {
		config.Portfolio = v
	}
	if v := os.Getenv("VALUATION_CURRENCY"); v != "" {
		config.Currency = v
	}
	if v := os.Getenv("VALUATION_LOT_METHOD"); v != "" {
		config.LotMethod = v
	}
	if v := os.Getenv("VALUATION_LEDGER"); v != "" {
		config.Ledger.Path = v
	}
	if v := os.Getenv("VALUATION_MARKET"); v != "" {
		config.Market.Path = v
	}
	if v := os.Getenv("VALUATION_STORAGE_DRIVER"); v != "" {
		config.Storage.Driver = v
	}
	if v := os.Getenv("VALUATION_STORAGE_PATH"); v != "" {
		config.Storage.Path = v
	}
	if v := os.Getenv("VALUATION_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("VALUATION_DEBOUNCE"); v != "" {
		config.Scheduler.Debounce = v
	}
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown storage driver %q, want \"file\" or \"sqlite\"", c.Storage.Driver)
	}
	switch c.LotMethod {
	case "fifo", "lifo", "hifo":
	default:
		return fmt.Errorf("unknown lot method %q, want fifo, lifo or hifo", c.LotMethod)
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("invalid currency %q", c.Currency)
	}
	return nil
}

// Package config loads and validates the bot configuration from YAML
// or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"turtlebot/strategies"
)

// Config represents the complete bot configuration.
type Config struct {
	Account  AccountConfig           `json:"account" yaml:"account"`
	Strategy strategies.TurtleParams `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig           `json:"journal" yaml:"journal"`
	Backtest BacktestConfig          `json:"backtest" yaml:"backtest"`
	OKX      OKXConfig               `json:"okx" yaml:"okx"`
}

// AccountConfig contains account initialization parameters.
type AccountConfig struct {
	Balance float64 `json:"balance" yaml:"balance"`
	Symbol  string  `json:"symbol" yaml:"symbol"`
}

// JournalConfig contains persistence parameters.
type JournalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// BacktestConfig contains simulation parameters.
type BacktestConfig struct {
	WarmupBars    int     `json:"warmup_bars" yaml:"warmup_bars"`
	AnnualizeBars float64 `json:"annualize_bars" yaml:"annualize_bars"`
}

// OKXConfig contains exchange endpoint parameters.
type OKXConfig struct {
	RESTBase       string `json:"rest_base" yaml:"rest_base"`
	WSURL          string `json:"ws_url" yaml:"ws_url"`
	Bar            string `json:"bar" yaml:"bar"`
	BackfillTarget int    `json:"backfill_target" yaml:"backfill_target"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Balance: 10000,
			Symbol:  "SOL-USDT",
		},
		Strategy: strategies.DefaultTurtleParams(),
		Journal: JournalConfig{
			DBPath: "./turtle.db",
		},
		Backtest: BacktestConfig{
			WarmupBars:    50,
			AnnualizeBars: 365,
		},
		OKX: OKXConfig{
			Bar:            "1m",
			BackfillTarget: 5000,
		},
	}
}

// LoadFromFile loads configuration from a file, trying YAML first and
// falling back to JSON. The loaded config is validated.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration as YAML or JSON based on the
// file extension.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if c.Account.Symbol == "" {
		return fmt.Errorf("account.symbol is required")
	}
	if err := strategies.ValidateTurtleParams(c.Strategy); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	if c.Backtest.WarmupBars <= 0 {
		return fmt.Errorf("backtest.warmup_bars must be positive")
	}
	if c.Backtest.AnnualizeBars <= 0 {
		return fmt.Errorf("backtest.annualize_bars must be positive")
	}
	if c.OKX.BackfillTarget <= 0 {
		return fmt.Errorf("okx.backfill_target must be positive")
	}
	return nil
}

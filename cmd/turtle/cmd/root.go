package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"turtlebot/config"
)

var rootCmd = &cobra.Command{
	Use:   "turtle",
	Short: "A turtle breakout trading bot for OKX spot markets",
	Long: `Turtle is a trend-following trading bot built around the classic
turtle breakout rules.

It provides tools for:
  - Live trading against the OKX public market-data feed
  - Backfilling historical candles into a local SQLite journal
  - Backtesting the breakout strategy over stored history
  - Reviewing recorded signals, trades, and performance stats`,
}

var cfgPath string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "f", "", "path to config file (YAML or JSON)")
}

// loadConfig returns the file-backed config when --config is set, the
// defaults otherwise.
func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

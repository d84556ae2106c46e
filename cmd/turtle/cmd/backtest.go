package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"turtlebot/backtest"
	"turtlebot/journal"
	"turtlebot/strategies"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay stored candles through the turtle strategy",
	Long: `Backtest replays candles from the journal bar-by-bar through the
turtle breakout strategy with an isolated ledger, then prints a
performance report.

Example:
  turtle backtest -f config.yaml --bars 5000 --export-csv trades.csv`,
	RunE: runBacktest,
}

var (
	btBars      int
	btExportCSV string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().IntVar(&btBars, "bars", 5000, "number of most recent candles to replay")
	backtestCmd.Flags().StringVar(&btExportCSV, "export-csv", "", "write executed trades to this CSV file")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	symbol := cfg.Account.Symbol
	candles, err := j.LatestCandles(symbol, btBars)
	if err != nil {
		return fmt.Errorf("load candles: %w", err)
	}
	fmt.Printf("Replaying %d candles for %s\n\n", len(candles), symbol)

	strat, err := strategies.NewTurtle(symbol, &cfg.Strategy)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	runner := &backtest.Runner{
		Strategy: strat,
		Config: backtest.Config{
			InitialBalance: cfg.Account.Balance,
			WarmupBars:     cfg.Backtest.WarmupBars,
			AnnualizeBars:  cfg.Backtest.AnnualizeBars,
		},
		Log: log.New(os.Stderr, "backtest: ", log.LstdFlags),
	}

	report, err := runner.Run(context.Background(), candles)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	backtest.PrintReport(os.Stdout, report)

	if btExportCSV != "" {
		f, err := os.Create(btExportCSV)
		if err != nil {
			return fmt.Errorf("create csv: %w", err)
		}
		defer f.Close()

		if err := journal.ExportTradesCSV(f, report.Trades); err != nil {
			return fmt.Errorf("export trades: %w", err)
		}
		fmt.Printf("\nTrades written to %s\n", btExportCSV)
	}

	return nil
}

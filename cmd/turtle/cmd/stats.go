package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"turtlebot/journal"
	"turtlebot/strategies"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show journal statistics and recent trades",
	RunE:  runStats,
}

var (
	statsRecent    int
	statsExportCSV string
)

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().IntVar(&statsRecent, "recent", 10, "number of recent trades to list")
	statsCmd.Flags().StringVar(&statsExportCSV, "export-csv", "", "write the listed trades to this CSV file")
}

func runStats(cmd *cobra.Command, args []string) error {
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
	stats, err := j.TradeStats(symbol)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	fmt.Printf("Journal: %s (%s)\n", cfg.Journal.DBPath, symbol)
	fmt.Printf("  Candles:       %d\n", stats.Candles)
	fmt.Printf("  Signals:       %d\n", stats.Signals)
	fmt.Printf("  Trades:        %d (%d closed)\n", stats.Trades, stats.ClosedTrades)
	if stats.ClosedTrades > 0 {
		fmt.Printf("  Wins:          %d (%.1f%%)\n", stats.Wins,
			float64(stats.Wins)/float64(stats.ClosedTrades)*100)
	}
	fmt.Printf("  Realized P/L:  %.2f\n", stats.RealizedPnL)

	if candles, err := j.LatestCandles(symbol, 100); err == nil && len(candles) > 0 {
		if strat, err := strategies.NewTurtle(symbol, &cfg.Strategy); err == nil {
			if snap, err := strat.Snapshot(candles); err == nil {
				fmt.Printf("\nIndicators (latest close %.4f):\n", snap.Price)
				printBand := func(name string, v *float64) {
					if v != nil {
						fmt.Printf("  %-12s %.4f\n", name+":", *v)
					}
				}
				printBand("entry high", snap.EntryHigh)
				printBand("entry low", snap.EntryLow)
				printBand("exit high", snap.ExitHigh)
				printBand("exit low", snap.ExitLow)
				printBand("ATR", snap.ATR)
			}
		}
	}

	trades, err := j.RecentTrades(statsRecent)
	if err != nil {
		return fmt.Errorf("recent trades: %w", err)
	}

	if len(trades) > 0 {
		fmt.Printf("\nRecent trades:\n")
		for _, t := range trades {
			line := fmt.Sprintf("  %s  %-4s %10.4f @ %10.4f  %s",
				t.Time.Format("2006-01-02 15:04"), t.Side, t.Quantity, t.Price, t.Strategy)
			if t.PnL != nil {
				line += fmt.Sprintf("  pnl=%.2f", *t.PnL)
			}
			fmt.Println(line)
		}
	}

	if statsExportCSV != "" {
		f, err := os.Create(statsExportCSV)
		if err != nil {
			return fmt.Errorf("create csv: %w", err)
		}
		defer f.Close()

		if err := journal.ExportTradesCSV(f, trades); err != nil {
			return fmt.Errorf("export trades: %w", err)
		}
		fmt.Printf("\nTrades written to %s\n", statsExportCSV)
	}

	return nil
}

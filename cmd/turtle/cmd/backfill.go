package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"turtlebot/journal"
	"turtlebot/okx"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Download historical candles into the journal",
	Long: `Backfill pages backwards through OKX candle history and stores the
bars in the SQLite journal. Writes are idempotent, so re-running after
an interruption simply resumes coverage.

Example:
  turtle backfill -f config.yaml --target 10000`,
	RunE: runBackfill,
}

var bfTarget int

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().IntVar(&bfTarget, "target", 0, "bars to fetch (default: okx.backfill_target from config)")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	target := bfTarget
	if target <= 0 {
		target = cfg.OKX.BackfillTarget
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	client := okx.NewClient(cfg.OKX.RESTBase, cfg.OKX.Bar)
	client.Log = log.New(os.Stderr, "backfill: ", log.LstdFlags)

	symbol := cfg.Account.Symbol
	fmt.Printf("Backfilling %d %s candles for %s into %s\n", target, cfg.OKX.Bar, symbol, cfg.Journal.DBPath)

	n, err := client.Backfill(ctx, symbol, target, j)
	if err != nil {
		return fmt.Errorf("backfill stopped after %d candles: %w", n, err)
	}

	fmt.Printf("Backfill complete: %d candles stored\n", n)
	return nil
}

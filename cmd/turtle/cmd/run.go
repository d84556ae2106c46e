package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"turtlebot/engine"
	"turtlebot/journal"
	"turtlebot/ledger"
	"turtlebot/market"
	"turtlebot/okx"
	"turtlebot/strategies"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live trading loop",
	Long: `Run connects to the OKX ticker stream and trades the configured
symbol with the turtle breakout strategy.

Candle history is kept fresh with a periodic REST refresh; every tick,
signal, and trade is recorded in the SQLite journal.

Example:
  turtle run -f config.yaml`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stderr, "turtle: ", log.LstdFlags)
	symbol := cfg.Account.Symbol

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	strat, err := strategies.NewTurtle(symbol, &cfg.Strategy)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	led := ledger.New(cfg.Account.Balance, j)
	bus := engine.NewBus(1000)
	defer bus.Close()

	mgr := engine.NewManager(led, j, bus, logger)
	mgr.AddStrategy(symbol, strat)

	client := okx.NewClient(cfg.OKX.RESTBase, cfg.OKX.Bar)

	fmt.Printf("Trading %s (balance: %.2f, journal: %s)\n", symbol, cfg.Account.Balance, cfg.Journal.DBPath)

	if n, err := client.RefreshRecent(ctx, symbol, j); err != nil {
		logger.Printf("initial candle refresh failed: %v", err)
	} else {
		logger.Printf("refreshed %d candles", n)
	}

	// Keep stored history fresh alongside the tick stream.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := client.RefreshRecent(ctx, symbol, j); err != nil && ctx.Err() == nil {
					logger.Printf("candle refresh failed: %v", err)
				}
			}
		}
	}()

	ticks := make(chan market.Ticker, 1000)
	stream := okx.NewStream(cfg.OKX.WSURL)
	stream.Log = logger

	go func() {
		defer close(ticks)
		err := stream.Run(ctx, []string{symbol}, func(tk market.Ticker) {
			select {
			case ticks <- tk:
			default:
				// Manager is behind; drop the tick.
			}
		})
		if err != nil && ctx.Err() == nil {
			logger.Printf("stream stopped: %v", err)
		}
	}()

	err = mgr.Run(ctx, ticks)
	if errors.Is(err, context.Canceled) {
		logger.Printf("shutting down")
		return nil
	}
	return err
}

// Package backtest replays stored history through a strategy and an
// isolated ledger, producing an equity curve and performance report.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"log"

	"turtlebot/indicators"
	"turtlebot/ledger"
	"turtlebot/market"
	"turtlebot/strategies"
)

// Config controls a simulation run.
type Config struct {
	InitialBalance float64

	// WarmupBars is the minimum history before the first analyzed bar.
	// Defaults to 50.
	WarmupBars int

	// AnnualizeBars is the bars-per-year base for the Sharpe ratio.
	// The classic turtle report assumed daily bars (365); callers
	// replaying 1m candles should pass 525600 instead.
	AnnualizeBars float64
}

const (
	defaultWarmupBars    = 50
	defaultAnnualizeBars = 365
)

func (c *Config) applyDefaults() {
	if c.WarmupBars <= 0 {
		c.WarmupBars = defaultWarmupBars
	}
	if c.AnnualizeBars <= 0 {
		c.AnnualizeBars = defaultAnnualizeBars
	}
}

// Runner drives the strategy bar-by-bar over a closed historical
// window. Each run uses its own ledger, so concurrent runs share no
// state and an abandoned run corrupts nothing.
type Runner struct {
	Strategy *strategies.Turtle
	Config   Config

	Log *log.Logger // optional; rejected entries are logged here
}

// Run replays candles and returns the performance report. It requires
// at least WarmupBars bars of history and checks ctx at bar boundaries.
func (r *Runner) Run(ctx context.Context, candles []market.Candle) (*Report, error) {
	if r.Strategy == nil {
		return nil, fmt.Errorf("backtest: strategy is required")
	}

	cfg := r.Config
	cfg.applyDefaults()

	if len(candles) < cfg.WarmupBars {
		return nil, fmt.Errorf("backtest: need at least %d candles, got %d: %w",
			cfg.WarmupBars, len(candles), market.ErrInsufficientData)
	}

	led := ledger.New(cfg.InitialBalance, nil)
	atrPeriod := r.Strategy.Params().ATRPeriod

	var (
		equity []Point
		trades []ledger.Trade
	)

	for i := cfg.WarmupBars; i < len(candles); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		window := candles[:i+1]
		bar := candles[i]

		sizer := func(balance float64) float64 {
			atr, err := indicators.ATR(window, atrPeriod)
			if err != nil {
				return 0
			}
			return r.Strategy.PositionSize(balance, atr)
		}

		for _, sig := range r.Strategy.Analyze(window) {
			sig.Price = bar.Close // execute at the bar's close

			trade, err := led.Apply(sig, sizer)
			if err != nil {
				if errors.Is(err, ledger.ErrExecutionRejected) {
					if r.Log != nil {
						r.Log.Printf("bar %d: %v", i, err)
					}
					continue
				}
				return nil, err
			}
			if trade != nil {
				trades = append(trades, *trade)
			}
		}

		led.Mark(bar.Symbol, bar.Close, bar.Time)
		equity = append(equity, Point{Time: bar.Time, Equity: led.TotalEquity()})
	}

	return buildReport(cfg, candles, trades, equity, led.TotalEquity()), nil
}

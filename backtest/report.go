package backtest

import (
	"fmt"
	"io"
	"math"
	"time"

	"turtlebot/ledger"
	"turtlebot/market"
)

// Point is one step of the equity curve.
type Point struct {
	Time   time.Time
	Equity float64
}

// Report summarizes a completed simulation run. It is computed once at
// the end of the run and not mutated afterwards.
type Report struct {
	InitialBalance float64
	FinalBalance   float64
	TotalReturn    float64
	ReturnRate     float64
	MaxDrawdown    float64
	TotalTrades    int
	WinRate        float64
	AvgReturn      float64
	SharpeRatio    float64
	Start          time.Time
	End            time.Time

	EquityCurve []Point
	Trades      []ledger.Trade
}

func buildReport(cfg Config, candles []market.Candle, trades []ledger.Trade, equity []Point, finalEquity float64) *Report {
	rep := &Report{
		InitialBalance: cfg.InitialBalance,
		FinalBalance:   finalEquity,
		TotalReturn:    finalEquity - cfg.InitialBalance,
		MaxDrawdown:    maxDrawdown(equity),
		TotalTrades:    len(trades),
		SharpeRatio:    sharpe(equity, cfg.AnnualizeBars),
		Start:          candles[0].Time,
		End:            candles[len(candles)-1].Time,
		EquityCurve:    equity,
		Trades:         trades,
	}

	if cfg.InitialBalance != 0 {
		rep.ReturnRate = rep.TotalReturn / cfg.InitialBalance
	}

	rep.WinRate, rep.AvgReturn = closingStats(trades)
	return rep
}

// closingStats derives win rate and mean realized P&L from the closing
// trades (the only trades that carry a P&L).
func closingStats(trades []ledger.Trade) (winRate, avgReturn float64) {
	var closed, wins int
	var sum float64

	for _, t := range trades {
		if t.PnL == nil {
			continue
		}
		closed++
		sum += *t.PnL
		if *t.PnL > 0 {
			wins++
		}
	}

	if closed == 0 {
		return 0, 0
	}
	return float64(wins) / float64(closed), sum / float64(closed)
}

// maxDrawdown is the largest peak-to-trough relative decline of the
// equity curve.
func maxDrawdown(equity []Point) float64 {
	if len(equity) < 2 {
		return 0
	}

	peak := equity[0].Equity
	var maxDD float64

	for _, p := range equity[1:] {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - p.Equity) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// sharpe is the annualized ratio of mean per-step equity return to its
// standard deviation. Fewer than two points or zero variance yield 0,
// never NaN.
func sharpe(equity []Point, annualizeBars float64) float64 {
	if len(equity) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, (equity[i].Equity-prev)/prev)
	}
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance) * math.Sqrt(annualizeBars)
}

// PrintReport writes a human-readable summary of the run.
func PrintReport(w io.Writer, r *Report) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Report")
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "Period:          %s -> %s\n",
		r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	fmt.Fprintf(w, "Initial Balance: %.2f\n", r.InitialBalance)
	fmt.Fprintf(w, "Final Balance:   %.2f\n", r.FinalBalance)
	fmt.Fprintf(w, "Total Return:    %.2f (%.2f%%)\n", r.TotalReturn, r.ReturnRate*100)
	fmt.Fprintf(w, "Max Drawdown:    %.2f%%\n", r.MaxDrawdown*100)
	fmt.Fprintf(w, "Trades:          %d\n", r.TotalTrades)
	fmt.Fprintf(w, "Win Rate:        %.2f%%\n", r.WinRate*100)
	fmt.Fprintf(w, "Avg Trade P/L:   %.2f\n", r.AvgReturn)
	fmt.Fprintf(w, "Sharpe Ratio:    %.2f\n", r.SharpeRatio)
	fmt.Fprintln(w, "==================================================")
}

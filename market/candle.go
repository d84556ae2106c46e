// Package market defines the value types shared by the strategy,
// ledger, and backtest packages: candles, tickers, and signals.
package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInsufficientData is returned when a computation needs more bars
// than the caller supplied. It is recoverable: wait for more data.
var ErrInsufficientData = errors.New("insufficient data")

// Candle represents one OHLCV interval for an instrument. Candles are
// immutable once created.
type Candle struct {
	Symbol string
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Validate checks the OHLCV invariants: finite prices, high covers
// open/close, low is covered by open/close, non-negative volume.
func (c Candle) Validate() error {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("candle %s@%s: non-finite value", c.Symbol, c.Time.Format(time.RFC3339))
		}
	}
	if c.High < math.Max(c.Open, c.Close) {
		return fmt.Errorf("candle %s@%s: high %.8f below max(open, close)", c.Symbol, c.Time.Format(time.RFC3339), c.High)
	}
	if c.Low > math.Min(c.Open, c.Close) {
		return fmt.Errorf("candle %s@%s: low %.8f above min(open, close)", c.Symbol, c.Time.Format(time.RFC3339), c.Low)
	}
	if c.Volume < 0 {
		return fmt.Errorf("candle %s@%s: negative volume", c.Symbol, c.Time.Format(time.RFC3339))
	}
	return nil
}

// Ticker is a live top-of-book update from the exchange stream.
type Ticker struct {
	Symbol    string
	Time      time.Time
	Last      float64
	Bid       float64
	Ask       float64
	Volume24h float64
}

// Mid returns the bid/ask midpoint, or the last price when the book
// sides are missing.
func (t Ticker) Mid() float64 {
	if t.Bid > 0 && t.Ask > 0 {
		return (t.Bid + t.Ask) / 2
	}
	return t.Last
}

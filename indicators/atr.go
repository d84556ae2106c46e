package indicators

import (
	"fmt"
	"math"

	"turtlebot/market"
)

// ATR calculates the Average True Range as the arithmetic mean of the
// most recent period true-range values. The true range of a bar needs
// the previous close, so period+1 candles are required.
func ATR(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period+1 {
		return 0, fmt.Errorf("atr: need %d candles, got %d: %w",
			period+1, len(candles), market.ErrInsufficientData)
	}

	start := len(candles) - period
	sum := 0.0
	for i := start; i < len(candles); i++ {
		sum += trueRange(candles[i], candles[i-1])
	}
	return sum / float64(period), nil
}

// trueRange is max(high-low, |high-prevClose|, |low-prevClose|).
func trueRange(current, previous market.Candle) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)

	return math.Max(highLow, math.Max(highClose, lowClose))
}

// Package indicators provides pure windowed technical indicators. All
// functions take an immutable, time-ordered candle slice and are
// deterministic given identical input.
package indicators

import (
	"fmt"

	"turtlebot/market"
)

// HighestHigh returns the highest high over the period bars preceding
// the most recent bar. The latest, still-forming bar is excluded so a
// breakout is measured against prior history only.
func HighestHigh(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period+1 {
		return 0, fmt.Errorf("highest high: need %d candles, got %d: %w",
			period+1, len(candles), market.ErrInsufficientData)
	}

	end := len(candles) - 1 // exclude latest bar
	high := candles[end-period].High
	for _, c := range candles[end-period : end] {
		if c.High > high {
			high = c.High
		}
	}
	return high, nil
}

// LowestLow returns the lowest low over the period bars preceding the
// most recent bar, excluding the latest bar.
func LowestLow(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period+1 {
		return 0, fmt.Errorf("lowest low: need %d candles, got %d: %w",
			period+1, len(candles), market.ErrInsufficientData)
	}

	end := len(candles) - 1
	low := candles[end-period].Low
	for _, c := range candles[end-period : end] {
		if c.Low < low {
			low = c.Low
		}
	}
	return low, nil
}

package market

import "time"

// Series is an append-only, time-ordered candle window for a single
// symbol. The exchange feed is at-least-once, so Append deduplicates by
// timestamp; arrival order must be non-decreasing. A max length bounds
// the live window (older bars are dropped from the front).
type Series struct {
	symbol  string
	max     int
	candles []Candle
}

// NewSeries returns an empty series for symbol keeping at most max
// candles; max <= 0 means unbounded.
func NewSeries(symbol string, max int) *Series {
	return &Series{symbol: symbol, max: max}
}

// Append adds a candle to the series. Duplicate timestamps are ignored
// (idempotent redelivery), out-of-order or wrong-symbol candles are
// rejected.
func (s *Series) Append(c Candle) (added bool) {
	if c.Symbol != s.symbol {
		return false
	}
	if n := len(s.candles); n > 0 {
		last := s.candles[n-1].Time
		if c.Time.Equal(last) {
			return false
		}
		if c.Time.Before(last) {
			return false
		}
	}
	s.candles = append(s.candles, c)
	if s.max > 0 && len(s.candles) > s.max {
		s.candles = s.candles[len(s.candles)-s.max:]
	}
	return true
}

func (s *Series) Symbol() string { return s.symbol }

func (s *Series) Len() int { return len(s.candles) }

// Candles returns the full ordered window. The slice is shared; callers
// must not mutate it.
func (s *Series) Candles() []Candle { return s.candles }

// Tail returns the most recent n candles (fewer if the series is
// shorter).
func (s *Series) Tail(n int) []Candle {
	if n >= len(s.candles) {
		return s.candles
	}
	return s.candles[len(s.candles)-n:]
}

// LastTime returns the timestamp of the newest candle, or the zero time
// for an empty series.
func (s *Series) LastTime() time.Time {
	if len(s.candles) == 0 {
		return time.Time{}
	}
	return s.candles[len(s.candles)-1].Time
}

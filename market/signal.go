package market

import "time"

// SignalKind is the direction of a trading signal.
type SignalKind int

const (
	Hold SignalKind = iota
	Buy
	Sell
)

func (k SignalKind) String() string {
	switch k {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "hold"
	}
}

// Signal is a dated trading decision produced by a strategy. Signals
// are created fresh per analysis call and never mutated.
type Signal struct {
	Symbol     string
	Kind       SignalKind
	Price      float64
	Time       time.Time
	Strategy   string
	Reason     string
	Confidence float64 // 0.1 .. 0.9
}

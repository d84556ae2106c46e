// Package strategies contains the signal-generating strategies. A
// strategy is pure with respect to market data: it consumes an ordered
// candle window and produces zero or more dated signals.
package strategies

import (
	"errors"
	"fmt"
	"strings"

	"turtlebot/market"
)

// ErrInvalidParameter indicates a strategy misconfiguration. It is
// fatal to that configuration and must be rejected before use.
var ErrInvalidParameter = errors.New("invalid parameter")

// Strategy analyzes a candle window and emits signals. Analyze must be
// safe for concurrent use on independent windows.
type Strategy interface {
	Name() string
	Analyze(candles []market.Candle) []market.Signal
}

// New constructs a strategy by name. The set is closed: strategies are
// compiled in, not registered at runtime.
func New(name, symbol string, params *TurtleParams) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "turtle", "":
		return NewTurtle(symbol, params)
	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: turtle)", name)
	}
}

// Package engine runs the live trading loop: consume ticks, analyze
// stored history, execute signals through the ledger, and publish the
// results.
package engine

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

// barWindow is how much history each analysis round loads. It covers
// the default entry and ATR lookbacks with room for retuned parameters.
const barWindow = 100

// Store is the journal surface the engine needs.
type Store interface {
	LatestCandles(symbol string, n int) ([]market.Candle, error)
	SaveTicker(market.Ticker) error
	SaveSignal(market.Signal) error
}

// Manager owns one strategy per symbol and processes ticks strictly in
// order: a signal is analyzed, persisted, and executed before the next
// tick is looked at.
type Manager struct {
	ledger     *ledger.Ledger
	store      Store
	bus        *Bus
	strategies map[string]*strategies.Turtle
	series     map[string]*market.Series
	log        *log.Logger
}

// NewManager wires the live loop together. logger may be nil to
// silence progress output.
func NewManager(led *ledger.Ledger, store Store, bus *Bus, logger *log.Logger) *Manager {
	return &Manager{
		ledger:     led,
		store:      store,
		bus:        bus,
		strategies: make(map[string]*strategies.Turtle),
		series:     make(map[string]*market.Series),
		log:        logger,
	}
}

// AddStrategy registers the strategy handling symbol, replacing any
// previous one. Call before Run; the map is not locked.
func (m *Manager) AddStrategy(symbol string, s *strategies.Turtle) {
	m.strategies[symbol] = s
}

// Run consumes ticks until ctx is cancelled or the channel closes.
// Processing failures for a single tick are logged and skipped; the
// loop only stops on cancellation.
func (m *Manager) Run(ctx context.Context, ticks <-chan market.Ticker) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tick, ok := <-ticks:
			if !ok {
				return nil
			}
			if err := m.Process(tick); err != nil {
				m.logf("process %s: %v", tick.Symbol, err)
			}
		}
	}
}

// Process handles one tick end to end. It is called from the single
// Run goroutine; callers driving it directly must serialize themselves.
func (m *Manager) Process(tick market.Ticker) error {
	if err := m.store.SaveTicker(tick); err != nil {
		m.logf("save ticker %s: %v", tick.Symbol, err)
	}

	m.ledger.Mark(tick.Symbol, tick.Last, tick.Time)

	strat := m.strategies[tick.Symbol]
	if strat == nil {
		return nil
	}

	candles, err := m.store.LatestCandles(tick.Symbol, barWindow)
	if err != nil {
		return fmt.Errorf("load candles: %w", err)
	}
	window := m.window(tick.Symbol, candles)

	atrPeriod := strat.Params().ATRPeriod
	sizer := func(balance float64) float64 {
		atr, err := indicators.ATR(window, atrPeriod)
		if err != nil {
			return 0
		}
		return strat.PositionSize(balance, atr)
	}

	for _, sig := range strat.Analyze(window) {
		if err := m.store.SaveSignal(sig); err != nil {
			m.logf("save signal %s: %v", sig.Symbol, err)
		}

		trade, err := m.ledger.Apply(sig, sizer)
		if err != nil {
			if errors.Is(err, ledger.ErrExecutionRejected) {
				m.logf("signal rejected: %v", err)
				continue
			}
			return err
		}
		if trade != nil {
			m.logf("executed %s %s %.4f @ %.4f", trade.Side, trade.Symbol, trade.Quantity, trade.Price)
		}

		if m.bus != nil {
			m.bus.Publish(sig)
		}
	}

	return nil
}

// window folds the loaded bars into the symbol's in-memory series and
// returns the analysis window. Closed bars are immutable, so redelivery
// dedups by timestamp; the still-forming latest bar is taken from the
// store each time so its close stays fresh.
func (m *Manager) window(symbol string, candles []market.Candle) []market.Candle {
	if len(candles) == 0 {
		return nil
	}

	ser := m.series[symbol]
	if ser == nil {
		ser = market.NewSeries(symbol, barWindow)
		m.series[symbol] = ser
	}

	latest := candles[len(candles)-1]
	for _, c := range candles[:len(candles)-1] {
		ser.Append(c)
	}

	// The forming bar may already have been folded in as closed by an
	// earlier, fresher load.
	if !ser.LastTime().Before(latest.Time) {
		return ser.Tail(barWindow)
	}

	tail := ser.Tail(barWindow - 1)
	window := make([]market.Candle, 0, len(tail)+1)
	window = append(window, tail...)
	return append(window, latest)
}

// UpdateParams retunes the strategy for symbol; validation failures
// leave the previous parameters in place.
func (m *Manager) UpdateParams(symbol string, p strategies.TurtleParams) error {
	strat := m.strategies[symbol]
	if strat == nil {
		return fmt.Errorf("no strategy for %s", symbol)
	}
	return strat.SetParams(p)
}

// Positions reports the open positions.
func (m *Manager) Positions() []ledger.Position {
	return m.ledger.Positions()
}

// Balance reports the cash balance.
func (m *Manager) Balance() float64 {
	return m.ledger.Balance()
}

func (m *Manager) logf(format string, args ...any) {
	if m.log != nil {
		m.log.Printf(format, args...)
	}
}

package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turtlebot/ledger"
	"turtlebot/market"
	"turtlebot/strategies"
)

type fakeStore struct {
	candles    []market.Candle
	candlesErr error

	tickers []market.Ticker
	signals []market.Signal
}

func (f *fakeStore) LatestCandles(symbol string, n int) ([]market.Candle, error) {
	if f.candlesErr != nil {
		return nil, f.candlesErr
	}
	if len(f.candles) > n {
		return f.candles[len(f.candles)-n:], nil
	}
	return f.candles, nil
}

func (f *fakeStore) SaveTicker(t market.Ticker) error {
	f.tickers = append(f.tickers, t)
	return nil
}

func (f *fakeStore) SaveSignal(s market.Signal) error {
	f.signals = append(f.signals, s)
	return nil
}

// breakoutWindow is quiet history ending in a bar that clears the
// 20-bar high, which makes the default turtle emit a buy.
func breakoutWindow() []market.Candle {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	var out []market.Candle
	for i := 0; i < 25; i++ {
		out = append(out, market.Candle{
			Symbol: "SOL-USDT",
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   100, High: 101, Low: 99, Close: 100, Volume: 1000,
		})
	}
	out = append(out, market.Candle{
		Symbol: "SOL-USDT",
		Time:   base.Add(25 * time.Minute),
		Open:   100, High: 111, Low: 100, Close: 110, Volume: 2000,
	})
	return out
}

func tickAt(last float64) market.Ticker {
	return market.Ticker{
		Symbol: "SOL-USDT",
		Time:   time.Date(2025, 6, 1, 0, 26, 0, 0, time.UTC),
		Last:   last,
		Bid:    last - 0.1,
		Ask:    last + 0.1,
	}
}

func newTestManager(t *testing.T, store Store) (*Manager, *ledger.Ledger, *Bus) {
	t.Helper()

	strat, err := strategies.NewTurtle("SOL-USDT", nil)
	require.NoError(t, err)

	led := ledger.New(10_000, nil)
	bus := NewBus(8)

	m := NewManager(led, store, bus, nil)
	m.AddStrategy("SOL-USDT", strat)
	return m, led, bus
}

func TestProcessOpensPosition(t *testing.T) {
	t.Parallel()

	store := &fakeStore{candles: breakoutWindow()}
	m, led, bus := newTestManager(t, store)

	signals, cancel := bus.Subscribe()
	defer cancel()

	require.NoError(t, m.Process(tickAt(110)))

	// The tick itself is persisted.
	require.Len(t, store.tickers, 1)

	// The breakout produced at least the entry signal, persisted and
	// published.
	require.NotEmpty(t, store.signals)
	assert.Equal(t, market.Buy, store.signals[0].Kind)
	assert.Equal(t, strategies.TurtleName, store.signals[0].Strategy)

	pos, ok := led.Position("SOL-USDT")
	require.True(t, ok)
	assert.InDelta(t, 110, pos.AvgPrice, 1e-9)
	assert.Positive(t, pos.Quantity)
	assert.Less(t, led.Balance(), 10_000.0)

	published := <-signals
	assert.Equal(t, market.Buy, published.Kind)
}

func TestProcessSerializesRoundTrip(t *testing.T) {
	t.Parallel()

	store := &fakeStore{candles: breakoutWindow()}
	m, led, _ := newTestManager(t, store)

	require.NoError(t, m.Process(tickAt(110)))
	_, ok := led.Position("SOL-USDT")
	require.True(t, ok)

	// Identical follow-up tick re-analyzes the same window; the buy is
	// a no-op while long and the account is unchanged.
	balance := led.Balance()
	require.NoError(t, m.Process(tickAt(110)))
	assert.InDelta(t, balance, led.Balance(), 1e-9)
}

func TestProcessUnknownSymbol(t *testing.T) {
	t.Parallel()

	store := &fakeStore{candles: breakoutWindow()}
	strat, err := strategies.NewTurtle("SOL-USDT", nil)
	require.NoError(t, err)

	led := ledger.New(10_000, nil)
	m := NewManager(led, store, nil, nil)
	m.AddStrategy("SOL-USDT", strat)

	tick := tickAt(110)
	tick.Symbol = "BTC-USDT"

	require.NoError(t, m.Process(tick))
	assert.Len(t, store.tickers, 1)
	assert.Empty(t, store.signals)
}

func TestProcessStoreFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{candlesErr: errors.New("database locked")}
	m, _, _ := newTestManager(t, store)

	err := m.Process(tickAt(110))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load candles")
}

func TestProcessMarksPosition(t *testing.T) {
	t.Parallel()

	store := &fakeStore{candles: breakoutWindow()}
	m, led, _ := newTestManager(t, store)

	require.NoError(t, m.Process(tickAt(110)))

	// Quiet history on the next tick: no new signals, but the mark
	// follows the tick price.
	store.candles = store.candles[:25]
	require.NoError(t, m.Process(tickAt(120)))

	pos, ok := led.Position("SOL-USDT")
	require.True(t, ok)
	assert.InDelta(t, 120, pos.MarkPrice, 1e-9)
	assert.Positive(t, pos.UnrealizedPL)
}

func TestUpdateParams(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	m, _, _ := newTestManager(t, store)

	p := strategies.DefaultTurtleParams()
	p.EntryPeriod = 55
	require.NoError(t, m.UpdateParams("SOL-USDT", p))

	// Invalid parameters are rejected without touching the strategy.
	p.EntryPeriod = -1
	err := m.UpdateParams("SOL-USDT", p)
	assert.ErrorIs(t, err, strategies.ErrInvalidParameter)

	assert.Error(t, m.UpdateParams("BTC-USDT", strategies.DefaultTurtleParams()))
}

func TestRunStopsOnCancelAndClose(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	m, _, _ := newTestManager(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Run(ctx, make(chan market.Ticker))
	assert.ErrorIs(t, err, context.Canceled)

	ticks := make(chan market.Ticker, 1)
	ticks <- tickAt(100)
	close(ticks)
	assert.NoError(t, m.Run(context.Background(), ticks))
	assert.Len(t, store.tickers, 1)
}

func TestAccessors(t *testing.T) {
	t.Parallel()

	store := &fakeStore{candles: breakoutWindow()}
	m, _, _ := newTestManager(t, store)

	assert.InDelta(t, 10_000, m.Balance(), 1e-9)
	assert.Empty(t, m.Positions())

	require.NoError(t, m.Process(tickAt(110)))
	assert.Len(t, m.Positions(), 1)
}

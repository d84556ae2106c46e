package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turtlebot/market"
)

func buySignal(price float64) market.Signal {
	return market.Signal{
		Symbol:     "SOL-USDT",
		Kind:       market.Buy,
		Price:      price,
		Time:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Strategy:   "Turtle",
		Confidence: 0.6,
	}
}

func sellSignal(price float64) market.Signal {
	s := buySignal(price)
	s.Kind = market.Sell
	s.Time = s.Time.Add(time.Hour)
	s.Strategy = "TurtleExit"
	return s
}

func fixedSize(qty float64) Sizer {
	return func(float64) float64 { return qty }
}

func TestOpenLong(t *testing.T) {
	t.Parallel()

	l := New(10_000, nil)

	trade, err := l.Apply(buySignal(100), fixedSize(10))
	require.NoError(t, err)
	require.NotNil(t, trade)

	assert.Equal(t, "buy", trade.Side)
	assert.InDelta(t, 100, trade.Price, 1e-9)
	assert.InDelta(t, 10, trade.Quantity, 1e-9)
	assert.Nil(t, trade.PnL)
	assert.NotEmpty(t, trade.ID)

	assert.InDelta(t, 9_000, l.Balance(), 1e-9)

	pos, ok := l.Position("SOL-USDT")
	require.True(t, ok)
	assert.InDelta(t, 10, pos.Quantity, 1e-9)
	assert.InDelta(t, 100, pos.AvgPrice, 1e-9)

	// Equity is unchanged by the entry itself.
	assert.InDelta(t, 10_000, l.TotalEquity(), 1e-9)
}

func TestCloseLongRealizesPnL(t *testing.T) {
	t.Parallel()

	l := New(10_000, nil)

	_, err := l.Apply(buySignal(100), fixedSize(10))
	require.NoError(t, err)

	trade, err := l.Apply(sellSignal(110), nil)
	require.NoError(t, err)
	require.NotNil(t, trade)

	assert.Equal(t, "sell", trade.Side)
	require.NotNil(t, trade.PnL)
	assert.InDelta(t, 100, *trade.PnL, 1e-9) // (110-100)*10

	assert.InDelta(t, 10_100, l.Balance(), 1e-9)

	_, ok := l.Position("SOL-USDT")
	assert.False(t, ok)
}

func TestRoundTripAtSamePriceRestoresBalance(t *testing.T) {
	t.Parallel()

	l := New(10_000, nil)

	_, err := l.Apply(buySignal(100), fixedSize(10))
	require.NoError(t, err)

	trade, err := l.Apply(sellSignal(100), nil)
	require.NoError(t, err)
	require.NotNil(t, trade.PnL)

	assert.Zero(t, *trade.PnL)
	assert.InDelta(t, 10_000, l.Balance(), 1e-9)
}

func TestIdempotentNoOps(t *testing.T) {
	t.Parallel()

	l := New(10_000, nil)

	// Sell while flat.
	trade, err := l.Apply(sellSignal(100), nil)
	assert.NoError(t, err)
	assert.Nil(t, trade)

	_, err = l.Apply(buySignal(100), fixedSize(10))
	require.NoError(t, err)

	// Buy while long.
	trade, err = l.Apply(buySignal(105), fixedSize(10))
	assert.NoError(t, err)
	assert.Nil(t, trade)
	assert.InDelta(t, 9_000, l.Balance(), 1e-9)

	// Hold is always a no-op.
	hold := buySignal(100)
	hold.Kind = market.Hold
	trade, err = l.Apply(hold, nil)
	assert.NoError(t, err)
	assert.Nil(t, trade)
}

func TestEntryRejections(t *testing.T) {
	t.Parallel()

	l := New(10_000, nil)

	// Zero size.
	_, err := l.Apply(buySignal(100), fixedSize(0))
	assert.ErrorIs(t, err, ErrExecutionRejected)

	// Exposure cap: 96*100 = 9600 > 95% of 10000.
	_, err = l.Apply(buySignal(100), fixedSize(96))
	assert.ErrorIs(t, err, ErrExecutionRejected)

	// Rejection leaves the account untouched.
	assert.InDelta(t, 10_000, l.Balance(), 1e-9)
	_, ok := l.Position("SOL-USDT")
	assert.False(t, ok)
}

func TestMarkUpdatesEquity(t *testing.T) {
	t.Parallel()

	l := New(10_000, nil)

	_, err := l.Apply(buySignal(100), fixedSize(10))
	require.NoError(t, err)

	at := time.Date(2025, 6, 1, 1, 0, 0, 0, time.UTC)
	l.Mark("SOL-USDT", 120, at)

	pos, ok := l.Position("SOL-USDT")
	require.True(t, ok)
	assert.InDelta(t, 120, pos.MarkPrice, 1e-9)
	assert.InDelta(t, 200, pos.UnrealizedPL, 1e-9)
	assert.Equal(t, at, pos.Time)

	// balance 9000 + 10*120
	assert.InDelta(t, 10_200, l.TotalEquity(), 1e-9)

	// Marking a flat symbol is a no-op.
	l.Mark("BTC-USDT", 50_000, at)
	assert.InDelta(t, 10_200, l.TotalEquity(), 1e-9)
}

type failingRecorder struct{ err error }

func (r failingRecorder) RecordTrade(Trade) error { return r.err }

type capturingRecorder struct{ trades []Trade }

func (r *capturingRecorder) RecordTrade(t Trade) error {
	r.trades = append(r.trades, t)
	return nil
}

func TestRecorderFailureDoesNotRollBack(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	l := New(10_000, failingRecorder{err: boom})

	trade, err := l.Apply(buySignal(100), fixedSize(10))
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, trade)

	// The in-memory state is authoritative despite the failed write.
	assert.InDelta(t, 9_000, l.Balance(), 1e-9)
	_, ok := l.Position("SOL-USDT")
	assert.True(t, ok)
}

func TestRecorderReceivesTrades(t *testing.T) {
	t.Parallel()

	rec := &capturingRecorder{}
	l := New(10_000, rec)

	_, err := l.Apply(buySignal(100), fixedSize(10))
	require.NoError(t, err)
	_, err = l.Apply(sellSignal(110), nil)
	require.NoError(t, err)

	require.Len(t, rec.trades, 2)
	assert.Equal(t, "buy", rec.trades[0].Side)
	assert.Equal(t, "sell", rec.trades[1].Side)
	require.NotNil(t, rec.trades[1].PnL)
}

func TestReset(t *testing.T) {
	t.Parallel()

	l := New(10_000, nil)
	_, err := l.Apply(buySignal(100), fixedSize(10))
	require.NoError(t, err)

	l.Reset(5_000)

	assert.InDelta(t, 5_000, l.Balance(), 1e-9)
	assert.Empty(t, l.Positions())
}

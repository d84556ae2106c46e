package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func candleAt(min int, close float64) Candle {
	return Candle{
		Symbol: "SOL-USDT",
		Time:   time.Date(2025, 6, 1, 0, min, 0, 0, time.UTC),
		Open:   close - 0.5,
		High:   close + 1,
		Low:    close - 1,
		Close:  close,
		Volume: 1000,
	}
}

func TestCandleValidate(t *testing.T) {
	t.Parallel()

	c := candleAt(0, 100)
	assert.NoError(t, c.Validate())

	bad := c
	bad.High = c.Close - 5
	assert.Error(t, bad.Validate())

	bad = c
	bad.Low = c.Close + 5
	assert.Error(t, bad.Validate())

	bad = c
	bad.Volume = -1
	assert.Error(t, bad.Validate())
}

func TestTickerMid(t *testing.T) {
	t.Parallel()

	tk := Ticker{Bid: 99, Ask: 101, Last: 100.5}
	assert.InDelta(t, 100, tk.Mid(), 1e-9)

	// No book: fall back to last.
	tk = Ticker{Last: 100.5}
	assert.InDelta(t, 100.5, tk.Mid(), 1e-9)
}

func TestSeriesAppendOrderAndDedup(t *testing.T) {
	t.Parallel()

	s := NewSeries("SOL-USDT", 0)

	assert.True(t, s.Append(candleAt(0, 100)))
	assert.True(t, s.Append(candleAt(1, 101)))

	// Redelivery of the same bar is ignored.
	assert.False(t, s.Append(candleAt(1, 999)))
	assert.Equal(t, 2, s.Len())
	assert.InDelta(t, 101, s.Candles()[1].Close, 1e-9)

	// Out-of-order arrival is rejected.
	assert.False(t, s.Append(candleAt(0, 50)))

	// Wrong symbol is rejected.
	wrong := candleAt(2, 102)
	wrong.Symbol = "BTC-USDT"
	assert.False(t, s.Append(wrong))
}

func TestSeriesBoundedWindow(t *testing.T) {
	t.Parallel()

	s := NewSeries("SOL-USDT", 3)
	for i := 0; i < 5; i++ {
		s.Append(candleAt(i, 100+float64(i)))
	}

	assert.Equal(t, 3, s.Len())
	assert.InDelta(t, 102, s.Candles()[0].Close, 1e-9)
	assert.InDelta(t, 104, s.Candles()[2].Close, 1e-9)

	tail := s.Tail(2)
	assert.Len(t, tail, 2)
	assert.InDelta(t, 103, tail[0].Close, 1e-9)
}

func TestSignalKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "buy", Buy.String())
	assert.Equal(t, "sell", Sell.String())
	assert.Equal(t, "hold", Hold.String())
}

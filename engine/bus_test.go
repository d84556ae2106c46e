package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turtlebot/market"
)

func TestBusFanout(t *testing.T) {
	t.Parallel()

	b := NewBus(4)
	a, cancelA := b.Subscribe()
	c, cancelC := b.Subscribe()
	defer cancelA()
	defer cancelC()

	sig := market.Signal{Symbol: "SOL-USDT", Kind: market.Buy}
	assert.Equal(t, 2, b.Publish(sig))

	assert.Equal(t, sig, <-a)
	assert.Equal(t, sig, <-c)
}

func TestBusDropsSlowSubscriber(t *testing.T) {
	t.Parallel()

	b := NewBus(1)
	slow, cancel := b.Subscribe()
	defer cancel()

	first := market.Signal{Symbol: "SOL-USDT", Kind: market.Buy}
	second := market.Signal{Symbol: "SOL-USDT", Kind: market.Sell}

	assert.Equal(t, 1, b.Publish(first))
	// Buffer is full; the second publish drops instead of blocking.
	assert.Equal(t, 0, b.Publish(second))

	assert.Equal(t, first, <-slow)
	select {
	case extra := <-slow:
		t.Fatalf("unexpected signal %v", extra)
	default:
	}
}

func TestBusUnsubscribe(t *testing.T) {
	t.Parallel()

	b := NewBus(1)
	ch, cancel := b.Subscribe()

	cancel()
	cancel() // second cancel is a no-op

	assert.Zero(t, b.Publish(market.Signal{Kind: market.Buy}))

	_, open := <-ch
	assert.False(t, open)
}

func TestBusClose(t *testing.T) {
	t.Parallel()

	b := NewBus(1)
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Close()

	_, open := <-ch
	require.False(t, open)

	// Publishing and subscribing after close are harmless.
	assert.Zero(t, b.Publish(market.Signal{Kind: market.Buy}))
	late, _ := b.Subscribe()
	_, open = <-late
	assert.False(t, open)
}

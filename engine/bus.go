package engine

import (
	"sync"

	"turtlebot/market"
)

// Bus fans signals out to subscribers over bounded channels. Publishing
// never blocks: a subscriber that falls behind its buffer misses
// signals rather than stalling the trading loop.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan market.Signal
	next   int
	buffer int
	closed bool
}

// NewBus creates a bus whose subscribers each get a buffer of the given
// size (minimum 1).
func NewBus(buffer int) *Bus {
	if buffer < 1 {
		buffer = 1
	}
	return &Bus{
		subs:   make(map[int]chan market.Signal),
		buffer: buffer,
	}
}

// Subscribe registers a new consumer. The returned cancel func removes
// the subscription and closes its channel; calling it twice is safe.
func (b *Bus) Subscribe() (<-chan market.Signal, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan market.Signal, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Publish delivers sig to every subscriber with buffer room and returns
// the number that received it.
func (b *Bus) Publish(sig market.Signal) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- sig:
			delivered++
		default:
			// Slow consumer; drop.
		}
	}
	return delivered
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

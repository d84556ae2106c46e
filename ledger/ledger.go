// Package ledger tracks cash balance, open positions, and the trades
// produced by executing signals. The account is spot-only: positions
// are long or flat, never short.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"turtlebot/market"
	"turtlebot/pkg/id"
	"turtlebot/risk"
)

// ErrExecutionRejected indicates a signal failed the sizing or exposure
// checks. The signal is dropped, not retried.
var ErrExecutionRejected = errors.New("execution rejected")

// Position is the current holding for one symbol. A position with zero
// quantity does not exist; flat symbols are simply absent.
type Position struct {
	Symbol       string
	Quantity     float64
	AvgPrice     float64
	MarkPrice    float64
	UnrealizedPL float64
	Time         time.Time
}

// Trade is an executed, append-only ledger entry. PnL is set only on
// closing trades.
type Trade struct {
	ID       string
	Symbol   string
	Side     string // "buy" or "sell"
	Price    float64
	Quantity float64
	Time     time.Time
	Strategy string
	PnL      *float64
}

// Recorder persists trades as they are committed. The in-memory ledger
// is authoritative: a failed write is reported but never rolled back.
type Recorder interface {
	RecordTrade(Trade) error
}

// Sizer computes an entry quantity from the cash balance available at
// execution time.
type Sizer func(balance float64) float64

// Ledger owns the mutable account state. All operations take one
// exclusive lock, so concurrent signal processing for the same account
// is serialized and each transition is all-or-nothing.
type Ledger struct {
	mu        sync.Mutex
	balance   float64
	positions map[string]*Position
	recorder  Recorder
}

// New creates a ledger with the given starting balance. rec may be nil
// for runs that do not persist trades.
func New(balance float64, rec Recorder) *Ledger {
	return &Ledger{
		balance:   balance,
		positions: make(map[string]*Position),
		recorder:  rec,
	}
}

// Apply runs the signal through the position state machine:
//
//	Flat + Buy  -> open long (sized via size, subject to exposure cap)
//	Long + Sell -> close long, realizing P&L against the average entry
//
// Buy while long, sell while flat, and hold are no-ops returning
// (nil, nil). Rejected entries return ErrExecutionRejected.
func (l *Ledger) Apply(sig market.Signal, size Sizer) (*Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch sig.Kind {
	case market.Buy:
		if pos := l.positions[sig.Symbol]; pos != nil {
			return nil, nil // already long
		}
		return l.openLongLocked(sig, size)

	case market.Sell:
		pos := l.positions[sig.Symbol]
		if pos == nil {
			return nil, nil // already flat
		}
		return l.closeLongLocked(sig, pos)

	default:
		return nil, nil // hold
	}
}

func (l *Ledger) openLongLocked(sig market.Signal, size Sizer) (*Trade, error) {
	if size == nil {
		return nil, fmt.Errorf("buy %s: no sizer: %w", sig.Symbol, ErrExecutionRejected)
	}

	qty := size(l.balance)
	if d := risk.CheckEntry(qty, sig.Price, l.balance); !d.Allowed {
		return nil, fmt.Errorf("buy %s: %s: %w", sig.Symbol, d.Reason, ErrExecutionRejected)
	}

	trade := &Trade{
		ID:       id.New(),
		Symbol:   sig.Symbol,
		Side:     "buy",
		Price:    sig.Price,
		Quantity: qty,
		Time:     sig.Time,
		Strategy: sig.Strategy,
	}

	l.balance -= qty * sig.Price
	l.positions[sig.Symbol] = &Position{
		Symbol:    sig.Symbol,
		Quantity:  qty,
		AvgPrice:  sig.Price,
		MarkPrice: sig.Price,
		Time:      sig.Time,
	}

	return trade, l.record(*trade)
}

func (l *Ledger) closeLongLocked(sig market.Signal, pos *Position) (*Trade, error) {
	pnl := (sig.Price - pos.AvgPrice) * pos.Quantity

	trade := &Trade{
		ID:       id.New(),
		Symbol:   sig.Symbol,
		Side:     "sell",
		Price:    sig.Price,
		Quantity: pos.Quantity,
		Time:     sig.Time,
		Strategy: sig.Strategy,
		PnL:      &pnl,
	}

	l.balance += pos.Quantity * sig.Price
	delete(l.positions, sig.Symbol)

	return trade, l.record(*trade)
}

// record persists through the recorder. State has already been
// committed; a write failure is surfaced so the caller can decide
// whether to halt.
func (l *Ledger) record(t Trade) error {
	if l.recorder == nil {
		return nil
	}
	if err := l.recorder.RecordTrade(t); err != nil {
		return fmt.Errorf("record trade %s: %w", t.ID, err)
	}
	return nil
}

// Mark updates the position's marked price and unrealized P&L. Marking
// a flat symbol is a no-op.
func (l *Ledger) Mark(symbol string, price float64, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos := l.positions[symbol]
	if pos == nil {
		return
	}
	pos.MarkPrice = price
	pos.UnrealizedPL = (price - pos.AvgPrice) * pos.Quantity
	pos.Time = at
}

// TotalEquity is cash plus the marked value of all positions.
func (l *Ledger) TotalEquity() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	equity := l.balance
	for _, pos := range l.positions {
		equity += pos.Quantity * pos.MarkPrice
	}
	return equity
}

// Balance returns the cash balance.
func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// SetBalance overwrites the cash balance.
func (l *Ledger) SetBalance(balance float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance = balance
}

// Position returns a copy of the current position for symbol, or false
// when flat.
func (l *Ledger) Position(symbol string) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos := l.positions[symbol]
	if pos == nil {
		return Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all open positions.
func (l *Ledger) Positions() []Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, *pos)
	}
	return out
}

// Reset clears all positions and sets the balance, e.g. at the start of
// a backtest run.
func (l *Ledger) Reset(balance float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balance = balance
	l.positions = make(map[string]*Position)
}

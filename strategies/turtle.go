package strategies

import (
	"fmt"
	"sync"

	"turtlebot/indicators"
	"turtlebot/market"
)

// Strategy identifiers recorded on signals and trades.
const (
	TurtleName     = "Turtle"
	TurtleExitName = "TurtleExit"
)

// TurtleParams configures the breakout strategy.
type TurtleParams struct {
	EntryPeriod  int     `json:"entry_period" yaml:"entry_period"`   // breakout lookback, default 20
	ExitPeriod   int     `json:"exit_period" yaml:"exit_period"`     // exit lookback, default 10
	ATRPeriod    int     `json:"atr_period" yaml:"atr_period"`       // volatility lookback, default 20
	RiskPerTrade float64 `json:"risk_per_trade" yaml:"risk_per_trade"` // fraction of balance risked per ATR, default 0.02
	MaxUnits     int     `json:"max_units" yaml:"max_units"`         // position unit cap, default 4
}

// DefaultTurtleParams returns the classic turtle settings.
func DefaultTurtleParams() TurtleParams {
	return TurtleParams{
		EntryPeriod:  20,
		ExitPeriod:   10,
		ATRPeriod:    20,
		RiskPerTrade: 0.02,
		MaxUnits:     4,
	}
}

// ValidateTurtleParams rejects misconfigured parameters. Violations are
// never silently corrected.
func ValidateTurtleParams(p TurtleParams) error {
	if p.EntryPeriod <= 0 {
		return fmt.Errorf("entry period must be positive, got %d: %w", p.EntryPeriod, ErrInvalidParameter)
	}
	if p.ExitPeriod <= 0 {
		return fmt.Errorf("exit period must be positive, got %d: %w", p.ExitPeriod, ErrInvalidParameter)
	}
	if p.ATRPeriod <= 0 {
		return fmt.Errorf("atr period must be positive, got %d: %w", p.ATRPeriod, ErrInvalidParameter)
	}
	if p.RiskPerTrade <= 0 || p.RiskPerTrade > 1 {
		return fmt.Errorf("risk per trade must be in (0, 1], got %v: %w", p.RiskPerTrade, ErrInvalidParameter)
	}
	if p.MaxUnits <= 0 {
		return fmt.Errorf("max units must be positive, got %d: %w", p.MaxUnits, ErrInvalidParameter)
	}
	return nil
}

// Turtle is a trend-following breakout strategy: enter when the close
// breaks the entry-period channel, exit when it breaks the shorter
// exit-period channel in the other direction. Analyze is read-only;
// SetParams allows live retuning.
type Turtle struct {
	symbol string

	mu     sync.RWMutex
	params TurtleParams
}

// NewTurtle creates a turtle strategy for symbol. A nil params uses the
// defaults.
func NewTurtle(symbol string, params *TurtleParams) (*Turtle, error) {
	p := DefaultTurtleParams()
	if params != nil {
		p = *params
	}
	if err := ValidateTurtleParams(p); err != nil {
		return nil, err
	}
	return &Turtle{symbol: symbol, params: p}, nil
}

func (t *Turtle) Name() string { return TurtleName }

func (t *Turtle) Symbol() string { return t.symbol }

// Params returns the current parameters.
func (t *Turtle) Params() TurtleParams {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.params
}

// SetParams replaces the parameters after validation.
func (t *Turtle) SetParams(p TurtleParams) error {
	if err := ValidateTurtleParams(p); err != nil {
		return err
	}
	t.mu.Lock()
	t.params = p
	t.mu.Unlock()
	return nil
}

// Analyze evaluates the entry rule and then the exit rule against the
// latest close. Not enough history is a normal transient state and
// yields no signals, never an error. Both an entry and an opposite
// exit may be emitted from the same call; the ledger's idempotent state
// machine decides which has effect.
func (t *Turtle) Analyze(candles []market.Candle) []market.Signal {
	p := t.Params()

	minBars := p.EntryPeriod
	if p.ATRPeriod > minBars {
		minBars = p.ATRPeriod
	}
	if len(candles) < minBars {
		return nil
	}

	var signals []market.Signal
	if s := t.entrySignal(candles, p); s != nil {
		signals = append(signals, *s)
	}
	if s := t.exitSignal(candles, p); s != nil {
		signals = append(signals, *s)
	}
	return signals
}

// entrySignal checks the breakout entry rule. At most one entry signal
// per call; buy is checked first.
func (t *Turtle) entrySignal(candles []market.Candle, p TurtleParams) *market.Signal {
	latest := candles[len(candles)-1]

	entryHigh, err := indicators.HighestHigh(candles, p.EntryPeriod)
	if err != nil {
		return nil
	}
	entryLow, err := indicators.LowestLow(candles, p.EntryPeriod)
	if err != nil {
		return nil
	}

	if latest.Close > entryHigh {
		atr, err := indicators.ATR(candles, p.ATRPeriod)
		if err != nil {
			return nil
		}
		return &market.Signal{
			Symbol:   t.symbol,
			Kind:     market.Buy,
			Price:    latest.Close,
			Time:     latest.Time,
			Strategy: TurtleName,
			Reason: fmt.Sprintf("close %.4f broke above %d-bar high %.4f, ATR=%.4f",
				latest.Close, p.EntryPeriod, entryHigh, atr),
			Confidence: confidence(candles, true),
		}
	}

	if latest.Close < entryLow {
		atr, err := indicators.ATR(candles, p.ATRPeriod)
		if err != nil {
			return nil
		}
		return &market.Signal{
			Symbol:   t.symbol,
			Kind:     market.Sell,
			Price:    latest.Close,
			Time:     latest.Time,
			Strategy: TurtleName,
			Reason: fmt.Sprintf("close %.4f broke below %d-bar low %.4f, ATR=%.4f",
				latest.Close, p.EntryPeriod, entryLow, atr),
			Confidence: confidence(candles, false),
		}
	}

	return nil
}

// exitSignal checks the shorter exit channel, independently of the
// entry rule. Exit signals carry a fixed high confidence.
func (t *Turtle) exitSignal(candles []market.Candle, p TurtleParams) *market.Signal {
	const exitConfidence = 0.8

	latest := candles[len(candles)-1]

	exitHigh, err := indicators.HighestHigh(candles, p.ExitPeriod)
	if err != nil {
		return nil
	}
	exitLow, err := indicators.LowestLow(candles, p.ExitPeriod)
	if err != nil {
		return nil
	}

	if latest.Close < exitLow {
		return &market.Signal{
			Symbol:   t.symbol,
			Kind:     market.Sell,
			Price:    latest.Close,
			Time:     latest.Time,
			Strategy: TurtleExitName,
			Reason: fmt.Sprintf("long exit: close %.4f broke below %d-bar low %.4f",
				latest.Close, p.ExitPeriod, exitLow),
			Confidence: exitConfidence,
		}
	}

	if latest.Close > exitHigh {
		return &market.Signal{
			Symbol:   t.symbol,
			Kind:     market.Buy,
			Price:    latest.Close,
			Time:     latest.Time,
			Strategy: TurtleExitName,
			Reason: fmt.Sprintf("short exit: close %.4f broke above %d-bar high %.4f",
				latest.Close, p.ExitPeriod, exitHigh),
			Confidence: exitConfidence,
		}
	}

	return nil
}

// confidence scores an entry signal from volume expansion and price
// momentum over the trailing 10 bars, clamped to [0.1, 0.9]. With
// fewer than 10 bars it defaults to 0.5.
func confidence(candles []market.Candle, isLong bool) float64 {
	if len(candles) < 10 {
		return 0.5
	}

	recent := candles[len(candles)-10:]

	avgVolume := 0.0
	for _, c := range recent {
		avgVolume += c.Volume
	}
	avgVolume /= float64(len(recent))

	latest := recent[len(recent)-1]
	prev := recent[len(recent)-2]

	score := 0.5

	if avgVolume > 0 {
		switch ratio := latest.Volume / avgVolume; {
		case ratio >= 1.5:
			score += 0.2
		case ratio >= 1.2:
			score += 0.1
		}
	}

	if prev.Close != 0 {
		momentum := (latest.Close - prev.Close) / prev.Close
		if (isLong && momentum > 0) || (!isLong && momentum < 0) {
			score += 0.1
		}
	}

	if score < 0.1 {
		score = 0.1
	}
	if score > 0.9 {
		score = 0.9
	}
	return score
}

// PositionSize returns the quantity such that one ATR of adverse move
// costs RiskPerTrade of balance. A non-positive ATR yields 0.
func (t *Turtle) PositionSize(balance, atr float64) float64 {
	p := t.Params()

	if atr <= 0 {
		return 0
	}
	return (balance * p.RiskPerTrade) / atr
}

// IndicatorSnapshot reports the strategy's current view of the market
// for observability. Fields are nil when there is not enough history.
type IndicatorSnapshot struct {
	Price     float64
	EntryHigh *float64
	EntryLow  *float64
	ExitHigh  *float64
	ExitLow   *float64
	ATR       *float64
}

// Snapshot computes the current indicator bands over candles. An empty
// window is the only error case.
func (t *Turtle) Snapshot(candles []market.Candle) (IndicatorSnapshot, error) {
	if len(candles) == 0 {
		return IndicatorSnapshot{}, fmt.Errorf("snapshot: %w", market.ErrInsufficientData)
	}

	p := t.Params()
	snap := IndicatorSnapshot{Price: candles[len(candles)-1].Close}

	if v, err := indicators.HighestHigh(candles, p.EntryPeriod); err == nil {
		snap.EntryHigh = &v
	}
	if v, err := indicators.LowestLow(candles, p.EntryPeriod); err == nil {
		snap.EntryLow = &v
	}
	if v, err := indicators.HighestHigh(candles, p.ExitPeriod); err == nil {
		snap.ExitHigh = &v
	}
	if v, err := indicators.LowestLow(candles, p.ExitPeriod); err == nil {
		snap.ExitLow = &v
	}
	if v, err := indicators.ATR(candles, p.ATRPeriod); err == nil {
		snap.ATR = &v
	}
	return snap, nil
}

package journal

import (
	"database/sql"
	"time"

	"turtlebot/ledger"
	"turtlebot/market"
)

// LatestCandles returns the most recent n bars for symbol in ascending
// time order, ready to feed a strategy.
func (j *SQLite) LatestCandles(symbol string, n int) ([]market.Candle, error) {
	rows, err := j.db.Query(`
		SELECT symbol, timestamp, open, high, low, close, volume
		FROM candles
		WHERE symbol = ?
		ORDER BY timestamp DESC
		LIMIT ?`, symbol, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out, err := scanCandles(rows)
	if err != nil {
		return nil, err
	}

	// Newest-first from the query; callers want oldest-first.
	for i, k := 0, len(out)-1; i < k; i, k = i+1, k-1 {
		out[i], out[k] = out[k], out[i]
	}
	return out, nil
}

// Candles returns bars for symbol with timestamps in [start, end),
// ascending.
func (j *SQLite) Candles(symbol string, start, end time.Time) ([]market.Candle, error) {
	rows, err := j.db.Query(`
		SELECT symbol, timestamp, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC`, symbol, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCandles(rows)
}

func scanCandles(rows *sql.Rows) ([]market.Candle, error) {
	var out []market.Candle
	for rows.Next() {
		var c market.Candle
		if err := rows.Scan(&c.Symbol, &c.Time, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecentTrades returns the latest n trades, newest first.
func (j *SQLite) RecentTrades(n int) ([]ledger.Trade, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, side, price, quantity, timestamp, strategy, pnl
		FROM trades
		ORDER BY timestamp DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrades(rows)
}

// TradesBetween returns trades executed within [start, end), ascending.
func (j *SQLite) TradesBetween(start, end time.Time) ([]ledger.Trade, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, side, price, quantity, timestamp, strategy, pnl
		FROM trades
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrades(rows)
}

func scanTrades(rows *sql.Rows) ([]ledger.Trade, error) {
	var out []ledger.Trade
	for rows.Next() {
		var (
			t   ledger.Trade
			pnl sql.NullFloat64
		)
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Side, &t.Price, &t.Quantity, &t.Time, &t.Strategy, &pnl); err != nil {
			return nil, err
		}
		if pnl.Valid {
			v := pnl.Float64
			t.PnL = &v
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Stats summarizes stored trading activity for one symbol.
type Stats struct {
	Candles      int
	Signals      int
	Trades       int
	ClosedTrades int
	Wins         int
	RealizedPnL  float64
}

// TradeStats aggregates the journal for symbol. Wins and RealizedPnL
// consider only closing trades, which are the rows carrying a P&L.
func (j *SQLite) TradeStats(symbol string) (Stats, error) {
	var s Stats

	err := j.db.QueryRow(`SELECT COUNT(*) FROM candles WHERE symbol = ?`, symbol).Scan(&s.Candles)
	if err != nil {
		return Stats{}, err
	}

	err = j.db.QueryRow(`SELECT COUNT(*) FROM signals WHERE symbol = ?`, symbol).Scan(&s.Signals)
	if err != nil {
		return Stats{}, err
	}

	err = j.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(pnl),
		       COALESCE(SUM(CASE WHEN pnl > 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(pnl), 0)
		FROM trades
		WHERE symbol = ?`, symbol).Scan(&s.Trades, &s.ClosedTrades, &s.Wins, &s.RealizedPnL)
	if err != nil {
		return Stats{}, err
	}

	return s, nil
}

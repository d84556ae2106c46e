// Package journal persists market history and trading activity in a
// local SQLite database. Candle writes are idempotent: replaying a bar
// with the same symbol and timestamp replaces the stored row, so a
// restarted backfill never duplicates history.
package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"turtlebot/ledger"
	"turtlebot/market"
)

type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path and applies
// the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// SaveCandle upserts a single bar keyed by (symbol, timestamp).
func (j *SQLite) SaveCandle(c market.Candle) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO candles
		(symbol, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Symbol, c.Time, c.Open, c.High, c.Low, c.Close, c.Volume,
	)
	return err
}

// SaveCandles upserts a batch in one transaction. Either every bar
// lands or none do.
func (j *SQLite) SaveCandles(candles []market.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := j.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO candles
		(symbol, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.Exec(c.Symbol, c.Time, c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("save candle %s@%s: %w", c.Symbol, c.Time, err)
		}
	}

	return tx.Commit()
}

// SaveTicker appends a ticker snapshot.
func (j *SQLite) SaveTicker(t market.Ticker) error {
	_, err := j.db.Exec(`
		INSERT INTO tickers
		(symbol, timestamp, last, bid, ask, volume_24h)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.Symbol, t.Time, t.Last, t.Bid, t.Ask, t.Volume24h,
	)
	return err
}

// SaveSignal appends an emitted signal for later review.
func (j *SQLite) SaveSignal(s market.Signal) error {
	_, err := j.db.Exec(`
		INSERT INTO signals
		(symbol, kind, price, timestamp, strategy, reason, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.Symbol, s.Kind.String(), s.Price, s.Time, s.Strategy, s.Reason, s.Confidence,
	)
	return err
}

// RecordTrade appends an executed trade. It satisfies ledger.Recorder.
func (j *SQLite) RecordTrade(t ledger.Trade) error {
	var pnl sql.NullFloat64
	if t.PnL != nil {
		pnl = sql.NullFloat64{Float64: *t.PnL, Valid: true}
	}

	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, side, price, quantity, timestamp, strategy, pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Symbol, t.Side, t.Price, t.Quantity, t.Time, t.Strategy, pnl,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

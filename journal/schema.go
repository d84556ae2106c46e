package journal

const Schema = `
CREATE TABLE IF NOT EXISTS candles (
	symbol TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	volume REAL NOT NULL,
	UNIQUE(symbol, timestamp)
);

CREATE INDEX IF NOT EXISTS idx_candles_symbol_time ON candles(symbol, timestamp);

CREATE TABLE IF NOT EXISTS tickers (
	symbol TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	last REAL NOT NULL,
	bid REAL NOT NULL,
	ask REAL NOT NULL,
	volume_24h REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tickers_symbol_time ON tickers(symbol, timestamp);

CREATE TABLE IF NOT EXISTS signals (
	symbol TEXT NOT NULL,
	kind TEXT NOT NULL,
	price REAL NOT NULL,
	timestamp DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	reason TEXT NOT NULL,
	confidence REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_signals_symbol_time ON signals(symbol, timestamp);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	price REAL NOT NULL,
	quantity REAL NOT NULL,
	timestamp DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	pnl REAL
);

CREATE INDEX IF NOT EXISTS idx_trades_time ON trades(timestamp);
`

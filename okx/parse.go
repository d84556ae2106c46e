package okx

import (
	"strconv"
	"time"

	"turtlebot/market"
)

// candlesResponse is the REST envelope. Each data row is
// [ts, open, high, low, close, volume, ...], all strings, newest first.
type candlesResponse struct {
	Code string     `json:"code"`
	Msg  string     `json:"msg"`
	Data [][]string `json:"data"`
}

// parseCandleRows converts API rows to ascending candles, skipping rows
// that are too short or fail to parse.
func parseCandleRows(symbol string, rows [][]string) []market.Candle {
	out := make([]market.Candle, 0, len(rows))

	// Rows arrive newest first; walk backwards to emit ascending.
	for i := len(rows) - 1; i >= 0; i-- {
		c, ok := parseCandleRow(symbol, rows[i])
		if !ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

func parseCandleRow(symbol string, row []string) (market.Candle, bool) {
	if len(row) < 6 {
		return market.Candle{}, false
	}

	ms, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return market.Candle{}, false
	}

	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return market.Candle{}, false
		}
		vals[i] = v
	}

	return market.Candle{
		Symbol: symbol,
		Time:   time.UnixMilli(ms).UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, true
}

// wsEnvelope is a push message on a subscribed channel. Control frames
// (subscribe acks, pong) carry no data array and decode to empty Data.
type wsEnvelope struct {
	Event string `json:"event"`
	Arg   struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"arg"`
	Data []wsTicker `json:"data"`
}

type wsTicker struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
	BidPx  string `json:"bidPx"`
	AskPx  string `json:"askPx"`
	Vol24h string `json:"vol24h"`
	Ts     string `json:"ts"`
}

func (w wsTicker) toTicker() (market.Ticker, bool) {
	ms, err := strconv.ParseInt(w.Ts, 10, 64)
	if err != nil {
		return market.Ticker{}, false
	}

	last, err := strconv.ParseFloat(w.Last, 64)
	if err != nil {
		return market.Ticker{}, false
	}

	// Bid/ask/volume may be absent on thin books; zero is acceptable.
	bid, _ := strconv.ParseFloat(w.BidPx, 64)
	ask, _ := strconv.ParseFloat(w.AskPx, 64)
	vol, _ := strconv.ParseFloat(w.Vol24h, 64)

	return market.Ticker{
		Symbol:    w.InstID,
		Time:      time.UnixMilli(ms).UTC(),
		Last:      last,
		Bid:       bid,
		Ask:       ask,
		Volume24h: vol,
	}, true
}

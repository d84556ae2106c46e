package journal

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"turtlebot/ledger"
)

// ExportTradesCSV writes trades as CSV with a header row. Entries have
// an empty pnl column; closing trades carry the realized value.
func ExportTradesCSV(w io.Writer, trades []ledger.Trade) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"trade_id", "symbol", "side", "price", "quantity", "time", "strategy", "pnl"}); err != nil {
		return err
	}

	for _, t := range trades {
		pnl := ""
		if t.PnL != nil {
			pnl = f(*t.PnL)
		}
		if err := cw.Write([]string{
			t.ID,
			t.Symbol,
			t.Side,
			f(t.Price),
			f(t.Quantity),
			t.Time.Format(time.RFC3339),
			t.Strategy,
			pnl,
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

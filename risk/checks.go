package risk

import "fmt"

// MaxExposure caps the fraction of the cash balance a single entry may
// consume. The remainder is held back against fees and slippage.
const MaxExposure = 0.95

// Decision is the outcome of a pre-trade check. A disallowed decision
// carries the reason so callers can log the rejection.
type Decision struct {
	Allowed bool
	Reason  string
}

// CheckEntry validates an entry of size units at price against the cash
// balance.
func CheckEntry(size, price, balance float64) Decision {
	if size <= 0 {
		return Decision{Reason: "position size is zero"}
	}

	cost := size * price
	if cost > MaxExposure*balance {
		return Decision{Reason: fmt.Sprintf(
			"cost %.2f exceeds %.0f%% of balance %.2f", cost, MaxExposure*100, balance)}
	}

	return Decision{Allowed: true}
}

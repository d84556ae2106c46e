// Package risk provides position sizing and pre-trade entry checks.
package risk

// Size returns the quantity for which one ATR of adverse price move
// costs riskFraction of balance. A non-positive ATR yields 0: with no
// measurable volatility there is no defensible unit risk.
func Size(balance, riskFraction, atr float64) float64 {
	if atr <= 0 {
		return 0
	}
	riskCapital := balance * riskFraction
	return riskCapital / atr
}

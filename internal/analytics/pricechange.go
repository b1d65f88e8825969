package analytics

import (
	"github.com/shopspring/decimal"

	"CoinScope/internal/model"
)

var hundred = decimal.NewFromInt(100)

// PriceChange returns the percent change from the observation lookback
// positions before the last one to the last one. The lookback counts
// observations, not calendar days, so gaps in the series stretch it.
// It returns nil when the history is too short or the reference price is zero.
func PriceChange(series []model.PriceObservation, lookback int) *float64 {
	if lookback < 0 || len(series) < lookback+1 {
		return nil
	}
	last := series[len(series)-1].Price
	ref := series[len(series)-1-lookback].Price
	if ref.IsZero() {
		return nil
	}
	pct := last.Sub(ref).Div(ref).Mul(hundred).InexactFloat64()
	return &pct
}

package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"CoinScope/internal/model"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func dailySeries(prices ...float64) []model.PriceObservation {
	out := make([]model.PriceObservation, len(prices))
	for i, p := range prices {
		out[i] = model.PriceObservation{
			Timestamp: day0.AddDate(0, 0, i),
			Price:     decimal.NewFromFloat(p),
		}
	}
	return out
}

func generated(n int, f func(i int) float64) []model.PriceObservation {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = f(i)
	}
	return dailySeries(prices...)
}

func withVolume(series []model.PriceObservation, vol float64) []model.PriceObservation {
	for i := range series {
		v := decimal.NewFromFloat(vol)
		series[i].Volume = &v
	}
	return series
}

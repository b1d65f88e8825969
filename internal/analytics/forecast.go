package analytics

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"CoinScope/internal/model"
)

// ForecastResult is a linear-trend price forecast.
type ForecastResult struct {
	HorizonDays       int
	PredictedPrice    decimal.Decimal
	ConfidencePercent float64
	ConfidenceLabel   model.ConfidenceLabel
	Slope             float64
	Intercept         float64
	RSquared          float64
	TrainingPoints    int
	Explanation       string
}

// Fit is an ordinary least squares line y = Slope*x + Intercept.
type Fit struct {
	Slope     float64
	Intercept float64
	RSquared  float64
}

// Predict evaluates the fitted line at x.
func (f Fit) Predict(x float64) float64 {
	return f.Slope*x + f.Intercept
}

// FitLine fits xs/ys by closed-form least squares. When every x is the same the
// slope is undefined and is taken as 0 through the mean of ys. A constant ys
// is a perfect fit (R² = 1).
func FitLine(xs, ys []float64) Fit {
	n := float64(len(xs))
	if len(xs) == 0 || len(xs) != len(ys) {
		return Fit{RSquared: 1}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumX2 += xs[i] * xs[i]
	}

	var f Fit
	denom := n*sumX2 - sumX*sumX
	if denom != 0 && !math.IsNaN(denom) {
		f.Slope = (n*sumXY - sumX*sumY) / denom
	}
	f.Intercept = (sumY - f.Slope*sumX) / n

	meanY := sumY / n
	var ssTot, ssRes float64
	for i := range xs {
		d := ys[i] - meanY
		ssTot += d * d
		r := ys[i] - f.Predict(xs[i])
		ssRes += r * r
	}
	if ssTot == 0 {
		f.RSquared = 1
	} else {
		f.RSquared = finite(1-ssRes/ssTot, 0)
	}
	return f
}

// Forecast fits a trend over the most recent window and extrapolates it over a
// horizon chosen from the history length and the quality of the fit.
func Forecast(series []model.PriceObservation, p Policy) ForecastResult {
	total := len(series)
	if total < p.ForecastMinPoints {
		return ForecastResult{
			PredictedPrice:  decimal.Zero,
			ConfidenceLabel: model.ConfidenceLow,
			Explanation:     fmt.Sprintf("Insufficient data for forecasting: at least %d days of price history required, %d available", p.ForecastMinPoints, total),
		}
	}

	window := series
	if total > p.ForecastWindow {
		window = series[total-p.ForecastWindow:]
	}

	start := window[0].Timestamp
	xs := make([]float64, len(window))
	ys := make([]float64, len(window))
	for i, o := range window {
		xs[i] = dayOffset(start, o.Timestamp)
		ys[i] = o.Price.InexactFloat64()
	}
	fit := FitLine(xs, ys)

	horizon := p.adjustHorizon(p.baseHorizon(total), fit.RSquared)
	futureX := xs[len(xs)-1] + float64(horizon)
	predicted := finite(math.Max(0, fit.Predict(futureX)), 0)

	confidence := fit.RSquared * 100
	label := p.confidenceLabel(confidence)

	return ForecastResult{
		HorizonDays:       horizon,
		PredictedPrice:    decimal.NewFromFloat(predicted).Round(8),
		ConfidencePercent: confidence,
		ConfidenceLabel:   label,
		Slope:             fit.Slope,
		Intercept:         fit.Intercept,
		RSquared:          fit.RSquared,
		TrainingPoints:    len(window),
		Explanation: fmt.Sprintf("Linear regression: slope=%.6f/day, intercept=%.6f, trained on %d points. R²=%.1f%% (%s confidence). Horizon: %d days",
			fit.Slope, fit.Intercept, len(window), confidence, label, horizon),
	}
}

// adjustHorizon shortens the base horizon when the fit is poor.
// Integer division floors.
func (p Policy) adjustHorizon(base int, r2 float64) int {
	switch {
	case r2 < p.LowFitR2:
		if h := base / 3; h > p.MinHorizon {
			return h
		}
		return p.MinHorizon
	case r2 < p.MediumFitR2:
		return base / 2
	default:
		return base
	}
}

// confidenceLabel bands a confidence percentage. Negative values are LOW.
func (p Policy) confidenceLabel(pct float64) model.ConfidenceLabel {
	switch {
	case pct >= p.HighLabelPct:
		return model.ConfidenceHigh
	case pct >= p.MediumLabelPct:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

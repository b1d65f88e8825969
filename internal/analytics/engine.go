// Package analytics scores and forecasts an asset from its daily price history.
//
// Every function here is pure: it reads only its input series and the Policy
// it is given, so any number of assets may be analyzed in parallel.
package analytics

import "CoinScope/internal/model"

// Asset identifies the series being analyzed. It is echoed into the result only.
type Asset struct {
	ID     string
	Symbol string
	Name   string
}

// Engine runs the analytics with a fixed policy.
type Engine struct {
	policy Policy
}

// NewEngine creates an Engine. The policy is copied.
func NewEngine(p Policy) Engine {
	p.HorizonSteps = append([]HorizonStep(nil), p.HorizonSteps...)
	p.WidthSteps = append([]WidthStep(nil), p.WidthSteps...)
	return Engine{policy: p}
}

// Policy returns the engine's thresholds.
func (e Engine) Policy() Policy { return e.policy }

// Analyze computes the full result over the whole history, volume included.
func (e Engine) Analyze(asset Asset, observations []model.PriceObservation) model.AnalyticsResult {
	series := Normalize(observations)
	res := e.analyzeOrdered(asset, series)
	res.VolumeBuckets = BucketVolume(series, e.policy)
	return res
}

// AnalyzeWindow computes the result over the whole history but buckets volume
// and echoes the chart only for the last days calendar days.
func (e Engine) AnalyzeWindow(asset Asset, observations []model.PriceObservation, days int) model.AssetDetail {
	series := Normalize(observations)
	res := e.analyzeOrdered(asset, series)
	window := TrimToDays(series, days)
	res.VolumeBuckets = BucketVolume(window, e.policy)

	chart := make([]model.ChartPoint, len(window))
	for i, o := range window {
		chart[i] = model.ChartPoint{Timestamp: o.Timestamp, Price: o.Price}
	}
	return model.AssetDetail{AnalyticsResult: res, DisplayDays: days, Chart: chart}
}

func (e Engine) analyzeOrdered(asset Asset, series []model.PriceObservation) model.AnalyticsResult {
	res := model.AnalyticsResult{
		AssetID:       asset.ID,
		Symbol:        asset.Symbol,
		Name:          asset.Name,
		HasData:       len(series) > 0,
		VolumeBuckets: []model.VolumeBucket{},
	}
	if len(series) == 0 {
		return res
	}
	last := series[len(series)-1]
	res.CurrentPrice = last.Price
	res.MarketCap = last.MarketCap

	score := Score(series, e.policy)
	res.PerformanceScore = score.Score
	res.ScoreExplanation = score.Explanation

	res.PriceChange7d = PriceChange(series, e.policy.ShortLookback)
	res.PriceChange30d = PriceChange(series, e.policy.LongLookback)

	fc := Forecast(series, e.policy)
	res.ForecastHorizonDays = fc.HorizonDays
	res.PredictedPrice = fc.PredictedPrice
	res.ForecastConfidencePercent = fc.ConfidencePercent
	res.ForecastConfidenceLabel = fc.ConfidenceLabel
	res.ForecastExplanation = fc.Explanation
	return res
}

// TrimToDays keeps the observations within the last days calendar days of an
// ordered series, counting the last observation's day as day one.
func TrimToDays(series []model.PriceObservation, days int) []model.PriceObservation {
	if len(series) == 0 || days <= 0 {
		return series[:0:0]
	}
	cutoff := truncateDay(series[len(series)-1].Timestamp).AddDate(0, 0, -(days - 1))
	i := 0
	for i < len(series) && truncateDay(series[i].Timestamp).Before(cutoff) {
		i++
	}
	return series[i:]
}

package analytics

import (
	"fmt"

	"CoinScope/internal/model"
)

// ScoreResult is the performance score with the components that produced it.
type ScoreResult struct {
	Score              float64
	PositionInRange    float64
	PositionScore      float64
	TrendPercent       float64
	TrendScore         float64
	MomentumPercent    float64
	MomentumAdjustment float64
	CurrentPrice       float64
	HistoricalMin      float64
	HistoricalMax      float64
	RecentAverage      float64
	Sufficient         bool
	Explanation        string
}

// trendBaseline is the trend score of a series whose recent average equals
// its historical average. It is independent of Policy.NeutralScore.
const trendBaseline = 50.0

// Score rates the ordered series on [0,100]. Position in the historical range
// dominates so that an asset deep below its old highs scores low even while
// it trends up; trend and momentum only adjust that.
func Score(series []model.PriceObservation, p Policy) ScoreResult {
	if len(series) < p.ScoreMinPoints {
		return ScoreResult{
			Score:       p.NeutralScore,
			Explanation: fmt.Sprintf("Insufficient data for scoring: %d of %d daily prices available", len(series), p.ScoreMinPoints),
		}
	}

	prices := extractPrices(series)
	split := len(prices) - p.ScoreRecentWindow
	historical := prices[:split]
	recent := prices[split:]
	current := prices[len(prices)-1]

	histMin, histMax := minMax(historical)
	histAvg := mean(historical)
	recentAvg := mean(recent)

	r := ScoreResult{
		CurrentPrice:  current,
		HistoricalMin: histMin,
		HistoricalMax: histMax,
		RecentAverage: recentAvg,
		Sufficient:    true,
	}

	r.PositionInRange = finite(positionInRange(current, histMin, histMax), 0.5)
	r.PositionScore = r.PositionInRange * 100

	r.TrendScore = trendBaseline
	if trend, ok := percentChange(histAvg, recentAvg); ok {
		r.TrendPercent = finite(trend, 0)
		r.TrendScore = clamp(trendBaseline+r.TrendPercent, 0, 100)
	}

	if momentum, ok := percentChange(recentAvg, current); ok {
		r.MomentumPercent = finite(momentum, 0)
		r.MomentumAdjustment = r.MomentumPercent * p.MomentumFactor
	}

	r.Score = clamp(r.PositionScore*p.PositionWeight+r.TrendScore*p.TrendWeight+r.MomentumAdjustment, 0, 100)
	r.Explanation = fmt.Sprintf("Current: %s, Historical range: %s - %s, Position: %.1f%%, Recent %d-day avg: %s",
		formatPrice(current), formatPrice(histMin), formatPrice(histMax), r.PositionInRange*100,
		p.ScoreRecentWindow, formatPrice(recentAvg))
	return r
}

// formatPrice keeps more precision for sub-dollar coins.
func formatPrice(v float64) string {
	switch {
	case v != 0 && v < 0.01 && v > -0.01:
		return fmt.Sprintf("$%.8f", v)
	case v < 1 && v > -1:
		return fmt.Sprintf("$%.4f", v)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

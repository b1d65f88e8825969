package analytics

import (
	"math"
	"time"

	"CoinScope/internal/model"
)

// extractPrices converts observation prices to float64 for intermediate math.
func extractPrices(series []model.PriceObservation) []float64 {
	prices := make([]float64, len(series))
	for i, o := range series {
		prices[i] = o.Price.InexactFloat64()
	}
	return prices
}

// mean returns the arithmetic mean, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// minMax scans values for the lowest and highest entry.
func minMax(values []float64) (low, high float64) {
	if len(values) == 0 {
		return 0, 0
	}
	low, high = values[0], values[0]
	for _, v := range values[1:] {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}
	return low, high
}

// positionInRange locates current within [low, high]. A flat range is neutral.
func positionInRange(current, low, high float64) float64 {
	if high == low {
		return 0.5
	}
	return (current - low) / (high - low)
}

// percentChange returns (to-from)/from*100 and false when from is zero.
func percentChange(from, to float64) (float64, bool) {
	if from == 0 {
		return 0, false
	}
	return (to - from) / from * 100, true
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// finite replaces NaN and infinities with fallback.
func finite(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// dayOffset is the real-valued number of days from start to t.
func dayOffset(start, t time.Time) float64 {
	return t.Sub(start).Hours() / 24
}

// calendarDays counts whole calendar days from start to t, in UTC.
func calendarDays(start, t time.Time) int {
	s := truncateDay(start)
	e := truncateDay(t)
	return int(e.Sub(s).Hours() / 24)
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

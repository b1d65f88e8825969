package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"CoinScope/internal/model"
	"CoinScope/internal/recorder"
)

func pct(v float64) *float64 { return &v }

func sampleResults() []model.AnalyticsResult {
	mc := decimal.NewFromInt(1_300_000_000_000)
	return []model.AnalyticsResult{
		{
			Symbol: "BTC", Name: "Bitcoin", HasData: true,
			CurrentPrice: decimal.NewFromInt(67000), MarketCap: &mc,
			PerformanceScore: 72.5, ScoreExplanation: "near the top of its range",
			PriceChange7d: pct(3.25), PriceChange30d: nil,
			ForecastHorizonDays: 14, PredictedPrice: decimal.NewFromInt(70000),
			ForecastConfidencePercent: 61, ForecastConfidenceLabel: model.ConfidenceMedium,
			VolumeBuckets: []model.VolumeBucket{
				{Label: "Jun 01 - Jun 05", Value: decimal.NewFromInt(500)},
				{Label: "Jun 06 - Jun 10", Value: decimal.NewFromInt(700)},
			},
		},
		{Symbol: "NEW", Name: "Newcoin"},
	}
}

func TestRenderDetail(t *testing.T) {
	var buf bytes.Buffer
	renderDetail(&buf, &model.AssetDetail{AnalyticsResult: sampleResults()[0], Groups: []string{"TOP15"}, DisplayDays: 10})
	out := buf.String()

	assert.Contains(t, out, "BTC (Bitcoin)")
	assert.Contains(t, out, "72.5")
	assert.Contains(t, out, "+3.25%")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "70000 in 14 days")
	assert.Contains(t, out, "61.0% MEDIUM")
	assert.Contains(t, out, "Volume, last 10 days")
	assert.Contains(t, out, "700.00")
}

func TestRenderDetail_NoData(t *testing.T) {
	var buf bytes.Buffer
	renderDetail(&buf, &model.AssetDetail{AnalyticsResult: sampleResults()[1]})

	assert.Contains(t, buf.String(), "no price history")
	assert.NotContains(t, buf.String(), "Volume")
}

func TestRenderHistory(t *testing.T) {
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	renderHistory(&buf, "BTC", []recorder.Snapshot{
		{RecordedAt: at, Symbol: "BTC", HasData: true, CurrentPrice: decimal.NewFromInt(67000),
			Score: 72.5, Change7d: pct(-1.5), HorizonDays: 14, PredictedPrice: decimal.NewFromInt(70000),
			ConfidencePercent: 61, ConfidenceLabel: model.ConfidenceMedium},
	})
	out := buf.String()

	assert.Contains(t, out, "2024-06-01 08:00")
	assert.Contains(t, out, "-1.50%")
	assert.Contains(t, out, "70000 @14d")
}

func TestChangeString(t *testing.T) {
	assert.Equal(t, "n/a", changeString(nil))
	assert.Equal(t, "+0.00%", changeString(pct(0)))
	assert.Equal(t, "-12.30%", changeString(pct(-12.3)))
}

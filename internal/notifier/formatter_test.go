package notifier

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"CoinScope/internal/model"
)

func pct(v float64) *float64 { return &v }

func sampleResults() []model.AnalyticsResult {
	return []model.AnalyticsResult{
		{Symbol: "ETH", HasData: true, CurrentPrice: decimal.NewFromInt(3000), PerformanceScore: 40,
			PriceChange7d: pct(-2.5)},
		{Symbol: "NEW"},
		{Symbol: "BTC", HasData: true, CurrentPrice: decimal.RequireFromString("67000.126"), PerformanceScore: 80,
			PriceChange7d: pct(3), PriceChange30d: pct(12.26),
			ForecastHorizonDays: 14, PredictedPrice: decimal.NewFromInt(70000),
			ForecastConfidenceLabel: model.ConfidenceMedium, ForecastConfidencePercent: 55},
		{Symbol: "DOGE", HasData: true, CurrentPrice: decimal.RequireFromString("0.1234"), PerformanceScore: 60},
	}
}

func TestFormatDigest(t *testing.T) {
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	msg := FormatDigest(sampleResults(), 2, at)

	assert.Contains(t, msg, "2024-06-01")
	assert.Contains(t, msg, "1. <b>BTC</b> $67000.13 | score 80.0 | 7d +3.0% | 30d +12.3%")
	assert.Contains(t, msg, "14d forecast $70000.00 (MEDIUM, 55%)")
	assert.Contains(t, msg, "2. <b>DOGE</b> $0.1234")
	assert.NotContains(t, msg, "ETH")
	assert.Contains(t, msg, "1 asset(s) without price history")
}

func TestFormatDigest_Empty(t *testing.T) {
	msg := FormatDigest(nil, 5, time.Now())
	assert.Contains(t, msg, "No assets with price history yet.")
}

func TestFormatDetail(t *testing.T) {
	mc := decimal.RequireFromString("1320000000000.4")
	d := &model.AssetDetail{
		AnalyticsResult: model.AnalyticsResult{
			Symbol: "BTC", Name: "Bitcoin", HasData: true,
			CurrentPrice: decimal.NewFromInt(67000), MarketCap: &mc,
			PerformanceScore: 72.5, ScoreExplanation: "Current: $67000.00",
			ForecastHorizonDays: 30, PredictedPrice: decimal.NewFromInt(71000),
			ForecastConfidenceLabel: model.ConfidenceHigh,
			ForecastExplanation:     "Linear regression: R²=91.0% (HIGH confidence). Horizon: 30 days",
		},
		Groups: []string{"L1_BLUECHIP", "TOP15"},
	}
	msg := FormatDetail(d)
	assert.Contains(t, msg, "<b>BTC</b> Bitcoin")
	assert.Contains(t, msg, "Groups: L1_BLUECHIP, TOP15")
	assert.Contains(t, msg, "Market cap: $1320000000000.00")
	assert.Contains(t, msg, "7d: n/a | 30d: n/a")
	assert.Contains(t, msg, "30d forecast $71000.00</b> (HIGH)")
}

func TestFormatDetail_NoData(t *testing.T) {
	msg := FormatDetail(&model.AssetDetail{AnalyticsResult: model.AnalyticsResult{Symbol: "A<B", Name: "x"}})
	assert.Contains(t, msg, "A&lt;B")
	assert.True(t, strings.HasSuffix(msg, "No price history available."))
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0"},
		{"0.00001234", "$0.00001234"},
		{"0.5", "$0.5000"},
		{"1", "$1.00"},
		{"67000.125", "$67000.13"},
		{"-0.5", "$-0.5000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMoney(decimal.RequireFromString(tt.in)), tt.in)
	}
}

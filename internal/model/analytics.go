package model

import "github.com/shopspring/decimal"

// ConfidenceLabel is the qualitative band of a forecast's R².
type ConfidenceLabel string

const (
	ConfidenceHigh   ConfidenceLabel = "HIGH"
	ConfidenceMedium ConfidenceLabel = "MEDIUM"
	ConfidenceLow    ConfidenceLabel = "LOW"
)

// VolumeBucket is one bar of the volume histogram.
type VolumeBucket struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// AnalyticsResult is the engine output for one asset.
type AnalyticsResult struct {
	AssetID      string           `json:"asset_id"`
	Symbol       string           `json:"symbol"`
	Name         string           `json:"name"`
	HasData      bool             `json:"has_data"`
	CurrentPrice decimal.Decimal  `json:"current_price"`
	MarketCap    *decimal.Decimal `json:"market_cap,omitempty"`

	PerformanceScore float64 `json:"performance_score"`
	ScoreExplanation string  `json:"score_explanation"`

	PriceChange7d  *float64 `json:"price_change_7d"`
	PriceChange30d *float64 `json:"price_change_30d"`

	ForecastHorizonDays       int             `json:"forecast_horizon_days"`
	PredictedPrice            decimal.Decimal `json:"predicted_price"`
	ForecastConfidencePercent float64         `json:"forecast_confidence_percent"`
	ForecastConfidenceLabel   ConfidenceLabel `json:"forecast_confidence_label"`
	ForecastExplanation       string          `json:"forecast_explanation"`

	VolumeBuckets []VolumeBucket `json:"volume_buckets"`
}

// AssetDetail is an analytics result plus the chart series for the display window.
type AssetDetail struct {
	AnalyticsResult
	Groups      []string     `json:"groups"`
	DisplayDays int          `json:"display_days"`
	Chart       []ChartPoint `json:"chart"`
}

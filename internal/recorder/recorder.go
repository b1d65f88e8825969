package recorder

import (
	"time"

	"github.com/shopspring/decimal"

	"CoinScope/internal/model"
)

// Snapshot is one recorded analytics result.
type Snapshot struct {
	RecordedAt        time.Time             `json:"recorded_at"`
	Symbol            string                `json:"symbol"`
	HasData           bool                  `json:"has_data"`
	CurrentPrice      decimal.Decimal       `json:"current_price"`
	Score             float64               `json:"score"`
	Change7d          *float64              `json:"change_7d"`
	Change30d         *float64              `json:"change_30d"`
	HorizonDays       int                   `json:"horizon_days"`
	PredictedPrice    decimal.Decimal       `json:"predicted_price"`
	ConfidencePercent float64               `json:"confidence_percent"`
	ConfidenceLabel   model.ConfidenceLabel `json:"confidence_label"`
}

// Recorder persists computed results and job outcomes for later analysis.
type Recorder interface {
	RecordAnalytics(results []model.AnalyticsResult) error
	RecordJob(run model.JobRun) error
	// History returns the most recent snapshots of symbol, newest first.
	History(symbol string, limit int) ([]Snapshot, error)
	Close() error
}

package analytics

import (
	"errors"
	"fmt"
)

// HorizonStep maps a minimum history length to a base forecast horizon.
type HorizonStep struct {
	MinPoints int `yaml:"min_points"`
	Days      int `yaml:"days"`
}

// WidthStep maps a maximum span in days to a volume bucket width.
type WidthStep struct {
	MaxSpanDays int `yaml:"max_span_days"`
	WidthDays   int `yaml:"width_days"`
}

// Policy holds every tunable threshold of the engine.
type Policy struct {
	ScoreMinPoints    int     `yaml:"score_min_points"`
	ScoreRecentWindow int     `yaml:"score_recent_window"`
	PositionWeight    float64 `yaml:"position_weight"`
	TrendWeight       float64 `yaml:"trend_weight"`
	MomentumFactor    float64 `yaml:"momentum_factor"`
	// NeutralScore is returned when the history is too short to score.
	NeutralScore      float64 `yaml:"neutral_score"`

	ForecastMinPoints int `yaml:"forecast_min_points"`
	ForecastWindow    int `yaml:"forecast_window"`
	// Ordered by MinPoints descending; the first match wins.
	HorizonSteps   []HorizonStep `yaml:"horizon_steps"`
	DefaultHorizon int           `yaml:"default_horizon"`
	MinHorizon     int           `yaml:"min_horizon"`
	LowFitR2       float64       `yaml:"low_fit_r2"`
	MediumFitR2    float64       `yaml:"medium_fit_r2"`
	HighLabelPct   float64       `yaml:"high_label_pct"`
	MediumLabelPct float64       `yaml:"medium_label_pct"`

	// Ordered by MaxSpanDays ascending; spans beyond the last step use DefaultWidth.
	WidthSteps   []WidthStep `yaml:"width_steps"`
	DefaultWidth int         `yaml:"default_width"`

	ShortLookback int `yaml:"short_lookback"`
	LongLookback  int `yaml:"long_lookback"`
}

// DefaultPolicy returns the dashboard's production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		ScoreMinPoints:    31,
		ScoreRecentWindow: 30,
		PositionWeight:    0.7,
		TrendWeight:       0.3,
		MomentumFactor:    0.1,
		NeutralScore:      50,

		ForecastMinPoints: 14,
		ForecastWindow:    90,
		HorizonSteps: []HorizonStep{
			{MinPoints: 90, Days: 30},
			{MinPoints: 60, Days: 14},
			{MinPoints: 30, Days: 7},
		},
		DefaultHorizon: 3,
		MinHorizon:     3,
		LowFitR2:       0.3,
		MediumFitR2:    0.6,
		HighLabelPct:   70,
		MediumLabelPct: 40,

		WidthSteps: []WidthStep{
			{MaxSpanDays: 30, WidthDays: 5},
			{MaxSpanDays: 60, WidthDays: 7},
			{MaxSpanDays: 180, WidthDays: 14},
		},
		DefaultWidth: 30,

		ShortLookback: 7,
		LongLookback:  30,
	}
}

// Validate rejects tables the engine cannot run with.
func (p Policy) Validate() error {
	if p.ScoreRecentWindow <= 0 {
		return errors.New("score_recent_window must be positive")
	}
	if p.ScoreMinPoints <= p.ScoreRecentWindow {
		return fmt.Errorf("score_min_points (%d) must exceed score_recent_window (%d)", p.ScoreMinPoints, p.ScoreRecentWindow)
	}
	if p.PositionWeight < 0 || p.PositionWeight > 1 || p.TrendWeight < 0 || p.TrendWeight > 1 {
		return errors.New("score weights must be within [0,1]")
	}
	if p.ForecastMinPoints < 2 {
		return errors.New("forecast_min_points must be at least 2")
	}
	if p.ForecastWindow < p.ForecastMinPoints {
		return errors.New("forecast_window must not be smaller than forecast_min_points")
	}
	if p.DefaultHorizon <= 0 || p.MinHorizon < 0 {
		return errors.New("horizons must be positive")
	}
	for i, s := range p.HorizonSteps {
		if s.Days <= 0 {
			return fmt.Errorf("horizon step %d: days must be positive", i)
		}
		if i > 0 && s.MinPoints >= p.HorizonSteps[i-1].MinPoints {
			return errors.New("horizon steps must be ordered by min_points descending")
		}
	}
	if p.LowFitR2 > p.MediumFitR2 {
		return errors.New("low_fit_r2 must not exceed medium_fit_r2")
	}
	if p.MediumLabelPct > p.HighLabelPct {
		return errors.New("medium_label_pct must not exceed high_label_pct")
	}
	if p.DefaultWidth <= 0 {
		return errors.New("default_width must be positive")
	}
	for i, s := range p.WidthSteps {
		if s.WidthDays <= 0 {
			return fmt.Errorf("width step %d: width_days must be positive", i)
		}
		if i > 0 && s.MaxSpanDays <= p.WidthSteps[i-1].MaxSpanDays {
			return errors.New("width steps must be ordered by max_span_days ascending")
		}
	}
	if p.ShortLookback <= 0 || p.LongLookback <= 0 {
		return errors.New("price change lookbacks must be positive")
	}
	return nil
}

func (p Policy) baseHorizon(totalPoints int) int {
	for _, s := range p.HorizonSteps {
		if totalPoints >= s.MinPoints {
			return s.Days
		}
	}
	return p.DefaultHorizon
}

func (p Policy) bucketWidth(spanDays int) int {
	for _, s := range p.WidthSteps {
		if spanDays <= s.MaxSpanDays {
			return s.WidthDays
		}
	}
	return p.DefaultWidth
}

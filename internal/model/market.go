package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceObservation is one asset's price, market cap and volume for one day.
type PriceObservation struct {
	Timestamp time.Time        `json:"timestamp" db:"observed_at"`
	Price     decimal.Decimal  `json:"price" db:"price"`
	MarketCap *decimal.Decimal `json:"market_cap,omitempty" db:"market_cap_usd"`
	Volume    *decimal.Decimal `json:"volume,omitempty" db:"volume_24h_usd"`
}

// VolumeOrZero returns the observation volume, treating a missing value as zero.
func (o PriceObservation) VolumeOrZero() decimal.Decimal {
	if o.Volume == nil {
		return decimal.Zero
	}
	return *o.Volume
}

// Asset is a tracked coin.
type Asset struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	CoinGeckoID string     `json:"coingecko_id" db:"coingecko_id"`
	Symbol      string     `json:"symbol" db:"symbol"`
	Name        string     `json:"name" db:"name"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	LastActive  *time.Time `json:"last_active,omitempty" db:"last_active"`
}

// Group is a named set of assets such as TOP15 or MEME_TOP5.
type Group struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Tag         string    `json:"tag" db:"tag"`
	Type        string    `json:"type" db:"type"`
	Description string    `json:"description" db:"description"`
}

// ChartPoint is one point of the price series echoed to the dashboard chart.
type ChartPoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
}

package collector

import (
	"context"

	"CoinScope/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	MarketsGlobal(ctx context.Context, perPage int) ([]MarketCoin, error)
	MarketsByCategory(ctx context.Context, category string, perPage int) ([]MarketCoin, error)
	DailySeries(ctx context.Context, coinID string, days int) ([]model.PriceObservation, error)
	HourlySeries(ctx context.Context, coinID string, days int) ([]model.PriceObservation, error)
	Name() string
}

// MarketCoin is one row of the /coins/markets listing.
type MarketCoin struct {
	ID        string   `json:"id"`
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	MarketCap *float64 `json:"market_cap"`
}

// Cap returns the market cap, treating a missing value as zero.
func (c MarketCoin) Cap() float64 {
	if c.MarketCap == nil {
		return 0
	}
	return *c.MarketCap
}

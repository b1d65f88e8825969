package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"CoinScope/internal/model"
	"CoinScope/internal/store"
)

func priceTable(g store.Grain) (string, error) {
	switch g {
	case store.GrainDaily:
		return tablePriceDaily, nil
	case store.GrainHourly:
		return tablePriceHourly, nil
	default:
		return "", fmt.Errorf("unknown price grain %q", g)
	}
}

// DailyPrices returns the asset's daily observations in ascending time order.
func (r *Repo) DailyPrices(ctx context.Context, assetID uuid.UUID) ([]model.PriceObservation, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var obs []model.PriceObservation
	err := sqlx.SelectContext(ctx, r.q, &obs, `
		SELECT observed_at, price, market_cap_usd, volume_24h_usd
		FROM `+tablePriceDaily+`
		WHERE asset_id = $1 AND currency_code = $2
		ORDER BY observed_at`, assetID, r.currency)
	if err != nil {
		return nil, fmt.Errorf("daily prices for %s: %w", assetID, err)
	}
	return obs, nil
}

// InsertPrices stores rows, skipping timestamps already present, and returns
// the number of rows actually inserted.
func (r *Repo) InsertPrices(ctx context.Context, grain store.Grain, assetID uuid.UUID, rows []model.PriceObservation) (int64, error) {
	table, err := priceTable(grain)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO ` + table + ` (asset_id, observed_at, currency_code, price, market_cap_usd, volume_24h_usd)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (asset_id, observed_at, currency_code) DO NOTHING`

	var inserted int64
	for _, row := range rows {
		res, err := r.q.ExecContext(ctx, query,
			assetID, row.Timestamp.UTC(), r.currency, row.Price, row.MarketCap, row.Volume)
		if err != nil {
			return inserted, fmt.Errorf("insert %s price for %s at %s: %w",
				grain, assetID, row.Timestamp.Format("2006-01-02 15:04"), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("rows affected: %w", err)
		}
		inserted += n
	}
	return inserted, nil
}

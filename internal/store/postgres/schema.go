package postgres

import (
	"context"
	"fmt"
)

const (
	tablePriceDaily  = "crypto_asset_price_daily"
	tablePriceHourly = "crypto_asset_price_hourly"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS crypto_asset (
		id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		coingecko_id TEXT NOT NULL UNIQUE,
		symbol       TEXT NOT NULL,
		name         TEXT NOT NULL,
		is_active    BOOLEAN NOT NULL DEFAULT FALSE,
		last_active  TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_crypto_asset_symbol ON crypto_asset (lower(symbol))`,

	`CREATE TABLE IF NOT EXISTS crypto_group (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tag         TEXT NOT NULL UNIQUE,
		type        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS crypto_asset_group (
		asset_id UUID NOT NULL REFERENCES crypto_asset (id) ON DELETE CASCADE,
		group_id UUID NOT NULL REFERENCES crypto_group (id) ON DELETE CASCADE,
		PRIMARY KEY (asset_id, group_id)
	)`,

	`CREATE TABLE IF NOT EXISTS ` + tablePriceDaily + ` (
		asset_id       UUID NOT NULL REFERENCES crypto_asset (id) ON DELETE CASCADE,
		observed_at    TIMESTAMPTZ NOT NULL,
		currency_code  TEXT NOT NULL,
		price          NUMERIC(38, 18) NOT NULL,
		market_cap_usd NUMERIC(38, 2),
		volume_24h_usd NUMERIC(38, 2),
		UNIQUE (asset_id, observed_at, currency_code)
	)`,

	`CREATE TABLE IF NOT EXISTS ` + tablePriceHourly + ` (
		asset_id       UUID NOT NULL REFERENCES crypto_asset (id) ON DELETE CASCADE,
		observed_at    TIMESTAMPTZ NOT NULL,
		currency_code  TEXT NOT NULL,
		price          NUMERIC(38, 18) NOT NULL,
		market_cap_usd NUMERIC(38, 2),
		volume_24h_usd NUMERIC(38, 2),
		UNIQUE (asset_id, observed_at, currency_code)
	)`,

	`CREATE TABLE IF NOT EXISTS job_run_log (
		job_name    TEXT PRIMARY KEY,
		last_run_at TIMESTAMPTZ NOT NULL,
		last_status TEXT NOT NULL,
		details     JSONB
	)`,
}

// Migrate creates the schema if it does not exist.
func (r *Repo) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}

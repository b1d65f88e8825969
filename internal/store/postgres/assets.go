package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"CoinScope/internal/model"
	"CoinScope/internal/store"
)

const assetColumns = `a.id, a.coingecko_id, a.symbol, a.name, a.is_active, a.last_active`

// ListAssets returns assets ordered by symbol. A non-empty filter.GroupTags
// keeps only members of at least one of the tagged groups.
func (r *Repo) ListAssets(ctx context.Context, filter store.AssetFilter) ([]model.Asset, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tags := filter.GroupTags
	if tags == nil {
		tags = []string{}
	}

	query := `
		SELECT ` + assetColumns + `
		FROM crypto_asset a
		WHERE ($1 = FALSE OR a.is_active)
		  AND (cardinality($2::text[]) = 0 OR a.id IN (
		        SELECT ag.asset_id
		        FROM crypto_asset_group ag
		        JOIN crypto_group g ON g.id = ag.group_id
		        WHERE g.tag = ANY($2)))
		ORDER BY a.symbol, a.coingecko_id`

	var assets []model.Asset
	if err := sqlx.SelectContext(ctx, r.q, &assets, query, filter.ActiveOnly, pq.Array(tags)); err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return assets, nil
}

// GetAssetBySymbol resolves a ticker case-insensitively, preferring active
// assets when several coins share the symbol.
func (r *Repo) GetAssetBySymbol(ctx context.Context, symbol string) (*model.Asset, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT ` + assetColumns + `
		FROM crypto_asset a
		WHERE lower(a.symbol) = lower($1)
		ORDER BY a.is_active DESC, a.coingecko_id
		LIMIT 1`

	var a model.Asset
	if err := sqlx.GetContext(ctx, r.q, &a, query, symbol); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", symbol, store.ErrAssetNotFound)
		}
		return nil, fmt.Errorf("get asset %s: %w", symbol, err)
	}
	return &a, nil
}

// ListGroups returns every group ordered by tag.
func (r *Repo) ListGroups(ctx context.Context) ([]model.Group, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var groups []model.Group
	err := sqlx.SelectContext(ctx, r.q, &groups,
		`SELECT id, tag, type, description FROM crypto_group ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// AssetGroups maps each asset id to the tags of the groups it belongs to.
func (r *Repo) AssetGroups(ctx context.Context) (map[uuid.UUID][]string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.q.QueryxContext(ctx, `
		SELECT ag.asset_id, g.tag
		FROM crypto_asset_group ag
		JOIN crypto_group g ON g.id = ag.group_id
		ORDER BY g.tag`)
	if err != nil {
		return nil, fmt.Errorf("query asset groups: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]string)
	for rows.Next() {
		var (
			id  uuid.UUID
			tag string
		)
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, fmt.Errorf("scan asset group: %w", err)
		}
		out[id] = append(out[id], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate asset groups: %w", err)
	}
	return out, nil
}

// UpsertGroup inserts or updates a group by tag and returns its id.
func (r *Repo) UpsertGroup(ctx context.Context, g model.Group) (uuid.UUID, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var id uuid.UUID
	err := r.q.QueryRowxContext(ctx, `
		INSERT INTO crypto_group (tag, type, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (tag) DO UPDATE
		SET type = EXCLUDED.type, description = EXCLUDED.description
		RETURNING id`, g.Tag, g.Type, g.Description).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert group %s: %w", g.Tag, err)
	}
	return id, nil
}

// UpsertAsset inserts or updates an asset by CoinGecko id and returns its id.
func (r *Repo) UpsertAsset(ctx context.Context, coinGeckoID, symbol, name string) (uuid.UUID, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var id uuid.UUID
	err := r.q.QueryRowxContext(ctx, `
		INSERT INTO crypto_asset (coingecko_id, symbol, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (coingecko_id) DO UPDATE
		SET symbol = EXCLUDED.symbol, name = EXCLUDED.name
		RETURNING id`, coinGeckoID, symbol, name).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert asset %s: %w", coinGeckoID, err)
	}
	return id, nil
}

// ReplaceGroupMembers sets the group's membership to exactly assetIDs.
func (r *Repo) ReplaceGroupMembers(ctx context.Context, groupID uuid.UUID, assetIDs []uuid.UUID) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.q.ExecContext(ctx,
		`DELETE FROM crypto_asset_group WHERE group_id = $1`, groupID); err != nil {
		return fmt.Errorf("clear group %s: %w", groupID, err)
	}
	for _, assetID := range assetIDs {
		if _, err := r.q.ExecContext(ctx, `
			INSERT INTO crypto_asset_group (asset_id, group_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, assetID, groupID); err != nil {
			return fmt.Errorf("add %s to group %s: %w", assetID, groupID, err)
		}
	}
	return nil
}

// RefreshActiveFlags marks an asset active exactly when it belongs to a group.
func (r *Repo) RefreshActiveFlags(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.q.ExecContext(ctx, `
		UPDATE crypto_asset a
		SET is_active = EXISTS (
			SELECT 1 FROM crypto_asset_group ag WHERE ag.asset_id = a.id)`)
	if err != nil {
		return fmt.Errorf("refresh active flags: %w", err)
	}
	return nil
}

// AdvanceLastActive moves last_active forward to ts. It never moves it back.
func (r *Repo) AdvanceLastActive(ctx context.Context, assetID uuid.UUID, ts time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.q.ExecContext(ctx, `
		UPDATE crypto_asset
		SET last_active = GREATEST(COALESCE(last_active, $2), $2)
		WHERE id = $1`, assetID, ts.UTC())
	if err != nil {
		return fmt.Errorf("advance last_active for %s: %w", assetID, err)
	}
	return nil
}

// Package store defines access to the asset, group, price and job tables.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"CoinScope/internal/model"
)

var (
	// ErrAssetNotFound is returned when a symbol does not resolve to an asset.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrJobNotFound is returned when a job has never run.
	ErrJobNotFound = errors.New("job has no recorded runs")
)

// Grain selects the daily or hourly price table.
type Grain string

const (
	GrainDaily  Grain = "daily"
	GrainHourly Grain = "hourly"
)

// AssetFilter restricts ListAssets. Empty GroupTags means every group.
type AssetFilter struct {
	GroupTags  []string
	ActiveOnly bool
}

// Reader is what the dashboard needs.
type Reader interface {
	ListAssets(ctx context.Context, filter AssetFilter) ([]model.Asset, error)
	GetAssetBySymbol(ctx context.Context, symbol string) (*model.Asset, error)
	ListGroups(ctx context.Context) ([]model.Group, error)
	AssetGroups(ctx context.Context) (map[uuid.UUID][]string, error)
	DailyPrices(ctx context.Context, assetID uuid.UUID) ([]model.PriceObservation, error)
	LastJobRun(ctx context.Context, name string) (*model.JobRun, error)
	Ping(ctx context.Context) error
}

// Writer is what the import jobs need.
type Writer interface {
	ListAssets(ctx context.Context, filter AssetFilter) ([]model.Asset, error)
	UpsertGroup(ctx context.Context, g model.Group) (uuid.UUID, error)
	UpsertAsset(ctx context.Context, coinGeckoID, symbol, name string) (uuid.UUID, error)
	ReplaceGroupMembers(ctx context.Context, groupID uuid.UUID, assetIDs []uuid.UUID) error
	RefreshActiveFlags(ctx context.Context) error
	InsertPrices(ctx context.Context, grain Grain, assetID uuid.UUID, rows []model.PriceObservation) (int64, error)
	AdvanceLastActive(ctx context.Context, assetID uuid.UUID, ts time.Time) error
	RecordJobRun(ctx context.Context, run model.JobRun) error
}

// Repository is the full store, with transactions.
type Repository interface {
	Reader
	Writer
	// InTx runs fn against a Writer bound to one transaction, committing
	// when fn returns nil.
	InTx(ctx context.Context, fn func(Writer) error) error
	Migrate(ctx context.Context) error
	Close() error
}

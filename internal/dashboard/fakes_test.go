package dashboard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CoinScope/internal/model"
	"CoinScope/internal/store"
)

type fakeReader struct {
	assets    []model.Asset
	groups    []model.Group
	members   map[uuid.UUID][]string
	prices    map[uuid.UUID][]model.PriceObservation
	jobs      map[string]model.JobRun
	pricesErr error
	pingErr   error
	lastQuery store.AssetFilter
}

func (f *fakeReader) ListAssets(_ context.Context, filter store.AssetFilter) ([]model.Asset, error) {
	f.lastQuery = filter
	var out []model.Asset
	for _, a := range f.assets {
		if filter.ActiveOnly && !a.IsActive {
			continue
		}
		if len(filter.GroupTags) > 0 && !hasAny(f.members[a.ID], filter.GroupTags) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func hasAny(tags, want []string) bool {
	for _, t := range tags {
		for _, w := range want {
			if t == w {
				return true
			}
		}
	}
	return false
}

func (f *fakeReader) GetAssetBySymbol(_ context.Context, symbol string) (*model.Asset, error) {
	for _, a := range f.assets {
		if strings.EqualFold(a.Symbol, symbol) {
			return &a, nil
		}
	}
	return nil, store.ErrAssetNotFound
}

func (f *fakeReader) ListGroups(context.Context) ([]model.Group, error) { return f.groups, nil }

func (f *fakeReader) AssetGroups(context.Context) (map[uuid.UUID][]string, error) {
	return f.members, nil
}

func (f *fakeReader) DailyPrices(_ context.Context, id uuid.UUID) ([]model.PriceObservation, error) {
	if f.pricesErr != nil {
		return nil, f.pricesErr
	}
	return f.prices[id], nil
}

func (f *fakeReader) LastJobRun(_ context.Context, name string) (*model.JobRun, error) {
	run, ok := f.jobs[name]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	return &run, nil
}

func (f *fakeReader) Ping(context.Context) error { return f.pingErr }

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// linear returns n daily points priced start + step*i with volume 100.
func linear(n int, start, step float64) []model.PriceObservation {
	out := make([]model.PriceObservation, n)
	vol := decimal.NewFromInt(100)
	for i := range out {
		mc := decimal.NewFromFloat((start + step*float64(i)) * 1e6)
		out[i] = model.PriceObservation{
			Timestamp: day0.AddDate(0, 0, i),
			Price:     decimal.NewFromFloat(start + step*float64(i)),
			MarketCap: &mc,
			Volume:    &vol,
		}
	}
	return out
}

// newFixture builds three active assets: BTC rising, ETH falling, NEW without history.
func newFixture() (*fakeReader, map[string]uuid.UUID) {
	ids := map[string]uuid.UUID{"btc": uuid.New(), "eth": uuid.New(), "new": uuid.New(), "old": uuid.New()}
	f := &fakeReader{
		assets: []model.Asset{
			{ID: ids["btc"], CoinGeckoID: "bitcoin", Symbol: "btc", Name: "Bitcoin", IsActive: true},
			{ID: ids["eth"], CoinGeckoID: "ethereum", Symbol: "eth", Name: "Ethereum", IsActive: true},
			{ID: ids["new"], CoinGeckoID: "newcoin", Symbol: "new", Name: "New Coin", IsActive: true},
			{ID: ids["old"], CoinGeckoID: "oldcoin", Symbol: "old", Name: "Old Coin", IsActive: false},
		},
		groups: []model.Group{
			{ID: uuid.New(), Tag: "L1_BLUECHIP", Type: "Theme"},
			{ID: uuid.New(), Tag: "TOP15", Type: "RankBucket"},
		},
		members: map[uuid.UUID][]string{
			ids["btc"]: {"L1_BLUECHIP", "TOP15"},
			ids["eth"]: {"TOP15"},
		},
		prices: map[uuid.UUID][]model.PriceObservation{
			ids["btc"]: linear(120, 100, 1),
			ids["eth"]: linear(120, 500, -2),
		},
		jobs: map[string]model.JobRun{
			model.JobBulkImport: {Name: model.JobBulkImport, LastRunAt: day0, Status: model.JobSuccess},
		},
	}
	return f, ids
}

var errDown = errors.New("database down")

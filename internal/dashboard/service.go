// Package dashboard serves the analytics over HTTP: an overview of every
// tracked asset, a per-asset detail view and the job log.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"CoinScope/internal/analytics"
	"CoinScope/internal/config"
	"CoinScope/internal/metrics"
	"CoinScope/internal/model"
	"CoinScope/internal/store"
)

// Display window bounds for the detail view, in days.
const (
	MinDisplayDays = 1
	MaxDisplayDays = 3650
)

// Sort fields accepted by SortResults.
const (
	SortSymbol    = "symbol"
	SortPrice     = "price"
	SortMarketCap = "marketcap"
	SortScore     = "score"
)

// Query selects and orders the overview.
type Query struct {
	Sort   string
	Desc   bool
	Groups []string
}

// GroupView is a group with the symbols of its members.
type GroupView struct {
	model.Group
	Symbols []string `json:"symbols"`
}

// Service runs the engine over stored price history.
type Service struct {
	store       store.Reader
	engine      analytics.Engine
	metrics     *metrics.Registry
	defaultDays int
	concurrency int
}

// NewService creates a Service. m may be nil.
func NewService(r store.Reader, e analytics.Engine, cfg config.ServerConfig, m *metrics.Registry) *Service {
	conc := cfg.MaxConcurrency
	if conc < 1 {
		conc = 1
	}
	return &Service{
		store:       r,
		engine:      e,
		metrics:     m,
		defaultDays: ClampDays(cfg.DefaultDays, 90),
		concurrency: conc,
	}
}

// Overview analyzes every active asset, optionally restricted to groups,
// and returns the results sorted per q.
func (s *Service) Overview(ctx context.Context, q Query) ([]model.AnalyticsResult, error) {
	assets, err := s.store.ListAssets(ctx, store.AssetFilter{GroupTags: q.Groups, ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	results := make([]model.AnalyticsResult, len(assets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, a := range assets {
		g.Go(func() error {
			obs, err := s.store.DailyPrices(gctx, a.ID)
			if err != nil {
				return fmt.Errorf("prices for %s: %w", a.Symbol, err)
			}
			if len(obs) == 0 {
				results[i] = noDataResult(a)
				s.metrics.CountNoData()
				return nil
			}
			start := time.Now()
			results[i] = s.engine.Analyze(engineAsset(a), obs)
			s.metrics.ObserveAnalysis(time.Since(start), results[i].HasData)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortResults(results, q.Sort, q.Desc)
	log.Debug().Int("assets", len(results)).Strs("groups", q.Groups).Msg("overview computed")
	return results, nil
}

// Detail analyzes one asset by symbol over its full history, echoing the
// chart and volume histogram for the last days days. days <= 0 selects the
// configured default.
func (s *Service) Detail(ctx context.Context, symbol string, days int) (*model.AssetDetail, error) {
	days = ClampDays(days, s.defaultDays)

	asset, err := s.store.GetAssetBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	obs, err := s.store.DailyPrices(ctx, asset.ID)
	if err != nil {
		return nil, fmt.Errorf("prices for %s: %w", asset.Symbol, err)
	}
	groups, err := s.store.AssetGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("asset groups: %w", err)
	}

	var detail model.AssetDetail
	if len(obs) == 0 {
		detail = model.AssetDetail{AnalyticsResult: noDataResult(*asset), DisplayDays: days, Chart: []model.ChartPoint{}}
		s.metrics.CountNoData()
	} else {
		start := time.Now()
		detail = s.engine.AnalyzeWindow(engineAsset(*asset), obs, days)
		s.metrics.ObserveAnalysis(time.Since(start), detail.HasData)
	}
	detail.Groups = groups[asset.ID]
	if detail.Groups == nil {
		detail.Groups = []string{}
	}
	return &detail, nil
}

// Groups lists every group with the symbols of its members.
func (s *Service) Groups(ctx context.Context) ([]GroupView, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	assets, err := s.store.ListAssets(ctx, store.AssetFilter{})
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	membership, err := s.store.AssetGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("asset groups: %w", err)
	}

	symbols := make(map[string][]string, len(groups))
	for _, a := range assets {
		for _, tag := range membership[a.ID] {
			symbols[tag] = append(symbols[tag], strings.ToUpper(a.Symbol))
		}
	}
	views := make([]GroupView, len(groups))
	for i, g := range groups {
		syms := symbols[g.Tag]
		if syms == nil {
			syms = []string{}
		}
		views[i] = GroupView{Group: g, Symbols: syms}
	}
	return views, nil
}

// Job returns the latest run of a background job.
func (s *Service) Job(ctx context.Context, name string) (*model.JobRun, error) {
	return s.store.LastJobRun(ctx, name)
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ClampDays bounds a display window to [MinDisplayDays, MaxDisplayDays];
// a non-positive value becomes def.
func ClampDays(days, def int) int {
	if days <= 0 {
		days = def
	}
	return max(MinDisplayDays, min(MaxDisplayDays, days))
}

// SortResults orders results in place by field (symbol, price, marketcap or
// score; anything else means score). Assets without data always come last,
// and ties keep their input order.
func SortResults(results []model.AnalyticsResult, field string, desc bool) {
	cmp := compareBy(strings.ToLower(field))
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.HasData != b.HasData {
			return a.HasData
		}
		if desc {
			return cmp(b, a) < 0
		}
		return cmp(a, b) < 0
	})
}

func compareBy(field string) func(a, b model.AnalyticsResult) int {
	switch field {
	case SortSymbol:
		return func(a, b model.AnalyticsResult) int {
			return strings.Compare(strings.ToUpper(a.Symbol), strings.ToUpper(b.Symbol))
		}
	case SortPrice:
		return func(a, b model.AnalyticsResult) int {
			return a.CurrentPrice.Cmp(b.CurrentPrice)
		}
	case SortMarketCap:
		return func(a, b model.AnalyticsResult) int {
			switch {
			case a.MarketCap == nil && b.MarketCap == nil:
				return 0
			case a.MarketCap == nil:
				return -1
			case b.MarketCap == nil:
				return 1
			}
			return a.MarketCap.Cmp(*b.MarketCap)
		}
	default:
		return func(a, b model.AnalyticsResult) int {
			switch {
			case a.PerformanceScore < b.PerformanceScore:
				return -1
			case a.PerformanceScore > b.PerformanceScore:
				return 1
			}
			return 0
		}
	}
}

// noDataResult stands in for the engine when an asset has no price history.
func noDataResult(a model.Asset) model.AnalyticsResult {
	ea := engineAsset(a)
	return model.AnalyticsResult{
		AssetID:       ea.ID,
		Symbol:        ea.Symbol,
		Name:          ea.Name,
		VolumeBuckets: []model.VolumeBucket{},
	}
}

func engineAsset(a model.Asset) analytics.Asset {
	return analytics.Asset{ID: a.ID.String(), Symbol: strings.ToUpper(a.Symbol), Name: a.Name}
}

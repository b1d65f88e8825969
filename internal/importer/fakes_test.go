package importer

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CoinScope/internal/collector"
	"CoinScope/internal/model"
	"CoinScope/internal/store"
)

type memStore struct {
	mu        sync.Mutex
	assets    map[uuid.UUID]*model.Asset
	byCG      map[string]uuid.UUID
	groups    map[string]uuid.UUID
	members   map[uuid.UUID][]uuid.UUID
	prices    map[store.Grain]map[uuid.UUID]map[time.Time]model.PriceObservation
	jobs      map[string]model.JobRun
	failList  error
	failWrite error
}

func newMemStore() *memStore {
	return &memStore{
		assets:  make(map[uuid.UUID]*model.Asset),
		byCG:    make(map[string]uuid.UUID),
		groups:  make(map[string]uuid.UUID),
		members: make(map[uuid.UUID][]uuid.UUID),
		prices: map[store.Grain]map[uuid.UUID]map[time.Time]model.PriceObservation{
			store.GrainDaily:  {},
			store.GrainHourly: {},
		},
		jobs: make(map[string]model.JobRun),
	}
}

func (m *memStore) addAsset(cgID string, active bool, lastActive *time.Time) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.assets[id] = &model.Asset{ID: id, CoinGeckoID: cgID, Symbol: cgID[:3], Name: cgID, IsActive: active, LastActive: lastActive}
	m.byCG[cgID] = id
	return id
}

func (m *memStore) ListAssets(_ context.Context, f store.AssetFilter) ([]model.Asset, error) {
	if m.failList != nil {
		return nil, m.failList
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Asset
	for _, a := range m.assets {
		if f.ActiveOnly && !a.IsActive {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CoinGeckoID < out[j].CoinGeckoID })
	return out, nil
}

func (m *memStore) UpsertGroup(_ context.Context, g model.Group) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.groups[g.Tag]; ok {
		return id, nil
	}
	id := uuid.New()
	m.groups[g.Tag] = id
	return id, nil
}

func (m *memStore) UpsertAsset(_ context.Context, cgID, symbol, name string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byCG[cgID]; ok {
		m.assets[id].Symbol, m.assets[id].Name = symbol, name
		return id, nil
	}
	id := uuid.New()
	m.assets[id] = &model.Asset{ID: id, CoinGeckoID: cgID, Symbol: symbol, Name: name}
	m.byCG[cgID] = id
	return id, nil
}

func (m *memStore) ReplaceGroupMembers(_ context.Context, groupID uuid.UUID, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[groupID] = append([]uuid.UUID(nil), ids...)
	return nil
}

func (m *memStore) RefreshActiveFlags(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assets {
		a.IsActive = false
	}
	for _, ids := range m.members {
		for _, id := range ids {
			m.assets[id].IsActive = true
		}
	}
	return nil
}

func (m *memStore) InsertPrices(_ context.Context, g store.Grain, assetID uuid.UUID, rows []model.PriceObservation) (int64, error) {
	if m.failWrite != nil {
		return 0, m.failWrite
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	table := m.prices[g]
	if table[assetID] == nil {
		table[assetID] = make(map[time.Time]model.PriceObservation)
	}
	var n int64
	for _, r := range rows {
		if _, dup := table[assetID][r.Timestamp]; dup {
			continue
		}
		table[assetID][r.Timestamp] = r
		n++
	}
	return n, nil
}

func (m *memStore) AdvanceLastActive(_ context.Context, assetID uuid.UUID, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.assets[assetID]
	if a.LastActive == nil || a.LastActive.Before(ts) {
		a.LastActive = &ts
	}
	return nil
}

func (m *memStore) RecordJobRun(_ context.Context, run model.JobRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[run.Name] = run
	return nil
}

func (m *memStore) InTx(_ context.Context, fn func(store.Writer) error) error {
	return fn(m)
}

func (m *memStore) memberTags(cgID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.byCG[cgID]
	var tags []string
	for tag, gid := range m.groups {
		for _, a := range m.members[gid] {
			if a == id {
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return tags
}

type fakeFetcher struct {
	mu         sync.Mutex
	global     []collector.MarketCoin
	categories map[string][]collector.MarketCoin
	series     map[string][]model.PriceObservation
	dailyErr   map[string]error
	hourlyErr  error
	marketsErr error
	daysAsked  map[string]int
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) MarketsGlobal(context.Context, int) ([]collector.MarketCoin, error) {
	if f.marketsErr != nil {
		return nil, f.marketsErr
	}
	return f.global, nil
}

func (f *fakeFetcher) MarketsByCategory(_ context.Context, category string, _ int) ([]collector.MarketCoin, error) {
	if f.marketsErr != nil {
		return nil, f.marketsErr
	}
	return f.categories[category], nil
}

func (f *fakeFetcher) DailySeries(_ context.Context, coinID string, days int) ([]model.PriceObservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.daysAsked == nil {
		f.daysAsked = make(map[string]int)
	}
	f.daysAsked[coinID] = days
	if err := f.dailyErr[coinID]; err != nil {
		return nil, err
	}
	return f.series[coinID], nil
}

func (f *fakeFetcher) HourlySeries(_ context.Context, coinID string, _ int) ([]model.PriceObservation, error) {
	if f.hourlyErr != nil {
		return nil, f.hourlyErr
	}
	s := f.series[coinID]
	hourly := make([]model.PriceObservation, 0, len(s))
	for _, o := range s {
		o.Timestamp = o.Timestamp.Add(time.Hour)
		hourly = append(hourly, o)
	}
	return hourly, nil
}

func coin(id string, cap float64) collector.MarketCoin {
	return collector.MarketCoin{ID: id, Symbol: id[:3], Name: id, MarketCap: &cap}
}

func coins(ids ...string) []collector.MarketCoin {
	out := make([]collector.MarketCoin, len(ids))
	for i, id := range ids {
		out[i] = coin(id, float64(1000-i))
	}
	return out
}

func days(start time.Time, prices ...int64) []model.PriceObservation {
	out := make([]model.PriceObservation, len(prices))
	for i, p := range prices {
		out[i] = model.PriceObservation{Timestamp: start.AddDate(0, 0, i), Price: decimal.NewFromInt(p)}
	}
	return out
}

var errUpstream = errors.New("upstream unavailable")

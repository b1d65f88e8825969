package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinScope/internal/collector"
	"CoinScope/internal/config"
	"CoinScope/internal/dashboard"
	"CoinScope/internal/importer"
	"CoinScope/internal/model"
	"CoinScope/internal/recorder"
)

type fakeJobs struct {
	calls     []string
	groupsErr error
}

func (f *fakeJobs) SelectGroups(context.Context) (*importer.Selection, error) {
	f.calls = append(f.calls, "groups")
	if f.groupsErr != nil {
		return nil, f.groupsErr
	}
	return &importer.Selection{Top15: make([]collector.MarketCoin, 15)}, nil
}

func (f *fakeJobs) Import(context.Context) (*importer.ImportSummary, error) {
	f.calls = append(f.calls, "import")
	return &importer.ImportSummary{AssetCount: 2, Errors: map[string]string{"x": "boom"}}, nil
}

type fakeOverview struct {
	results []model.AnalyticsResult
	err     error
}

func (f *fakeOverview) Overview(context.Context, dashboard.Query) ([]model.AnalyticsResult, error) {
	return f.results, f.err
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

type memRecorder struct {
	recorder.NoopRecorder
	analytics [][]model.AnalyticsResult
	jobs      []model.JobRun
}

func (m *memRecorder) RecordAnalytics(results []model.AnalyticsResult) error {
	m.analytics = append(m.analytics, results)
	return nil
}

func (m *memRecorder) RecordJob(run model.JobRun) error {
	m.jobs = append(m.jobs, run)
	return nil
}

func TestRegisterAll(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeJobs{}, &fakeOverview{}, nil, nil, 5)
	require.NoError(t, s.RegisterAll(config.Default().Schedule))
	assert.Len(t, s.Cron.Entries(), 3)

	bad := config.Default().Schedule
	bad.ImportCron = "not a cron"
	s = NewScheduler(context.Background(), &fakeJobs{}, &fakeOverview{}, nil, nil, 5)
	err := s.RegisterAll(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register import task")
}

func TestRunIngestNow(t *testing.T) {
	jobs := &fakeJobs{}
	rec := &memRecorder{}
	s := NewScheduler(context.Background(), jobs, &fakeOverview{}, nil, rec, 5)

	s.RunIngestNow()
	assert.Equal(t, []string{"groups", "import"}, jobs.calls)
	require.Len(t, rec.jobs, 2)
	assert.Equal(t, model.JobGroupSelector, rec.jobs[0].Name)
	assert.Equal(t, 15, rec.jobs[0].Details["top15"])
	assert.Equal(t, model.JobPartialSuccess, rec.jobs[1].Status)
}

func TestRunIngestNow_GroupFailureStillImports(t *testing.T) {
	jobs := &fakeJobs{groupsErr: errors.New("coingecko down")}
	rec := &memRecorder{}
	s := NewScheduler(context.Background(), jobs, &fakeOverview{}, nil, rec, 5)

	s.RunIngestNow()
	assert.Equal(t, []string{"groups", "import"}, jobs.calls)
	assert.Equal(t, model.JobFailed, rec.jobs[0].Status)
}

func TestDigest(t *testing.T) {
	rec := &memRecorder{}
	sender := &fakeSender{}
	results := []model.AnalyticsResult{{Symbol: "BTC", HasData: true, PerformanceScore: 70}}
	s := NewScheduler(context.Background(), &fakeJobs{}, &fakeOverview{results: results}, sender, rec, 5)

	s.RunDigestNow()
	require.Len(t, rec.analytics, 1)
	assert.Equal(t, results, rec.analytics[0])
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "<b>BTC</b>")
	assert.Equal(t, model.JobScoreDigest, rec.jobs[0].Name)
}

func TestDigest_Failure(t *testing.T) {
	rec := &memRecorder{}
	sender := &fakeSender{}
	s := NewScheduler(context.Background(), &fakeJobs{}, &fakeOverview{err: errors.New("db down")}, sender, rec, 5)

	s.RunDigestNow()
	assert.Empty(t, rec.analytics)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "db down")
	assert.Equal(t, model.JobFailed, rec.jobs[0].Status)
}

func TestDigest_WithoutNotifier(t *testing.T) {
	rec := &memRecorder{}
	s := NewScheduler(context.Background(), &fakeJobs{}, &fakeOverview{}, nil, rec, 5)
	assert.NotPanics(t, s.RunDigestNow)
	assert.Len(t, rec.analytics, 1)
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeJobs{}, &fakeOverview{}, nil, nil, 5)
	require.NoError(t, s.RegisterAll(config.Default().Schedule))
	s.Start()
	s.Stop()
}

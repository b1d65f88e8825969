package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"CoinScope/internal/config"
	"CoinScope/internal/dashboard"
	"CoinScope/internal/importer"
	"CoinScope/internal/model"
	"CoinScope/internal/notifier"
	"CoinScope/internal/recorder"
)

// Jobs runs the ingestion jobs.
type Jobs interface {
	SelectGroups(ctx context.Context) (*importer.Selection, error)
	Import(ctx context.Context) (*importer.ImportSummary, error)
}

// Overviewer computes analytics for every tracked asset.
type Overviewer interface {
	Overview(ctx context.Context, q dashboard.Query) ([]model.AnalyticsResult, error)
}

// Sender delivers digest messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron       *cron.Cron
	Jobs       Jobs
	Analytics  Overviewer
	Notifier   Sender // nil disables the digest message
	Recorder   recorder.Recorder
	DigestSize int
	Ctx        context.Context
}

// NewScheduler creates a new Scheduler. Overlapping runs of the same task
// are skipped.
func NewScheduler(ctx context.Context, jobs Jobs, analytics Overviewer, tn Sender, rec recorder.Recorder, digestSize int) *Scheduler {
	logger := cronLogger{}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Jobs:       jobs,
		Analytics:  analytics,
		Notifier:   tn,
		Recorder:   rec,
		DigestSize: digestSize,
		Ctx:        ctx,
	}
}

// RegisterAll registers the group selection, bulk import and digest tasks.
func (s *Scheduler) RegisterAll(cfg config.ScheduleConfig) error {
	if _, err := s.Cron.AddFunc(cfg.GroupsCron, s.groupsTask); err != nil {
		return fmt.Errorf("register group selection task: %w", err)
	}
	if _, err := s.Cron.AddFunc(cfg.ImportCron, s.importTask); err != nil {
		return fmt.Errorf("register import task: %w", err)
	}
	if _, err := s.Cron.AddFunc(cfg.DigestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("tasks", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunIngestNow selects groups and imports prices immediately (RUN_ON_START).
func (s *Scheduler) RunIngestNow() {
	s.groupsTask()
	s.importTask()
}

// RunDigestNow computes and sends the score digest immediately.
func (s *Scheduler) RunDigestNow() {
	s.digestTask()
}

func (s *Scheduler) groupsTask() {
	log.Info().Msg("running group selection")
	sel, err := s.Jobs.SelectGroups(s.Ctx)
	if err != nil {
		log.Error().Err(err).Msg("group selection failed")
		s.recordJob(model.JobGroupSelector, model.JobFailed, map[string]any{"error": err.Error()})
		return
	}
	s.recordJob(model.JobGroupSelector, model.JobSuccess, map[string]any{
		"top15": len(sel.Top15),
		"meme":  len(sel.MemeTop5),
		"l1":    len(sel.L1Bluechip),
		"defi":  len(sel.DeFiBluechip),
	})
}

func (s *Scheduler) importTask() {
	log.Info().Msg("running bulk import")
	sum, err := s.Jobs.Import(s.Ctx)
	if err != nil {
		log.Error().Err(err).Msg("bulk import failed")
		s.recordJob(model.JobBulkImport, model.JobFailed, map[string]any{"error": err.Error()})
		return
	}
	s.recordJob(model.JobBulkImport, sum.Status(), map[string]any{
		"asset_count": sum.AssetCount,
		"errors":      len(sum.Errors),
	})
}

func (s *Scheduler) digestTask() {
	log.Info().Msg("running score digest")
	results, err := s.Analytics.Overview(s.Ctx, dashboard.Query{Sort: dashboard.SortScore, Desc: true})
	if err != nil {
		log.Error().Err(err).Msg("score digest failed")
		s.recordJob(model.JobScoreDigest, model.JobFailed, map[string]any{"error": err.Error()})
		s.trySend(fmt.Sprintf("❌ Score digest failed: %v", err))
		return
	}

	if err := s.Recorder.RecordAnalytics(results); err != nil {
		log.Error().Err(err).Msg("record analytics")
	}
	s.recordJob(model.JobScoreDigest, model.JobSuccess, map[string]any{"asset_count": len(results)})
	s.trySend(notifier.FormatDigest(results, s.DigestSize, time.Now()))
}

func (s *Scheduler) recordJob(name string, status model.JobStatus, details map[string]any) {
	if err := s.Recorder.RecordJob(model.JobRun{
		Name:      name,
		LastRunAt: time.Now(),
		Status:    status,
		Details:   details,
	}); err != nil {
		log.Error().Err(err).Str("job", name).Msg("record job")
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}

// Package importer keeps the asset universe and its price history current:
// the group selector picks which coins to track and the bulk importer
// pulls their CoinGecko history into Postgres.
package importer

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"CoinScope/internal/collector"
	"CoinScope/internal/config"
	"CoinScope/internal/metrics"
	"CoinScope/internal/model"
	"CoinScope/internal/store"
)

// Store is the subset of store.Repository the jobs write through.
type Store interface {
	store.Writer
	InTx(ctx context.Context, fn func(store.Writer) error) error
}

// Importer runs the group selection and bulk import jobs.
type Importer struct {
	store   Store
	fetcher collector.Fetcher
	cfg     config.CoinGeckoConfig
	metrics *metrics.Registry
	now     func() time.Time
}

// New creates an Importer. m may be nil.
func New(s Store, f collector.Fetcher, cfg config.CoinGeckoConfig, m *metrics.Registry) *Importer {
	return &Importer{store: s, fetcher: f, cfg: cfg, metrics: m, now: time.Now}
}

// recordJob writes the outcome to the job log. A failure to log is itself
// only logged so it never masks the job's own error.
func (im *Importer) recordJob(ctx context.Context, name string, status model.JobStatus, details map[string]any) {
	im.metrics.JobRun(name, string(status))
	err := im.store.RecordJobRun(ctx, model.JobRun{
		Name:      name,
		LastRunAt: im.now(),
		Status:    status,
		Details:   details,
	})
	if err != nil {
		log.Error().Err(err).Str("job", name).Msg("failed to record job run")
	}
}

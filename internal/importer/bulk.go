package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"CoinScope/internal/model"
	"CoinScope/internal/store"
)

// AssetImport is the per-asset outcome of a bulk import.
type AssetImport struct {
	Daily         int64  `json:"daily"`
	Hourly        int64  `json:"hourly"`
	DaysRequested int    `json:"days_requested"`
	HourlyError   string `json:"hourly_error,omitempty"`
}

// ImportSummary is what Import records in the job log.
type ImportSummary struct {
	AssetCount int                    `json:"asset_count"`
	PerAsset   map[string]AssetImport `json:"per_asset_rows"`
	Errors     map[string]string      `json:"errors"`
}

// Status is success unless at least one asset failed.
func (s ImportSummary) Status() model.JobStatus {
	if len(s.Errors) > 0 {
		return model.JobPartialSuccess
	}
	return model.JobSuccess
}

func (s ImportSummary) details() map[string]any {
	perAsset := make(map[string]any, len(s.PerAsset))
	for id, a := range s.PerAsset {
		entry := map[string]any{
			"daily":          a.Daily,
			"hourly":         a.Hourly,
			"days_requested": a.DaysRequested,
		}
		if a.HourlyError != "" {
			entry["hourly_error"] = a.HourlyError
		}
		perAsset[id] = entry
	}
	errs := make(map[string]any, len(s.Errors))
	for id, e := range s.Errors {
		errs[id] = e
	}
	return map[string]any{
		"asset_count":    s.AssetCount,
		"per_asset_rows": perAsset,
		"errors":         errs,
	}
}

// DaysToPull decides how much history to request for an asset. A fresh
// asset, or one not updated within daysBack, gets the full window;
// otherwise the gap since lastActive plus two days of overlap.
func DaysToPull(lastActive *time.Time, now time.Time, daysBack int) int {
	if lastActive == nil {
		return daysBack
	}
	delta := int(now.Sub(*lastActive).Hours() / 24)
	if delta >= daysBack {
		return daysBack
	}
	return min(daysBack, max(1, delta+2))
}

// Import pulls recent history for every active asset. Per-asset failures
// are collected and reported as partial_success; only a failure to list
// assets aborts the job.
func (im *Importer) Import(ctx context.Context) (*ImportSummary, error) {
	assets, err := im.store.ListAssets(ctx, store.AssetFilter{ActiveOnly: true})
	if err != nil {
		im.recordJob(ctx, model.JobBulkImport, model.JobFailed, map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("bulk import: list assets: %w", err)
	}

	summary := &ImportSummary{
		AssetCount: len(assets),
		PerAsset:   make(map[string]AssetImport),
		Errors:     make(map[string]string),
	}
	if len(assets) == 0 {
		log.Info().Msg("bulk import: no active assets")
		im.recordJob(ctx, model.JobBulkImport, model.JobSuccess, map[string]any{"asset_count": 0})
		return summary, nil
	}

	now := im.now()
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			summary.Errors[a.CoinGeckoID] = err.Error()
			continue
		}
		days := DaysToPull(a.LastActive, now, im.cfg.DaysBack)
		res, err := im.importAsset(ctx, a, days)
		if err != nil {
			log.Error().Err(err).Str("asset", a.CoinGeckoID).Msg("bulk import failed for asset")
			summary.Errors[a.CoinGeckoID] = err.Error()
			continue
		}
		summary.PerAsset[a.CoinGeckoID] = res
		ev := log.Info().
			Str("asset", a.CoinGeckoID).
			Int("days", days).
			Int64("daily", res.Daily).
			Int64("hourly", res.Hourly)
		if res.HourlyError != "" {
			ev = ev.Str("hourly_error", res.HourlyError)
		}
		ev.Msg("asset imported")
	}

	status := summary.Status()
	im.recordJob(ctx, model.JobBulkImport, status, summary.details())
	log.Info().Int("assets", len(assets)).Int("errors", len(summary.Errors)).
		Str("status", string(status)).Msg("bulk import completed")
	return summary, nil
}

func (im *Importer) importAsset(ctx context.Context, a model.Asset, days int) (AssetImport, error) {
	res := AssetImport{DaysRequested: days}

	var daily, hourly []model.PriceObservation
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		daily, err = im.fetcher.DailySeries(gctx, a.CoinGeckoID, days)
		if err != nil {
			return fmt.Errorf("daily series: %w", err)
		}
		return nil
	})
	if im.cfg.EnableHourly {
		g.Go(func() error {
			rows, err := im.fetcher.HourlySeries(gctx, a.CoinGeckoID, days)
			if err != nil {
				res.HourlyError = err.Error()
				return nil
			}
			hourly = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	err := im.store.InTx(ctx, func(w store.Writer) error {
		n, err := w.InsertPrices(ctx, store.GrainDaily, a.ID, daily)
		if err != nil {
			return err
		}
		res.Daily = n
		if len(hourly) > 0 {
			if n, err = w.InsertPrices(ctx, store.GrainHourly, a.ID, hourly); err != nil {
				return err
			}
			res.Hourly = n
		}
		if last, ok := latest(daily, hourly); ok {
			return w.AdvanceLastActive(ctx, a.ID, last)
		}
		return nil
	})
	if err != nil {
		return AssetImport{DaysRequested: days}, err
	}
	im.metrics.AddImportedRows(string(store.GrainDaily), res.Daily)
	im.metrics.AddImportedRows(string(store.GrainHourly), res.Hourly)
	return res, nil
}

// latest returns the newest timestamp of two ascending series.
func latest(series ...[]model.PriceObservation) (time.Time, bool) {
	var (
		last  time.Time
		found bool
	)
	for _, s := range series {
		if len(s) == 0 {
			continue
		}
		if ts := s[len(s)-1].Timestamp; !found || ts.After(last) {
			last, found = ts, true
		}
	}
	return last, found
}

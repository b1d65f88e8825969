package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"CoinScope/internal/model"
	"CoinScope/internal/store"
)

// RecordJobRun upserts the job's latest outcome. A zero LastRunAt means now.
func (r *Repo) RecordJobRun(ctx context.Context, run model.JobRun) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if run.LastRunAt.IsZero() {
		run.LastRunAt = time.Now()
	}
	details, err := json.Marshal(run.Details)
	if err != nil {
		return fmt.Errorf("marshal job details: %w", err)
	}

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO job_run_log (job_name, last_run_at, last_status, details)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (job_name) DO UPDATE
		SET last_run_at = EXCLUDED.last_run_at,
		    last_status = EXCLUDED.last_status,
		    details     = EXCLUDED.details`,
		run.Name, run.LastRunAt.UTC(), string(run.Status), details)
	if err != nil {
		return fmt.Errorf("record job %s: %w", run.Name, err)
	}
	return nil
}

// LastJobRun returns the job's latest outcome or store.ErrJobNotFound.
func (r *Repo) LastJobRun(ctx context.Context, name string) (*model.JobRun, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		run     model.JobRun
		status  string
		details []byte
	)
	err := r.q.QueryRowxContext(ctx, `
		SELECT job_name, last_run_at, last_status, details
		FROM job_run_log
		WHERE job_name = $1`, name).Scan(&run.Name, &run.LastRunAt, &status, &details)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", name, store.ErrJobNotFound)
		}
		return nil, fmt.Errorf("last run of %s: %w", name, err)
	}
	run.Status = model.JobStatus(status)
	if len(details) > 0 {
		if err := json.Unmarshal(details, &run.Details); err != nil {
			return nil, fmt.Errorf("decode details of %s: %w", name, err)
		}
	}
	return &run, nil
}

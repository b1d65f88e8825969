package model

import "time"

// JobStatus is the outcome recorded in the job run log.
type JobStatus string

const (
	JobSuccess        JobStatus = "success"
	JobPartialSuccess JobStatus = "partial_success"
	JobFailed         JobStatus = "failed"
)

// Job names as stored in job_run_log.
const (
	JobGroupSelector = "group_selector"
	JobBulkImport    = "bulk_import"
	JobScoreDigest   = "score_digest"
)

// JobRun is one entry of the job run log.
type JobRun struct {
	Name      string         `json:"job_name" db:"job_name"`
	LastRunAt time.Time      `json:"last_run_at" db:"last_run_at"`
	Status    JobStatus      `json:"last_status" db:"last_status"`
	Details   map[string]any `json:"details,omitempty" db:"-"`
}

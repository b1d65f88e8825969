package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"CoinScope/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create recorder dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the dashboard read history while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analytics_snapshots (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp          INTEGER NOT NULL,
			asset_id           TEXT,
			symbol             TEXT NOT NULL,
			has_data           INTEGER NOT NULL,
			current_price      TEXT,
			score              REAL,
			change_7d          REAL,
			change_30d         REAL,
			horizon_days       INTEGER,
			predicted_price    TEXT,
			confidence_percent REAL,
			confidence_label   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_symbol_ts ON analytics_snapshots(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS job_runs (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			job_name  TEXT NOT NULL,
			status    TEXT NOT NULL,
			details   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_job_runs_name_ts ON job_runs(job_name, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordAnalytics stores one snapshot row per result in a single transaction.
func (r *SQLiteRecorder) RecordAnalytics(results []model.AnalyticsResult) error {
	if len(results) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_snapshots
		(timestamp, asset_id, symbol, has_data, current_price, score, change_7d, change_30d,
		 horizon_days, predicted_price, confidence_percent, confidence_label)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := r.now().Unix()
	for _, res := range results {
		_, err := stmt.Exec(
			now, res.AssetID, strings.ToUpper(res.Symbol), res.HasData,
			res.CurrentPrice.String(), res.PerformanceScore,
			res.PriceChange7d, res.PriceChange30d,
			res.ForecastHorizonDays, res.PredictedPrice.String(),
			res.ForecastConfidencePercent, string(res.ForecastConfidenceLabel),
		)
		if err != nil {
			return fmt.Errorf("insert snapshot %s: %w", res.Symbol, err)
		}
	}
	return tx.Commit()
}

// RecordJob keeps a local copy of a job outcome.
func (r *SQLiteRecorder) RecordJob(run model.JobRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	details, err := json.Marshal(run.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	ts := run.LastRunAt
	if ts.IsZero() {
		ts = r.now()
	}
	_, err = r.db.Exec(`INSERT INTO job_runs (timestamp, job_name, status, details) VALUES (?,?,?,?)`,
		ts.Unix(), run.Name, string(run.Status), string(details))
	return err
}

// History returns up to limit snapshots of symbol, newest first. limit <= 0 means 30.
func (r *SQLiteRecorder) History(symbol string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := r.db.Query(`SELECT timestamp, symbol, has_data, current_price, score,
			change_7d, change_30d, horizon_days, predicted_price, confidence_percent, confidence_label
		FROM analytics_snapshots
		WHERE symbol = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, strings.ToUpper(symbol), limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			s                 Snapshot
			ts                int64
			price, predicted  string
			change7, change30 sql.NullFloat64
			label             string
		)
		if err := rows.Scan(&ts, &s.Symbol, &s.HasData, &price, &s.Score,
			&change7, &change30, &s.HorizonDays, &predicted, &s.ConfidencePercent, &label); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		s.RecordedAt = time.Unix(ts, 0).UTC()
		s.ConfidenceLabel = model.ConfidenceLabel(label)
		if s.CurrentPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price %q: %w", price, err)
		}
		if s.PredictedPrice, err = decimal.NewFromString(predicted); err != nil {
			return nil, fmt.Errorf("parse predicted price %q: %w", predicted, err)
		}
		if change7.Valid {
			s.Change7d = &change7.Float64
		}
		if change30.Valid {
			s.Change30d = &change30.Float64
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

// Package postgres implements store.Repository on PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"

	"CoinScope/internal/config"
	"CoinScope/internal/store"
)

// Repo runs every query under a per-call timeout. q is either the pool or a
// transaction.
type Repo struct {
	db       *sqlx.DB
	q        sqlx.ExtContext
	timeout  time.Duration
	currency string
}

var _ store.Repository = (*Repo)(nil)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig, currency string) (*Repo, error) {
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().Int("max_open_conns", cfg.MaxOpenConns).Msg("postgres connected")
	return New(db, cfg.QueryTimeout, currency), nil
}

// New wraps an existing connection. currency is the quote currency code of
// the price rows, e.g. "usd".
func New(db *sqlx.DB, timeout time.Duration, currency string) *Repo {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Repo{db: db, q: db, timeout: timeout, currency: strings.ToUpper(currency)}
}

// InTx runs fn inside a transaction.
func (r *Repo) InTx(ctx context.Context, fn func(store.Writer) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txRepo := &Repo{db: r.db, q: tx, timeout: r.timeout, currency: r.currency}
	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.db.PingContext(ctx)
}

// Close closes the pool.
func (r *Repo) Close() error {
	log.Info().Msg("closing postgres connection")
	return r.db.Close()
}

func (r *Repo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

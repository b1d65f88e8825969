package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"CoinScope/internal/analytics"
	"CoinScope/internal/collector"
	"CoinScope/internal/config"
	"CoinScope/internal/dashboard"
	"CoinScope/internal/importer"
	"CoinScope/internal/logging"
	"CoinScope/internal/metrics"
	"CoinScope/internal/recorder"
	"CoinScope/internal/store/postgres"
)

const defaultConfigPath = "configs/config.yaml"

// app carries state shared by every subcommand.
type app struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "coinscope",
		Short: "CoinScope crypto market analytics",
		Long: `CoinScope tracks curated groups of crypto assets, imports their daily
price history from CoinGecko and scores, forecasts and summarizes each one.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}

	path := defaultConfigPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", path, "Path to the YAML configuration file")

	root.AddCommand(
		a.serveCmd(),
		a.migrateCmd(),
		a.groupsCmd(),
		a.importCmd(),
		a.analyzeCmd(),
		a.historyCmd(),
		a.exportCmd(),
	)
	return root
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	a.cfg = cfg
	return nil
}

func (a *app) openRepo(ctx context.Context) (*postgres.Repo, error) {
	repo, err := postgres.Open(ctx, a.cfg.Database, a.cfg.CoinGecko.VsCurrency)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return repo, nil
}

func (a *app) newService(repo *postgres.Repo, m *metrics.Registry) *dashboard.Service {
	return dashboard.NewService(repo, analytics.NewEngine(a.cfg.Analytics), a.cfg.Server, m)
}

func (a *app) newImporter(repo *postgres.Repo, m *metrics.Registry) *importer.Importer {
	fetcher := collector.NewCoinGecko(a.cfg.CoinGecko, a.cfg.Proxy)
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")
	return importer.New(repo, fetcher, a.cfg.CoinGecko, m)
}

// openRecorder falls back to a no-op recorder when SQLite is disabled or fails to open.
func (a *app) openRecorder() recorder.Recorder {
	if a.cfg.Recorder.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(a.cfg.Recorder.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

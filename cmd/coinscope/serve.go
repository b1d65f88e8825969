package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"CoinScope/internal/dashboard"
	"CoinScope/internal/metrics"
	"CoinScope/internal/notifier"
	"CoinScope/internal/scheduler"
)

const shutdownTimeout = 15 * time.Second

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API, the scheduled jobs and the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	log.Info().Msg("CoinScope starting...")

	ctx, cancel := signal.NotifyContext(contextOrBackground(parent), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	repo, err := a.openRepo(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()
	if err := repo.Migrate(ctx); err != nil {
		return err
	}

	m := metrics.New()
	svc := a.newService(repo, m)
	im := a.newImporter(repo, m)

	rec := a.openRecorder()
	defer rec.Close()

	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if a.cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy)
		sender = tn
	} else {
		log.Info().Msg("telegram disabled, digest is recorded only")
	}

	sched := scheduler.NewScheduler(ctx, im, svc, sender, rec, a.cfg.Telegram.DigestSize)
	if err := sched.RegisterAll(a.cfg.Schedule); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, notifier.NewCommandHandler(svc, a.cfg.Telegram.DigestSize))
		log.Info().Msg("telegram polling started")
	}

	if a.cfg.Schedule.RunOnStart || os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("run on start enabled, executing ingestion now")
		go sched.RunIngestNow()
	}

	srv := dashboard.NewServer(svc, a.cfg.Server, m)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	log.Info().Str("addr", a.cfg.Server.Addr()).Msg("CoinScope is running. Press Ctrl+C to stop.")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, stopping...")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("CoinScope stopped")
	return nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

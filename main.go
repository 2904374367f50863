package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/bot"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/bot/telegramadapter"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/config"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/content"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/httpserver"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/ingest"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/logger"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/metrics"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/notify"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/router"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/state"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/workflow"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "alevit-admin-bot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := os.Getenv("ALEVIT_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := logger.New(cfg.App.Env)
	log.Info("configuration loaded",
		"env", cfg.App.Env,
		"data_dir", cfg.Storage.DataDir,
		"site_root", cfg.Storage.SiteRoot,
		"admins", len(cfg.Telegram.AdminIDs),
	)

	store := state.NewStore(log)
	m := metrics.New(store.Len)
	repo := content.NewRepository(cfg.Storage.DataDir, m)

	botClient, err := bot.NewClient(cfg.Telegram.Token, log)
	if err != nil {
		return fmt.Errorf("initialize bot client: %w", err)
	}
	botClient.MaxDownloadSize = cfg.Ingest.MaxFileSize
	log.Info("authorized", "username", botClient.Self.UserName)

	botPort, err := telegramadapter.New(botClient, log)
	if err != nil {
		return fmt.Errorf("create telegram adapter: %w", err)
	}

	pipeline := ingest.New(botPort, cfg.Storage.SiteRoot, log, m)
	pipeline.MaxFileSize = cfg.Ingest.MaxFileSize
	pipeline.Attempts = cfg.Ingest.Attempts
	pipeline.RetryDelay = cfg.Ingest.RetryDelay
	pipeline.DownloadTimeout = cfg.Ingest.DownloadTimeout

	engine := workflow.NewEngine(botPort, repo, pipeline, store, log, m)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	r := router.New(router.Deps{
		Bot:     botPort,
		Engine:  engine,
		Repo:    repo,
		Store:   store,
		Auth:    &cfg,
		Logger:  log,
		Metrics: m,
		Fatal:   cancel,
	})

	opts := httpserver.Options{Addr: cfg.HTTP.Addr, Logger: log}
	if cfg.HTTP.Metrics {
		opts.Metrics = m.Handler()
	}
	if cfg.HTTP.Leads {
		opts.Leads = notify.New(botPort, cfg.Telegram.AdminIDs, log, m)
	}
	srv := httpserver.New(opts)
	go func() {
		if err := srv.Start(); err != nil {
			log.Error("http server stopped", "error", err)
		}
	}()

	updates := botClient.GetUpdatesChan(cfg.Telegram.PollTimeout)
	log.Info("starting update processing")

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return shutdown(log, srv, nil)
			}
			if update.UpdateID == 0 {
				continue
			}
			go r.HandleUpdate(ctx, update)
		case <-ctx.Done():
			log.Info("stopping update processing loop")
			botClient.StopReceivingUpdates()
			cause := context.Cause(ctx)
			if errors.Is(cause, router.ErrUnauthorized) {
				return shutdown(log, srv, cause)
			}
			return shutdown(log, srv, nil)
		}
	}
}

func shutdown(log *slog.Logger, srv *httpserver.Server, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("http server shutdown failed", "error", err)
	}
	return cause
}

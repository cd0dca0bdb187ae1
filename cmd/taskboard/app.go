package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"taskboard/internal/api"
	"taskboard/internal/auth"
	"taskboard/internal/billing"
	"taskboard/internal/config"
	"taskboard/internal/notify"
	"taskboard/internal/repository"
	"taskboard/internal/service"
)

const digestTimeout = 2 * time.Minute

type app struct {
	cfg      config.Config
	db       *gorm.DB
	users    *repository.UserRepository
	tasks    *repository.TaskRepository
	prefs    *repository.PreferenceRepository
	verifier *auth.Verifier
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	return &app{
		cfg:      cfg,
		db:       db,
		users:    repository.NewUserRepository(db),
		tasks:    repository.NewTaskRepository(db),
		prefs:    repository.NewPreferenceRepository(db),
		verifier: auth.NewVerifier(cfg.AuthSecret, cfg.AuthIssuer),
	}, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (a *app) digestService() (*service.DigestService, error) {
	var notifier service.Notifier
	if a.cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(a.cfg.TelegramToken)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		notifier = tg
	} else {
		slog.Info("TELEGRAM_TOKEN not set, digests go to the log")
		notifier = notify.NewLog(slog.Default())
	}
	return service.NewDigestService(a.prefs, a.tasks, notifier, a.cfg.Location), nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := api.Deps{
		Verifier:    a.verifier,
		Users:       service.NewUserService(a.users),
		Tasks:       service.NewTaskService(a.tasks, a.cfg.Location),
		Stats:       service.NewStatsService(a.tasks, a.cfg.Location),
		Preferences: service.NewPreferenceService(a.prefs),
		Registry:    reg,
	}
	if a.cfg.Billing.Enabled() {
		deps.Billing = billing.NewClient(a.cfg.Billing.APIURL, a.cfg.Billing.AccessToken, a.cfg.Billing.OrganizationID, &http.Client{Timeout: 15 * time.Second})
	}

	digest, err := a.digestService()
	if err != nil {
		return err
	}
	scheduler := service.NewSchedulerService(a.cfg.Location, digestTimeout)
	scheduled := false
	sendDigest := func(ctx context.Context) error {
		n, err := digest.SendAll(ctx)
		slog.Info("digest round finished", "sent", n)
		return err
	}
	switch {
	case a.cfg.DigestAt != "":
		if _, err := scheduler.ScheduleDaily(a.cfg.DigestAt, "digest", sendDigest); err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
		scheduled = true
	case a.cfg.DigestInterval > 0:
		if _, err := scheduler.ScheduleInterval(a.cfg.DigestInterval, "digest", sendDigest); err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
		scheduled = true
	}
	if scheduled {
		scheduler.Start()
		defer scheduler.Stop()
	}

	gin.SetMode(gin.ReleaseMode)
	if err := api.Serve(ctx, a.cfg.HTTPAddr, api.NewRouter(deps)); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	slog.Info("shutdown complete")
	return nil
}

func runDigest(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	digest, err := a.digestService()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), digestTimeout)
	defer cancel()

	n, err := digest.SendAll(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("digest: %w", err)
	}
	slog.Info("digest sent", "recipients", n)
	return nil
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	id := service.Identity{ExternalID: tokenSub, Email: tokenEml}
	if tokenNam != "" {
		id.Name = &tokenNam
	}
	token, err := auth.NewVerifier(cfg.AuthSecret, cfg.AuthIssuer).Sign(id, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

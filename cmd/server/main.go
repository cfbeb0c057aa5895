package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/incubator/internal/config"
	"github.com/mamadbah2/incubator/internal/metrics"
	"github.com/mamadbah2/incubator/internal/repository"
	"github.com/mamadbah2/incubator/internal/repository/sheets"
	"github.com/mamadbah2/incubator/internal/scheduler"
	"github.com/mamadbah2/incubator/internal/server/handlers"
	"github.com/mamadbah2/incubator/internal/server/router"
	commandsvc "github.com/mamadbah2/incubator/internal/service/commands"
	reportingsvc "github.com/mamadbah2/incubator/internal/service/reporting"
	sessionsvc "github.com/mamadbah2/incubator/internal/service/sessions"
	whatsappsvc "github.com/mamadbah2/incubator/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/incubator/pkg/clients/whatsapp"
	"github.com/mamadbah2/incubator/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Reminder.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	m := metrics.New()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	repo, err := repository.Open(startupCtx, cfg.Storage, baseLogger.Named("repo.sessions"), m)
	cancelStartup()
	if err != nil {
		baseLogger.Fatal("failed to open session store", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer func() {
		if err := repo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close session store", zap.Error(err))
		}
	}()

	sessions := sessionsvc.NewService(repo, baseLogger.Named("svc.sessions"), sessionsvc.WithLocation(loc))

	var sheetRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		googleSheets, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetRepo = googleSheets
		baseLogger.Info("google sheets export enabled")
	}

	reportingSvc := reportingsvc.NewService(sessions, sheetRepo, cfg.Sheets.ExportRange, m, baseLogger.Named("svc.reporting"))

	routes := router.Handlers{
		Sessions: handlers.NewSessionHandler(sessions, baseLogger.Named("handlers.sessions")),
		Metrics:  m.Handler(),
	}

	var messagingSvc whatsappsvc.MessagingService
	if cfg.WhatsApp.Enabled() {
		commandDispatcher := commandsvc.NewService(sessions, reportingSvc, baseLogger.Named("svc.commands"))
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		metaSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))
		messagingSvc = metaSvc
		routes.Webhook = handlers.NewWebhookHandler(metaSvc, baseLogger.Named("handlers.whatsapp"))
		baseLogger.Info("whatsapp channel enabled")
	} else {
		baseLogger.Warn("whatsapp token missing, command channel and reminders disabled")
	}

	engine := router.New(routes, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reminder, loc, reportingSvc, messagingSvc, sessions.Today, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

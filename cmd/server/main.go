package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/bfall/sawshift/internal/config"
	"github.com/bfall/sawshift/internal/repository/mongodb"
	"github.com/bfall/sawshift/internal/repository/sheets"
	"github.com/bfall/sawshift/internal/scheduler"
	"github.com/bfall/sawshift/internal/server/handlers"
	"github.com/bfall/sawshift/internal/server/router"
	authsvc "github.com/bfall/sawshift/internal/service/auth"
	"github.com/bfall/sawshift/internal/service/ledger"
	reportingsvc "github.com/bfall/sawshift/internal/service/reporting"
	"github.com/bfall/sawshift/pkg/clients/anthropic"
	"github.com/bfall/sawshift/pkg/clients/appsscript"
	"github.com/bfall/sawshift/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
	if err != nil {
		baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
	}
	refsRepo := sheets.NewReferenceRepository(sheetsRepo, baseLogger.Named("repo.reference"))

	mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	// The webhook is optional: with no URL configured, shifts persist to
	// local history only.
	var remote ledger.RemoteStore
	if client := appsscript.NewClient(cfg.Webhook); client != nil {
		remote = client
		baseLogger.Info("apps script webhook enabled")
	} else {
		baseLogger.Warn("apps script webhook not configured, running on local history only")
	}

	var commentator ledger.Commentator
	if cfg.AI.AnthropicKey != "" {
		commentator = anthropic.NewClient(cfg.AI.AnthropicKey)
		baseLogger.Info("shift commentary enabled")
	}

	gate := ledger.YieldGate{
		Enabled:    cfg.Yield.GateEnabled,
		MinPercent: cfg.Yield.MinPercent,
		MaxPercent: cfg.Yield.MaxPercent,
	}

	ledgerLogger := baseLogger.Named("svc.ledger")
	sessions := ledger.NewSessionManager(func(workerID string) *ledger.Ledger {
		return ledger.New(workerID, remote, mongoRepo, commentator, gate, ledgerLogger)
	})

	authService := authsvc.NewService(refsRepo, baseLogger.Named("svc.auth"))
	reportingService := reportingsvc.NewService(sheetsRepo, baseLogger.Named("svc.reporting"))

	authHandler := handlers.NewAuthHandler(authService, baseLogger.Named("handlers.auth"))
	shiftHandler := handlers.NewShiftHandler(sessions, refsRepo, baseLogger.Named("handlers.shift"))
	historyHandler := handlers.NewHistoryHandler(mongoRepo, remote, reportingService, baseLogger.Named("handlers.history"))
	engine := router.New(authHandler, shiftHandler, historyHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting, reportingService, mongoRepo, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
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

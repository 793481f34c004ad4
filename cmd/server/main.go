package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"biostorex/internal/auth"
	"biostorex/internal/config"
	"biostorex/internal/repository"
	"biostorex/internal/repository/memory"
	"biostorex/internal/repository/mongodb"
	"biostorex/internal/repository/sheets"
	"biostorex/internal/scheduler"
	"biostorex/internal/server/handlers"
	"biostorex/internal/server/router"
	accountssvc "biostorex/internal/service/accounts"
	inventorysvc "biostorex/internal/service/inventory"
	reportingsvc "biostorex/internal/service/reporting"
	requestssvc "biostorex/internal/service/requests"
	"biostorex/pkg/clients/cloudinary"
	"biostorex/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	var store repository.Store
	if cfg.Server.Storage == config.StorageMemory {
		baseLogger.Warn("running with in-memory storage, data will not survive restarts")
		store = memory.New()
	} else {
		mongoRepo, err := mongodb.New(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		store = mongoRepo
	}

	var imageClient cloudinary.Client
	if cfg.Cloudinary.CloudName != "" {
		imageClient = cloudinary.NewClient(cfg.Cloudinary)
		baseLogger.Info("cloudinary image client enabled")
	} else {
		baseLogger.Warn("cloudinary not configured, item images disabled")
	}

	var sheetWriter reportingsvc.SheetWriter
	if cfg.Sheets.SpreadsheetID != "" {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetWriter = sheetsRepo
	}

	tokens := auth.NewTokenManager(
		cfg.Auth.AccessTokenSecret,
		cfg.Auth.RefreshTokenSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	accountsSvc := accountssvc.NewService(store, tokens, baseLogger.Named("svc.accounts"))
	inventorySvc := inventorysvc.NewService(store, store, imageClient, baseLogger.Named("svc.inventory"))
	requestsSvc := requestssvc.NewService(store, store, store, inventorySvc, baseLogger.Named("svc.requests"))
	reportingSvc := reportingsvc.NewService(store, sheetWriter, cfg.Sheets.ReportRange, cfg.Reporting.ExpiryWindowDays, baseLogger.Named("svc.reporting"))

	if err := accountsSvc.EnsureDefaultAdmin(context.Background(), cfg.Admin); err != nil {
		baseLogger.Fatal("failed to ensure default admin", zap.Error(err))
	}

	engine := router.New(router.Handlers{
		Users:    handlers.NewUserHandler(accountsSvc, baseLogger.Named("handlers.users")),
		Items:    handlers.NewItemHandler(inventorySvc, baseLogger.Named("handlers.items")),
		Requests: handlers.NewRequestHandler(requestsSvc, baseLogger.Named("handlers.requests")),
		Admin:    handlers.NewAdminHandler(accountsSvc, reportingSvc, baseLogger.Named("handlers.admin")),
	}, tokens, accountsSvc, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting, reportingSvc, baseLogger.Named("scheduler"))
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

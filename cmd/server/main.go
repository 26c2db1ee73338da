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

	"github.com/mamadbah2/caltrack/internal/config"
	"github.com/mamadbah2/caltrack/internal/repository"
	"github.com/mamadbah2/caltrack/internal/repository/memory"
	"github.com/mamadbah2/caltrack/internal/repository/mongodb"
	"github.com/mamadbah2/caltrack/internal/repository/sheets"
	"github.com/mamadbah2/caltrack/internal/repository/sqlite"
	"github.com/mamadbah2/caltrack/internal/scheduler"
	"github.com/mamadbah2/caltrack/internal/server/handlers"
	"github.com/mamadbah2/caltrack/internal/server/router"
	"github.com/mamadbah2/caltrack/internal/service/persistence"
	"github.com/mamadbah2/caltrack/internal/service/recognition"
	"github.com/mamadbah2/caltrack/internal/service/reporting"
	"github.com/mamadbah2/caltrack/internal/service/tracker"
	"github.com/mamadbah2/caltrack/pkg/clients/anthropic"
	"github.com/mamadbah2/caltrack/pkg/clients/gemini"
	"github.com/mamadbah2/caltrack/pkg/clients/openrouter"
	"github.com/mamadbah2/caltrack/pkg/clients/vision"
	"github.com/mamadbah2/caltrack/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	ctx := context.Background()

	var mongoRepo *mongodb.MongoDBRepository
	if cfg.MongoDB.URI != "" {
		mongoRepo, err = mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
	}

	var store repository.Store
	switch cfg.Storage.Backend {
	case config.BackendMongoDB:
		store = mongoRepo
	case config.BackendMemory:
		store = memory.NewStore()
		baseLogger.Warn("memory storage selected, data is lost on restart")
	default:
		sqliteStore, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			baseLogger.Fatal("failed to open sqlite store", zap.Error(err))
		}
		defer func() { _ = sqliteStore.Close() }()
		store = sqliteStore
	}
	baseLogger.Info("storage ready", zap.String("backend", cfg.Storage.Backend))

	gateway := persistence.NewGateway(store, logger.Named(baseLogger, "svc.persistence"))
	trackerSvc := tracker.NewService(gateway, loc, logger.Named(baseLogger, "svc.tracker"))

	visionClient := newVisionClient(ctx, cfg.Recognition, baseLogger)
	recognitionSvc := recognition.NewService(visionClient, cfg.Recognition.MaxImageBytes, logger.Named(baseLogger, "svc.recognition"))

	var sinks []reporting.SummarySink
	if mongoRepo != nil {
		sinks = append(sinks, mongoRepo)
	}
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sinks = append(sinks, sheets.NewSummaryExporter(sheetsRepo))
	}
	reportingSvc := reporting.NewService(trackerSvc, logger.Named(baseLogger, "svc.reporting"), sinks...)

	handler := handlers.NewHandler(trackerSvc, recognitionSvc, reportingSvc, logger.Named(baseLogger, "handlers"))
	engine := router.New(handler, logger.Named(baseLogger, "router"))

	sched := scheduler.NewScheduler(cfg.Reporting.CronSchedule, loc, reportingSvc, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Recognition.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newVisionClient returns nil when the selected provider has no key; recognition then reports a credential error.
func newVisionClient(ctx context.Context, cfg config.RecognitionConfig, log *zap.Logger) vision.Client {
	if cfg.APIKey() == "" {
		log.Warn("recognition api key missing, photo analysis disabled", zap.String("provider", cfg.Provider))
		return nil
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:  cfg.GeminiKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
		if err != nil {
			log.Error("failed to init gemini client, photo analysis disabled", zap.Error(err))
			return nil
		}
		log.Info("gemini recognition client enabled", zap.String("model", cfg.GeminiModel))
		return client
	case config.ProviderAnthropic:
		log.Info("anthropic recognition client enabled", zap.String("model", cfg.AnthropicModel))
		return anthropic.NewClient(anthropic.Config{
			APIKey:  cfg.AnthropicKey,
			Model:   cfg.AnthropicModel,
			Timeout: cfg.Timeout,
		})
	default:
		log.Info("openrouter recognition client enabled", zap.String("model", cfg.Model))
		return openrouter.NewClient(openrouter.Config{
			APIKey:  cfg.OpenRouterKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Referer: cfg.Referer,
			Timeout: cfg.Timeout,
		})
	}
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/pharmsight/pharmsight/internal/alerts"
	"github.com/pharmsight/pharmsight/internal/app"
	"github.com/pharmsight/pharmsight/internal/forecast"
	"github.com/pharmsight/pharmsight/internal/narrative"
	"github.com/pharmsight/pharmsight/internal/observability"
	"github.com/pharmsight/pharmsight/internal/platform/db"
	"github.com/pharmsight/pharmsight/internal/replenish"
	"github.com/pharmsight/pharmsight/internal/reporting"
	"github.com/pharmsight/pharmsight/internal/simulation"
	"github.com/pharmsight/pharmsight/internal/stock"
	"github.com/pharmsight/pharmsight/internal/stock/memory"
	"github.com/pharmsight/pharmsight/internal/stock/postgres"
	"github.com/pharmsight/pharmsight/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	var store stock.Store
	switch cfg.StoreBackend {
	case app.StoreMemory:
		store = memory.New()
		logger.Warn("using in-memory store; records are lost on restart")
	default:
		pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		store = postgres.New(pool)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	reportCache := reporting.NewCache(redisClient, cfg.CacheTTL)

	forecastService := forecast.NewService(store)
	alertsService := alerts.NewService(store)
	reportingService := reporting.NewService(store, reportCache)
	replenishService := replenish.NewService(store, forecastService)
	simulationService := simulation.NewService(store, reportCache, logger)
	narrativeService := narrative.NewService(
		forecastService,
		alertsService,
		reportingService,
		replenishService,
		nil, // prompt-only until a completion backend is wired
		logger,
	)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		ForecastHandler:   forecast.NewHandler(logger, forecastService),
		AlertsHandler:     alerts.NewHandler(logger, alertsService),
		ReportingHandler:  reporting.NewHandler(logger, reportingService),
		ReplenishHandler:  replenish.NewHandler(logger, replenishService),
		SimulationHandler: simulation.NewHandler(logger, simulationService),
		NarrativeHandler:  narrative.NewHandler(logger, narrativeService),
		JobsHandler:       jobs.NewHandler(inspector, logger),
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

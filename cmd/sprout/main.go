package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sprout-farm/sprout/internal/app"
	"github.com/sprout-farm/sprout/internal/finance"
	financehttp "github.com/sprout-farm/sprout/internal/finance/http"
	"github.com/sprout-farm/sprout/internal/ledger"
	"github.com/sprout-farm/sprout/internal/observability"
	"github.com/sprout-farm/sprout/internal/platform/db"
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

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("resolve timezone", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	ledgerRepo := ledger.NewRepository(pool)
	financeCache := finance.NewCache(redisClient, cfg.SummaryTTL)
	financeService := finance.NewService(logger, ledgerRepo, financeCache, loc)
	ledgerService := ledger.NewService(ledgerRepo, financeService, metrics, ledger.ServiceConfig{
		MaxRetries: cfg.MutationMaxRetries,
	})

	ledgerHandler := ledger.NewHandler(logger, ledgerService)
	financeHandler := financehttp.NewHandler(logger, financeService, ledgerService)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		LedgerHandler:  ledgerHandler,
		FinanceHandler: financeHandler,
		Pool:           pool,
		Metrics:        metrics,
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
		logger.Error("server shutdown", slog.Any("error", err))
	}
}

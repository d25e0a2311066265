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

	"github.com/KotFed0t/crypto_trading_sandbox/config"
	"github.com/KotFed0t/crypto_trading_sandbox/data"
	"github.com/KotFed0t/crypto_trading_sandbox/data/cache"
	"github.com/KotFed0t/crypto_trading_sandbox/data/repository/postgres"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/externalApi/coingeckoApi"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/externalApi/finnhubApi"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/externalApi/yahooApi"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/reportGenerator/xlsxGenerator"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/scheduler"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/service/tradingService"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/transport/rest"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/transport/ws"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)

	coingeckoApiClient := coingeckoApi.New(cfg)
	finnhubApiClient := finnhubApi.New(cfg)
	yahooApiClient := yahooApi.New(cfg)

	reportGenerator := xlsxGenerator.New()

	hub := ws.NewHub()
	defer hub.Close()

	tradingSrv := tradingService.New(cfg, pgRepo, redisCache, coingeckoApiClient, finnhubApiClient, yahooApiClient, reportGenerator, hub)

	sched := scheduler.New()
	sched.NewIntervalJob("refresh prices", tradingSrv.RefreshPrices, cfg.Jobs.PriceRefreshInterval, true)
	sched.Start()
	defer sched.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	controller := rest.NewController(tradingSrv, hub)
	controller.RegisterRoutes(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		slog.Info("http server started", slog.Int("port", cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", slog.String("err", err.Error()))
			cancel()
		}
	}()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-interrupt:
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", slog.String("err", err.Error()))
	}
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}

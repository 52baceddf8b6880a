package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/evaluation-console/internal/cache"
	"github.com/SAP-F-2025/evaluation-console/internal/config"
	"github.com/SAP-F-2025/evaluation-console/internal/events"
	"github.com/SAP-F-2025/evaluation-console/internal/gateway"
	"github.com/SAP-F-2025/evaluation-console/internal/handlers"
	"github.com/SAP-F-2025/evaluation-console/internal/metrics"
	"github.com/SAP-F-2025/evaluation-console/internal/services"
	"github.com/SAP-F-2025/evaluation-console/internal/utils"
	"github.com/SAP-F-2025/evaluation-console/internal/validator"
	"github.com/SAP-F-2025/evaluation-console/pkg"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(slogLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, slogLogger); err != nil {
		slogLogger.Error("Console exited with error", "error", err)
		os.Exit(1)
	}
}

// run serves the console until ctx is cancelled, then drains requests, stops
// the services and closes the bus and redis in that order.
func run(ctx context.Context, cfg *config.Config, slogLogger *slog.Logger) error {
	logger := utils.NewSlogLogger(slogLogger)

	// Redis is optional; without it every cache read goes to the backend.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache", "error", err)
		} else {
			redisClient = client
			defer redisClient.Close()
		}
	}

	metrics.Init()

	bus, err := events.NewBus(events.BusConfig{
		Topic:        cfg.Events.Topic,
		KafkaBrokers: cfg.Events.KafkaBrokers,
	}, slogLogger)
	if err != nil {
		return fmt.Errorf("event bus: %w", err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logger.Error("Failed to close event bus", "error", err)
		}
	}()

	v := validator.New()
	serviceManager := services.NewServiceManager(services.Dependencies{
		Gateway: gateway.NewClient(gateway.Config{
			BaseURL: cfg.Gateway.BaseURL,
			Timeout: cfg.Gateway.Timeout,
		}, slogLogger),
		Cache:      cache.NewCacheManager(redisClient, cache.WithEvaluationTTL(cfg.HistoryCacheTTL)),
		Publisher:  bus,
		Subscriber: bus,
		Logger:     slogLogger,
		Validator:  v,
	}, services.ServiceManagerConfig{
		SessionIdleTTL: cfg.SessionIdleTTL,
		HistoryMaxAge:  cfg.HistoryCacheTTL,
		Location:       cfg.Location,
	})
	if err := serviceManager.Initialize(ctx); err != nil {
		return fmt.Errorf("services: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadSize
	handlers.SetupMiddleware(router, logger, cfg.MaxUploadSize)
	handlers.NewHandlerManager(serviceManager, v, logger).SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"backend", cfg.Gateway.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			_ = serviceManager.Shutdown(context.Background())
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if err := serviceManager.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	logger.Info("Server exited")
	return nil
}

/**
 * @description
 * Entry point for the narration service.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/wcpay/narration-service/internal/api"
	"github.com/wcpay/narration-service/internal/app"
	"github.com/wcpay/narration-service/internal/config"
	"github.com/wcpay/narration-service/internal/locale"
	"github.com/wcpay/narration-service/internal/store"
	"github.com/wcpay/narration-service/pkg/paymentsclient"
	"github.com/wcpay/narration-service/pkg/rabbitmq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg, err := config.LoadConfig(".", bootLogger)
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	pgConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	pgConfig.MaxConns = 20
	pgConfig.MinConns = 2
	pgConfig.MaxConnLifetime = 30 * time.Minute
	pgConfig.MaxConnIdleTime = 5 * time.Minute
	pgConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, pgConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	repository := store.NewPostgresRepository(dbpool)
	if err := repository.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	cache := newRenderCache(cfg, logger)

	var payments app.PaymentsClient
	if strings.TrimSpace(cfg.PaymentsAPIBaseURL) != "" {
		payments = paymentsclient.NewClient(cfg.PaymentsAPIBaseURL, cfg.PaymentsAPIKey)
	} else {
		logger.Warn("payments api not configured; rendering ingested records only")
	}

	formatter := locale.New(locale.Config{
		Location:          cfg.Location(),
		DateFormat:        cfg.DateFormat,
		DecimalSeparator:  cfg.DecimalSeparator,
		ThousandSeparator: cfg.ThousandSeparator,
	})
	service := app.NewService(repository, payments, cache, formatter, cfg.StoreCurrency, logger)

	var publisher rabbitmq.Publisher = &rabbitmq.FallbackPublisher{Logger: logger}
	if cfg.RabbitMQURL != "" {
		if producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL); err == nil {
			publisher = producer
			defer producer.Close()
		} else {
			logger.Warn("failed to connect to RabbitMQ, using fallback publisher", "error", err)
		}

		if consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL, logger); err == nil {
			defer consumer.Close()
			bindings := make(map[string]rabbitmq.Handler)
			for key, handler := range app.NewIngestionConsumer(service, logger).Bindings() {
				bindings[key] = handler
			}
			if err := consumer.ConsumeWithBindings(cfg.EventsExchange, cfg.PaymentEventQueue, bindings); err != nil {
				logger.Error("failed to start ingestion consumer", "error", err)
			}
		} else {
			logger.Warn("failed to connect ingestion consumer; live updates disabled", "error", err)
		}
	} else {
		logger.Warn("RABBITMQ_URL not set; ingestion disabled and reminders use the fallback publisher")
	}

	jobs := app.NewJobs(service, publisher, logger, cfg)
	scheduler := app.NewScheduler(jobs, logger, cfg)
	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
	}

	if cfg.InternalAPIKey == "" {
		logger.Warn("INTERNAL_API_KEY not set; internal render routes are unauthenticated")
	}
	handler := api.NewHandler(service, logger)
	router := api.NewRouter(handler, api.NewKeySource(cfg.JWKSURL), cfg.InternalAPIKey)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("scheduler did not stop before shutdown deadline")
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}

func newRenderCache(cfg config.Config, logger *slog.Logger) app.RenderCache {
	if cfg.RedisURL == "" {
		logger.Info("redis url missing; using in-process render cache")
		return app.NewMemoryRenderCache(cfg.CacheTTL)
	}

	options, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("redis url parse failed; using in-process render cache", "error", err)
		return app.NewMemoryRenderCache(cfg.CacheTTL)
	}

	client := redis.NewClient(options)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis ping failed; using in-process render cache", "error", err)
		client.Close()
		return app.NewMemoryRenderCache(cfg.CacheTTL)
	}

	logger.Info("redis connected")
	return app.NewRedisRenderCache(client, cfg.CachePrefix, cfg.CacheTTL)
}

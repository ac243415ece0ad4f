package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paymentgw/config"
	httpHandler "paymentgw/internal/adapter/http/handler"
	pgStorage "paymentgw/internal/adapter/storage/postgres"
	redisStorage "paymentgw/internal/adapter/storage/redis"
	"paymentgw/internal/core/ports"
	"paymentgw/internal/service"
	"paymentgw/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Payment Gateway")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	paymentRepo := pgStorage.NewPaymentRepo(pool)
	healthCheckers := []ports.HealthChecker{pgStorage.NewHealthCheck(pool)}

	// Redis is optional: without it the service loses the duplicate
	// fast path and rate limiting but stays correct.
	var invoiceCache ports.ProcessedInvoiceCache
	var rateLimitStore *redisStorage.RateLimitStore
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		invoiceCache = redisStorage.NewInvoiceCache(rdb)
		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	}

	// Select the field codec
	var codec ports.FieldCodec
	switch cfg.Codec.Mode {
	case "aes":
		aesCodec, err := service.NewAESFieldCodec(cfg.Codec.AESKey)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize field codec")
		}
		codec = aesCodec
	default:
		codec = service.NewEncodingFieldCodec()
	}

	// Start the audit pipeline
	auditSink := service.NewFileAuditSink(cfg.Audit.OutputFile, service.AuditSinkOptions{
		MinWorkers:  cfg.Audit.MinWorkers,
		MaxWorkers:  cfg.Audit.MaxWorkers,
		QueueSize:   cfg.Audit.QueueSize,
		IdleTimeout: cfg.Audit.IdleTimeout,
	}, log)
	auditSink.Start()

	paymentSvc := service.NewPaymentService(paymentRepo, invoiceCache, codec, auditSink, log)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		PaymentSvc:     paymentSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: healthCheckers,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Drain the audit queue after the server stopped accepting requests.
	auditCtx, auditCancel := context.WithTimeout(context.Background(), cfg.Audit.ShutdownTimeout)
	defer auditCancel()
	if err := auditSink.Stop(auditCtx); err != nil {
		log.Error().Err(err).Int64("dropped", auditSink.Dropped()).Msg("Audit pipeline drain incomplete")
	}

	log.Info().Msg("Server exited")
}

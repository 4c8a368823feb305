package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotelbilling/internal/config"
	"hotelbilling/internal/infra"
	"hotelbilling/internal/metrics"
	"hotelbilling/internal/repository"
	"hotelbilling/internal/router"
	"hotelbilling/internal/service"
	"hotelbilling/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty; every protected request will be rejected")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	billingMetrics := metrics.NewBilling(reg)

	reconcileCB := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		Name:             "reconciliation",
		FailureThreshold: cfg.ReconcileMaxAttempts,
		OpenTimeout:      15 * time.Minute,
	})

	// Redis backs the job queue, rate limiter and cron lock. Invoice operations do not need it,
	// so a missing Redis degrades the service instead of stopping it.
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Error().Err(err).Msg("redis unavailable; background reconciliation and rate limiting disabled")
	}

	if rdb != nil {
		reconciliationSvc := service.NewReconciliationService(
			repository.NewInvoiceRepository(db),
			repository.NewReservationReader(db),
			billingMetrics,
		)
		handlers := &worker.WorkerHandlers{
			Reconciliation: worker.NewReconciliationWorker(reconciliationSvc, reconcileCB, rdb, cfg.ReconcileMaxAttempts),
		}
		worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)
		worker.StartReconcileCron(ctx, worker.ReconcileCronConfig{
			Interval: cfg.ReconcileInterval,
			Queue:    worker.NewDispatcher(rdb),
			CB:       reconcileCB,
			RDB:      rdb,
		})
	}

	r := router.New(cfg, router.Deps{
		DB:       db,
		RDB:      rdb,
		CB:       reconcileCB,
		Metrics:  billingMetrics,
		Gatherer: reg,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("billing service listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}

// setupLogger: dev gets the pretty console writer, production plain JSON.
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "billing").Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

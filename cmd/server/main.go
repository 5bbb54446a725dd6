package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"calibra/internal/analysis"
	"calibra/internal/audit"
	"calibra/internal/cases"
	caseshandler "calibra/internal/cases/handler"
	"calibra/internal/cases/runlock"
	casesservice "calibra/internal/cases/service"
	"calibra/internal/detector"
	"calibra/internal/observed"
	"calibra/internal/platform/config"
	"calibra/internal/platform/httpserver"
	"calibra/internal/platform/logger"
	"calibra/internal/platform/metrics"
	platformredis "calibra/internal/platform/redis"
	"calibra/internal/sim"
)

// main wires the pipeline dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	m := metrics.New()

	// Case store: Postgres when configured, memory otherwise.
	var caseStore cases.Store = cases.NewInMemoryStore()
	if cfg.CaseDatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.CaseDatabaseURL)
		if err != nil {
			log.Error("open case database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping case database", "error", err)
			os.Exit(1)
		}
		caseStore = cases.NewPostgresStore(db)
	}

	// Observed flow store is required: without it no case can be analyzed.
	if cfg.ObservedDatabaseURL == "" {
		log.Error("OBSERVED_DATABASE_URL is not set")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.ObservedDatabaseURL)
	if err != nil {
		log.Error("open observed database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	flowStore := observed.NewPostgresStore(pool, cfg.ObservedFlowTable, cfg.ObservedQueryTimeout)

	// Run lock: Redis when configured, in-process otherwise.
	var locker runlock.Locker = runlock.NewMemoryLocker()
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		locker = runlock.NewRedisLocker(redisClient.Client, 2*cfg.SimulatorTimeout)
	}

	// Audit trail: events always land in the store; Kafka is optional.
	auditOpts := []audit.Option{audit.WithLogger(log)}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := audit.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		auditOpts = append(auditOpts, audit.WithPublisher(publisher))
	}
	recorder := audit.NewRecorder(audit.NewInMemoryStore(), auditOpts...)
	auditCtx, stopAudit := context.WithCancel(ctx)
	auditDone := make(chan struct{})
	go func() {
		defer close(auditDone)
		if err := recorder.Run(auditCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit recorder stopped", "error", err)
		}
	}()

	svc := casesservice.NewService(
		caseStore,
		locker,
		sim.NewExecRunner(cfg.SimulatorCommand, cfg.SimulatorTimeout, sim.WithLogger(log)),
		detector.NewAggregator(cfg.IntervalMinutes, detector.WithLogger(log), detector.WithWorkers(cfg.ParseWorkers)),
		observed.NewAligner(flowStore, cfg.IntervalMinutes, observed.WithLogger(log)),
		casesservice.WithThresholds(analysis.Thresholds{High: cfg.GEHHigh, Low: cfg.GEHLow}),
		casesservice.WithMetrics(m),
		casesservice.WithAudit(recorder),
		casesservice.WithLogger(log),
	)

	router := chi.NewRouter()
	caseshandler.New(svc, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting calibra", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	stopAudit()
	<-auditDone
}

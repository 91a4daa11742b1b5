package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"facegate/internal/audit"
	"facegate/internal/enrollment"
	"facegate/internal/ledger"
	"facegate/internal/platform/config"
	"facegate/internal/platform/httpserver"
	"facegate/internal/platform/logger"
	platformpg "facegate/internal/platform/postgres"
	platformredis "facegate/internal/platform/redis"
	"facegate/internal/recognition"
	"facegate/internal/session"
	sessionmetrics "facegate/internal/session/metrics"
	sessionstore "facegate/internal/session/store"
	httptransport "facegate/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	loc, err := cfg.Pipeline.Location()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage: postgres and redis when configured, in-memory otherwise.
	pool, err := platformpg.Connect(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	if pool != nil {
		defer pool.Close()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var enrollStore enrollment.Store = enrollment.NewInMemory()
	var ledgerStore ledger.Store = ledger.NewInMemory()
	if pool != nil {
		enrollStore = enrollment.NewPostgres(pool)
		ledgerStore = ledger.NewPostgres(pool)
	}

	var sessStore sessionstore.Store = sessionstore.NewInMemory()
	if redisClient != nil {
		sessStore = sessionstore.NewRedis(redisClient.Client)
	}

	// Recognition index over the enrollment store.
	index := recognition.NewIndex()
	gate := recognition.NewGate(index,
		cfg.Pipeline.RecognitionThreshold,
		cfg.Pipeline.TieEpsilon,
		cfg.Pipeline.EmbeddingDim,
		cfg.Pipeline.ModelVersion,
	)
	if err := gate.WarmUp(ctx, enrollStore); err != nil {
		log.Fatalf("recognition index: %v", err)
	}

	enrollments := enrollment.NewService(enrollStore, cfg.Pipeline.EmbeddingDim, cfg.Pipeline.ModelVersion, gate)

	// Audit pipeline: memory store always, kafka sink when configured.
	publisher := audit.NewPublisher(256)
	auditStore := audit.NewInMemoryStore()
	sinks := []audit.Sink{auditStore}
	if cfg.Kafka.Brokers != "" {
		kafkaSink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}

	led := ledger.New(ledgerStore, log)
	manager := session.NewManager(sessStore, gate, led, publisher, sessionmetrics.New(), cfg.Pipeline, loc, log)

	router := httptransport.NewRouter(log, cfg.Auth.JWTSigningKey,
		httptransport.NewSessionHandler(manager),
		httptransport.NewEnrollmentHandler(enrollments),
		httptransport.NewAttendanceHandler(led),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return audit.NewWorker(publisher.Inbox(), log, sinks...).Run(ctx)
	})
	g.Go(func() error {
		return session.NewSweeper(manager, cfg.Pipeline.SweepInterval, log).Run(ctx)
	})
	g.Go(func() error {
		log.Printf("starting facegate on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("server error: %v", err)
	}
}

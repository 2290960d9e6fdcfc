package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/smukkama/launch-advisor/internal/database"
	"github.com/smukkama/launch-advisor/internal/engine"
	"github.com/smukkama/launch-advisor/internal/logger"
	"github.com/smukkama/launch-advisor/internal/queue"
	"github.com/smukkama/launch-advisor/internal/samples"
	"github.com/smukkama/launch-advisor/internal/scheduler"
	"github.com/smukkama/launch-advisor/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Log.Level)
	log := logger.WithComponent("main")
	log.Info().Msg("starting advisory engine service")

	// Connect to database
	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Service.MigrationsDir != "" {
		if err := db.RunMigrations(cfg.Service.MigrationsDir); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	// Decision sinks: Postgres append plus Kafka for downstream consumers
	publisher := queue.NewDecisionPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicDecisions)
	defer publisher.Close()
	sink := engine.MultiSink{db, publisher}

	// Sample source: Postgres behind a Redis latest-sample cache
	source := samples.NewCachedSource(redisClient, db, cfg.Engine.SampleCacheTTL)

	eng := engine.New(db, source, sink, engine.Config{
		Freshness:      cfg.Engine.Freshness,
		TrendLookback:  cfg.Engine.TrendLookback,
		DeltaTolerance: cfg.Engine.DeltaTolerance,
		FetchTimeout:   cfg.Engine.FetchTimeout,
		GustEpsilon:    cfg.Engine.GustEpsilon,
		MaxParallel:    cfg.Engine.MaxParallel,
	})

	// Metrics endpoint
	metricsServer := &http.Server{Addr: cfg.Service.MetricsAddr, Handler: promhttp.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	// Schedule recurring evaluation of every active location
	sched := scheduler.New()
	sched.Start()
	defer sched.Stop()

	locations, err := db.ListActiveLocations(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list locations")
	}
	for _, loc := range locations {
		interval := cfg.Service.EvalInterval
		if loc.EvalInterval != nil && *loc.EvalInterval > 0 {
			interval = time.Duration(*loc.EvalInterval) * time.Second
		}
		locationID := loc.ID
		if err := sched.Add(fmt.Sprintf("location-%d", locationID), interval, func() {
			evalCtx, evalCancel := context.WithTimeout(ctx, cfg.Service.EvalTimeout)
			defer evalCancel()

			if _, err := eng.EvaluateLocation(evalCtx, locationID); err != nil {
				log.Error().Err(err).Int64("location_id", locationID).Msg("evaluation failed")
			}
		}); err != nil {
			log.Error().Err(err).Int64("location_id", locationID).Msg("failed to schedule location")
		}
	}
	log.Info().Int("locations", len(locations)).Dur("default_interval", cfg.Service.EvalInterval).Msg("evaluation schedule loaded")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down gracefully")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teranga/internal/config"
	"teranga/internal/events"
	"teranga/internal/infra"
	"teranga/internal/metrics"
	"teranga/internal/repository"
	"teranga/internal/router"
	"teranga/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev: pretty, prod: JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	bus, err := newEventBus(cfg, rdb)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.EventsBackend).Msg("failed to start event bus")
	}
	defer bus.Close()

	metrics.Register()

	// Background jobs are wired here (composition root) so that the pool has
	// full access to all infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailerCBCfg := infra.MailerCBConfig()
	mailerCBCfg.OnStateChange = func(name string, from, to infra.CBState) {
		metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
	}
	mailerCB := infra.NewCircuitBreaker(mailerCBCfg)
	mailer := infra.NewMailer(cfg, mailerCB)

	dispatcher := worker.NewDispatcher(rdb)
	pool := worker.NewPool(rdb)
	pool.Handle(worker.JobLowStockAlert, worker.NewAlertWorker(mailer, cfg.StockAlertEmail).Process)
	pool.Start(ctx, cfg.WorkerPoolSize)

	worker.StartStockSweep(ctx, worker.StockSweepConfig{
		Ingredients: repository.NewIngredientRepository(db),
		Dispatcher:  dispatcher,
	})

	r := router.New(cfg, db, rdb, bus, dispatcher, mailerCB)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: the kitchen stream holds its response open.
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("teranga api listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

// newEventBus picks the order event transport from EVENTS_BACKEND.
func newEventBus(cfg *config.Config, rdb *redis.Client) (events.Bus, error) {
	switch cfg.EventsBackend {
	case "nats":
		nc, err := infra.NewNATS(cfg.NATSURL)
		if err != nil {
			return nil, err
		}
		return events.NewNATSBus(nc), nil
	case "memory":
		return events.NewMemoryBus(), nil
	case "", "redis":
		return events.NewRedisBus(rdb), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
	}
}

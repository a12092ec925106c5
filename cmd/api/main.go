package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/diagnosis/concierge/internal/api"
	"github.com/diagnosis/concierge/internal/booking"
	"github.com/diagnosis/concierge/internal/content"
	"github.com/diagnosis/concierge/internal/http/handlers"
	"github.com/diagnosis/concierge/internal/notify"
	"github.com/diagnosis/concierge/internal/session"
	"github.com/diagnosis/concierge/pkg/config"
	"github.com/diagnosis/concierge/pkg/events"
	"github.com/diagnosis/concierge/pkg/logger"
	mw "github.com/diagnosis/concierge/pkg/middleware"
)

const sweepSchedule = "@every 1m"

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// Token storage and idempotency replay live in Redis when it is reachable.
	storage := session.MemoryStorageFactory()
	var idempotency mw.IdempotencyStore
	rdb, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, sessions will not survive restarts", "error", err)
	} else {
		defer rdb.Close()
		storage = session.RedisStorageFactory(rdb, cfg.Session.TTL)
		idempotency = mw.NewRedisIdempotencyStore(rdb)
	}

	// Connect to event bus
	var bus events.Publisher = events.NopBus{}
	if cfg.NATS.Enabled {
		nbus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		bus = nbus
	}
	defer bus.Close()

	client := api.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	sessions := session.NewManager(client, storage, session.Routes{
		Login:     cfg.Site.LoginPath,
		Dashboard: cfg.Site.DashboardPath,
		Admin:     cfg.Site.AdminPath,
	}, cfg.Session.TTL)
	flows := booking.NewRegistry(cfg.Session.FlowTTL)
	dispatcher := notify.NewDispatcher(cfg.Webhooks, bus)
	limiter := mw.NewRateLimiter(mw.RateLimitConfig{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
		SkipFunc:          mw.SkipHealth,
	})

	router := handlers.NewRouter(handlers.RouterDeps{
		Config:      cfg,
		Sessions:    sessions,
		Flows:       flows,
		Notifier:    dispatcher,
		Blogs:       content.NewRenderer(),
		Idempotency: idempotency,
		Limiter:     limiter,
	})

	jobs := cron.New()
	if _, err := jobs.AddFunc(sweepSchedule, func() { sweep(ctx, sessions, flows, limiter) }); err != nil {
		logger.Error("Failed to schedule sweeper", "error", err)
		os.Exit(1)
	}
	jobs.Start()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down concierge service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Concierge service shutdown error", "error", err)
		}
		<-jobs.Stop().Done()
		dispatcher.Wait()
	}()

	logger.Info("Starting concierge service", "port", cfg.Server.Port, "upstream", cfg.Upstream.BaseURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Concierge service error", "error", err)
		os.Exit(1)
	}
	<-done
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// sweep evicts idle sessions, booking flows and rate limiters.
func sweep(ctx context.Context, sessions *session.Manager, flows *booking.Registry, limiter *mw.RateLimiter) {
	s := sessions.Sweep(ctx)
	f := flows.Sweep()
	l := limiter.Cleanup()
	if s+f+l > 0 {
		logger.Debug("Swept idle state", "sessions", s, "flows", f, "limiters", l)
	}
}

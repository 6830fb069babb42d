package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"cinereserve/internal/config"
	"cinereserve/internal/inventory"
	"cinereserve/internal/postgres"
	redisx "cinereserve/internal/redis"
	"cinereserve/internal/repository"
	"cinereserve/internal/repository/memory"
	postgresrepo "cinereserve/internal/repository/postgres"
	redisrepo "cinereserve/internal/repository/redis"
	"cinereserve/internal/service"
	"cinereserve/internal/service/catalog"
	"cinereserve/internal/service/query"
	"cinereserve/internal/service/ticketing"
	"cinereserve/internal/session"
	httpgin "cinereserve/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	scheduler  gocron.Scheduler
	services   *service.Services
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	var (
		store service.Store
		audit repository.AuditLog
	)

	if cfg.Postgres.Enabled() {
		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.Postgres.User,
			cfg.Postgres.Password,
			cfg.Postgres.Host,
			cfg.Postgres.Port,
			cfg.Postgres.Name,
			cfg.Postgres.SSLMode,
		)

		pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}

		pgStore := postgresrepo.NewStore(pgxPool)
		store = pgStore
		audit = pgStore.Audit()
	} else {
		logger.Warn("POSTGRES_HOST not set, using in-memory store")
		memStore := memory.NewStore()
		store = memStore
		audit = memStore
	}

	rdb, err := redisx.New(context.Background(), redisx.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	cache := redisrepo.New(rdb)
	pubsub := redisx.NewShowtimesPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "hold", cfg.Reservation.RateLimit, cfg.Reservation.RateWindow)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)

	// Initialize core state
	registry := inventory.NewRegistry()
	sessions := session.NewManager(registry)

	// Initialize services
	services := service.NewServices(store, audit, registry, sessions, cache, pubsub, limiter, service.Config{
		Ticketing: ticketing.Config{CodeAttempts: cfg.Reservation.CodeAttempts},
		Query:     query.Config{},
		Catalog:   catalog.Config{HoldTTL: cfg.Reservation.HoldTTL},
	})

	// Initialize Gin router
	router := httpgin.NewRouter(services, idempotencyStore, logger)

	// Initialize the hold-expiry sweep
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.Reservation.SweepInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			released, err := services.Reservation.Expire(ctx)
			if err != nil {
				logger.Error("hold sweep failed", "error", err)
				return
			}
			if released > 0 {
				logger.Info("hold sweep released seats", "seats", released)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule hold sweep: %w", err)
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		scheduler: scheduler,
		services:  services,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.scheduler.Start()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down")
		if err := a.scheduler.Shutdown(); err != nil {
			a.logger.Error("scheduler shutdown failed", "error", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

// Package main is the entry point for the travel booking API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/WuorBhang/alx-backend-travel-app/internal/clock"
	"github.com/WuorBhang/alx-backend-travel-app/internal/config"
	"github.com/WuorBhang/alx-backend-travel-app/internal/handler"
	"github.com/WuorBhang/alx-backend-travel-app/internal/lease"
	"github.com/WuorBhang/alx-backend-travel-app/internal/middleware"
	"github.com/WuorBhang/alx-backend-travel-app/internal/notify"
	"github.com/WuorBhang/alx-backend-travel-app/internal/repo"
	"github.com/WuorBhang/alx-backend-travel-app/internal/scheduler"
	"github.com/WuorBhang/alx-backend-travel-app/internal/service"
	"github.com/WuorBhang/alx-backend-travel-app/migrations"
)

func main() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---------------------------------------------------------
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if cfg.MigrateOnStart {
		if err := migrate(ctx, cfg.DatabaseURL); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}
	}

	store := repo.NewStore(pool, repo.StoreOptions{
		MaxAttempts: cfg.TxMaxAttempts,
		LockTimeout: cfg.TxLockTimeout,
	})

	// --- Redis (optional) -------------------------------------------------
	// Without Redis every replica runs the scheduled jobs and reminders are
	// not deduplicated across restarts.
	var (
		locker scheduler.Locker
		marker service.Marker
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		locker = lease.NewLocker(rdb, "travel:")
		marker = lease.NewMarker(rdb, "travel:")
		slog.Info("redis connection established")
	}

	// --- Notifications ----------------------------------------------------
	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		slog.Error("failed to set up notifications", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	dispatcher := notify.NewDispatcher(publisher, logger, notify.DispatcherOptions{
		Buffer:  cfg.NotifyBuffer,
		Retries: uint64(cfg.NotifyRetries),
	})

	// --- Services ---------------------------------------------------------
	clk := clock.System{}
	bookings := service.NewBookingService(store, dispatcher, marker, clk, logger)
	trips := service.NewTripService(store, clk)
	users := service.NewUserService(store)

	// --- Background workers -----------------------------------------------
	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		dispatcher.Run(workerCtx)
	}()
	go func() {
		defer workers.Done()
		scheduler.New(locker, logger,
			scheduler.Job{Name: "sweep-expired", Interval: cfg.SweepInterval, Run: bookings.SweepExpired},
			scheduler.Job{Name: "reminders", Interval: cfg.ReminderInterval, Run: func(ctx context.Context) (int, error) {
				return bookings.SendReminders(ctx, cfg.ReminderHorizonDays)
			}},
		).Start(workerCtx)
	}()

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID, RealIP, Logger, Recoverer,
	// CORS, body limit. Authentication is applied per route group.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	auth := middleware.NewAuthenticator([]byte(cfg.JWTSecret), cfg.JWTIssuer)
	srvHandler := handler.NewServer(trips, bookings, users, pool, clk, logger)
	r.Mount("/", srvHandler.Routes(auth.Middleware))

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Graceful shutdown: give in-flight requests up to 15 seconds to finish,
	// then stop the workers so the dispatcher drains what those requests queued.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	stopWorkers()
	workers.Wait()
	slog.Info("server stopped")
}

// newPublisher builds the notification backend selected by NOTIFY_BACKEND.
func newPublisher(cfg config.Config, logger *slog.Logger) (notify.Publisher, error) {
	switch cfg.NotifyBackend {
	case config.NotifyRabbitMQ:
		p, err := notify.NewRabbitPublisher(cfg.RabbitMQURL, cfg.NotifyQueue)
		if err != nil {
			return nil, err
		}
		slog.Info("notifications via rabbitmq", "queue", cfg.NotifyQueue)
		return p, nil
	case config.NotifyKafka:
		slog.Info("notifications via kafka", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
		return notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	default:
		return notify.NewLogPublisher(logger), nil
	}
}

// migrate applies pending goose migrations over a short-lived database/sql
// connection.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	n, err := migrations.Up(ctx, db)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "count", n)
	return nil
}

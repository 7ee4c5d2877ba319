package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/fitbooking/config"
	"github.com/Domenick1991/fitbooking/internal/bootstrap"
	"github.com/Domenick1991/fitbooking/internal/cache"
	"github.com/Domenick1991/fitbooking/internal/clock"
	"github.com/Domenick1991/fitbooking/internal/kafka"
	"github.com/Domenick1991/fitbooking/internal/logger"
	"github.com/Domenick1991/fitbooking/internal/repository"
	"github.com/Domenick1991/fitbooking/internal/repository/memory"
	"github.com/Domenick1991/fitbooking/internal/seed"
	"github.com/Domenick1991/fitbooking/internal/service/booking"
	"github.com/Domenick1991/fitbooking/internal/service/classes"
	"github.com/Domenick1991/fitbooking/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log, "fitbooking-api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	clk := clock.NewSystem()

	var (
		classRepo   repository.ClassRepository
		bookingRepo repository.BookingRepository
	)
	switch cfg.Database.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		classRepo, bookingRepo = store.Classes(), store.Bookings()
		log.Warn().Msg("using in-memory storage, data is lost on restart")
	default:
		pool, err := connectPostgres(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := migrations.Apply(ctx, pool); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		classRepo = repository.NewClassRepository(pool)
		bookingRepo = repository.NewBookingRepository(pool)
	}

	classOpts := []classes.ClassServiceOption{
		classes.WithClock(clk),
		classes.WithDefaultTimezone(cfg.Booking.DefaultTimezone),
		classes.WithLogger(log),
	}
	bookingOpts := []booking.BookingServiceOption{
		booking.WithClock(clk),
		booking.WithLogger(log),
	}

	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.CacheTTL())
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, class cache disabled")
		} else {
			classOpts = append(classOpts, classes.WithCache(redisCache))
			bookingOpts = append(bookingOpts, booking.WithCache(redisCache))
		}
	}

	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			log.Warn().Err(err).Msg("kafka unavailable, events may be dropped")
		}
		classOpts = append(classOpts, classes.WithEvents(producer, cfg.Kafka.BookingTopic))
		bookingOpts = append(bookingOpts,
			booking.WithEvents(producer, cfg.Kafka.BookingTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
	}

	if cfg.Booking.SeedSampleClasses {
		if _, err := seed.SampleClasses(ctx, classRepo, clk, log); err != nil {
			log.Error().Err(err).Msg("seed sample classes")
		}
	}

	services := bootstrap.Services{
		Classes:  classes.NewClassService(classRepo, classOpts...),
		Bookings: booking.NewBookingService(bookingRepo, classRepo, bookingOpts...),
	}
	return bootstrap.Run(ctx, cfg, services, log)
}

func connectPostgres(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/flightbooking/api"
	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/bootstrap"
	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/inventory"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/logger"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	checks := map[string]api.HealthCheck{"postgres": db.PingContext}

	var guard booking.IdempotencyGuard
	switch cfg.Idempotency.Backend {
	case "redis":
		redisClient := cache.NewRedisClient(cfg.Redis)
		defer redisClient.Close()
		guard = cache.NewRedisIdempotencyStore(redisClient, cfg.Idempotency.TTL())
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	default:
		guard = repository.NewIdempotencyRepository(db, cfg.Idempotency.TTL())
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		log.WithError(err).Warn("kafka is not reachable, booking events will be dropped until it is")
	}
	checks["kafka"] = producer.CheckConnection

	bookingService := booking.NewBookingService(
		repository.NewBookingRepository(db),
		inventory.NewClient(cfg.Inventory.BaseURL, cfg.Inventory.Timeout(), cfg.Inventory.BreakerThreshold),
		guard,
		log,
		cfg.Booking.PaymentWindow(),
		booking.WithEvents(producer, cfg.Kafka.BookingEventsTopic),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	if err := bootstrap.Run(ctx, cfg, log, bookingService, checks); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

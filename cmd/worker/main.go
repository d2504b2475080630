package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/inventory"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/logger"
	"github.com/Domenick1991/flightbooking/internal/notify"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/sweeper"
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

	bookingRepo := repository.NewBookingRepository(db)
	var sweeperOpts []sweeper.Option

	var guard booking.IdempotencyGuard
	switch cfg.Idempotency.Backend {
	case "redis":
		redisClient := cache.NewRedisClient(cfg.Redis)
		defer redisClient.Close()
		guard = cache.NewRedisIdempotencyStore(redisClient, cfg.Idempotency.TTL())
	default:
		keys := repository.NewIdempotencyRepository(db, cfg.Idempotency.TTL())
		guard = keys
		sweeperOpts = append(sweeperOpts, sweeper.WithKeyPurger(keys))
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	defer producer.Close()

	bookingService := booking.NewBookingService(
		bookingRepo,
		inventory.NewClient(cfg.Inventory.BaseURL, cfg.Inventory.Timeout(), cfg.Inventory.BreakerThreshold),
		guard,
		log,
		cfg.Booking.PaymentWindow(),
		booking.WithEvents(producer, cfg.Kafka.BookingEventsTopic),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	expiry := sweeper.New(bookingRepo, bookingService, log.WithField("component", "sweeper"),
		cfg.Booking.PaymentWindow(), cfg.Worker.SweepBatchSize, sweeperOpts...)
	if err := expiry.Start(ctx, cfg.Worker.SweepSchedule); err != nil {
		log.Fatalf("start sweeper: %v", err)
	}
	defer expiry.Stop()

	if cfg.Kafka.NotificationsTopic != "" {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, log)
		defer consumer.Close()

		sender := notify.NewSender(log.WithField("component", "notify"))
		go func() {
			if err := consumer.Consume(ctx, sender.Send); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("notification consumer stopped")
			}
		}()
	}

	log.Info("worker started")
	<-ctx.Done()
	log.Info("shutting down worker")
}

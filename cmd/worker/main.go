package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/bookingdesk/config"
	"github.com/Domenick1991/bookingdesk/internal/bootstrap"
	"github.com/Domenick1991/bookingdesk/internal/cache"
	"github.com/Domenick1991/bookingdesk/internal/email"
	"github.com/Domenick1991/bookingdesk/internal/kafka"
	"github.com/Domenick1991/bookingdesk/internal/logger"
	"github.com/Domenick1991/bookingdesk/internal/repository"
	"github.com/Domenick1991/bookingdesk/internal/worker"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
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
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.OpenPostgres(ctx, cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("postgres")
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cache.NewClient(cfg.Redis), cfg.Booking.FlightsCacheTTL)
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.CommandsTopic, log)
	defer producer.Close()

	bookingService, err := bootstrap.NewBookingService(cfg, repository.NewStore(pool), redisCache, producer, log)
	if err != nil {
		log.WithError(err).Fatal("booking service")
	}

	scheduler := worker.NewScheduler(bookingService, cfg.Worker.OutboxBatchSize, log)
	if err := scheduler.Schedule(ctx, cfg.Worker); err != nil {
		log.WithError(err).Fatal("scheduler")
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.CommandsTopic, log)
	defer consumer.Close()
	sender := email.NewSender(email.NewLogTransport(log), redisCache, cfg.Worker.CommandDedupeTTL, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Run(ctx)
	})
	g.Go(func() error {
		err := consumer.Consume(ctx, sender.Handle)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	log.Info("worker started")
	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("worker stopped")
	}
	log.Info("worker stopped")
}

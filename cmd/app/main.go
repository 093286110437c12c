package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/bookingdesk/api"
	"github.com/Domenick1991/bookingdesk/config"
	"github.com/Domenick1991/bookingdesk/internal/bootstrap"
	"github.com/Domenick1991/bookingdesk/internal/cache"
	"github.com/Domenick1991/bookingdesk/internal/kafka"
	"github.com/Domenick1991/bookingdesk/internal/logger"
	"github.com/Domenick1991/bookingdesk/internal/pricing"
	"github.com/Domenick1991/bookingdesk/internal/repository"
	"github.com/Domenick1991/bookingdesk/internal/service/flights"
	"github.com/gin-gonic/gin"
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
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.OpenPostgres(ctx, cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("postgres")
	}
	defer pool.Close()

	redisClient := cache.NewClient(cfg.Redis)
	redisCache := cache.NewRedisCache(redisClient, cfg.Booking.FlightsCacheTTL)
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.CommandsTopic, log)
	defer producer.Close()

	store := repository.NewStore(pool)
	bookingService, err := bootstrap.NewBookingService(cfg, store, redisCache, producer, log)
	if err != nil {
		log.WithError(err).Fatal("booking service")
	}

	taxRate := pricing.DefaultTaxRate
	if cfg.Booking.DefaultTaxRate != nil {
		taxRate = *cfg.Booking.DefaultTaxRate
	}
	flightService := flights.NewFlightService(store, redisCache, pricing.NewCalculator(taxRate), log)

	router := api.NewRouter(log,
		api.NewBookingHandler(bookingService, log),
		api.NewPaymentHandler(bookingService, log),
		api.NewFlightHandler(flightService, log),
	)

	if err := bootstrap.Run(ctx, cfg.HTTP, router, log); err != nil {
		log.WithError(err).Fatal("server error")
	}
}

package bootstrap

import (
	"context"
	"fmt"

	"github.com/Domenick1991/bookingdesk/config"
	"github.com/Domenick1991/bookingdesk/internal/refund"
	"github.com/Domenick1991/bookingdesk/internal/repository"
	"github.com/Domenick1991/bookingdesk/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
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

// BookingOptions turns the booking and refund sections of cfg into service options.
func BookingOptions(cfg *config.Config) ([]booking.BookingServiceOption, error) {
	refunds, err := refund.NewCalculator(cfg.RefundPolicies)
	if err != nil {
		return nil, err
	}
	opts := []booking.BookingServiceOption{
		booking.WithHoldTTL(cfg.Booking.HoldTTL),
		booking.WithHoldExtension(cfg.Booking.HoldExtension),
		booking.WithDuplicateWindow(cfg.Booking.DuplicateWindow),
		booking.WithLockTTL(cfg.Booking.LockTTL),
		booking.WithRefundCalculator(refunds),
	}
	if cfg.Booking.DefaultTaxRate != nil {
		opts = append(opts, booking.WithDefaultTaxRate(*cfg.Booking.DefaultTaxRate))
	}
	return opts, nil
}

func NewBookingService(cfg *config.Config, store repository.Store, locker booking.Locker, publisher booking.Publisher, log logrus.FieldLogger) (*booking.BookingService, error) {
	opts, err := BookingOptions(cfg)
	if err != nil {
		return nil, fmt.Errorf("booking options: %w", err)
	}
	return booking.NewBookingService(store, locker, publisher, log, opts...), nil
}

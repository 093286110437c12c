package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository interface {
	BookingRepository
	PassengerRepository
	PaymentRepository
	SeatRepository
	FlightRepository
	AuditRepository
	OutboxRepository
}

// Store hands out repositories bound either to the pool or to one transaction.
type Store interface {
	Repository
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

type pgRepository struct {
	q querier
}

type PGStore struct {
	*pgRepository
	db DB
}

func NewStore(db DB) *PGStore {
	return &PGStore{pgRepository: &pgRepository{q: db}, db: db}
}

// WithinTx runs fn in a transaction and commits only if fn succeeds.
func (s *PGStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &pgRepository{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// parseNumeric reads a NUMERIC column selected as text.
func parseNumeric(v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidPriceFormat, v)
	}
	return d, nil
}

var (
	_ Store      = (*PGStore)(nil)
	_ Repository = (*pgRepository)(nil)
)

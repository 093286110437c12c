package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/jackc/pgx/v5"
)

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *domain.Booking) error
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	UpdateBooking(ctx context.Context, booking *domain.Booking) error
	ListPendingExpiredBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
	ListByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error)
	ListUserFlightBookingsSince(ctx context.Context, userID string, flightID int64, since time.Time) ([]domain.Booking, error)
	LockUserBookings(ctx context.Context, userID string) error
}

type PassengerRepository interface {
	CreatePassenger(ctx context.Context, p *domain.Passenger) error
	ListPassengers(ctx context.Context, bookingID int64) ([]domain.Passenger, error)
}

const bookingColumns = `id, booking_reference, user_id, flight_id, status, total_amount::text, booking_date,
	hold_expiry, assigned_agent, last_contacted, duplicate_warning, related_bookings, admin_override,
	COALESCE(cancel_reason, ''), version, created_at, updated_at`

func (r *pgRepository) CreateBooking(ctx context.Context, b *domain.Booking) error {
	b.Version = 1
	err := r.q.QueryRow(ctx, `INSERT INTO bookings (booking_reference, user_id, flight_id, status, total_amount,
			booking_date, hold_expiry, duplicate_warning, related_bookings, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		b.Reference, b.UserID, b.FlightID, string(b.Status), b.TotalAmount.String(),
		b.BookingDate, b.HoldExpiry, b.DuplicateWarning, relatedOrEmpty(b.RelatedBookings), b.Version).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *pgRepository) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(r.q.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("booking %d", id))
	}
	return b, nil
}

func (r *pgRepository) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE booking_reference=$1)`, reference).Scan(&exists); err != nil {
		return false, fmt.Errorf("check booking reference: %w", err)
	}
	return exists, nil
}

// UpdateBooking writes the mutable booking fields if nobody else wrote since b was read.
func (r *pgRepository) UpdateBooking(ctx context.Context, b *domain.Booking) error {
	tag, err := r.q.Exec(ctx, `UPDATE bookings SET status=$1, total_amount=$2, hold_expiry=$3, assigned_agent=$4,
			last_contacted=$5, duplicate_warning=$6, related_bookings=$7, admin_override=$8,
			cancel_reason=NULLIF($9, ''), version=version+1, updated_at=now()
		WHERE id=$10 AND version=$11`,
		string(b.Status), b.TotalAmount.String(), b.HoldExpiry, b.AssignedAgent,
		b.LastContacted, b.DuplicateWarning, relatedOrEmpty(b.RelatedBookings), b.AdminOverride,
		string(b.CancelReason), b.ID, b.Version)
	if err != nil {
		return fmt.Errorf("update booking %d: %w", b.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("booking %d version %d: %w", b.ID, b.Version, domain.ErrConflict)
	}
	b.Version++
	return nil
}

func (r *pgRepository) ListPendingExpiredBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	return r.listBookings(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status=$1 AND hold_expiry IS NOT NULL AND hold_expiry < $2 ORDER BY hold_expiry`,
		string(domain.BookingStatusPending), deadline)
}

func (r *pgRepository) ListByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error) {
	return r.listBookings(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE status=$1 ORDER BY booking_date`, string(status))
}

// LockUserBookings serializes booking creation for one user until the transaction ends.
func (r *pgRepository) LockUserBookings(ctx context.Context, userID string) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "bookings:"+userID); err != nil {
		return fmt.Errorf("lock bookings of user %s: %w", userID, err)
	}
	return nil
}

func (r *pgRepository) ListUserFlightBookingsSince(ctx context.Context, userID string, flightID int64, since time.Time) ([]domain.Booking, error) {
	return r.listBookings(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE user_id=$1 AND flight_id=$2 AND booking_date >= $3 ORDER BY booking_date`, userID, flightID, since)
}

func (r *pgRepository) listBookings(ctx context.Context, sql string, args ...any) ([]domain.Booking, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b      domain.Booking
		status string
		total  string
		reason string
	)
	if err := row.Scan(&b.ID, &b.Reference, &b.UserID, &b.FlightID, &status, &total, &b.BookingDate,
		&b.HoldExpiry, &b.AssignedAgent, &b.LastContacted, &b.DuplicateWarning, &b.RelatedBookings,
		&b.AdminOverride, &reason, &b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	amount, err := parseNumeric(total)
	if err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	b.TotalAmount = amount
	b.CancelReason = domain.CancelReason(reason)
	return &b, nil
}

func relatedOrEmpty(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func (r *pgRepository) CreatePassenger(ctx context.Context, p *domain.Passenger) error {
	err := r.q.QueryRow(ctx, `INSERT INTO passengers (booking_id, first_name, last_name, email, passenger_type, flight_seat_id)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		p.BookingID, p.FirstName, p.LastName, p.Email, string(p.Type), p.FlightSeatID).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert passenger: %w", err)
	}
	return nil
}

func (r *pgRepository) ListPassengers(ctx context.Context, bookingID int64) ([]domain.Passenger, error) {
	rows, err := r.q.Query(ctx, `SELECT id, booking_id, first_name, last_name, email, passenger_type, flight_seat_id
		FROM passengers WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list passengers: %w", err)
	}
	defer rows.Close()

	passengers := make([]domain.Passenger, 0)
	for rows.Next() {
		var (
			p     domain.Passenger
			ptype string
		)
		if err := rows.Scan(&p.ID, &p.BookingID, &p.FirstName, &p.LastName, &p.Email, &ptype, &p.FlightSeatID); err != nil {
			return nil, fmt.Errorf("scan passenger: %w", err)
		}
		p.Type = domain.PassengerType(ptype)
		passengers = append(passengers, p)
	}
	return passengers, rows.Err()
}

package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/jackc/pgx/v5"
)

type FlightRepository interface {
	ListFlights(ctx context.Context) ([]domain.Flight, error)
	GetFlight(ctx context.Context, id int64) (*domain.Flight, error)
}

type SeatRepository interface {
	GetSeat(ctx context.Context, id int64) (*domain.FlightSeat, error)
	GetSeats(ctx context.Context, ids []int64) (map[int64]domain.FlightSeat, error)
	SaveSeat(ctx context.Context, seat *domain.FlightSeat) error
	RecordSeatMovement(ctx context.Context, m *domain.SeatMovement) error
}

const flightColumns = `id, flight_number, from_airport, to_airport, departure_time, arrival_time,
	base_price::text, tax_rate::text, created_at, updated_at`

func (r *pgRepository) ListFlights(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.q.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flight: %w", err)
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *pgRepository) GetFlight(ctx context.Context, id int64) (*domain.Flight, error) {
	f, err := scanFlight(r.q.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("flight %d", id))
	}
	return f, nil
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var (
		f       domain.Flight
		base    string
		taxRate *string
	)
	if err := row.Scan(&f.ID, &f.FlightNumber, &f.FromAirport, &f.ToAirport, &f.DepartureTime, &f.ArrivalTime,
		&base, &taxRate, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if f.BasePrice, err = parseNumeric(base); err != nil {
		return nil, err
	}
	if taxRate != nil {
		rate, err := parseNumeric(*taxRate)
		if err != nil {
			return nil, err
		}
		f.TaxRate = &rate
	}
	return &f, nil
}

const seatColumns = `id, flight_id, seat_number, price_multiplier::text, status, held_by, updated_at`

// GetSeat locks the row so concurrent transitions touching the same seat serialize.
func (r *pgRepository) GetSeat(ctx context.Context, id int64) (*domain.FlightSeat, error) {
	s, err := scanSeat(r.q.QueryRow(ctx, `SELECT `+seatColumns+` FROM flight_seats WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("seat %d", id))
	}
	return s, nil
}

func (r *pgRepository) GetSeats(ctx context.Context, ids []int64) (map[int64]domain.FlightSeat, error) {
	seats := make(map[int64]domain.FlightSeat, len(ids))
	if len(ids) == 0 {
		return seats, nil
	}
	rows, err := r.q.Query(ctx, `SELECT `+seatColumns+` FROM flight_seats WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		seats[s.ID] = *s
	}
	return seats, rows.Err()
}

func (r *pgRepository) SaveSeat(ctx context.Context, seat *domain.FlightSeat) error {
	tag, err := r.q.Exec(ctx, `UPDATE flight_seats SET status=$1, held_by=$2, updated_at=now() WHERE id=$3`,
		string(seat.Status), seat.HeldBy, seat.ID)
	if err != nil {
		return fmt.Errorf("update seat %d: %w", seat.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("seat %d: %w", seat.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *pgRepository) RecordSeatMovement(ctx context.Context, m *domain.SeatMovement) error {
	err := r.q.QueryRow(ctx, `INSERT INTO seat_movements (seat_id, booking_id, from_status, to_status, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		m.SeatID, m.BookingID, string(m.From), string(m.To), m.CreatedAt).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("insert seat movement: %w", err)
	}
	return nil
}

func scanSeat(row pgx.Row) (*domain.FlightSeat, error) {
	var (
		s      domain.FlightSeat
		mult   string
		status string
	)
	if err := row.Scan(&s.ID, &s.FlightID, &s.SeatNumber, &mult, &status, &s.HeldBy, &s.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if s.PriceMultiplier, err = parseNumeric(mult); err != nil {
		return nil, err
	}
	s.Status = domain.SeatStatus(status)
	return &s, nil
}

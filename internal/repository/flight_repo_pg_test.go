package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var flightCols = []string{"id", "flight_number", "from_airport", "to_airport", "departure_time", "arrival_time",
	"base_price", "tax_rate", "created_at", "updated_at"}

var seatCols = []string{"id", "flight_id", "seat_number", "price_multiplier", "status", "held_by", "updated_at"}

func TestListFlights(t *testing.T) {
	store, mock := newMockStore(t)
	dep := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	rate := "0.20"

	mock.ExpectQuery(`FROM flights ORDER BY departure_time`).
		WillReturnRows(pgxmock.NewRows(flightCols).
			AddRow(int64(1), "SU100", "SVO", "LED", dep, dep.Add(90*time.Minute), "100.00", (*string)(nil), dep, dep).
			AddRow(int64(2), "SU200", "LED", "SVO", dep, dep.Add(2*time.Hour), "150.50", &rate, dep, dep))

	flights, err := store.ListFlights(context.Background())
	require.NoError(t, err)
	require.Len(t, flights, 2)
	assert.True(t, decimal.RequireFromString("100").Equal(flights[0].BasePrice))
	assert.Nil(t, flights[0].TaxRate)
	require.NotNil(t, flights[1].TaxRate)
	assert.True(t, decimal.RequireFromString("0.2").Equal(*flights[1].TaxRate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFlights_BadPrice(t *testing.T) {
	store, mock := newMockStore(t)
	dep := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM flights ORDER BY departure_time`).
		WillReturnRows(pgxmock.NewRows(flightCols).
			AddRow(int64(1), "SU100", "SVO", "LED", dep, dep, "abc", (*string)(nil), dep, dep))

	_, err := store.ListFlights(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidPriceFormat)
}

func TestGetFlight_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM flights WHERE id=\$1`).
		WithArgs(int64(9)).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetFlight(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSeats(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	holder := int64(42)

	mock.ExpectQuery(`FROM flight_seats WHERE id = ANY\(\$1\)`).
		WithArgs([]int64{3, 4}).
		WillReturnRows(pgxmock.NewRows(seatCols).
			AddRow(int64(3), int64(1), "1A", "1.50", "reserved", &holder, now).
			AddRow(int64(4), int64(1), "1B", "1.00", "available", (*int64)(nil), now))

	seats, err := store.GetSeats(context.Background(), []int64{3, 4})
	require.NoError(t, err)
	require.Len(t, seats, 2)
	assert.Equal(t, domain.SeatStatusReserved, seats[3].Status)
	assert.Equal(t, int64(42), *seats[3].HeldBy)
	assert.True(t, decimal.RequireFromString("1.5").Equal(seats[3].PriceMultiplier))
	assert.Nil(t, seats[4].HeldBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSeats_Empty(t *testing.T) {
	store, mock := newMockStore(t)

	seats, err := store.GetSeats(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, seats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSeat(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		execErr  error
		wantErr  error
	}{
		{name: "updated", affected: 1},
		{name: "missing seat", affected: 0, wantErr: domain.ErrNotFound},
		{name: "driver error", execErr: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			holder := int64(5)
			exp := mock.ExpectExec(`UPDATE flight_seats SET status=\$1`).
				WithArgs("booked", &holder, int64(3))
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))
			}

			err := store.SaveSeat(context.Background(), &domain.FlightSeat{ID: 3, Status: domain.SeatStatusBooked, HeldBy: &holder})
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.execErr != nil:
				assert.ErrorIs(t, err, tt.execErr)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRecordSeatMovement(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO seat_movements`).
		WithArgs(int64(3), int64(5), "reserved", "booked", now).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))

	m := &domain.SeatMovement{SeatID: 3, BookingID: 5, From: domain.SeatStatusReserved, To: domain.SeatStatusBooked, CreatedAt: now}
	require.NoError(t, store.RecordSeatMovement(context.Background(), m))
	assert.Equal(t, int64(11), m.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

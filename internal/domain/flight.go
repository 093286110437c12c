package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Flight struct {
	ID            int64
	FlightNumber  string
	FromAirport   string
	ToAirport     string
	DepartureTime time.Time
	ArrivalTime   time.Time
	BasePrice     decimal.Decimal
	// TaxRate is nil when the flight does not carry its own rate.
	TaxRate   *decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusReserved  SeatStatus = "reserved"
	SeatStatusBooked    SeatStatus = "booked"
)

type FlightSeat struct {
	ID              int64
	FlightID        int64
	SeatNumber      string
	PriceMultiplier decimal.Decimal
	Status          SeatStatus
	// HeldBy is the booking currently reserving or booking the seat.
	HeldBy    *int64
	UpdatedAt time.Time
}

// SeatMovement attributes one seat status change to one booking.
type SeatMovement struct {
	ID        int64
	SeatID    int64
	BookingID int64
	From      SeatStatus
	To        SeatStatus
	CreatedAt time.Time
}

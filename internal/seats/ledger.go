// Package seats keeps flight-seat status in lockstep with the bookings holding them.
package seats

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/sirupsen/logrus"
)

// Store is the seat persistence the ledger writes through. Inside a transition it is the
// transaction-bound repository so seat changes commit together with the booking.
type Store interface {
	GetSeat(ctx context.Context, id int64) (*domain.FlightSeat, error)
	SaveSeat(ctx context.Context, seat *domain.FlightSeat) error
	RecordSeatMovement(ctx context.Context, m *domain.SeatMovement) error
}

type Ledger struct {
	store Store
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewLedger(store Store, log logrus.FieldLogger) *Ledger {
	return &Ledger{store: store, log: log, now: time.Now}
}

func (l *Ledger) IsAvailable(ctx context.Context, seatID int64) (bool, error) {
	seat, err := l.store.GetSeat(ctx, seatID)
	if err != nil {
		return false, err
	}
	return seat.Status == domain.SeatStatusAvailable, nil
}

// Reserve provisionally holds an available seat for a pending booking.
func (l *Ledger) Reserve(ctx context.Context, seatID, bookingID int64) error {
	seat, err := l.store.GetSeat(ctx, seatID)
	if err != nil {
		return err
	}
	if seat.Status != domain.SeatStatusAvailable {
		if heldBy(seat, bookingID) {
			return nil
		}
		return conflict(seat, bookingID)
	}
	return l.move(ctx, seat, bookingID, domain.SeatStatusReserved)
}

// Block books the seat for bookingID. A reservation held by another booking is taken over;
// a seat already booked by another booking is a conflict.
func (l *Ledger) Block(ctx context.Context, seatID, bookingID int64) error {
	seat, err := l.store.GetSeat(ctx, seatID)
	if err != nil {
		return err
	}
	switch seat.Status {
	case domain.SeatStatusBooked:
		if heldBy(seat, bookingID) {
			return nil
		}
		return conflict(seat, bookingID)
	case domain.SeatStatusReserved:
		if seat.HeldBy != nil && *seat.HeldBy != bookingID {
			l.log.WithFields(logrus.Fields{
				"seat_id":    seat.ID,
				"booking_id": bookingID,
				"reserved":   *seat.HeldBy,
			}).Warn("blocking seat reserved by another booking")
		}
	}
	return l.move(ctx, seat, bookingID, domain.SeatStatusBooked)
}

// Release frees a seat held by bookingID. Releasing an available seat, or one that belongs
// to a different booking, changes nothing.
func (l *Ledger) Release(ctx context.Context, seatID, bookingID int64) error {
	seat, err := l.store.GetSeat(ctx, seatID)
	if err != nil {
		return err
	}
	if seat.Status == domain.SeatStatusAvailable {
		return nil
	}
	if seat.HeldBy != nil && *seat.HeldBy != bookingID {
		l.log.WithFields(logrus.Fields{
			"seat_id":    seat.ID,
			"booking_id": bookingID,
			"held_by":    *seat.HeldBy,
		}).Debug("skip release of seat held by another booking")
		return nil
	}
	return l.move(ctx, seat, bookingID, domain.SeatStatusAvailable)
}

func (l *Ledger) move(ctx context.Context, seat *domain.FlightSeat, bookingID int64, to domain.SeatStatus) error {
	from := seat.Status
	now := l.now()

	seat.Status = to
	seat.UpdatedAt = now
	if to == domain.SeatStatusAvailable {
		seat.HeldBy = nil
	} else {
		id := bookingID
		seat.HeldBy = &id
	}

	if err := l.store.SaveSeat(ctx, seat); err != nil {
		return fmt.Errorf("save seat %d: %w", seat.ID, err)
	}
	if err := l.store.RecordSeatMovement(ctx, &domain.SeatMovement{
		SeatID:    seat.ID,
		BookingID: bookingID,
		From:      from,
		To:        to,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("record seat movement %d: %w", seat.ID, err)
	}

	l.log.WithFields(logrus.Fields{
		"seat_id":    seat.ID,
		"booking_id": bookingID,
		"from":       from,
		"to":         to,
	}).Debug("seat moved")
	return nil
}

func heldBy(seat *domain.FlightSeat, bookingID int64) bool {
	return seat.HeldBy != nil && *seat.HeldBy == bookingID
}

func conflict(seat *domain.FlightSeat, bookingID int64) error {
	var holder int64
	if seat.HeldBy != nil {
		holder = *seat.HeldBy
	}
	return &domain.SeatConflictError{SeatID: seat.ID, HeldBy: holder, BookingID: bookingID}
}

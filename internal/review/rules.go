// Package review holds the triage policies agents apply to the pending-booking queue.
// Nothing here mutates state; callers act on the returned recommendations.
package review

import (
	"sort"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
)

type Classification string

const (
	Incomplete      Classification = "incomplete"
	CompletePending Classification = "complete_pending"
	Confirmed       Classification = "confirmed"
	Cancelled       Classification = "cancelled"
)

type Action string

const (
	ActionConfirm         Action = "confirm"
	ActionContactCustomer Action = "contact_customer"
	ActionCancel          Action = "cancel"
	ActionExtendHold      Action = "extend_hold"
	ActionForceConfirm    Action = "force_confirm"
)

func Classify(s domain.BookingSnapshot) Classification {
	switch s.Booking.Status {
	case domain.BookingStatusCancelled:
		return Cancelled
	case domain.BookingStatusPending:
		if len(s.Passengers) == 0 || len(s.Payments) == 0 {
			return Incomplete
		}
		return CompletePending
	default:
		return Confirmed
	}
}

func IsExpired(b domain.Booking, now time.Time) bool {
	return b.HoldExpiry != nil && b.HoldExpiry.Before(now)
}

// NeedsDuplicateCheck reports other bookings by the same user on the same flight booked
// within window of b. Cancelled candidates are ignored.
func NeedsDuplicateCheck(b domain.Booking, candidates []domain.Booking, window time.Duration) (bool, []int64) {
	var related []int64
	for _, c := range candidates {
		if c.ID == b.ID || c.UserID != b.UserID || c.FlightID != b.FlightID {
			continue
		}
		if c.Status == domain.BookingStatusCancelled {
			continue
		}
		gap := b.BookingDate.Sub(c.BookingDate)
		if gap < 0 {
			gap = -gap
		}
		if gap <= window {
			related = append(related, c.ID)
		}
	}
	sort.Slice(related, func(i, j int) bool { return related[i] < related[j] })
	return len(related) > 0, related
}

func CanExtendHold(b domain.Booking, now time.Time) bool {
	return b.Status == domain.BookingStatusPending && !IsExpired(b, now)
}

// ExtendedHold returns the new expiry after adding increment. A booking without a hold
// gets one counted from now.
func ExtendedHold(b domain.Booking, increment time.Duration, now time.Time) time.Time {
	base := now
	if b.HoldExpiry != nil && b.HoldExpiry.After(now) {
		base = *b.HoldExpiry
	}
	return base.Add(increment)
}

// SeatConflicts lists seats of a pending booking that another committed booking has booked.
func SeatConflicts(s domain.BookingSnapshot) []int64 {
	if s.Booking.Status != domain.BookingStatusPending {
		return nil
	}
	var seats []int64
	for _, seatID := range s.SeatIDs() {
		seat, ok := s.Seats[seatID]
		if !ok || seat.Status != domain.SeatStatusBooked || seat.HeldBy == nil || *seat.HeldBy == s.Booking.ID {
			continue
		}
		switch s.Holders[*seat.HeldBy] {
		case domain.BookingStatusConfirmed, domain.BookingStatusPaid, domain.BookingStatusVerified:
			seats = append(seats, seatID)
		}
	}
	return seats
}

// Recommend lists the actions an agent is offered for the booking. Contacting the
// customer and cancelling are offered side by side; cancelling never waits on a contact.
func Recommend(s domain.BookingSnapshot, now time.Time) []Action {
	switch Classify(s) {
	case Incomplete:
		if IsExpired(s.Booking, now) || len(SeatConflicts(s)) > 0 {
			return []Action{ActionCancel}
		}
		return []Action{ActionContactCustomer, ActionCancel, ActionExtendHold, ActionForceConfirm}
	case CompletePending:
		if IsExpired(s.Booking, now) || len(SeatConflicts(s)) > 0 {
			return []Action{ActionCancel}
		}
		actions := []Action{ActionContactCustomer, ActionCancel, ActionExtendHold}
		if s.HasPaymentIn(domain.PaymentStatusCompleted, domain.PaymentStatusVerified) {
			actions = append([]Action{ActionConfirm}, actions...)
		} else {
			actions = append(actions, ActionForceConfirm)
		}
		return actions
	case Confirmed:
		return []Action{ActionCancel}
	}
	return nil
}

// Package lifecycle decides booking and payment transitions without touching storage.
//
// Every Decide* function takes a snapshot and returns a decision describing the new
// status, the seat movements and the side-effect commands. Callers apply a decision in
// one unit of work; a rejected request returns an error and no decision.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/google/uuid"
)

type SeatOp string

const (
	SeatReserve SeatOp = "reserve"
	SeatBlock   SeatOp = "block"
	SeatRelease SeatOp = "release"
)

type SeatAction struct {
	SeatID int64
	Op     SeatOp
}

type BookingRequest struct {
	To     domain.BookingStatus
	Actor  domain.Actor
	Reason domain.CancelReason
	Now    time.Time
}

type BookingDecision struct {
	From          domain.BookingStatus
	To            domain.BookingStatus
	Reason        domain.CancelReason
	NoOp          bool
	AdminOverride bool
	Seats         []SeatAction
	// VoidPayments lists pending attempts a cancellation closes.
	VoidPayments []int64
	Commands     []domain.Command
	Audit        *domain.AuditEntry
}

// Apply copies the decided state onto b.
func (d BookingDecision) Apply(b *domain.Booking, now time.Time) {
	if d.NoOp {
		return
	}
	b.Status = d.To
	b.UpdatedAt = now
	if d.To == domain.BookingStatusCancelled {
		b.CancelReason = d.Reason
	}
	if d.AdminOverride {
		b.AdminOverride = true
	}
}

// DecideBooking validates a status change for the snapshot's booking.
func DecideBooking(s domain.BookingSnapshot, req BookingRequest) (BookingDecision, error) {
	b := s.Booking
	from := b.Status
	to := req.To

	if !to.Valid() {
		return BookingDecision{}, fmt.Errorf("%w: unknown booking status %q", domain.ErrValidation, to)
	}
	if err := authorize(b, req.Actor, to); err != nil {
		return BookingDecision{}, err
	}
	if from == domain.BookingStatusCancelled && to == domain.BookingStatusCancelled {
		return BookingDecision{From: from, To: to, NoOp: true}, nil
	}
	if from.Terminal() || from == to {
		return BookingDecision{}, bookingTransitionError(from, to, "")
	}

	d := BookingDecision{From: from, To: to}

	switch {
	case to == domain.BookingStatusCancelled:
		d = cancellation(s, req.Reason, req.Now)

	case from == domain.BookingStatusPending && to == domain.BookingStatusConfirmed:
		if !s.HasPaymentIn(domain.PaymentStatusCompleted, domain.PaymentStatusVerified) {
			return BookingDecision{}, bookingTransitionError(from, to, "no successful payment")
		}

	case (from == domain.BookingStatusPending || from == domain.BookingStatusConfirmed) && to == domain.BookingStatusPaid:
		if !s.HasPaymentIn(domain.PaymentStatusVerified) {
			return BookingDecision{}, bookingTransitionError(from, to, "payment not verified")
		}
		for _, id := range s.SeatIDs() {
			if err := checkBlockable(s, id); err != nil {
				return BookingDecision{}, err
			}
			d.Seats = append(d.Seats, SeatAction{SeatID: id, Op: SeatBlock})
		}

	case from == domain.BookingStatusPaid && to == domain.BookingStatusVerified:
		if !s.HasPaymentIn(domain.PaymentStatusVerified) {
			return BookingDecision{}, bookingTransitionError(from, to, "payment not verified")
		}

	default:
		return BookingDecision{}, bookingTransitionError(from, to, "")
	}

	return d, nil
}

// DecideForceConfirm confirms a pending booking regardless of payments and completeness.
// The decision always carries the audit entry that must be stored with it.
func DecideForceConfirm(s domain.BookingSnapshot, actor domain.Actor, reason string, now time.Time) (BookingDecision, error) {
	b := s.Booking
	if actor.Role != domain.RoleAdmin {
		return BookingDecision{}, fmt.Errorf("%w: force confirm requires admin", domain.ErrNotAuthorized)
	}
	if strings.TrimSpace(reason) == "" {
		return BookingDecision{}, fmt.Errorf("%w: override reason is required", domain.ErrValidation)
	}
	if b.Status != domain.BookingStatusPending {
		return BookingDecision{}, bookingTransitionError(b.Status, domain.BookingStatusConfirmed, "force confirm needs a pending booking")
	}

	return BookingDecision{
		From:          b.Status,
		To:            domain.BookingStatusConfirmed,
		AdminOverride: true,
		Audit: &domain.AuditEntry{
			ID:        uuid.New(),
			BookingID: b.ID,
			Action:    domain.AuditActionAdminOverride,
			Reason:    reason,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
			CreatedAt: now,
		},
	}, nil
}

// cancellation frees the booking's seats and closes its pending payment attempts.
func cancellation(s domain.BookingSnapshot, reason domain.CancelReason, now time.Time) BookingDecision {
	b := s.Booking
	if reason == "" {
		reason = domain.CancelReasonRequested
	}
	d := BookingDecision{From: b.Status, To: domain.BookingStatusCancelled, Reason: reason}
	for _, id := range s.SeatIDs() {
		d.Seats = append(d.Seats, SeatAction{SeatID: id, Op: SeatRelease})
	}
	cmd := domain.NewCommand(domain.CommandBookingCancelled, &b, now)
	cmd.Reason = string(reason)
	d.Commands = append(d.Commands, cmd)

	for _, p := range s.Payments {
		if p.Status != domain.PaymentStatusPending {
			continue
		}
		d.VoidPayments = append(d.VoidPayments, p.ID)
		d.Commands = append(d.Commands, paymentCommand(domain.CommandPaymentVoided, &b, p, now))
	}
	return d
}

func authorize(b domain.Booking, actor domain.Actor, to domain.BookingStatus) error {
	if actor.Staff() {
		return nil
	}
	if to == domain.BookingStatusCancelled && actor.Role == domain.RoleCustomer && actor.ID == b.UserID {
		return nil
	}
	return fmt.Errorf("%w: %s %q cannot move booking %d to %s", domain.ErrNotAuthorized, actor.Role, actor.ID, b.ID, to)
}

func checkBlockable(s domain.BookingSnapshot, seatID int64) error {
	seat, ok := s.Seats[seatID]
	if !ok {
		return nil
	}
	if seat.Status == domain.SeatStatusBooked && seat.HeldBy != nil && *seat.HeldBy != s.Booking.ID {
		return &domain.SeatConflictError{SeatID: seatID, HeldBy: *seat.HeldBy, BookingID: s.Booking.ID}
	}
	return nil
}

func bookingTransitionError(from, to domain.BookingStatus, detail string) error {
	return &domain.TransitionError{Entity: "booking", From: string(from), To: string(to), Detail: detail}
}

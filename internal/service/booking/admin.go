package booking

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/Domenick1991/bookingdesk/internal/lifecycle"
	"github.com/Domenick1991/bookingdesk/internal/repository"
)

type AuditInput struct {
	BookingID int64
	Action    string
	Reason    string
}

type SeatInput struct {
	BookingID int64
	Status    string
}

// RecordAudit stores a free-form audit note. Overrides are recorded by ForceConfirm only.
func (s *BookingService) RecordAudit(ctx context.Context, input AuditInput, actor domain.Actor) (*domain.AuditEntry, error) {
	if err := requireStaff(actor, "writing audit entries"); err != nil {
		return nil, err
	}
	action := strings.TrimSpace(input.Action)
	reason := strings.TrimSpace(input.Reason)
	if action == "" || reason == "" {
		return nil, fmt.Errorf("%w: action and reason are required", domain.ErrValidation)
	}
	if action == domain.AuditActionAdminOverride {
		return nil, fmt.Errorf("%w: %s entries come from force confirm", domain.ErrValidation, action)
	}
	if _, err := s.store.GetBooking(ctx, input.BookingID); err != nil {
		return nil, err
	}

	entry := auditEntry(input.BookingID, action, reason, actor, s.now())
	if err := s.store.CreateAuditEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *BookingService) AuditTrail(ctx context.Context, bookingID int64, actor domain.Actor) ([]domain.AuditEntry, error) {
	if err := requireStaff(actor, "reading audit entries"); err != nil {
		return nil, err
	}
	if _, err := s.store.GetBooking(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.store.ListAuditEntries(ctx, bookingID)
}

// UpdateSeat lets staff move a seat assigned to a booking by hand. Paid bookings keep their
// seats booked and cancelled bookings cannot take seats.
func (s *BookingService) UpdateSeat(ctx context.Context, seatID int64, input SeatInput, actor domain.Actor) (*domain.FlightSeat, error) {
	if err := requireStaff(actor, "seat changes"); err != nil {
		return nil, err
	}

	var op lifecycle.SeatOp
	switch domain.SeatStatus(input.Status) {
	case domain.SeatStatusAvailable:
		op = lifecycle.SeatRelease
	case domain.SeatStatusReserved:
		op = lifecycle.SeatReserve
	case domain.SeatStatusBooked:
		op = lifecycle.SeatBlock
	default:
		return nil, fmt.Errorf("%w: unknown seat status %q", domain.ErrValidation, input.Status)
	}

	_, err := s.mutate(ctx, input.BookingID, func(ctx context.Context, repo repository.Repository, snap domain.BookingSnapshot) (change, error) {
		b := snap.Booking
		if !slices.Contains(snap.SeatIDs(), seatID) {
			return change{}, fmt.Errorf("%w: seat %d is not assigned in booking %d", domain.ErrValidation, seatID, b.ID)
		}
		seatErr := func(detail string) error {
			return &domain.TransitionError{Entity: "seat", From: string(b.Status), To: input.Status, Detail: detail}
		}
		switch op {
		case lifecycle.SeatRelease:
			if b.Status == domain.BookingStatusPaid || b.Status == domain.BookingStatusVerified {
				return change{}, seatErr("paid bookings keep their seats booked")
			}
		case lifecycle.SeatReserve:
			if b.Status != domain.BookingStatusPending {
				return change{}, seatErr("only pending bookings reserve seats")
			}
		case lifecycle.SeatBlock:
			if b.Status == domain.BookingStatusCancelled {
				return change{}, seatErr("cancelled bookings cannot hold seats")
			}
		}
		return change{
			seats: []lifecycle.SeatAction{{SeatID: seatID, Op: op}},
			audit: auditEntry(b.ID, domain.AuditActionSeatOverride, fmt.Sprintf("seat %d set to %s", seatID, input.Status), actor, s.now()),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.store.GetSeat(ctx, seatID)
}

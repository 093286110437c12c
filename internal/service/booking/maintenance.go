package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/Domenick1991/bookingdesk/internal/lifecycle"
	"github.com/Domenick1991/bookingdesk/internal/repository"
	"github.com/Domenick1991/bookingdesk/internal/review"
	"github.com/sirupsen/logrus"
)

type ReviewItem struct {
	Booking          domain.Booking
	Classification   review.Classification
	Passengers       int
	Payments         int
	Expired          bool
	DuplicateWarning bool
	RelatedBookings  []int64
	SeatConflicts    []int64
	Actions          []review.Action
}

// ExpireHolds cancels pending bookings whose hold ran out and frees their seats. Running it
// again cancels nothing new. Bookings locked by another writer are left for the next run.
func (s *BookingService) ExpireHolds(ctx context.Context) (int, error) {
	due, err := s.store.ListPendingExpiredBefore(ctx, s.now())
	if err != nil {
		return 0, err
	}

	return s.sweep(ctx, due, "expire hold", func(snap domain.BookingSnapshot) (domain.CancelReason, bool) {
		if snap.Booking.Status != domain.BookingStatusPending || !review.IsExpired(snap.Booking, s.now()) {
			return "", false
		}
		return domain.CancelReasonHoldExpired, true
	})
}

// ResolveSeatConflicts cancels pending bookings holding a seat another committed booking has booked.
func (s *BookingService) ResolveSeatConflicts(ctx context.Context) (int, error) {
	pending, err := s.store.ListByStatus(ctx, domain.BookingStatusPending)
	if err != nil {
		return 0, err
	}

	return s.sweep(ctx, pending, "resolve seat conflict", func(snap domain.BookingSnapshot) (domain.CancelReason, bool) {
		conflicts := review.SeatConflicts(snap)
		if len(conflicts) == 0 {
			return "", false
		}
		s.log.WithFields(logrus.Fields{"booking_id": snap.Booking.ID, "seats": conflicts}).Warn("seat conflict")
		return domain.CancelReasonSeatConflict, true
	})
}

// sweep cancels every booking for which check reports a reason, each in its own unit of work.
func (s *BookingService) sweep(ctx context.Context, bookings []domain.Booking, what string, check func(domain.BookingSnapshot) (domain.CancelReason, bool)) (int, error) {
	var (
		cancelled int
		errs      []error
	)
	for _, b := range bookings {
		if ctx.Err() != nil {
			return cancelled, ctx.Err()
		}

		changed := false
		_, err := s.mutate(ctx, b.ID, func(ctx context.Context, repo repository.Repository, snap domain.BookingSnapshot) (change, error) {
			reason, ok := check(snap)
			if !ok {
				return change{}, nil
			}
			d, err := lifecycle.DecideBooking(snap, lifecycle.BookingRequest{
				To:     domain.BookingStatusCancelled,
				Actor:  domain.SystemActor,
				Reason: reason,
				Now:    s.now(),
			})
			if err != nil {
				return change{}, err
			}
			changed = !d.NoOp
			return bookingChange(d), nil
		})
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				s.log.WithField("booking_id", b.ID).Debug(what + ": booking busy, retrying next run")
				continue
			}
			errs = append(errs, fmt.Errorf("%s for booking %d: %w", what, b.ID, err))
			continue
		}
		if changed {
			cancelled++
		}
	}
	return cancelled, errors.Join(errs...)
}

func (s *BookingService) ReviewQueue(ctx context.Context, actor domain.Actor) ([]ReviewItem, error) {
	if err := requireStaff(actor, "the review queue"); err != nil {
		return nil, err
	}
	pending, err := s.store.ListByStatus(ctx, domain.BookingStatusPending)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]ReviewItem, 0, len(pending))
	for _, b := range pending {
		snap, err := loadSnapshot(ctx, s.store, b.ID)
		if err != nil {
			return nil, err
		}
		candidates, err := s.store.ListUserFlightBookingsSince(ctx, b.UserID, b.FlightID, b.BookingDate.Add(-s.duplicateWindow))
		if err != nil {
			return nil, err
		}
		dup, related := review.NeedsDuplicateCheck(snap.Booking, candidates, s.duplicateWindow)

		items = append(items, ReviewItem{
			Booking:          snap.Booking,
			Classification:   review.Classify(snap),
			Passengers:       len(snap.Passengers),
			Payments:         len(snap.Payments),
			Expired:          review.IsExpired(snap.Booking, now),
			DuplicateWarning: dup,
			RelatedBookings:  related,
			SeatConflicts:    review.SeatConflicts(snap),
			Actions:          review.Recommend(snap, now),
		})
	}
	return items, nil
}

// RelayOutbox republishes commands whose inline publish failed. It stops at the first
// publish error so commands of a booking keep their order.
func (s *BookingService) RelayOutbox(ctx context.Context, limit int) (int, error) {
	msgs, err := s.store.ListUndispatched(ctx, limit)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, m := range msgs {
		if err := s.publisher.Publish(ctx, m.Command); err != nil {
			if markErr := s.store.MarkAttempt(ctx, m.ID); markErr != nil {
				s.log.WithError(markErr).WithField("outbox_id", m.ID).Warn("failed to count relay attempt")
			}
			return sent, fmt.Errorf("relay outbox %d: %w", m.ID, err)
		}
		if err := s.store.MarkDispatched(ctx, m.ID, s.now()); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/Domenick1991/bookingdesk/internal/lifecycle"
	"github.com/Domenick1991/bookingdesk/internal/repository"
	"github.com/Domenick1991/bookingdesk/internal/seats"
	"github.com/sirupsen/logrus"
)

type paymentChange struct {
	id       int64
	from, to domain.PaymentStatus
}

// change is everything one unit of work writes for a booking.
type change struct {
	booking    *lifecycle.BookingDecision
	payment    *paymentChange
	newPayment *domain.Payment
	seats      []lifecycle.SeatAction
	commands   []domain.Command
	audit      *domain.AuditEntry
	// touch edits booking fields outside the status machine.
	touch func(b *domain.Booking)
}

func (c change) empty() bool {
	return (c.booking == nil || c.booking.NoOp) && c.payment == nil && c.newPayment == nil &&
		len(c.seats) == 0 && len(c.commands) == 0 && c.audit == nil && c.touch == nil
}

func bookingChange(d lifecycle.BookingDecision) change {
	return change{
		booking:  &d,
		seats:    append([]lifecycle.SeatAction(nil), d.Seats...),
		commands: append([]domain.Command(nil), d.Commands...),
		audit:    d.Audit,
	}
}

func paymentDecisionChange(paymentID int64, d lifecycle.PaymentDecision) change {
	c := change{
		payment:  &paymentChange{id: paymentID, from: d.From, to: d.To},
		seats:    append([]lifecycle.SeatAction(nil), d.Seats...),
		commands: append([]domain.Command(nil), d.Commands...),
	}
	if d.Booking != nil {
		c.booking = d.Booking
		c.seats = append(c.seats, d.Booking.Seats...)
		c.commands = append(c.commands, d.Booking.Commands...)
	}
	return c
}

type decideFunc func(ctx context.Context, repo repository.Repository, snap domain.BookingSnapshot) (change, error)

// mutate runs decide against a fresh snapshot and writes the resulting change in one
// transaction while holding the booking lock. Commands are published after commit.
func (s *BookingService) mutate(ctx context.Context, bookingID int64, decide decideFunc) (*domain.Booking, error) {
	var (
		result   *domain.Booking
		commands []domain.Command
	)

	err := s.withLock(ctx, bookingID, func() error {
		return s.store.WithinTx(ctx, func(ctx context.Context, repo repository.Repository) error {
			snap, err := loadSnapshot(ctx, repo, bookingID)
			if err != nil {
				return err
			}
			c, err := decide(ctx, repo, snap)
			if err != nil {
				return err
			}
			if !c.empty() {
				if err := s.apply(ctx, repo, &snap.Booking, c); err != nil {
					return err
				}
			}
			result = &snap.Booking
			commands = c.commands
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, commands)
	return result, nil
}

func (s *BookingService) withLock(ctx context.Context, bookingID int64, fn func() error) error {
	token, ok, err := s.locker.AcquireBookingLock(ctx, bookingID, s.lockTTL)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("booking %d is being modified: %w", bookingID, domain.ErrConflict)
	}
	defer func() {
		if err := s.locker.ReleaseBookingLock(context.WithoutCancel(ctx), bookingID, token); err != nil {
			s.log.WithError(err).WithField("booking_id", bookingID).Warn("failed to release booking lock")
		}
	}()
	return fn()
}

func (s *BookingService) apply(ctx context.Context, repo repository.Repository, b *domain.Booking, c change) error {
	now := s.now()
	ledger := seats.NewLedger(repo, s.log)

	for _, a := range c.seats {
		var err error
		switch a.Op {
		case lifecycle.SeatReserve:
			err = ledger.Reserve(ctx, a.SeatID, b.ID)
		case lifecycle.SeatBlock:
			err = ledger.Block(ctx, a.SeatID, b.ID)
		case lifecycle.SeatRelease:
			err = ledger.Release(ctx, a.SeatID, b.ID)
		}
		if err != nil {
			return err
		}
	}

	if c.newPayment != nil {
		if err := repo.CreatePayment(ctx, c.newPayment); err != nil {
			return err
		}
	}
	if c.payment != nil {
		if err := repo.UpdatePaymentStatus(ctx, c.payment.id, c.payment.from, c.payment.to); err != nil {
			return err
		}
	}
	if c.booking != nil && !c.booking.NoOp {
		for _, id := range c.booking.VoidPayments {
			if err := repo.UpdatePaymentStatus(ctx, id, domain.PaymentStatusPending, domain.PaymentStatusVoided); err != nil {
				return err
			}
		}
	}

	dirty := false
	if c.booking != nil && !c.booking.NoOp {
		c.booking.Apply(b, now)
		dirty = true
	}
	if c.touch != nil {
		c.touch(b)
		b.UpdatedAt = now
		dirty = true
	}
	if dirty {
		if err := repo.UpdateBooking(ctx, b); err != nil {
			return err
		}
	}

	if c.audit != nil {
		if err := repo.CreateAuditEntry(ctx, c.audit); err != nil {
			return err
		}
	}
	if len(c.commands) > 0 {
		if err := repo.EnqueueCommands(ctx, c.commands); err != nil {
			return err
		}
	}

	if c.booking != nil && !c.booking.NoOp {
		s.log.WithFields(logrus.Fields{
			"booking_id": b.ID,
			"from":       c.booking.From,
			"to":         c.booking.To,
			"reason":     c.booking.Reason,
		}).Info("booking transitioned")
	}
	return nil
}

// dispatch publishes committed commands. A failure leaves them in the outbox for the relay.
func (s *BookingService) dispatch(ctx context.Context, cmds []domain.Command) {
	if len(cmds) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, cmds...); err != nil {
		s.log.WithError(err).WithField("count", len(cmds)).Warn("publish commands failed, outbox relay will retry")
		return
	}
	now := s.now()
	for _, cmd := range cmds {
		if err := s.store.MarkCommandDispatched(ctx, cmd.ID.String(), now); err != nil {
			s.log.WithError(err).WithField("command_id", cmd.ID).Warn("failed to mark command dispatched")
		}
	}
}

func loadSnapshot(ctx context.Context, repo repository.Repository, bookingID int64) (domain.BookingSnapshot, error) {
	b, err := repo.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.BookingSnapshot{}, err
	}
	passengers, err := repo.ListPassengers(ctx, bookingID)
	if err != nil {
		return domain.BookingSnapshot{}, err
	}
	payments, err := repo.ListPayments(ctx, bookingID)
	if err != nil {
		return domain.BookingSnapshot{}, err
	}

	snap := domain.BookingSnapshot{
		Booking:    *b,
		Passengers: passengers,
		Payments:   payments,
		Holders:    make(map[int64]domain.BookingStatus),
	}
	if snap.Seats, err = repo.GetSeats(ctx, snap.SeatIDs()); err != nil {
		return domain.BookingSnapshot{}, err
	}
	for _, seat := range snap.Seats {
		if seat.HeldBy == nil || *seat.HeldBy == bookingID {
			continue
		}
		if _, ok := snap.Holders[*seat.HeldBy]; ok {
			continue
		}
		holder, err := repo.GetBooking(ctx, *seat.HeldBy)
		if err != nil {
			return domain.BookingSnapshot{}, err
		}
		snap.Holders[holder.ID] = holder.Status
	}
	return snap, nil
}

// owns reports whether actor may act on b as its owner or as staff.
func owns(b domain.Booking, actor domain.Actor) bool {
	return actor.Staff() || (actor.Role == domain.RoleCustomer && actor.ID == b.UserID)
}

func requireStaff(actor domain.Actor, what string) error {
	if !actor.Staff() {
		return fmt.Errorf("%w: %s requires staff", domain.ErrNotAuthorized, what)
	}
	return nil
}

func nowPtr(t time.Time) *time.Time {
	return &t
}

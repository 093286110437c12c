package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/Domenick1991/bookingdesk/internal/lifecycle"
	"github.com/Domenick1991/bookingdesk/internal/pricing"
	"github.com/Domenick1991/bookingdesk/internal/repository"
	"github.com/Domenick1991/bookingdesk/internal/review"
	"github.com/Domenick1991/bookingdesk/internal/seats"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type CreateBookingInput struct {
	UserID   string
	FlightID int64
}

type AddPassengerInput struct {
	FirstName    string
	LastName     string
	Email        string
	Type         domain.PassengerType
	FlightSeatID *int64
}

type StatusInput struct {
	Status string
	Reason string
}

// Details is a booking with everything an agent screen shows about it.
type Details struct {
	Booking        domain.Booking
	Passengers     []domain.Passenger
	Payments       []domain.Payment
	Quote          pricing.Quote
	Classification review.Classification
	Expired        bool
	Actions        []review.Action
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput, actor domain.Actor) (*domain.Booking, error) {
	userID := input.UserID
	if actor.Role == domain.RoleCustomer {
		if userID != "" && userID != actor.ID {
			return nil, fmt.Errorf("%w: customers book for themselves", domain.ErrNotAuthorized)
		}
		userID = actor.ID
	} else if !actor.Staff() {
		return nil, fmt.Errorf("%w: unknown actor", domain.ErrNotAuthorized)
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	if _, err := s.store.GetFlight(ctx, input.FlightID); err != nil {
		return nil, err
	}

	now := s.now()
	ref, err := uniqueReference(ctx, s.store, NewReference)
	if err != nil {
		return nil, err
	}

	hold := now.Add(s.holdTTL)
	b := &domain.Booking{
		Reference:   ref,
		UserID:      userID,
		FlightID:    input.FlightID,
		Status:      domain.BookingStatusPending,
		BookingDate: now,
		HoldExpiry:  &hold,
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repo repository.Repository) error {
		if err := repo.LockUserBookings(ctx, userID); err != nil {
			return err
		}
		candidates, err := repo.ListUserFlightBookingsSince(ctx, userID, input.FlightID, now.Add(-s.duplicateWindow))
		if err != nil {
			return err
		}
		b.DuplicateWarning, b.RelatedBookings = review.NeedsDuplicateCheck(*b, candidates, s.duplicateWindow)
		return repo.CreateBooking(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	entry := s.log.WithFields(logrus.Fields{"booking_id": b.ID, "reference": b.Reference, "user_id": b.UserID})
	if b.DuplicateWarning {
		entry.WithField("related", b.RelatedBookings).Warn("possible duplicate booking")
	}
	entry.Info("booking created")
	return b, nil
}

// AddPassenger attaches a passenger to a pending booking, reserves the chosen seat and
// reprices the booking.
func (s *BookingService) AddPassenger(ctx context.Context, bookingID int64, input AddPassengerInput, actor domain.Actor) (*domain.Passenger, error) {
	if input.Type == "" {
		input.Type = domain.PassengerAdult
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, fmt.Errorf("%w: passenger name is required", domain.ErrValidation)
	}
	if !input.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown passenger type %q", domain.ErrValidation, input.Type)
	}

	p := &domain.Passenger{
		BookingID:    bookingID,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        strings.TrimSpace(input.Email),
		Type:         input.Type,
		FlightSeatID: input.FlightSeatID,
	}

	err := s.withLock(ctx, bookingID, func() error {
		return s.store.WithinTx(ctx, func(ctx context.Context, repo repository.Repository) error {
			snap, err := loadSnapshot(ctx, repo, bookingID)
			if err != nil {
				return err
			}
			b := snap.Booking
			if !owns(b, actor) {
				return fmt.Errorf("%w: booking %d belongs to another user", domain.ErrNotAuthorized, b.ID)
			}
			if b.Status != domain.BookingStatusPending {
				return fmt.Errorf("%w: passengers can only be added to pending bookings, booking %d is %s",
					domain.ErrInvalidTransition, b.ID, b.Status)
			}

			if p.FlightSeatID != nil {
				seat, err := repo.GetSeat(ctx, *p.FlightSeatID)
				if err != nil {
					return err
				}
				if seat.FlightID != b.FlightID {
					return fmt.Errorf("%w: seat %d is not on flight %d", domain.ErrValidation, seat.ID, b.FlightID)
				}
				if err := seats.NewLedger(repo, s.log).Reserve(ctx, seat.ID, b.ID); err != nil {
					return err
				}
			}
			if err := repo.CreatePassenger(ctx, p); err != nil {
				return err
			}

			return s.reprice(ctx, repo, &snap.Booking, append(snap.Passengers, *p))
		})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *BookingService) reprice(ctx context.Context, repo repository.Repository, b *domain.Booking, passengers []domain.Passenger) error {
	flight, err := repo.GetFlight(ctx, b.FlightID)
	if err != nil {
		return err
	}
	ids := domain.BookingSnapshot{Passengers: passengers}.SeatIDs()
	seatMap, err := repo.GetSeats(ctx, ids)
	if err != nil {
		return err
	}
	quote, err := s.pricing.Compute(*flight, passengers, seatMap)
	if err != nil {
		return err
	}
	b.TotalAmount = quote.Total.Round(2)
	b.UpdatedAt = s.now()
	return repo.UpdateBooking(ctx, b)
}

func (s *BookingService) GetBooking(ctx context.Context, id int64, actor domain.Actor) (*Details, error) {
	snap, err := loadSnapshot(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if !owns(snap.Booking, actor) {
		return nil, fmt.Errorf("%w: booking %d belongs to another user", domain.ErrNotAuthorized, id)
	}

	flight, err := s.store.GetFlight(ctx, snap.Booking.FlightID)
	if err != nil {
		return nil, err
	}
	quote, err := s.pricing.Compute(*flight, snap.Passengers, snap.Seats)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &Details{
		Booking:        snap.Booking,
		Passengers:     snap.Passengers,
		Payments:       snap.Payments,
		Quote:          quote,
		Classification: review.Classify(snap),
		Expired:        snap.Booking.Status == domain.BookingStatusPending && review.IsExpired(snap.Booking, now),
		Actions:        review.Recommend(snap, now),
	}, nil
}

func (s *BookingService) UpdateStatus(ctx context.Context, id int64, input StatusInput, actor domain.Actor) (*domain.Booking, error) {
	to, err := domain.ParseBookingStatus(input.Status)
	if err != nil {
		return nil, err
	}
	reason, err := parseCancelReason(input.Reason)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(ctx context.Context, repo repository.Repository, snap domain.BookingSnapshot) (change, error) {
		d, err := lifecycle.DecideBooking(snap, lifecycle.BookingRequest{To: to, Actor: actor, Reason: reason, Now: s.now()})
		if err != nil {
			return change{}, err
		}
		return bookingChange(d), nil
	})
}

func (s *BookingService) AssignAgent(ctx context.Context, id int64, agent string, actor domain.Actor) (*domain.Booking, error) {
	if err := requireStaff(actor, "assigning an agent"); err != nil {
		return nil, err
	}
	agent = strings.TrimSpace(agent)
	if agent == "" {
		return nil, fmt.Errorf("%w: agent is required", domain.ErrValidation)
	}
	return s.mutate(ctx, id, func(ctx context.Context, repo repository.Repository, snap domain.BookingSnapshot) (change, error) {
		return change{touch: func(b *domain.Booking) { b.AssignedAgent = &agent }}, nil
	})
}

// ForceConfirm confirms a pending booking bypassing payment guards. The override and its
// audit entry commit together or not at all.
func (s *BookingService) ForceConfirm(ctx context.Context, id int64, reason string, actor domain.Actor) (*domain.Booking, error) {
	return s.mutate(ctx, id, func(ctx context.Context, repo repository.Repository, snap domain.BookingSnapshot) (change, error) {
		d, err := lifecycle.DecideForceConfirm(snap, actor, reason, s.now())
		if err != nil {
			return change{}, err
		}
		s.log.WithFields(logrus.Fields{"booking_id": id, "actor": actor.ID, "reason": reason}).Warn("admin override")
		return bookingChange(d), nil
	})
}

func (s *BookingService) ContactCustomer(ctx context.Context, id int64, message string, actor domain.Actor) (*domain.Booking, error) {
	if err := requireStaff(actor, "contacting a customer"); err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrValidation)
	}

	return s.mutate(ctx, id, func(ctx context.Context, repo repository.Repository, snap domain.BookingSnapshot) (change, error) {
		b := snap.Booking
		if b.Status.Terminal() {
			return change{}, fmt.Errorf("%w: booking %d is %s", domain.ErrInvalidTransition, b.ID, b.Status)
		}
		now := s.now()
		cmd := domain.NewCommand(domain.CommandContactCustomer, &b, now)
		cmd.Message = message
		return change{
			commands: []domain.Command{cmd},
			audit:    auditEntry(b.ID, domain.AuditActionContactCustomer, message, actor, now),
			touch: func(b *domain.Booking) {
				b.LastContacted = nowPtr(now)
				if b.AssignedAgent == nil {
					agent := actor.ID
					b.AssignedAgent = &agent
				}
			},
		}, nil
	})
}

func (s *BookingService) ExtendHold(ctx context.Context, id int64, actor domain.Actor) (*domain.Booking, error) {
	if err := requireStaff(actor, "extending a hold"); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(ctx context.Context, repo repository.Repository, snap domain.BookingSnapshot) (change, error) {
		now := s.now()
		if !review.CanExtendHold(snap.Booking, now) {
			return change{}, &domain.TransitionError{
				Entity: "booking", From: string(snap.Booking.Status), To: "extend_hold",
				Detail: "only pending bookings with a live hold can be extended",
			}
		}
		expiry := review.ExtendedHold(snap.Booking, s.holdExtension, now)
		return change{
			audit: auditEntry(snap.Booking.ID, domain.AuditActionHoldExtended, "hold extended to "+expiry.UTC().Format(time.RFC3339), actor, now),
			touch: func(b *domain.Booking) { b.HoldExpiry = &expiry },
		}, nil
	})
}

func auditEntry(bookingID int64, action, reason string, actor domain.Actor, now time.Time) *domain.AuditEntry {
	return &domain.AuditEntry{
		ID:        uuid.New(),
		BookingID: bookingID,
		Action:    action,
		Reason:    reason,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		CreatedAt: now,
	}
}

func parseCancelReason(s string) (domain.CancelReason, error) {
	switch r := domain.CancelReason(s); r {
	case "":
		return "", nil
	case domain.CancelReasonRequested, domain.CancelReasonHoldExpired, domain.CancelReasonSeatConflict,
		domain.CancelReasonAdminOverride, domain.CancelReasonCustomerNoReply:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown cancel reason %q", domain.ErrValidation, s)
}

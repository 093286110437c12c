package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/Domenick1991/bookingdesk/internal/lifecycle"
	"github.com/Domenick1991/bookingdesk/internal/refund"
	"github.com/Domenick1991/bookingdesk/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type PaymentInput struct {
	// Amount defaults to the booking total when zero.
	Amount decimal.Decimal
	Method string
}

type RefundResult struct {
	Payment     domain.Payment
	Calculation refund.Calculation
}

func (s *BookingService) InitiatePayment(ctx context.Context, bookingID int64, input PaymentInput, actor domain.Actor) (*domain.Payment, error) {
	method := strings.TrimSpace(input.Method)
	if method == "" {
		return nil, fmt.Errorf("%w: payment method is required", domain.ErrValidation)
	}

	var created *domain.Payment
	_, err := s.mutate(ctx, bookingID, func(ctx context.Context, repo repository.Repository, snap domain.BookingSnapshot) (change, error) {
		if !owns(snap.Booking, actor) {
			return change{}, fmt.Errorf("%w: booking %d belongs to another user", domain.ErrNotAuthorized, bookingID)
		}
		amount := input.Amount
		if amount.IsZero() {
			amount = snap.Booking.TotalAmount
		}
		p, err := lifecycle.NewPayment(snap, amount, method, s.now())
		if err != nil {
			return change{}, err
		}
		created = p
		return change{newPayment: p}, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"booking_id": bookingID, "payment_id": created.ID, "amount": created.Amount}).Info("payment initiated")
	return created, nil
}

func (s *BookingService) GetPayment(ctx context.Context, id int64, actor domain.Actor) (*domain.Payment, error) {
	p, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	b, err := s.store.GetBooking(ctx, p.BookingID)
	if err != nil {
		return nil, err
	}
	if !owns(*b, actor) {
		return nil, fmt.Errorf("%w: payment %d belongs to another user", domain.ErrNotAuthorized, id)
	}
	return p, nil
}

func (s *BookingService) UpdatePaymentStatus(ctx context.Context, id int64, status string, actor domain.Actor) (*domain.Payment, error) {
	to, err := domain.ParsePaymentStatus(status)
	if err != nil {
		return nil, err
	}
	p, _, err := s.changePayment(ctx, id, to, actor)
	return p, err
}

// CancelPayment voids a pending or failed attempt and frees the booking's seats.
func (s *BookingService) CancelPayment(ctx context.Context, id int64, actor domain.Actor) (*domain.Payment, error) {
	p, _, err := s.changePayment(ctx, id, domain.PaymentStatusVoided, actor)
	return p, err
}

// ProcessRefund refunds a payment by the cancellation policy in force for the flight and
// cancels the booking when it is still live.
func (s *BookingService) ProcessRefund(ctx context.Context, id int64, actor domain.Actor) (*RefundResult, error) {
	p, calc, err := s.changePayment(ctx, id, domain.PaymentStatusRefunded, actor)
	if err != nil {
		return nil, err
	}
	return &RefundResult{Payment: *p, Calculation: *calc}, nil
}

func (s *BookingService) changePayment(ctx context.Context, id int64, to domain.PaymentStatus, actor domain.Actor) (*domain.Payment, *refund.Calculation, error) {
	current, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	var calc *refund.Calculation
	_, err = s.mutate(ctx, current.BookingID, func(ctx context.Context, repo repository.Repository, snap domain.BookingSnapshot) (change, error) {
		now := s.now()
		req := lifecycle.PaymentRequest{To: to, Actor: actor, Now: now}

		if to == domain.PaymentStatusRefunded {
			p, err := repo.GetPayment(ctx, id)
			if err != nil {
				return change{}, err
			}
			flight, err := repo.GetFlight(ctx, snap.Booking.FlightID)
			if err != nil {
				return change{}, err
			}
			c := s.refunds.Calculate(p.Amount, flight.DepartureTime, now)
			calc = &c
			if !c.Refundable {
				return change{}, &domain.TransitionError{Entity: "payment", From: string(p.Status), To: string(to), Detail: "No refund available for this booking"}
			}
			req.RefundAmount = &c.Amount
		}

		d, err := lifecycle.DecidePayment(snap, id, req)
		if err != nil {
			return change{}, err
		}
		return paymentDecisionChange(id, d), nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.WithFields(logrus.Fields{"payment_id": id, "booking_id": current.BookingID, "from": current.Status, "to": to}).Info("payment transitioned")

	updated, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return updated, calc, nil
}

// RetryPayment opens a new attempt replacing a failed one. The failed attempt stays as history.
func (s *BookingService) RetryPayment(ctx context.Context, id int64, actor domain.Actor) (*domain.Payment, error) {
	failed, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	var retry *domain.Payment
	_, err = s.mutate(ctx, failed.BookingID, func(ctx context.Context, repo repository.Repository, snap domain.BookingSnapshot) (change, error) {
		if !owns(snap.Booking, actor) {
			return change{}, fmt.Errorf("%w: payment %d belongs to another user", domain.ErrNotAuthorized, id)
		}
		p, err := lifecycle.NewRetry(snap, id, s.now())
		if err != nil {
			return change{}, err
		}
		retry = p
		return change{newPayment: p}, nil
	})
	if err != nil {
		return nil, err
	}
	return retry, nil
}

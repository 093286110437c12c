package lifecycle

import (
	"fmt"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var paymentTransitions = map[domain.PaymentStatus][]domain.PaymentStatus{
	domain.PaymentStatusPending:   {domain.PaymentStatusCompleted, domain.PaymentStatusFailed, domain.PaymentStatusVoided},
	domain.PaymentStatusCompleted: {domain.PaymentStatusVerified, domain.PaymentStatusRefunded},
	domain.PaymentStatusVerified:  {domain.PaymentStatusRefunded},
	domain.PaymentStatusFailed:    {domain.PaymentStatusVoided},
	domain.PaymentStatusRefunded:  {},
	domain.PaymentStatusVoided:    {},
}

func CanTransitionPayment(from, to domain.PaymentStatus) bool {
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type PaymentRequest struct {
	To    domain.PaymentStatus
	Actor domain.Actor
	// RefundAmount is what a refund pays back, capped at the payment amount. Nil means
	// the full amount.
	RefundAmount *decimal.Decimal
	Now          time.Time
}

type PaymentDecision struct {
	From     domain.PaymentStatus
	To       domain.PaymentStatus
	Seats    []SeatAction
	Commands []domain.Command
	// Booking is the booking transition the payment change drags along, if any.
	Booking *BookingDecision
}

// DecidePayment validates a status change of one payment of the snapshot's booking.
func DecidePayment(s domain.BookingSnapshot, paymentID int64, req PaymentRequest) (PaymentDecision, error) {
	payment, err := findPayment(s, paymentID)
	if err != nil {
		return PaymentDecision{}, err
	}
	from, to := payment.Status, req.To

	if !req.Actor.Staff() {
		return PaymentDecision{}, fmt.Errorf("%w: %s cannot change payment status", domain.ErrNotAuthorized, req.Actor.Role)
	}
	if !CanTransitionPayment(from, to) {
		return PaymentDecision{}, &domain.TransitionError{Entity: "payment", From: string(from), To: string(to)}
	}

	d := PaymentDecision{From: from, To: to}
	b := s.Booking

	if b.Status == domain.BookingStatusCancelled && (to == domain.PaymentStatusCompleted || to == domain.PaymentStatusVerified) {
		return PaymentDecision{}, &domain.TransitionError{Entity: "payment", From: string(from), To: string(to), Detail: "booking is cancelled"}
	}

	// Later booking guards read the payment in its new state.
	next := s
	next.Payments = make([]domain.Payment, len(s.Payments))
	copy(next.Payments, s.Payments)
	for i := range next.Payments {
		if next.Payments[i].ID == paymentID {
			next.Payments[i].Status = to
		}
	}

	switch to {
	case domain.PaymentStatusCompleted:
		if b.Status == domain.BookingStatusPending {
			bd, err := DecideBooking(next, BookingRequest{To: domain.BookingStatusConfirmed, Actor: domain.SystemActor, Now: req.Now})
			if err != nil {
				return PaymentDecision{}, err
			}
			d.Booking = &bd
		}
		cmd := paymentCommand(domain.CommandSendReceipt, &b, payment, req.Now)
		cmd.Amount = payment.Amount
		d.Commands = append(d.Commands, cmd)

	case domain.PaymentStatusVerified:
		if b.Status == domain.BookingStatusPending || b.Status == domain.BookingStatusConfirmed {
			bd, err := DecideBooking(next, BookingRequest{To: domain.BookingStatusPaid, Actor: domain.SystemActor, Now: req.Now})
			if err != nil {
				return PaymentDecision{}, err
			}
			d.Booking = &bd
		}

	case domain.PaymentStatusRefunded:
		if b.Status != domain.BookingStatusCancelled {
			bd := cancellation(next, domain.CancelReasonRefunded, req.Now)
			d.Booking = &bd
		}
		amount := payment.Amount
		if req.RefundAmount != nil && req.RefundAmount.LessThan(amount) {
			amount = decimal.Max(*req.RefundAmount, decimal.Zero)
		}
		cmd := paymentCommand(domain.CommandProcessRefund, &b, payment, req.Now)
		cmd.Amount = amount
		d.Commands = append(d.Commands, cmd)

	case domain.PaymentStatusFailed:
		cmd := paymentCommand(domain.CommandSendReminder, &b, payment, req.Now)
		cmd.Amount = payment.Amount
		cmd.Message = "payment failed, please retry"
		d.Commands = append(d.Commands, cmd)

	case domain.PaymentStatusVoided:
		if !b.Status.Terminal() && b.Status != domain.BookingStatusPaid {
			for _, id := range s.SeatIDs() {
				d.Seats = append(d.Seats, SeatAction{SeatID: id, Op: SeatRelease})
			}
		}
		d.Commands = append(d.Commands, paymentCommand(domain.CommandPaymentVoided, &b, payment, req.Now))
	}

	return d, nil
}

// NewPayment opens a payment attempt for the booking. A booking holds at most one open attempt.
func NewPayment(s domain.BookingSnapshot, amount decimal.Decimal, method string, now time.Time) (*domain.Payment, error) {
	b := s.Booking
	if b.Status != domain.BookingStatusPending && b.Status != domain.BookingStatusConfirmed {
		return nil, fmt.Errorf("%w: booking %d is %s", domain.ErrInvalidTransition, b.ID, b.Status)
	}
	if open := s.OpenPayment(); open != nil {
		return nil, fmt.Errorf("%w: payment %d is still %s", domain.ErrInvalidTransition, open.ID, open.Status)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", domain.ErrValidation)
	}
	return &domain.Payment{
		BookingID:     b.ID,
		Amount:        amount,
		Status:        domain.PaymentStatusPending,
		Method:        method,
		TransactionID: uuid.NewString(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// NewRetry builds the attempt replacing a failed payment. The failed one is left untouched.
func NewRetry(s domain.BookingSnapshot, paymentID int64, now time.Time) (*domain.Payment, error) {
	failed, err := findPayment(s, paymentID)
	if err != nil {
		return nil, err
	}
	if failed.Status != domain.PaymentStatusFailed {
		return nil, &domain.TransitionError{Entity: "payment", From: string(failed.Status), To: "retry", Detail: "only failed payments can be retried"}
	}
	p, err := NewPayment(s, failed.Amount, failed.Method, now)
	if err != nil {
		return nil, err
	}
	id := failed.ID
	p.RetryOf = &id
	return p, nil
}

func findPayment(s domain.BookingSnapshot, id int64) (domain.Payment, error) {
	for _, p := range s.Payments {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Payment{}, fmt.Errorf("payment %d of booking %d: %w", id, s.Booking.ID, domain.ErrNotFound)
}

func paymentCommand(t domain.CommandType, b *domain.Booking, p domain.Payment, now time.Time) domain.Command {
	cmd := domain.NewCommand(t, b, now)
	cmd.PaymentID = p.ID
	return cmd
}

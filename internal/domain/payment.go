package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

// PaymentStatusCompleted is the canonical success state; "success" is accepted on input.
const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusVerified  PaymentStatus = "verified"
	PaymentStatusVoided    PaymentStatus = "voided"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch s {
	case "success", string(PaymentStatusCompleted):
		return PaymentStatusCompleted, nil
	case string(PaymentStatusPending), string(PaymentStatusFailed), string(PaymentStatusRefunded),
		string(PaymentStatusVerified), string(PaymentStatusVoided):
		return PaymentStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown payment status %q", ErrValidation, s)
}

// Succeeded reports whether money was captured, verified or not.
func (s PaymentStatus) Succeeded() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusVerified
}

// Open reports whether the attempt still blocks a new attempt on the same booking.
func (s PaymentStatus) Open() bool {
	return s == PaymentStatusPending || s.Succeeded()
}

type Payment struct {
	ID            int64
	BookingID     int64
	Amount        decimal.Decimal
	Status        PaymentStatus
	Method        string
	TransactionID string
	// RetryOf points at the failed attempt this one replaces.
	RetryOf   *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

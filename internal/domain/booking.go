package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPaid      BookingStatus = "paid"
	BookingStatusVerified  BookingStatus = "verified"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusPaid, BookingStatusVerified, BookingStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition can leave s.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusVerified
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: unknown booking status %q", ErrValidation, s)
	}
	return status, nil
}

type CancelReason string

const (
	CancelReasonRequested       CancelReason = "requested"
	CancelReasonHoldExpired     CancelReason = "hold_expired"
	CancelReasonSeatConflict    CancelReason = "seat_conflict"
	CancelReasonAdminOverride   CancelReason = "admin_override"
	CancelReasonCustomerNoReply CancelReason = "customer_unreachable"
	CancelReasonRefunded        CancelReason = "refunded"
)

type Booking struct {
	ID               int64
	Reference        string
	UserID           string
	FlightID         int64
	Status           BookingStatus
	TotalAmount      decimal.Decimal
	BookingDate      time.Time
	HoldExpiry       *time.Time
	AssignedAgent    *string
	LastContacted    *time.Time
	DuplicateWarning bool
	RelatedBookings  []int64
	AdminOverride    bool
	CancelReason     CancelReason
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type PassengerType string

const (
	PassengerAdult  PassengerType = "adult"
	PassengerChild  PassengerType = "child"
	PassengerInfant PassengerType = "infant"
)

func (t PassengerType) Valid() bool {
	return t == PassengerAdult || t == PassengerChild || t == PassengerInfant
}

type Passenger struct {
	ID           int64
	BookingID    int64
	FirstName    string
	LastName     string
	Email        string
	Type         PassengerType
	FlightSeatID *int64
}

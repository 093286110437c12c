package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrSeatConflict       = errors.New("seat conflict")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrConflict           = errors.New("concurrent modification, try again")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidPriceFormat = errors.New("invalid price format")
)

type TransitionError struct {
	Entity string
	From   string
	To     string
	Detail string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("Invalid transition: Cannot change from %s to %s", e.From, e.To)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

type SeatConflictError struct {
	SeatID    int64
	HeldBy    int64
	BookingID int64
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seat %d is held by booking %d", e.SeatID, e.HeldBy)
}

func (e *SeatConflictError) Is(target error) bool {
	return target == ErrSeatConflict
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CommandType string

const (
	CommandSendReceipt      CommandType = "send_receipt"
	CommandSendReminder     CommandType = "send_reminder"
	CommandProcessRefund    CommandType = "process_refund"
	CommandBookingCancelled CommandType = "booking_cancelled"
	CommandContactCustomer  CommandType = "contact_customer"
	CommandPaymentVoided    CommandType = "payment_voided"
)

// Command is a side-effect request produced by a transition. Delivery is at-least-once,
// consumers dedupe on ID.
type Command struct {
	ID        uuid.UUID       `json:"id"`
	Type      CommandType     `json:"type"`
	BookingID int64           `json:"booking_id"`
	Reference string          `json:"booking_reference,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	PaymentID int64           `json:"payment_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason,omitempty"`
	Message   string          `json:"message,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewCommand(t CommandType, b *Booking, now time.Time) Command {
	return Command{
		ID:        uuid.New(),
		Type:      t,
		BookingID: b.ID,
		Reference: b.Reference,
		UserID:    b.UserID,
		CreatedAt: now,
	}
}

// OutboxMessage is a command persisted alongside the transition that produced it.
type OutboxMessage struct {
	ID           int64
	Command      Command
	DispatchedAt *time.Time
	Attempts     int
	CreatedAt    time.Time
}

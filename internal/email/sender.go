package email

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/sirupsen/logrus"
)

type Message struct {
	CommandID string
	To        string
	Subject   string
	Body      string
}

type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

// Deduper remembers command ids already handled. Redelivered commands are dropped.
type Deduper interface {
	MarkCommandSeen(ctx context.Context, commandID string, ttl time.Duration) (bool, error)
	ForgetCommand(ctx context.Context, commandID string) error
}

type Sender struct {
	transport Transport
	dedupe    Deduper
	dedupeTTL time.Duration
	log       logrus.FieldLogger
}

func NewSender(transport Transport, dedupe Deduper, dedupeTTL time.Duration, log logrus.FieldLogger) *Sender {
	return &Sender{transport: transport, dedupe: dedupe, dedupeTTL: dedupeTTL, log: log}
}

func (s *Sender) Handle(ctx context.Context, cmd domain.Command) error {
	first, err := s.dedupe.MarkCommandSeen(ctx, cmd.ID.String(), s.dedupeTTL)
	if err != nil {
		return fmt.Errorf("dedupe command %s: %w", cmd.ID, err)
	}
	if !first {
		s.log.WithField("command_id", cmd.ID).Debug("command already handled")
		return nil
	}

	msg, ok := Render(cmd)
	if !ok {
		s.log.WithField("command_type", cmd.Type).Warn("no template for command")
		return nil
	}
	if err := s.transport.Deliver(ctx, msg); err != nil {
		if ferr := s.dedupe.ForgetCommand(context.WithoutCancel(ctx), cmd.ID.String()); ferr != nil {
			s.log.WithError(ferr).WithField("command_id", cmd.ID).Warn("failed to clear seen mark")
		}
		return fmt.Errorf("deliver command %s: %w", cmd.ID, err)
	}
	return nil
}

// Render turns a command into the notification sent to the booking owner.
func Render(cmd domain.Command) (Message, bool) {
	msg := Message{CommandID: cmd.ID.String(), To: cmd.UserID}
	ref := cmd.Reference

	switch cmd.Type {
	case domain.CommandSendReceipt:
		msg.Subject = fmt.Sprintf("Receipt for booking %s", ref)
		msg.Body = fmt.Sprintf("We received your payment of %s for booking %s.", cmd.Amount.StringFixed(2), ref)
	case domain.CommandSendReminder:
		msg.Subject = fmt.Sprintf("Payment reminder for booking %s", ref)
		msg.Body = fmt.Sprintf("Your payment of %s could not be processed: %s", cmd.Amount.StringFixed(2), cmd.Message)
	case domain.CommandProcessRefund:
		msg.Subject = fmt.Sprintf("Refund for booking %s", ref)
		msg.Body = fmt.Sprintf("A refund of %s has been issued for booking %s.", cmd.Amount.StringFixed(2), ref)
	case domain.CommandBookingCancelled:
		msg.Subject = fmt.Sprintf("Booking %s cancelled", ref)
		msg.Body = fmt.Sprintf("Booking %s was cancelled (%s).", ref, cmd.Reason)
	case domain.CommandContactCustomer:
		msg.Subject = fmt.Sprintf("About your booking %s", ref)
		msg.Body = cmd.Message
	case domain.CommandPaymentVoided:
		msg.Subject = fmt.Sprintf("Payment cancelled for booking %s", ref)
		msg.Body = fmt.Sprintf("Payment %d for booking %s was cancelled.", cmd.PaymentID, ref)
	default:
		return Message{}, false
	}
	return msg, true
}

// LogTransport writes messages to the log instead of a mail server.
type LogTransport struct {
	log logrus.FieldLogger
}

func NewLogTransport(log logrus.FieldLogger) *LogTransport {
	return &LogTransport{log: log}
}

func (t *LogTransport) Deliver(ctx context.Context, msg Message) error {
	t.log.WithFields(logrus.Fields{
		"command_id": msg.CommandID,
		"to":         msg.To,
		"subject":    msg.Subject,
	}).Info(msg.Body)
	return nil
}

package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	defaultRetryBackoff = time.Second
	maxRetryBackoff     = 30 * time.Second
)

type Consumer struct {
	reader       messageReader
	retryBackoff time.Duration
	log          logrus.FieldLogger
}

func NewConsumer(brokers []string, groupID, topic string, log logrus.FieldLogger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		retryBackoff: defaultRetryBackoff,
		log:          log,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume hands every message to handler until ctx ends. An offset is committed only
// after the handler succeeds; a failing handler is retried on the same message with
// backoff. Messages that do not decode are logged, committed and skipped.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, domain.Command) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		cmd, err := DecodeCommand(msg)
		if err != nil {
			c.log.WithError(err).Warn("skipping undecodable command")
		} else if err := c.handle(ctx, cmd, handler); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, cmd domain.Command, handler func(context.Context, domain.Command) error) error {
	backoff := c.retryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	for attempt := 1; ; attempt++ {
		err := handler(ctx, cmd)
		if err == nil {
			return nil
		}
		c.log.WithError(err).WithFields(logrus.Fields{
			"command_id":   cmd.ID,
			"command_type": cmd.Type,
			"attempt":      attempt,
		}).Warn("command handling failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxRetryBackoff)
	}
}

func DecodeCommand(msg kafka.Message) (domain.Command, error) {
	var cmd domain.Command
	if err := json.Unmarshal(msg.Value, &cmd); err != nil {
		return domain.Command{}, fmt.Errorf("decode command at offset %d: %w", msg.Offset, err)
	}
	return cmd, nil
}

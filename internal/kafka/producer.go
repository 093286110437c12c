package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes side-effect commands. Messages are keyed by booking id so the
// commands of one booking stay ordered within a partition.
type Producer struct {
	writer messageWriter
	topic  string
	log    logrus.FieldLogger
}

func NewProducer(brokers []string, topic string, log logrus.FieldLogger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return newProducer(writer, topic, log)
}

func newProducer(w messageWriter, topic string, log logrus.FieldLogger) *Producer {
	return &Producer{writer: w, topic: topic, log: log}
}

func (p *Producer) Publish(ctx context.Context, cmds ...domain.Command) error {
	if len(cmds) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(cmds))
	for _, cmd := range cmds {
		data, err := json.Marshal(cmd)
		if err != nil {
			return fmt.Errorf("failed to marshal command %s: %w", cmd.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatInt(cmd.BookingID, 10)),
			Value: data,
			Headers: []kafka.Header{
				{Key: "command_id", Value: []byte(cmd.ID.String())},
				{Key: "command_type", Value: []byte(cmd.Type)},
			},
			Time: cmd.CreatedAt,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write commands to kafka: %w", err)
	}

	p.log.WithFields(logrus.Fields{"topic": p.topic, "count": len(msgs)}).Debug("published commands")
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

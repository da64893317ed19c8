package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes notifications to a topic keyed by booking ID, so
// all events of one booking land on the same partition in order.
type KafkaPublisher struct {
	w messageWriter
}

// NewKafkaPublisher constructs a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	})
}

func newKafkaPublisher(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{w: w}
}

// Publish implements Publisher.
func (p *KafkaPublisher) Publish(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify.KafkaPublisher.Publish: marshal: %w", err)
	}
	msg := kafka.Message{
		Key:     []byte(n.BookingID.String()),
		Value:   body,
		Time:    n.OccurredAt,
		Headers: []kafka.Header{{Key: "kind", Value: []byte(n.Kind)}},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("notify.KafkaPublisher.Publish: %w", err)
	}
	return nil
}

// Close implements Publisher.
func (p *KafkaPublisher) Close() error {
	if err := p.w.Close(); err != nil {
		return fmt.Errorf("notify.KafkaPublisher.Close: %w", err)
	}
	return nil
}

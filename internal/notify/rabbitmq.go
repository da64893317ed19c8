package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
)

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher publishes notifications as persistent JSON messages to a
// durable queue through the default exchange.
type RabbitPublisher struct {
	mu    sync.Mutex
	conn  io.Closer
	ch    amqpChannel
	queue string
}

// NewRabbitPublisher dials the broker and declares the queue.
func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("notify.NewRabbitPublisher: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("notify.NewRabbitPublisher: channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("notify.NewRabbitPublisher: declare %q: %w", queue, err)
	}
	return newRabbitPublisher(conn, ch, queue), nil
}

func newRabbitPublisher(conn io.Closer, ch amqpChannel, queue string) *RabbitPublisher {
	return &RabbitPublisher{conn: conn, ch: ch, queue: queue}
}

// Publish implements Publisher.
func (p *RabbitPublisher) Publish(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify.RabbitPublisher.Publish: marshal: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.BookingID.String() + ":" + string(n.Kind),
		Type:         string(n.Kind),
		Timestamp:    n.OccurredAt,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("notify.RabbitPublisher.Publish: %w", err)
	}
	return nil
}

// Close implements Publisher.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	chErr := p.ch.Close()
	connErr := p.conn.Close()
	if chErr != nil {
		return fmt.Errorf("notify.RabbitPublisher.Close: %w", chErr)
	}
	if connErr != nil {
		return fmt.Errorf("notify.RabbitPublisher.Close: %w", connErr)
	}
	return nil
}

// Package notify delivers booking notifications to the message broker after
// the booking transaction has committed. Every notification gets at least one
// delivery attempt; failures are retried a bounded number of times, then
// logged and dropped.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
)

// Publisher hands one notification to a broker.
type Publisher interface {
	Publish(ctx context.Context, n domain.Notification) error
	Close() error
}

// DispatcherOptions tunes delivery.
type DispatcherOptions struct {
	// Buffer is the number of notifications held while the worker is busy.
	Buffer int
	// Retries is the number of extra attempts after a failed publish.
	Retries uint64
	// RetryBase is the first backoff delay.
	RetryBase time.Duration
	// PublishTimeout bounds a single publish attempt.
	PublishTimeout time.Duration
	// EnqueueWait is how long Enqueue waits for buffer space before
	// publishing the notification itself.
	EnqueueWait time.Duration
}

// Dispatcher queues notifications in memory and publishes them from a single
// worker goroutine. When the buffer stays full for EnqueueWait, Enqueue makes
// a single publish attempt on the caller's goroutine instead.
type Dispatcher struct {
	pub   Publisher
	log   *slog.Logger
	opts  DispatcherOptions
	queue chan domain.Notification
}

// NewDispatcher constructs a Dispatcher. Call Run to start delivery.
func NewDispatcher(pub Publisher, log *slog.Logger, opts DispatcherOptions) *Dispatcher {
	if opts.Buffer < 1 {
		opts.Buffer = 256
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 100 * time.Millisecond
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 5 * time.Second
	}
	if opts.EnqueueWait <= 0 {
		opts.EnqueueWait = 50 * time.Millisecond
	}
	return &Dispatcher{
		pub:   pub,
		log:   log,
		opts:  opts,
		queue: make(chan domain.Notification, opts.Buffer),
	}
}

// Enqueue implements service.Notifier.
func (d *Dispatcher) Enqueue(n domain.Notification) {
	select {
	case d.queue <- n:
		return
	default:
	}

	wait := time.NewTimer(d.opts.EnqueueWait)
	defer wait.Stop()
	select {
	case d.queue <- n:
	case <-wait.C:
		d.log.Warn("notification queue full, publishing inline",
			"kind", n.Kind, "booking_id", n.BookingID)
		d.publishOnce(context.Background(), n)
	}
}

// publishOnce makes one attempt without retries.
func (d *Dispatcher) publishOnce(ctx context.Context, n domain.Notification) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.PublishTimeout)
	defer cancel()
	if err := d.pub.Publish(ctx, n); err != nil {
		d.log.Error("notification delivery failed",
			"kind", n.Kind, "booking_id", n.BookingID, "error", err)
	}
}

// Run publishes queued notifications until ctx is cancelled, then drains
// whatever is still buffered and returns. A notification already taken off
// the queue is delivered even if ctx is cancelled meanwhile.
func (d *Dispatcher) Run(ctx context.Context) {
	deliverCtx := context.WithoutCancel(ctx)
	for {
		select {
		case n := <-d.queue:
			d.deliver(deliverCtx, n)
		case <-ctx.Done():
			d.drain(deliverCtx)
			return
		}
	}
}

// Pending reports how many notifications are waiting in the buffer.
func (d *Dispatcher) Pending() int { return len(d.queue) }

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case n := <-d.queue:
			d.deliver(ctx, n)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n domain.Notification) {
	backoff := retry.WithMaxRetries(d.opts.Retries, retry.NewExponential(d.opts.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, d.opts.PublishTimeout)
		defer cancel()
		if err := d.pub.Publish(attemptCtx, n); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		d.log.Error("notification delivery failed",
			"kind", n.Kind, "booking_id", n.BookingID, "error", err)
		return
	}
	d.log.Debug("notification published", "kind", n.Kind, "booking_id", n.BookingID)
}

package notify

import (
	"context"
	"log/slog"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
)

// LogPublisher writes notifications to the structured log. It is the
// default backend when no broker is configured.
type LogPublisher struct {
	log *slog.Logger
}

// NewLogPublisher constructs a LogPublisher.
func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

// Publish implements Publisher.
func (p *LogPublisher) Publish(ctx context.Context, n domain.Notification) error {
	attrs := []any{"kind", n.Kind, "booking_id", n.BookingID}
	if n.OldStatus != nil {
		attrs = append(attrs, "old_status", *n.OldStatus)
	}
	if n.NewStatus != nil {
		attrs = append(attrs, "new_status", *n.NewStatus)
	}
	p.log.InfoContext(ctx, "notification", attrs...)
	return nil
}

// Close implements Publisher.
func (p *LogPublisher) Close() error { return nil }

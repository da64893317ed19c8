package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind names the message a downstream mailer should send.
type NotificationKind string

const (
	NotifyConfirmation NotificationKind = "confirmation"
	NotifyStatusUpdate NotificationKind = "status_update"
	NotifyReminder     NotificationKind = "reminder"
)

// Notification is the payload handed to the notification queue after a
// booking transaction has committed.
type Notification struct {
	Kind       NotificationKind `json:"kind"`
	BookingID  uuid.UUID        `json:"booking_id"`
	OldStatus  *BookingStatus   `json:"old_status,omitempty"`
	NewStatus  *BookingStatus   `json:"new_status,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

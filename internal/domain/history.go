package domain

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one row of the append-only booking audit trail.
// OldStatus is nil for the first entry of a booking; ChangedBy is nil when
// the change was made by the system rather than a person.
type HistoryEntry struct {
	ID        uuid.UUID
	BookingID uuid.UUID
	OldStatus *BookingStatus
	NewStatus BookingStatus
	ChangedBy *uuid.UUID
	Reason    string
	ChangedAt time.Time
}

package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BookingRequest carries the caller-supplied fields for a new booking.
// TotalPrice overrides trip.Price × NumberOfPeople when non-nil.
type BookingRequest struct {
	UserID          uuid.UUID
	TripID          uuid.UUID
	NumberOfPeople  int
	TotalPrice      *Money
	SpecialRequests string
	ContactPhone    string
	ContactEmail    string
}

// Transition is everything one status change does. The caller applies all of
// it inside a single transaction: write Booking, add Delta to the trip's
// current_bookings, append History if set. Notice is published after commit.
type Transition struct {
	Booking Booking
	From    BookingStatus
	To      BookingStatus
	Delta   int
	History *HistoryEntry
	Notice  *Notification
}

// Changed reports whether the status value actually moved.
func (t Transition) Changed() bool { return t.From != t.To }

// CapacityDelta is the single capacity table for status changes. Entering
// confirmed consumes n spots, leaving confirmed for cancelled gives them
// back, and every other move (including confirmed → completed) is neutral.
func CapacityDelta(from, to BookingStatus, n int) int {
	switch {
	case to == StatusConfirmed && from != StatusConfirmed:
		return n
	case from == StatusConfirmed && to == StatusCancelled:
		return -n
	}
	return 0
}

// PlanCreate validates a booking request against the freshly read trip and
// returns the new pending booking. Pending bookings do not consume capacity.
func PlanCreate(req BookingRequest, trip Trip, hasActive bool, now time.Time) (Booking, error) {
	if req.NumberOfPeople < 1 {
		return Booking{}, fmt.Errorf("%w: number_of_people must be at least 1", ErrValidation)
	}
	if req.TotalPrice != nil && *req.TotalPrice < 0 {
		return Booking{}, fmt.Errorf("%w: total_price must not be negative", ErrValidation)
	}
	if !trip.CanBook(now) {
		return Booking{}, trip.bookingRefusal(now)
	}
	// Pending bookings hold no spots, but the party must fit today.
	if _, err := trip.Reserve(req.NumberOfPeople); err != nil {
		return Booking{}, err
	}
	if hasActive {
		return Booking{}, ErrDuplicateActiveBooking
	}

	total := trip.Price.Times(req.NumberOfPeople)
	if req.TotalPrice != nil {
		total = *req.TotalPrice
	}
	return Booking{
		UserID:          req.UserID,
		TripID:          trip.ID,
		NumberOfPeople:  req.NumberOfPeople,
		TotalPrice:      total,
		Status:          StatusPending,
		BookingDate:     now,
		SpecialRequests: strings.TrimSpace(req.SpecialRequests),
		ContactPhone:    strings.TrimSpace(req.ContactPhone),
		ContactEmail:    strings.TrimSpace(req.ContactEmail),
	}, nil
}

// BookingChanges are the fields a booking owner may edit. Nil fields are left
// as they are.
type BookingChanges struct {
	NumberOfPeople  *int
	SpecialRequests *string
	ContactPhone    *string
	ContactEmail    *string
}

// PlanUpdate edits an active booking before its trip starts. A new party size
// reprices the booking at the trip price. On a confirmed booking it also moves
// capacity by the difference; a pending one must still fit the free spots.
func PlanUpdate(b Booking, trip Trip, ch BookingChanges, now time.Time) (Transition, error) {
	if !b.CanCancel(trip, now) {
		if !b.Status.IsActive() {
			return Transition{}, fmt.Errorf("%w: cannot modify a %s booking", ErrInvalidTransition, b.Status)
		}
		return Transition{}, fmt.Errorf("%w: trip has already started", ErrInvalidTransition)
	}

	delta := 0
	if ch.NumberOfPeople != nil && *ch.NumberOfPeople != b.NumberOfPeople {
		n := *ch.NumberOfPeople
		if n < 1 {
			return Transition{}, fmt.Errorf("%w: number_of_people must be at least 1", ErrValidation)
		}
		need := n
		switch {
		case b.Status == StatusConfirmed:
			delta = n - b.NumberOfPeople
			need = delta
		case n < b.NumberOfPeople:
			need = 0
		}
		if need > 0 {
			if _, err := trip.Reserve(need); err != nil {
				return Transition{}, err
			}
		}
		b.NumberOfPeople = n
		b.TotalPrice = trip.Price.Times(n)
	}
	if ch.SpecialRequests != nil {
		b.SpecialRequests = strings.TrimSpace(*ch.SpecialRequests)
	}
	if ch.ContactPhone != nil {
		b.ContactPhone = strings.TrimSpace(*ch.ContactPhone)
	}
	if ch.ContactEmail != nil {
		b.ContactEmail = strings.TrimSpace(*ch.ContactEmail)
	}
	b.UpdatedAt = now

	return Transition{Booking: b, From: b.Status, To: b.Status, Delta: delta}, nil
}

// PlanConfirm moves a pending booking to confirmed and consumes capacity.
func PlanConfirm(b Booking, trip Trip, now time.Time) (Transition, error) {
	if b.Status != StatusPending {
		return Transition{}, fmt.Errorf("%w: cannot confirm a %s booking", ErrInvalidTransition, b.Status)
	}
	return plan(b, trip, StatusConfirmed, now)
}

// PlanCancel moves a pending or confirmed booking to cancelled, provided the
// trip has not started. Capacity is released only if it had been confirmed.
func PlanCancel(b Booking, trip Trip, now time.Time) (Transition, error) {
	if !b.CanCancel(trip, now) {
		if !b.Status.IsActive() {
			return Transition{}, fmt.Errorf("%w: cannot cancel a %s booking", ErrInvalidTransition, b.Status)
		}
		return Transition{}, fmt.Errorf("%w: trip has already started", ErrInvalidTransition)
	}
	return plan(b, trip, StatusCancelled, now)
}

// PlanAdminStatus is the staff override. It skips the self-service guards
// but still refuses to leave completed, only lets cancelled return to
// confirmed, never moves a booking back to pending, and never overbooks.
// Every accepted call yields a history entry, including no-op changes.
func PlanAdminStatus(b Booking, trip Trip, to BookingStatus, actor *uuid.UUID, reason string, now time.Time) (Transition, error) {
	if !to.IsValid() {
		return Transition{}, fmt.Errorf("%w: invalid booking status %q", ErrValidation, to)
	}
	switch {
	case b.Status.IsTerminal() && to != b.Status:
		return Transition{}, fmt.Errorf("%w: %s bookings cannot change status", ErrInvalidTransition, b.Status)
	case b.Status == StatusCancelled && to != StatusCancelled && to != StatusConfirmed:
		return Transition{}, fmt.Errorf("%w: cancelled bookings can only be confirmed or remain cancelled", ErrInvalidTransition)
	case to == StatusPending && b.Status != StatusPending:
		// Stricter than the self-service rules require: a confirmed booking
		// sent back to pending would be counted twice when re-confirmed.
		return Transition{}, fmt.Errorf("%w: bookings cannot return to pending", ErrInvalidTransition)
	}

	t, err := plan(b, trip, to, now)
	if err != nil {
		return Transition{}, err
	}

	old := b.Status
	t.History = &HistoryEntry{
		BookingID: b.ID,
		OldStatus: &old,
		NewStatus: to,
		ChangedBy: actor,
		Reason:    strings.TrimSpace(reason),
		ChangedAt: now,
	}
	if t.Changed() {
		newStatus := to
		t.Notice = &Notification{
			Kind:       NotifyStatusUpdate,
			BookingID:  b.ID,
			OldStatus:  &old,
			NewStatus:  &newStatus,
			OccurredAt: now,
		}
	}
	return t, nil
}

// plan applies the status change and timestamps to a copy of b and derives
// the capacity delta from the table.
func plan(b Booking, trip Trip, to BookingStatus, now time.Time) (Transition, error) {
	from := b.Status
	delta := CapacityDelta(from, to, b.NumberOfPeople)
	if delta > 0 {
		if _, err := trip.Reserve(delta); err != nil {
			return Transition{}, err
		}
	}

	if to == StatusConfirmed && from != StatusConfirmed {
		ts := now
		b.ConfirmationDate = &ts
	}
	if to == StatusCancelled && from != StatusCancelled {
		ts := now
		b.CancellationDate = &ts
	}
	b.Status = to
	b.UpdatedAt = now

	return Transition{Booking: b, From: from, To: to, Delta: delta}, nil
}

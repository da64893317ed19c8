// Package domain contains the core data types and booking rules for the
// travel booking backend. It has no knowledge of HTTP or SQL and is imported
// by every other internal package (repo, service, handler).
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Trip is a bookable travel package together with its capacity ledger.
// CurrentBookings counts the people on confirmed bookings and is only ever
// changed by booking status transitions, never by trip edits.
type Trip struct {
	ID              uuid.UUID
	Title           string
	Destination     string
	Description     string
	Price           Money // per person
	MaxCapacity     int
	CurrentBookings int
	StartDate       time.Time // calendar date, UTC midnight
	EndDate         time.Time // calendar date, UTC midnight
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AvailableSpots is max_capacity - current_bookings.
func (t Trip) AvailableSpots() int {
	return t.MaxCapacity - t.CurrentBookings
}

// IsFullyBooked reports whether no spots remain.
func (t Trip) IsFullyBooked() bool {
	return t.CurrentBookings >= t.MaxCapacity
}

// IsPast reports whether the trip ended before today.
func (t Trip) IsPast(today time.Time) bool {
	return DateOf(t.EndDate).Before(DateOf(today))
}

// HasStarted reports whether the trip's start date is today or earlier.
func (t Trip) HasStarted(today time.Time) bool {
	return !DateOf(t.StartDate).After(DateOf(today))
}

// CanBook reports whether new bookings may be taken for the trip.
func (t Trip) CanBook(today time.Time) bool {
	return t.IsActive && !t.IsFullyBooked() && !t.IsPast(today)
}

// Reserve returns a copy of the trip with n more spots consumed, or
// ErrInsufficientCapacity when fewer than n spots remain.
func (t Trip) Reserve(n int) (Trip, error) {
	if n > t.AvailableSpots() {
		return t, fmt.Errorf("%w: only %d spots available", ErrInsufficientCapacity, t.AvailableSpots())
	}
	t.CurrentBookings += n
	return t, nil
}

// Release returns a copy of the trip with n spots given back, floored at zero.
func (t Trip) Release(n int) Trip {
	t.CurrentBookings -= n
	if t.CurrentBookings < 0 {
		t.CurrentBookings = 0
	}
	return t
}

// bookingRefusal explains why CanBook is false.
func (t Trip) bookingRefusal(today time.Time) error {
	switch {
	case !t.IsActive:
		return fmt.Errorf("%w: trip is not active", ErrNotBookable)
	case t.IsPast(today):
		return fmt.Errorf("%w: trip has already ended", ErrNotBookable)
	default:
		return fmt.Errorf("%w: %w: trip is fully booked", ErrNotBookable, ErrInsufficientCapacity)
	}
}

// Validate checks the fields staff may set on a trip.
func (t Trip) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(t.Destination) == "" {
		return fmt.Errorf("%w: destination is required", ErrValidation)
	}
	if t.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if t.MaxCapacity < 1 {
		return fmt.Errorf("%w: max_capacity must be at least 1", ErrValidation)
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", ErrValidation)
	}
	if DateOf(t.EndDate).Before(DateOf(t.StartDate)) {
		return fmt.Errorf("%w: end_date must not be before start_date", ErrValidation)
	}
	return nil
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

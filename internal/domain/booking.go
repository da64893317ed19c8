package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// ActiveStatuses are the statuses that count towards the one-active-booking
// per (user, trip) rule.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed}

// IsValid returns true if s is a recognised status.
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// IsActive returns true for pending and confirmed.
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// IsTerminal returns true if no transition may leave this status.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted
}

// String returns the wire form of the status.
func (s BookingStatus) String() string { return string(s) }

// ParseBookingStatus converts a string to a BookingStatus.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: invalid booking status %q", ErrValidation, s)
	}
	return status, nil
}

// Booking is one user's reservation of places on a trip.
type Booking struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	TripID           uuid.UUID
	NumberOfPeople   int
	TotalPrice       Money
	Status           BookingStatus
	BookingDate      time.Time
	ConfirmationDate *time.Time
	CancellationDate *time.Time
	SpecialRequests  string
	ContactPhone     string
	ContactEmail     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CanCancel mirrors the self-service cancel guard: the booking is still active
// and the trip has not started yet.
func (b Booking) CanCancel(trip Trip, today time.Time) bool {
	return b.Status.IsActive() && !trip.HasStarted(today)
}

// BookingPeriod selects bookings by where their trip sits relative to today.
type BookingPeriod string

const (
	// PeriodUpcoming is pending or confirmed bookings whose trip starts after today.
	PeriodUpcoming BookingPeriod = "upcoming"
	// PeriodPast is bookings whose trip ended before today, in any status.
	PeriodPast BookingPeriod = "past"
)

// ParseBookingPeriod converts a string to a BookingPeriod.
func ParseBookingPeriod(s string) (BookingPeriod, error) {
	switch p := BookingPeriod(s); p {
	case PeriodUpcoming, PeriodPast:
		return p, nil
	}
	return "", fmt.Errorf("%w: invalid period %q", ErrValidation, s)
}

// Matches reports whether a booking on trip falls in the period as of today.
func (p BookingPeriod) Matches(b Booking, trip Trip, today time.Time) bool {
	switch p {
	case PeriodUpcoming:
		return b.Status.IsActive() && !trip.HasStarted(today)
	case PeriodPast:
		return trip.IsPast(today)
	}
	return true
}

// BookingFilter narrows booking listings. A nil UserID lists every user's
// bookings and is only honoured for staff callers. Today anchors Period and
// is set by the service.
type BookingFilter struct {
	UserID *uuid.UUID
	Status *BookingStatus
	Period *BookingPeriod
	Today  time.Time
}

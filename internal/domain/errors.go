package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist, or exists but is not visible to the caller.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrNotBookable is returned by booking creation when the trip is inactive,
// fully booked, or already over.
var ErrNotBookable = errors.New("trip is not bookable")

// ErrInsufficientCapacity is returned when the requested number of people
// exceeds the trip's available spots.
var ErrInsufficientCapacity = errors.New("insufficient capacity")

// ErrDuplicateActiveBooking is returned when the user already holds a pending
// or confirmed booking for the same trip.
var ErrDuplicateActiveBooking = errors.New("active booking already exists")

// ErrInvalidTransition is returned when a status change is not permitted from
// the booking's current status, including any change out of completed.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrUnauthorized is returned when a privileged operation is attempted by a
// caller without the staff flag.
var ErrUnauthorized = errors.New("unauthorized")

// ErrTransientConflict is returned when a transaction kept losing races on a
// locked row and the retry budget ran out. Callers may retry the request.
var ErrTransientConflict = errors.New("transient conflict")

// Package handler implements the HTTP handlers for the travel booking API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, booking.go, user.go) but share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/WuorBhang/alx-backend-travel-app/internal/clock"
	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	List(ctx context.Context, bookableOnly bool, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BookingServicer defines the booking lifecycle operations.
type BookingServicer interface {
	Create(ctx context.Context, caller domain.Caller, req domain.BookingRequest) (domain.Booking, error)
	Get(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Booking, error)
	List(ctx context.Context, caller domain.Caller, f domain.BookingFilter, p domain.PaginationParams) ([]domain.Booking, int64, error)
	Cancel(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Booking, error)
	Confirm(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Booking, error)
	Update(ctx context.Context, caller domain.Caller, id uuid.UUID, ch domain.BookingChanges) (domain.Booking, error)
	AdminSetStatus(ctx context.Context, caller domain.Caller, id uuid.UUID, to domain.BookingStatus, reason string) (domain.Booking, error)
	ListHistory(ctx context.Context, caller domain.Caller, id uuid.UUID) ([]domain.HistoryEntry, error)
	SweepExpired(ctx context.Context) (int, error)
}

// UserServicer defines user registration and lookup.
type UserServicer interface {
	Register(ctx context.Context, u domain.User, profile *domain.Profile) (domain.User, domain.Profile, error)
	Me(ctx context.Context, caller domain.Caller) (domain.User, domain.Profile, error)
}

// Pinger reports whether a dependency is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies of every handler.
type Server struct {
	trips    TripServicer
	bookings BookingServicer
	users    UserServicer
	db       Pinger
	clock    clock.Clock
	log      *slog.Logger
}

// NewServer constructs the Server with all its dependencies. db may be nil,
// in which case /healthz does not check the database. The clock dates the
// can_book and is_past flags of trip responses.
func NewServer(trips TripServicer, bookings BookingServicer, users UserServicer, db Pinger, c clock.Clock, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if c == nil {
		c = clock.System{}
	}
	return &Server{trips: trips, bookings: bookings, users: users, db: db, clock: c, log: log}
}

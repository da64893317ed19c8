package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/WuorBhang/alx-backend-travel-app/internal/clock"
	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
	"github.com/WuorBhang/alx-backend-travel-app/internal/repo"
)

// TripService implements business logic for Trip management.
// current_bookings is never taken from the caller; only the booking
// lifecycle changes it.
type TripService struct {
	store repo.Store
	clock clock.Clock
}

// NewTripService constructs a TripService.
func NewTripService(store repo.Store, c clock.Clock) *TripService {
	return &TripService{store: store, clock: c}
}

// Create validates and persists a new trip.
func (s *TripService) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if err := trip.Validate(); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	trip.CurrentBookings = 0

	created, err := s.store.Trips().Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return created, nil
}

// GetByID returns a single trip by ID.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.store.Trips().GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return trip, nil
}

// List returns a page of trips. With bookableOnly set, only trips that can
// take a booking today are returned.
func (s *TripService) List(ctx context.Context, bookableOnly bool, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	var f repo.TripFilter
	if bookableOnly {
		today := domain.DateOf(s.clock.Now())
		f.BookableOn = &today
	}
	trips, total, err := s.store.Trips().List(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}
	return trips, total, nil
}

// Update validates and updates an existing trip. max_capacity may not drop
// below the people already confirmed, checked under the trip lock.
func (s *TripService) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if err := trip.Validate(); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}

	var updated domain.Trip
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		current, err := tx.Trips().GetForUpdate(ctx, trip.ID)
		if err != nil {
			return err
		}
		if trip.MaxCapacity < current.CurrentBookings {
			return fmt.Errorf("%w: max_capacity %d is below the %d people already booked",
				domain.ErrValidation, trip.MaxCapacity, current.CurrentBookings)
		}
		updated, err = tx.Trips().Update(ctx, trip)
		return err
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return updated, nil
}

// Delete removes a trip by ID. Trips with bookings cannot be deleted.
func (s *TripService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Trips().Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

// Package service contains the business logic for the travel booking API.
// Services enforce the booking rules from the domain package, run every
// lifecycle operation in one repo transaction and publish notifications only
// after that transaction has committed. No SQL lives here.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/WuorBhang/alx-backend-travel-app/internal/clock"
	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
	"github.com/WuorBhang/alx-backend-travel-app/internal/repo"
)

// Notifier accepts notifications for asynchronous delivery. Enqueue may wait
// briefly for buffer space but has no way to fail the caller.
type Notifier interface {
	Enqueue(n domain.Notification)
}

// Marker records that a one-off action happened. Once returns true the first
// time it is called for key within ttl and false afterwards.
type Marker interface {
	Once(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// BookingService implements the booking lifecycle.
type BookingService struct {
	store    repo.Store
	notifier Notifier
	marker   Marker
	clock    clock.Clock
	log      *slog.Logger
}

// NewBookingService constructs a BookingService. marker may be nil, in which
// case reminders are not deduplicated across runs.
func NewBookingService(store repo.Store, notifier Notifier, marker Marker, c clock.Clock, log *slog.Logger) *BookingService {
	return &BookingService{store: store, notifier: notifier, marker: marker, clock: c, log: log}
}

// Create places a new pending booking. Non-staff callers always book for
// themselves and cannot override the price.
func (s *BookingService) Create(ctx context.Context, caller domain.Caller, req domain.BookingRequest) (domain.Booking, error) {
	if !caller.IsStaff || req.UserID == uuid.Nil {
		req.UserID = caller.UserID
	}
	if !caller.IsStaff {
		req.TotalPrice = nil
	}
	now := s.clock.Now()

	var created domain.Booking
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		trip, err := tx.Trips().GetForUpdate(ctx, req.TripID)
		if err != nil {
			return err
		}
		hasActive, err := tx.Bookings().HasActive(ctx, req.UserID, trip.ID)
		if err != nil {
			return err
		}
		b, err := domain.PlanCreate(req, trip, hasActive, now)
		if err != nil {
			return err
		}
		created, err = tx.Bookings().Create(ctx, b)
		return err
	})
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Create: %w", err)
	}

	s.notify(domain.Notification{
		Kind:       domain.NotifyConfirmation,
		BookingID:  created.ID,
		NewStatus:  &created.Status,
		OccurredAt: now,
	})
	return created, nil
}

// Cancel cancels a pending or confirmed booking before its trip starts.
func (s *BookingService) Cancel(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Booking, error) {
	b, err := s.transition(ctx, caller, id, func(b domain.Booking, trip domain.Trip, now time.Time) (domain.Transition, error) {
		return domain.PlanCancel(b, trip, now)
	})
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Cancel: %w", err)
	}
	return b, nil
}

// Confirm moves a pending booking to confirmed, consuming capacity.
func (s *BookingService) Confirm(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Booking, error) {
	b, err := s.transition(ctx, caller, id, func(b domain.Booking, trip domain.Trip, now time.Time) (domain.Transition, error) {
		return domain.PlanConfirm(b, trip, now)
	})
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Confirm: %w", err)
	}
	return b, nil
}

// Update edits the party size, special requests or contact details of an
// active booking before its trip starts. A confirmed booking moves capacity by
// the change in party size.
func (s *BookingService) Update(ctx context.Context, caller domain.Caller, id uuid.UUID, ch domain.BookingChanges) (domain.Booking, error) {
	b, err := s.transition(ctx, caller, id, func(b domain.Booking, trip domain.Trip, now time.Time) (domain.Transition, error) {
		return domain.PlanUpdate(b, trip, ch, now)
	})
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Update: %w", err)
	}
	return b, nil
}

// AdminSetStatus is the staff override. It appends a history entry for every
// accepted call and notifies the customer when the status actually changed.
func (s *BookingService) AdminSetStatus(ctx context.Context, caller domain.Caller, id uuid.UUID, to domain.BookingStatus, reason string) (domain.Booking, error) {
	if !caller.IsStaff {
		return domain.Booking{}, fmt.Errorf("service.BookingService.AdminSetStatus: %w", domain.ErrUnauthorized)
	}
	actor := caller.UserID

	b, err := s.transition(ctx, caller, id, func(b domain.Booking, trip domain.Trip, now time.Time) (domain.Transition, error) {
		return domain.PlanAdminStatus(b, trip, to, &actor, reason, now)
	})
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.AdminSetStatus: %w", err)
	}
	return b, nil
}

type planFunc func(b domain.Booking, trip domain.Trip, now time.Time) (domain.Transition, error)

// transition runs one status change: lock the trip, then the booking,
// re-validate against what was just read and write status, capacity and
// history together. The notice goes out only after commit.
func (s *BookingService) transition(ctx context.Context, caller domain.Caller, id uuid.UUID, plan planFunc) (domain.Booking, error) {
	now := s.clock.Now()

	var (
		result domain.Booking
		notice *domain.Notification
	)
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		// Unlocked read to learn the trip; the lock order is trip then booking.
		peek, err := tx.Bookings().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !caller.CanSee(peek.UserID) {
			return domain.ErrNotFound
		}

		trip, err := tx.Trips().GetForUpdate(ctx, peek.TripID)
		if err != nil {
			return err
		}
		b, err := tx.Bookings().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		t, err := plan(b, trip, now)
		if err != nil {
			return err
		}
		if !t.From.IsActive() && t.To.IsActive() {
			active, err := tx.Bookings().HasActive(ctx, b.UserID, b.TripID)
			if err != nil {
				return err
			}
			if active {
				return domain.ErrDuplicateActiveBooking
			}
		}

		result, err = apply(ctx, tx, t)
		notice = t.Notice
		return err
	})
	if err != nil {
		return domain.Booking{}, err
	}

	if notice != nil {
		s.notify(*notice)
	}
	return result, nil
}

// apply writes a planned transition through tx.
func apply(ctx context.Context, tx repo.Store, t domain.Transition) (domain.Booking, error) {
	updated, err := tx.Bookings().Update(ctx, t.Booking)
	if err != nil {
		return domain.Booking{}, err
	}
	if t.Delta != 0 {
		if _, err := tx.Trips().AdjustBookings(ctx, updated.TripID, t.Delta); err != nil {
			return domain.Booking{}, err
		}
	}
	if t.History != nil {
		if _, err := tx.History().Append(ctx, *t.History); err != nil {
			return domain.Booking{}, err
		}
	}
	return updated, nil
}

// SweepExpired completes every active booking whose trip ended before today.
// It does not touch capacity or history and is safe to run repeatedly.
func (s *BookingService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()

	var ids []uuid.UUID
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		var err error
		ids, err = tx.Bookings().CompleteExpired(ctx, now, now)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("service.BookingService.SweepExpired: %w", err)
	}

	if len(ids) > 0 {
		s.log.Info("expired bookings completed", "count", len(ids))
	}
	return len(ids), nil
}

// SendReminders enqueues a reminder for every confirmed booking whose trip
// starts within horizonDays of today, at most once per booking.
func (s *BookingService) SendReminders(ctx context.Context, horizonDays int) (int, error) {
	today := domain.DateOf(s.clock.Now())
	until := today.AddDate(0, 0, horizonDays)

	bookings, err := s.store.Bookings().ListUpcomingConfirmed(ctx, today, until)
	if err != nil {
		return 0, fmt.Errorf("service.BookingService.SendReminders: %w", err)
	}

	sent := 0
	ttl := time.Duration(horizonDays+1) * 24 * time.Hour
	for _, b := range bookings {
		if s.marker != nil {
			first, err := s.marker.Once(ctx, "reminder:"+b.ID.String(), ttl)
			if err != nil {
				s.log.Warn("reminder marker failed", "booking_id", b.ID, "error", err)
				continue
			}
			if !first {
				continue
			}
		}
		status := b.Status
		s.notify(domain.Notification{
			Kind:       domain.NotifyReminder,
			BookingID:  b.ID,
			NewStatus:  &status,
			OccurredAt: s.clock.Now(),
		})
		sent++
	}
	return sent, nil
}

// Get returns one booking. Bookings of other users are reported as not found
// unless the caller is staff.
func (s *BookingService) Get(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Booking, error) {
	b, err := s.store.Bookings().GetByID(ctx, id)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Get: %w", err)
	}
	if !caller.CanSee(b.UserID) {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Get: %w", domain.ErrNotFound)
	}
	return b, nil
}

// List returns a page of bookings. Non-staff callers only ever see their own.
func (s *BookingService) List(ctx context.Context, caller domain.Caller, f domain.BookingFilter, p domain.PaginationParams) ([]domain.Booking, int64, error) {
	if !caller.IsStaff {
		f.UserID = &caller.UserID
	}
	f.Today = s.clock.Now()
	bookings, total, err := s.store.Bookings().List(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.BookingService.List: %w", err)
	}
	return bookings, total, nil
}

// ListHistory returns the audit trail of a visible booking, newest first.
func (s *BookingService) ListHistory(ctx context.Context, caller domain.Caller, id uuid.UUID) ([]domain.HistoryEntry, error) {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return nil, fmt.Errorf("service.BookingService.ListHistory: %w", err)
	}
	entries, err := s.store.History().ListByBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.BookingService.ListHistory: %w", err)
	}
	return entries, nil
}

func (s *BookingService) notify(n domain.Notification) {
	if s.notifier == nil {
		return
	}
	s.notifier.Enqueue(n)
}

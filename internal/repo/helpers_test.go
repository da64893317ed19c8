package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
	"github.com/WuorBhang/alx-backend-travel-app/internal/repo"
	"github.com/WuorBhang/alx-backend-travel-app/testutil"
)

// newTestStore opens a transaction against the test database and returns a
// Store bound to it. InTx calls become savepoints, and everything is rolled
// back when the test finishes.
func newTestStore(t *testing.T) repo.Store {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return repo.NewStore(tx, repo.StoreOptions{MaxAttempts: 1, LockTimeout: time.Second})
}

// tripFixture returns a domain.Trip with sensible defaults for use in tests.
// Callers can override individual fields after calling this function.
func tripFixture() domain.Trip {
	return domain.Trip{
		Title:       "Kilimanjaro Trek",
		Destination: "Tanzania",
		Description: "Seven days on the Machame route",
		Price:       domain.Money(125050),
		MaxCapacity: 10,
		StartDate:   time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2030, 6, 7, 0, 0, 0, 0, time.UTC),
		IsActive:    true,
	}
}

func mustCreateTrip(t *testing.T, s repo.Store, trip domain.Trip) domain.Trip {
	t.Helper()
	created, err := s.Trips().Create(context.Background(), trip)
	require.NoError(t, err, "create trip")
	return created
}

func mustCreateUser(t *testing.T, s repo.Store) domain.User {
	t.Helper()
	u, err := s.Users().Create(context.Background(), domain.User{Username: "user-" + uuid.NewString()[:8]})
	require.NoError(t, err, "create user")
	return u
}

func mustCreateBooking(t *testing.T, s repo.Store, userID uuid.UUID, trip domain.Trip, n int) domain.Booking {
	t.Helper()
	b, err := s.Bookings().Create(context.Background(), domain.Booking{
		UserID:         userID,
		TripID:         trip.ID,
		NumberOfPeople: n,
		TotalPrice:     trip.Price.Times(n),
		Status:         domain.StatusPending,
		BookingDate:    time.Now().UTC(),
	})
	require.NoError(t, err, "create booking")
	return b
}

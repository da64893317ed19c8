package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/WuorBhang/alx-backend-travel-app/internal/clock"
	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
	"github.com/WuorBhang/alx-backend-travel-app/internal/handler"
	"github.com/WuorBhang/alx-backend-travel-app/internal/middleware"
)

// ---- mocks -----------------------------------------------------------------

// mockTripServicer is a test double for handler.TripServicer.
// Set only the method fields your test needs.
type mockTripServicer struct {
	create  func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	list    func(ctx context.Context, bookableOnly bool, p domain.PaginationParams) ([]domain.Trip, int64, error)
	update  func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	delete  func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTripServicer) Create(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	return m.create(ctx, t)
}
func (m *mockTripServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripServicer) List(ctx context.Context, bookableOnly bool, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.list(ctx, bookableOnly, p)
}
func (m *mockTripServicer) Update(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	return m.update(ctx, t)
}
func (m *mockTripServicer) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

// mockBookingServicer is a test double for handler.BookingServicer.
type mockBookingServicer struct {
	create      func(ctx context.Context, caller domain.Caller, req domain.BookingRequest) (domain.Booking, error)
	get         func(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Booking, error)
	list        func(ctx context.Context, caller domain.Caller, f domain.BookingFilter, p domain.PaginationParams) ([]domain.Booking, int64, error)
	cancel      func(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Booking, error)
	confirm     func(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Booking, error)
	update      func(ctx context.Context, caller domain.Caller, id uuid.UUID, ch domain.BookingChanges) (domain.Booking, error)
	setStatus   func(ctx context.Context, caller domain.Caller, id uuid.UUID, to domain.BookingStatus, reason string) (domain.Booking, error)
	listHistory func(ctx context.Context, caller domain.Caller, id uuid.UUID) ([]domain.HistoryEntry, error)
	sweep       func(ctx context.Context) (int, error)
}

func (m *mockBookingServicer) Create(ctx context.Context, c domain.Caller, req domain.BookingRequest) (domain.Booking, error) {
	return m.create(ctx, c, req)
}
func (m *mockBookingServicer) Get(ctx context.Context, c domain.Caller, id uuid.UUID) (domain.Booking, error) {
	return m.get(ctx, c, id)
}
func (m *mockBookingServicer) List(ctx context.Context, c domain.Caller, f domain.BookingFilter, p domain.PaginationParams) ([]domain.Booking, int64, error) {
	return m.list(ctx, c, f, p)
}
func (m *mockBookingServicer) Cancel(ctx context.Context, c domain.Caller, id uuid.UUID) (domain.Booking, error) {
	return m.cancel(ctx, c, id)
}
func (m *mockBookingServicer) Confirm(ctx context.Context, c domain.Caller, id uuid.UUID) (domain.Booking, error) {
	return m.confirm(ctx, c, id)
}
func (m *mockBookingServicer) Update(ctx context.Context, c domain.Caller, id uuid.UUID, ch domain.BookingChanges) (domain.Booking, error) {
	return m.update(ctx, c, id, ch)
}
func (m *mockBookingServicer) AdminSetStatus(ctx context.Context, c domain.Caller, id uuid.UUID, to domain.BookingStatus, reason string) (domain.Booking, error) {
	return m.setStatus(ctx, c, id, to, reason)
}
func (m *mockBookingServicer) ListHistory(ctx context.Context, c domain.Caller, id uuid.UUID) ([]domain.HistoryEntry, error) {
	return m.listHistory(ctx, c, id)
}
func (m *mockBookingServicer) SweepExpired(ctx context.Context) (int, error) {
	return m.sweep(ctx)
}

// mockUserServicer is a test double for handler.UserServicer.
type mockUserServicer struct {
	register func(ctx context.Context, u domain.User, p *domain.Profile) (domain.User, domain.Profile, error)
	me       func(ctx context.Context, caller domain.Caller) (domain.User, domain.Profile, error)
}

func (m *mockUserServicer) Register(ctx context.Context, u domain.User, p *domain.Profile) (domain.User, domain.Profile, error) {
	return m.register(ctx, u, p)
}
func (m *mockUserServicer) Me(ctx context.Context, c domain.Caller) (domain.User, domain.Profile, error) {
	return m.me(ctx, c)
}

// compile-time checks: mocks must satisfy the handler interfaces.
var (
	_ handler.TripServicer    = (*mockTripServicer)(nil)
	_ handler.BookingServicer = (*mockBookingServicer)(nil)
	_ handler.UserServicer    = (*mockUserServicer)(nil)
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// ---- helpers ---------------------------------------------------------------

var handlerToday = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

var testAuth = middleware.NewAuthenticator([]byte("handler-test-secret"), "")

var (
	customer = domain.Caller{UserID: uuid.MustParse("11111111-1111-1111-1111-111111111111")}
	staff    = domain.Caller{UserID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), IsStaff: true}
)

type services struct {
	trips    *mockTripServicer
	bookings *mockBookingServicer
	users    *mockUserServicer
	db       handler.Pinger
}

// newHTTPHandler wires a Server with the given mocks into the router exactly
// as main.go does in production.
func newHTTPHandler(s services) http.Handler {
	if s.trips == nil {
		s.trips = &mockTripServicer{}
	}
	if s.bookings == nil {
		s.bookings = &mockBookingServicer{}
	}
	if s.users == nil {
		s.users = &mockUserServicer{}
	}
	srv := handler.NewServer(s.trips, s.bookings, s.users, s.db, clock.NewFixed(handlerToday), slog.New(slog.DiscardHandler))
	return srv.Routes(testAuth.Middleware)
}

// do sends one request. caller nil means no Authorization header.
func do(t *testing.T, h http.Handler, method, path string, body any, caller *domain.Caller) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			rd = bytes.NewBufferString(s)
		} else {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			rd = bytes.NewBuffer(b)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != nil {
		token, err := testAuth.Issue(*caller, time.Now(), time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[handler.ErrorResponse](t, rec).Error.Code
}

func tripFixture() domain.Trip {
	return domain.Trip{
		ID:              uuid.New(),
		Title:           "Zanzibar Beach Week",
		Destination:     "Tanzania",
		Price:           domain.Money(95000),
		MaxCapacity:     10,
		CurrentBookings: 4,
		StartDate:       time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, 7, 8, 0, 0, 0, 0, time.UTC),
		IsActive:        true,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
}

func bookingFixture(owner uuid.UUID, status domain.BookingStatus) domain.Booking {
	return domain.Booking{
		ID:             uuid.New(),
		UserID:         owner,
		TripID:         uuid.New(),
		NumberOfPeople: 2,
		TotalPrice:     domain.Money(190000),
		Status:         status,
		BookingDate:    time.Now().UTC(),
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
}

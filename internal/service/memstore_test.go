package service_test

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
	"github.com/WuorBhang/alx-backend-travel-app/internal/repo"
)

// memStore is an in-memory repo.Store. InTx serializes transactions and
// restores a snapshot when fn fails, so atomicity can be asserted without a
// database. The same constraints as the SQL schema are enforced.
type memStore struct {
	txMu *sync.Mutex
	d    *memData
}

type memData struct {
	mu       sync.Mutex
	trips    map[uuid.UUID]domain.Trip
	bookings map[uuid.UUID]domain.Booking
	history  []domain.HistoryEntry
	users    map[uuid.UUID]domain.User
	profiles map[uuid.UUID]domain.Profile

	// failAppend, when set, is returned by History().Append.
	failAppend error
	// txCount counts committed and rolled back transactions.
	txCount int
}

func newMemStore() *memStore {
	return &memStore{
		txMu: &sync.Mutex{},
		d: &memData{
			trips:    map[uuid.UUID]domain.Trip{},
			bookings: map[uuid.UUID]domain.Booking{},
			users:    map[uuid.UUID]domain.User{},
			profiles: map[uuid.UUID]domain.Profile{},
		},
	}
}

var _ repo.Store = (*memStore)(nil)

func (s *memStore) Trips() repo.TripRepo       { return memTrips{s.d} }
func (s *memStore) Bookings() repo.BookingRepo { return memBookings{s.d} }
func (s *memStore) History() repo.HistoryRepo  { return memHistory{s.d} }
func (s *memStore) Users() repo.UserRepo       { return memUsers{s.d} }

func (s *memStore) InTx(_ context.Context, fn func(repo.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.d.mu.Lock()
	s.d.txCount++
	trips := maps.Clone(s.d.trips)
	bookings := maps.Clone(s.d.bookings)
	history := slices.Clone(s.d.history)
	users := maps.Clone(s.d.users)
	profiles := maps.Clone(s.d.profiles)
	s.d.mu.Unlock()

	// The inner store shares data but has its own (unlocked) tx mutex so
	// nested InTx calls do not deadlock.
	if err := fn(&memStore{txMu: &sync.Mutex{}, d: s.d}); err != nil {
		s.d.mu.Lock()
		s.d.trips, s.d.bookings, s.d.history = trips, bookings, history
		s.d.users, s.d.profiles = users, profiles
		s.d.mu.Unlock()
		return err
	}
	return nil
}

// ---- helpers used by tests -------------------------------------------------

func (s *memStore) putTrip(t domain.Trip) domain.Trip {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	s.d.mu.Lock()
	s.d.trips[t.ID] = t
	s.d.mu.Unlock()
	return t
}

func (s *memStore) putBooking(b domain.Booking) domain.Booking {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	s.d.mu.Lock()
	s.d.bookings[b.ID] = b
	s.d.mu.Unlock()
	return b
}

func (s *memStore) trip(id uuid.UUID) domain.Trip {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.d.trips[id]
}

func (s *memStore) booking(id uuid.UUID) domain.Booking {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.d.bookings[id]
}

func (s *memStore) historyCount() int {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return len(s.d.history)
}

// ---- trips -----------------------------------------------------------------

type memTrips struct{ d *memData }

func (r memTrips) Create(_ context.Context, t domain.Trip) (domain.Trip, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	t.ID = uuid.New()
	t.CurrentBookings = 0
	r.d.trips[t.ID] = t
	return t, nil
}

func (r memTrips) GetByID(_ context.Context, id uuid.UUID) (domain.Trip, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	t, ok := r.d.trips[id]
	if !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	return t, nil
}

func (r memTrips) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return r.GetByID(ctx, id)
}

func (r memTrips) List(_ context.Context, f repo.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := []domain.Trip{}
	for _, t := range r.d.trips {
		if f.BookableOn != nil && !t.CanBook(*f.BookableOn) {
			continue
		}
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b domain.Trip) int { return a.StartDate.Compare(b.StartDate) })
	total := int64(len(out))
	start := min(p.Offset(), len(out))
	end := min(start+p.Limit, len(out))
	return out[start:end], total, nil
}

func (r memTrips) Update(_ context.Context, t domain.Trip) (domain.Trip, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	cur, ok := r.d.trips[t.ID]
	if !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	t.CurrentBookings = cur.CurrentBookings
	if t.CurrentBookings > t.MaxCapacity {
		return domain.Trip{}, domain.ErrInsufficientCapacity
	}
	r.d.trips[t.ID] = t
	return t, nil
}

func (r memTrips) Delete(_ context.Context, id uuid.UUID) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.trips[id]; !ok {
		return domain.ErrNotFound
	}
	for _, b := range r.d.bookings {
		if b.TripID == id {
			return fmt.Errorf("%w: trip has bookings", domain.ErrValidation)
		}
	}
	delete(r.d.trips, id)
	return nil
}

func (r memTrips) AdjustBookings(_ context.Context, id uuid.UUID, delta int) (domain.Trip, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	t, ok := r.d.trips[id]
	if !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	if delta < 0 {
		t = t.Release(-delta)
	} else {
		var err error
		if t, err = t.Reserve(delta); err != nil {
			return domain.Trip{}, err
		}
	}
	r.d.trips[id] = t
	return t, nil
}

// ---- bookings --------------------------------------------------------------

type memBookings struct{ d *memData }

func (r memBookings) Create(_ context.Context, b domain.Booking) (domain.Booking, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.trips[b.TripID]; !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	for _, other := range r.d.bookings {
		if other.UserID == b.UserID && other.TripID == b.TripID && other.Status.IsActive() {
			return domain.Booking{}, domain.ErrDuplicateActiveBooking
		}
	}
	b.ID = uuid.New()
	b.CreatedAt, b.UpdatedAt = b.BookingDate, b.BookingDate
	r.d.bookings[b.ID] = b
	return b, nil
}

func (r memBookings) GetByID(_ context.Context, id uuid.UUID) (domain.Booking, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	b, ok := r.d.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (r memBookings) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r memBookings) HasActive(_ context.Context, userID, tripID uuid.UUID) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, b := range r.d.bookings {
		if b.UserID == userID && b.TripID == tripID && b.Status.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (r memBookings) List(_ context.Context, f domain.BookingFilter, p domain.PaginationParams) ([]domain.Booking, int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := []domain.Booking{}
	for _, b := range r.d.bookings {
		if f.UserID != nil && b.UserID != *f.UserID {
			continue
		}
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		if f.Period != nil && !f.Period.Matches(b, r.d.trips[b.TripID], f.Today) {
			continue
		}
		out = append(out, b)
	}
	total := int64(len(out))
	start := min(p.Offset(), len(out))
	end := min(start+p.Limit, len(out))
	return out[start:end], total, nil
}

func (r memBookings) Update(_ context.Context, b domain.Booking) (domain.Booking, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	cur, ok := r.d.bookings[b.ID]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	if b.Status.IsActive() && !cur.Status.IsActive() {
		for id, other := range r.d.bookings {
			if id != b.ID && other.UserID == b.UserID && other.TripID == b.TripID && other.Status.IsActive() {
				return domain.Booking{}, domain.ErrDuplicateActiveBooking
			}
		}
	}
	cur.Status = b.Status
	cur.ConfirmationDate = b.ConfirmationDate
	cur.CancellationDate = b.CancellationDate
	cur.NumberOfPeople = b.NumberOfPeople
	cur.TotalPrice = b.TotalPrice
	cur.SpecialRequests = b.SpecialRequests
	cur.ContactPhone = b.ContactPhone
	cur.ContactEmail = b.ContactEmail
	cur.UpdatedAt = b.UpdatedAt
	r.d.bookings[b.ID] = cur
	return cur, nil
}

func (r memBookings) CompleteExpired(_ context.Context, today, at time.Time) ([]uuid.UUID, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	ids := []uuid.UUID{}
	for id, b := range r.d.bookings {
		if !b.Status.IsActive() || !r.d.trips[b.TripID].IsPast(today) {
			continue
		}
		b.Status = domain.StatusCompleted
		b.UpdatedAt = at
		r.d.bookings[id] = b
		ids = append(ids, id)
	}
	return ids, nil
}

func (r memBookings) ListUpcomingConfirmed(_ context.Context, from, to time.Time) ([]domain.Booking, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := []domain.Booking{}
	for _, b := range r.d.bookings {
		start := r.d.trips[b.TripID].StartDate
		if b.Status == domain.StatusConfirmed && !start.Before(domain.DateOf(from)) && !start.After(domain.DateOf(to)) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ---- history ---------------------------------------------------------------

type memHistory struct{ d *memData }

func (r memHistory) Append(_ context.Context, e domain.HistoryEntry) (domain.HistoryEntry, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if r.d.failAppend != nil {
		return domain.HistoryEntry{}, r.d.failAppend
	}
	e.ID = uuid.New()
	r.d.history = append(r.d.history, e)
	return e, nil
}

func (r memHistory) ListByBooking(_ context.Context, bookingID uuid.UUID) ([]domain.HistoryEntry, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := []domain.HistoryEntry{}
	for i := len(r.d.history) - 1; i >= 0; i-- {
		if r.d.history[i].BookingID == bookingID {
			out = append(out, r.d.history[i])
		}
	}
	return out, nil
}

// ---- users -----------------------------------------------------------------

type memUsers struct{ d *memData }

func (r memUsers) Create(_ context.Context, u domain.User) (domain.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, other := range r.d.users {
		if other.Username == u.Username {
			return domain.User{}, fmt.Errorf("%w: duplicate value", domain.ErrValidation)
		}
	}
	u.ID = uuid.New()
	r.d.users[u.ID] = u
	return u, nil
}

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	u, ok := r.d.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (r memUsers) CreateProfile(_ context.Context, p domain.Profile) (domain.Profile, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.users[p.UserID]; !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	r.d.profiles[p.UserID] = p
	return p, nil
}

func (r memUsers) GetProfile(_ context.Context, userID uuid.UUID) (domain.Profile, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	p, ok := r.d.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

// ---- collaborators ---------------------------------------------------------

// recordingNotifier captures enqueued notifications.
type recordingNotifier struct {
	mu  sync.Mutex
	got []domain.Notification
}

func (n *recordingNotifier) Enqueue(x domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, x)
}

func (n *recordingNotifier) all() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.got)
}

// memMarker is a Marker without expiry.
type memMarker struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memMarker) Once(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

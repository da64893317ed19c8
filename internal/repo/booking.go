package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
)

// BookingRepo defines the persistence operations for Bookings.
type BookingRepo interface {
	// Create inserts a new booking and returns it with its generated ID.
	// A second active booking for the same (user, trip) maps to
	// domain.ErrDuplicateActiveBooking.
	Create(ctx context.Context, b domain.Booking) (domain.Booking, error)

	// GetByID returns domain.ErrNotFound if the booking does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Booking, error)

	// GetForUpdate is GetByID with a row lock. Lock the trip first.
	GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Booking, error)

	// HasActive reports whether the user holds a pending or confirmed
	// booking for the trip.
	HasActive(ctx context.Context, userID, tripID uuid.UUID) (bool, error)

	// List returns one page of bookings, newest first, and the total count.
	List(ctx context.Context, f domain.BookingFilter, p domain.PaginationParams) ([]domain.Booking, int64, error)

	// Update persists the mutable fields: status and its timestamps, party
	// size, price, special requests and contact details.
	Update(ctx context.Context, b domain.Booking) (domain.Booking, error)

	// CompleteExpired marks every active booking whose trip ended before today
	// as completed in a single statement and returns the affected IDs.
	CompleteExpired(ctx context.Context, today, at time.Time) ([]uuid.UUID, error)

	// ListUpcomingConfirmed returns confirmed bookings whose trip starts
	// between from and to inclusive.
	ListUpcomingConfirmed(ctx context.Context, from, to time.Time) ([]domain.Booking, error)
}

type pgBookingRepo struct {
	db db
}

// NewBookingRepo constructs a BookingRepo backed by the provided db connection.
func NewBookingRepo(db db) BookingRepo {
	return &pgBookingRepo{db: db}
}

const bookingColumns = `
	id, user_id, trip_id, number_of_people, (total_price * 100)::bigint, status,
	booking_date, confirmation_date, cancellation_date,
	special_requests, contact_phone, contact_email, created_at, updated_at`

func (r *pgBookingRepo) Create(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	const q = `
		INSERT INTO bookings (
			user_id, trip_id, number_of_people, total_price, status, booking_date,
			special_requests, contact_phone, contact_email)
		VALUES (
			@user_id, @trip_id, @number_of_people, @total_cents::numeric / 100, @status, @booking_date,
			@special_requests, @contact_phone, @contact_email)
		RETURNING` + bookingColumns

	args := pgx.NamedArgs{
		"user_id":          b.UserID,
		"trip_id":          b.TripID,
		"number_of_people": b.NumberOfPeople,
		"total_cents":      b.TotalPrice.Cents(),
		"status":           string(b.Status),
		"booking_date":     b.BookingDate,
		"special_requests": b.SpecialRequests,
		"contact_phone":    b.ContactPhone,
		"contact_email":    b.ContactEmail,
	}

	result, err := scanBooking(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Create: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	const q = `SELECT` + bookingColumns + ` FROM bookings WHERE id = @id`

	result, err := scanBooking(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgBookingRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	const q = `SELECT` + bookingColumns + ` FROM bookings WHERE id = @id FOR UPDATE`

	result, err := scanBooking(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.GetForUpdate: %w", err)
	}
	return result, nil
}

func (r *pgBookingRepo) HasActive(ctx context.Context, userID, tripID uuid.UUID) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE user_id = @user_id AND trip_id = @trip_id
			  AND status IN ('pending', 'confirmed')
		)`

	var exists bool
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID, "trip_id": tripID}).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repo.BookingRepo.HasActive: %w", err)
	}
	return exists, nil
}

func (r *pgBookingRepo) List(ctx context.Context, f domain.BookingFilter, p domain.PaginationParams) ([]domain.Booking, int64, error) {
	const q = `
		SELECT` + bookingColumns + `, COUNT(*) OVER ()
		FROM bookings
		WHERE (@user_id::uuid IS NULL OR user_id = @user_id::uuid)
		  AND (@status::text IS NULL OR status = @status::text)
		  AND (@period::text IS NULL
		       OR (@period::text = 'upcoming'
		           AND status IN ('pending', 'confirmed')
		           AND trip_id IN (SELECT id FROM trips WHERE start_date > @today::date))
		       OR (@period::text = 'past'
		           AND trip_id IN (SELECT id FROM trips WHERE end_date < @today::date)))
		ORDER BY booking_date DESC, id
		LIMIT @limit OFFSET @offset`

	var status, period *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}
	if f.Period != nil {
		s := string(*f.Period)
		period = &s
	}
	args := pgx.NamedArgs{
		"user_id": f.UserID,
		"status":  status,
		"period":  period,
		"today":   domain.DateOf(f.Today),
		"limit":   p.Limit,
		"offset":  p.Offset(),
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.BookingRepo.List: %w", err)
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	var total int64
	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.BookingRepo.List: scan: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.BookingRepo.List: rows: %w", err)
	}
	return bookings, total, nil
}

func (r *pgBookingRepo) Update(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	const q = `
		UPDATE bookings
		SET status            = @status,
		    confirmation_date = @confirmation_date,
		    cancellation_date = @cancellation_date,
		    number_of_people  = @number_of_people,
		    total_price       = @total_cents::numeric / 100,
		    special_requests  = @special_requests,
		    contact_phone     = @contact_phone,
		    contact_email     = @contact_email,
		    updated_at        = @updated_at
		WHERE id = @id
		RETURNING` + bookingColumns

	args := pgx.NamedArgs{
		"id":                b.ID,
		"status":            string(b.Status),
		"confirmation_date": b.ConfirmationDate,
		"cancellation_date": b.CancellationDate,
		"number_of_people":  b.NumberOfPeople,
		"total_cents":       b.TotalPrice.Cents(),
		"special_requests":  b.SpecialRequests,
		"contact_phone":     b.ContactPhone,
		"contact_email":     b.ContactEmail,
		"updated_at":        b.UpdatedAt,
	}

	result, err := scanBooking(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Update: %w", mapPgError(err))
	}
	return result, nil
}

// CompleteExpired only locks booking rows; trips are read, not locked.
func (r *pgBookingRepo) CompleteExpired(ctx context.Context, today, at time.Time) ([]uuid.UUID, error) {
	const q = `
		UPDATE bookings b
		SET status = 'completed', updated_at = @at
		FROM trips t
		WHERE b.trip_id = t.id
		  AND t.end_date < @today::date
		  AND b.status IN ('pending', 'confirmed')
		RETURNING b.id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"today": domain.DateOf(today), "at": at})
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.CompleteExpired: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repo.BookingRepo.CompleteExpired: scan: %w", err)
		}
		ids = append(ids, uuid.UUID(id.Bytes))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.CompleteExpired: rows: %w", err)
	}
	return ids, nil
}

func (r *pgBookingRepo) ListUpcomingConfirmed(ctx context.Context, from, to time.Time) ([]domain.Booking, error) {
	const q = `
		SELECT
			b.id, b.user_id, b.trip_id, b.number_of_people, (b.total_price * 100)::bigint, b.status,
			b.booking_date, b.confirmation_date, b.cancellation_date,
			b.special_requests, b.contact_phone, b.contact_email, b.created_at, b.updated_at
		FROM bookings b
		JOIN trips t ON t.id = b.trip_id
		WHERE b.status = 'confirmed'
		  AND t.start_date BETWEEN @from::date AND @to::date
		ORDER BY t.start_date, b.id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"from": domain.DateOf(from), "to": domain.DateOf(to)})
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.ListUpcomingConfirmed: %w", err)
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.BookingRepo.ListUpcomingConfirmed: scan: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.ListUpcomingConfirmed: rows: %w", err)
	}
	return bookings, nil
}

// scanBooking maps a single database row into a domain.Booking.
func scanBooking(s scanner, extra ...any) (domain.Booking, error) {
	var (
		b          domain.Booking
		id         pgtype.UUID
		userID     pgtype.UUID
		tripID     pgtype.UUID
		totalCents int64
		status     string
	)

	dest := []any{
		&id, &userID, &tripID, &b.NumberOfPeople, &totalCents, &status,
		&b.BookingDate, &b.ConfirmationDate, &b.CancellationDate,
		&b.SpecialRequests, &b.ContactPhone, &b.ContactEmail, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Booking{}, domain.ErrNotFound
		}
		return domain.Booking{}, err
	}

	b.ID = uuid.UUID(id.Bytes)
	b.UserID = uuid.UUID(userID.Bytes)
	b.TripID = uuid.UUID(tripID.Bytes)
	b.TotalPrice = domain.Money(totalCents)
	b.Status = domain.BookingStatus(status)
	return b, nil
}

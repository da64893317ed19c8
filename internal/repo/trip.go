package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
)

// TripFilter narrows trip listings.
type TripFilter struct {
	// BookableOn, when set, keeps only active trips with free spots that have
	// not ended before that date.
	BookableOn *time.Time
}

// TripRepo defines the persistence operations for Trips and their capacity
// ledger. current_bookings is only ever written by AdjustBookings.
type TripRepo interface {
	// Create inserts a new trip with current_bookings = 0 and returns the
	// persisted record.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// GetForUpdate is GetByID with a row lock held until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// List returns one page of trips ordered by start_date and the total count.
	List(ctx context.Context, f TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// Update overwrites the staff-editable fields of a trip. It never touches
	// current_bookings. Returns domain.ErrNotFound if the trip does not exist.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Delete removes a trip. Returns domain.ErrNotFound if it does not exist
	// and domain.ErrValidation if bookings still reference it.
	Delete(ctx context.Context, id uuid.UUID) error

	// AdjustBookings adds delta to current_bookings and returns the updated
	// trip. A result outside 0..max_capacity maps to
	// domain.ErrInsufficientCapacity.
	AdjustBookings(ctx context.Context, id uuid.UUID, delta int) (domain.Trip, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

// tripColumns reads price back as integer cents.
const tripColumns = `
	id, title, destination, description, (price * 100)::bigint,
	max_capacity, current_bookings, start_date, end_date, is_active,
	created_at, updated_at`

func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (title, destination, description, price, max_capacity, start_date, end_date, is_active)
		VALUES (@title, @destination, @description, @price_cents::numeric / 100, @max_capacity, @start_date, @end_date, @is_active)
		RETURNING` + tripColumns

	row := r.db.QueryRow(ctx, q, tripArgs(trip))
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT` + tripColumns + ` FROM trips WHERE id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT` + tripColumns + ` FROM trips WHERE id = @id FOR UPDATE`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetForUpdate: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) List(ctx context.Context, f TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	const q = `
		SELECT` + tripColumns + `, COUNT(*) OVER ()
		FROM trips
		WHERE @bookable_on::date IS NULL
		   OR (is_active AND current_bookings < max_capacity AND end_date >= @bookable_on::date)
		ORDER BY start_date, id
		LIMIT @limit OFFSET @offset`

	var bookableOn *time.Time
	if f.BookableOn != nil {
		d := domain.DateOf(*f.BookableOn)
		bookableOn = &d
	}
	args := pgx.NamedArgs{"bookable_on": bookableOn, "limit": p.Limit, "offset": p.Offset()}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.List: %w", err)
	}
	defer rows.Close()

	trips := []domain.Trip{}
	var total int64
	for rows.Next() {
		t, err := scanTrip(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.List: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.List: rows: %w", err)
	}
	return trips, total, nil
}

func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET title        = @title,
		    destination  = @destination,
		    description  = @description,
		    price        = @price_cents::numeric / 100,
		    max_capacity = @max_capacity,
		    start_date   = @start_date,
		    end_date     = @end_date,
		    is_active    = @is_active,
		    updated_at   = now()
		WHERE id = @id
		RETURNING` + tripColumns

	args := tripArgs(trip)
	args["id"] = trip.ID

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return fmt.Errorf("repo.TripRepo.Delete: %w: trip has bookings", domain.ErrValidation)
		}
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgTripRepo) AdjustBookings(ctx context.Context, id uuid.UUID, delta int) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET current_bookings = current_bookings + @delta,
		    updated_at       = now()
		WHERE id = @id
		RETURNING` + tripColumns

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "delta": delta}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.AdjustBookings: %w", mapPgError(err))
	}
	return result, nil
}

func tripArgs(t domain.Trip) pgx.NamedArgs {
	return pgx.NamedArgs{
		"title":        t.Title,
		"destination":  t.Destination,
		"description":  t.Description,
		"price_cents":  t.Price.Cents(),
		"max_capacity": t.MaxCapacity,
		"start_date":   domain.DateOf(t.StartDate),
		"end_date":     domain.DateOf(t.EndDate),
		"is_active":    t.IsActive,
	}
}

// scanTrip maps a single database row into a domain.Trip. Extra destinations
// are appended after the trip columns (used for window counts).
func scanTrip(s scanner, extra ...any) (domain.Trip, error) {
	var (
		t          domain.Trip
		id         pgtype.UUID
		priceCents int64
		startDate  pgtype.Date
		endDate    pgtype.Date
	)

	dest := []any{
		&id, &t.Title, &t.Destination, &t.Description, &priceCents,
		&t.MaxCapacity, &t.CurrentBookings, &startDate, &endDate, &t.IsActive,
		&t.CreatedAt, &t.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.Price = domain.Money(priceCents)
	t.StartDate = startDate.Time
	t.EndDate = endDate.Time
	return t, nil
}

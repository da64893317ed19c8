package repo

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
)

// Postgres SQLSTATE codes the repo layer reacts to.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// Constraint names declared in migrations/.
const (
	constraintOneActiveBooking = "bookings_one_active_per_user_trip"
	constraintCapacityBounds   = "trips_capacity_bounds"
	constraintHistoryActor     = "booking_history_changed_by_fkey"
)

// mapPgError translates constraint violations into domain errors. The
// original *pgconn.PgError stays in the chain. Errors that are not Postgres
// errors are returned unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		if pgErr.ConstraintName == constraintOneActiveBooking {
			return fmt.Errorf("%w: %w", domain.ErrDuplicateActiveBooking, err)
		}
		return fmt.Errorf("%w: duplicate value: %w", domain.ErrValidation, err)
	case pgCheckViolation:
		if pgErr.ConstraintName == constraintCapacityBounds {
			return fmt.Errorf("%w: %w", domain.ErrInsufficientCapacity, err)
		}
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	case pgForeignKeyViolation:
		if pgErr.ConstraintName == constraintHistoryActor {
			return fmt.Errorf("%w: acting user does not exist: %w", domain.ErrUnauthorized, err)
		}
		return fmt.Errorf("%w: referenced row does not exist: %w", domain.ErrNotFound, err)
	}
	return err
}

// isRetryable reports whether err is a lock or serialization conflict that a
// fresh transaction may not hit again.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return true
	}
	return false
}

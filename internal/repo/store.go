// Package repo contains all database access logic for the travel booking API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business rules live here, only SQL, type mapping and transaction control.
package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// beginner is a db that can open a transaction. *pgxpool.Pool opens a real
// transaction; pgx.Tx opens a savepoint.
type beginner interface {
	db
	Begin(ctx context.Context) (pgx.Tx, error)
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scanX
// helpers to be reused for QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// Store groups the repositories and runs units of work atomically.
// The service layer depends on this interface so it can be unit-tested
// against an in-memory fake.
type Store interface {
	Trips() TripRepo
	Bookings() BookingRepo
	History() HistoryRepo
	Users() UserRepo

	// InTx runs fn inside one transaction. The Store passed to fn is bound to
	// that transaction; fn must use it rather than the outer Store. The
	// transaction is committed when fn returns nil and rolled back otherwise.
	// Lock conflicts are retried with a fresh transaction; when the attempts
	// run out the error wraps domain.ErrTransientConflict.
	InTx(ctx context.Context, fn func(Store) error) error
}

// StoreOptions tunes transaction behaviour.
type StoreOptions struct {
	// MaxAttempts bounds how often a conflicting transaction is run. Minimum 1.
	MaxAttempts int
	// LockTimeout is applied with SET LOCAL lock_timeout. Zero leaves the
	// server default in place.
	LockTimeout time.Duration
	// RetryBase is the first backoff delay; later delays grow exponentially.
	RetryBase time.Duration
}

type pgStore struct {
	conn beginner
	db   db
	opts StoreOptions
	inTx bool
}

// NewStore constructs a Store backed by conn.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewStore(conn beginner, opts StoreOptions) Store {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 20 * time.Millisecond
	}
	return &pgStore{conn: conn, db: conn, opts: opts}
}

func (s *pgStore) Trips() TripRepo       { return NewTripRepo(s.db) }
func (s *pgStore) Bookings() BookingRepo { return NewBookingRepo(s.db) }
func (s *pgStore) History() HistoryRepo  { return NewHistoryRepo(s.db) }
func (s *pgStore) Users() UserRepo       { return NewUserRepo(s.db) }

// InTx implements Store. Calls nested inside a running transaction join it.
func (s *pgStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}

	attempts := 0
	backoff := retry.WithMaxRetries(uint64(s.opts.MaxAttempts-1), retry.NewExponential(s.opts.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		err := s.runTx(ctx, fn)
		if isRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if isRetryable(err) {
		return fmt.Errorf("repo.Store.InTx: gave up after %d attempts: %w: %w", attempts, domain.ErrTransientConflict, err)
	}
	return err
}

func (s *pgStore) runTx(ctx context.Context, fn func(Store) error) (err error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.Store.InTx: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if s.opts.LockTimeout > 0 {
		timeout := fmt.Sprintf("%dms", s.opts.LockTimeout.Milliseconds())
		if _, err = tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, timeout); err != nil {
			return fmt.Errorf("repo.Store.InTx: set lock_timeout: %w", err)
		}
	}

	if err = fn(&pgStore{conn: tx, db: tx, opts: s.opts, inTx: true}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.Store.InTx: commit: %w", err)
	}
	return nil
}

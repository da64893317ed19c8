package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
)

// HistoryRepo is the append-only booking audit trail. There is no update or
// delete; entries disappear only when their booking is deleted.
type HistoryRepo interface {
	// Append inserts one entry and returns it with its generated ID.
	Append(ctx context.Context, e domain.HistoryEntry) (domain.HistoryEntry, error)

	// ListByBooking returns all entries for a booking, newest first.
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.HistoryEntry, error)
}

type pgHistoryRepo struct {
	db db
}

// NewHistoryRepo constructs a HistoryRepo backed by the provided db connection.
func NewHistoryRepo(db db) HistoryRepo {
	return &pgHistoryRepo{db: db}
}

func (r *pgHistoryRepo) Append(ctx context.Context, e domain.HistoryEntry) (domain.HistoryEntry, error) {
	const q = `
		INSERT INTO booking_history (booking_id, old_status, new_status, changed_by, reason, changed_at)
		VALUES (@booking_id, @old_status, @new_status, @changed_by, @reason, @changed_at)
		RETURNING id, booking_id, old_status, new_status, changed_by, reason, changed_at`

	var oldStatus *string
	if e.OldStatus != nil {
		s := string(*e.OldStatus)
		oldStatus = &s
	}
	args := pgx.NamedArgs{
		"booking_id": e.BookingID,
		"old_status": oldStatus,
		"new_status": string(e.NewStatus),
		"changed_by": e.ChangedBy,
		"reason":     e.Reason,
		"changed_at": e.ChangedAt,
	}

	result, err := scanHistory(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("repo.HistoryRepo.Append: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgHistoryRepo) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.HistoryEntry, error) {
	const q = `
		SELECT id, booking_id, old_status, new_status, changed_by, reason, changed_at
		FROM booking_history
		WHERE booking_id = @booking_id
		ORDER BY changed_at DESC, seq DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"booking_id": bookingID})
	if err != nil {
		return nil, fmt.Errorf("repo.HistoryRepo.ListByBooking: %w", err)
	}
	defer rows.Close()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.HistoryRepo.ListByBooking: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.HistoryRepo.ListByBooking: rows: %w", err)
	}
	return entries, nil
}

func scanHistory(s scanner) (domain.HistoryEntry, error) {
	var (
		e         domain.HistoryEntry
		id        pgtype.UUID
		bookingID pgtype.UUID
		oldStatus pgtype.Text
		newStatus string
		changedBy pgtype.UUID
	)
	err := s.Scan(&id, &bookingID, &oldStatus, &newStatus, &changedBy, &e.Reason, &e.ChangedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.HistoryEntry{}, domain.ErrNotFound
		}
		return domain.HistoryEntry{}, err
	}

	e.ID = uuid.UUID(id.Bytes)
	e.BookingID = uuid.UUID(bookingID.Bytes)
	e.NewStatus = domain.BookingStatus(newStatus)
	if oldStatus.Valid {
		s := domain.BookingStatus(oldStatus.String)
		e.OldStatus = &s
	}
	if changedBy.Valid {
		u := uuid.UUID(changedBy.Bytes)
		e.ChangedBy = &u
	}
	return e, nil
}

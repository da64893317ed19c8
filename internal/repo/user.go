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

// UserRepo defines the persistence operations for users and their profiles.
type UserRepo interface {
	// Create inserts a user. A taken username maps to domain.ErrValidation.
	Create(ctx context.Context, u domain.User) (domain.User, error)

	// GetByID returns domain.ErrNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)

	// CreateProfile inserts the profile row for an existing user.
	CreateProfile(ctx context.Context, p domain.Profile) (domain.Profile, error)

	// GetProfile returns domain.ErrNotFound if the user has no profile.
	GetProfile(ctx context.Context, userID uuid.UUID) (domain.Profile, error)
}

type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

func (r *pgUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	const q = `
		INSERT INTO users (username, email, first_name, last_name, is_staff)
		VALUES (@username, @email, @first_name, @last_name, @is_staff)
		RETURNING id, username, email, first_name, last_name, is_staff, created_at`

	args := pgx.NamedArgs{
		"username":   u.Username,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"is_staff":   u.IsStaff,
	}

	result, err := scanUser(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const q = `
		SELECT id, username, email, first_name, last_name, is_staff, created_at
		FROM users
		WHERE id = @id`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) CreateProfile(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	const q = `
		INSERT INTO user_profiles (user_id, phone_number, city, country, budget_range, email_notifications, sms_notifications)
		VALUES (@user_id, @phone_number, @city, @country, @budget_range, @email_notifications, @sms_notifications)
		RETURNING user_id, phone_number, city, country, budget_range, email_notifications, sms_notifications, created_at, updated_at`

	args := pgx.NamedArgs{
		"user_id":             p.UserID,
		"phone_number":        p.PhoneNumber,
		"city":                p.City,
		"country":             p.Country,
		"budget_range":        string(p.BudgetRange),
		"email_notifications": p.EmailNotifications,
		"sms_notifications":   p.SMSNotifications,
	}

	result, err := scanProfile(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("repo.UserRepo.CreateProfile: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgUserRepo) GetProfile(ctx context.Context, userID uuid.UUID) (domain.Profile, error) {
	const q = `
		SELECT user_id, phone_number, city, country, budget_range, email_notifications, sms_notifications, created_at, updated_at
		FROM user_profiles
		WHERE user_id = @user_id`

	result, err := scanProfile(r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID}))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("repo.UserRepo.GetProfile: %w", err)
	}
	return result, nil
}

func scanUser(s scanner) (domain.User, error) {
	var (
		u  domain.User
		id pgtype.UUID
	)
	err := s.Scan(&id, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.IsStaff, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	u.ID = uuid.UUID(id.Bytes)
	return u, nil
}

func scanProfile(s scanner) (domain.Profile, error) {
	var (
		p      domain.Profile
		userID pgtype.UUID
		budget string
	)
	err := s.Scan(&userID, &p.PhoneNumber, &p.City, &p.Country, &budget,
		&p.EmailNotifications, &p.SMSNotifications, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, domain.ErrNotFound
		}
		return domain.Profile{}, err
	}
	p.UserID = uuid.UUID(userID.Bytes)
	p.BudgetRange = domain.BudgetRange(budget)
	return p, nil
}

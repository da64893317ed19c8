package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account known to the booking backend. Authentication lives in
// the identity provider; this record only anchors bookings and profiles.
type User struct {
	ID        uuid.UUID
	Username  string
	Email     string
	FirstName string
	LastName  string
	IsStaff   bool
	CreatedAt time.Time
}

// FullName falls back to the username when no name parts are set.
func (u User) FullName() string {
	if n := strings.TrimSpace(u.FirstName + " " + u.LastName); n != "" {
		return n
	}
	return u.Username
}

// BudgetRange is a coarse spending preference.
type BudgetRange string

const (
	BudgetUnset  BudgetRange = ""
	BudgetLow    BudgetRange = "low"
	BudgetMedium BudgetRange = "medium"
	BudgetHigh   BudgetRange = "high"
)

// Profile holds contact details and notification preferences for a user.
// Every user has exactly one, created together with the user.
type Profile struct {
	UserID             uuid.UUID
	PhoneNumber        string
	City               string
	Country            string
	BudgetRange        BudgetRange
	EmailNotifications bool
	SMSNotifications   bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DefaultProfile returns the profile a new user starts with.
func DefaultProfile(userID uuid.UUID) Profile {
	return Profile{UserID: userID, EmailNotifications: true}
}

// IsComplete reports whether the essential contact fields are filled in.
func (p Profile) IsComplete() bool {
	return p.PhoneNumber != "" && p.City != "" && p.Country != ""
}

// Validate checks the user fields a caller can supply.
func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if u.Email != "" {
		if _, err := mail.ParseAddress(u.Email); err != nil {
			return fmt.Errorf("%w: invalid email %q", ErrValidation, u.Email)
		}
	}
	return nil
}

// Validate checks profile enum fields.
func (p Profile) Validate() error {
	switch p.BudgetRange {
	case BudgetUnset, BudgetLow, BudgetMedium, BudgetHigh:
		return nil
	}
	return fmt.Errorf("%w: invalid budget_range %q", ErrValidation, p.BudgetRange)
}

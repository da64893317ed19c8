package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
)

// ProfileFields are the editable profile attributes.
type ProfileFields struct {
	PhoneNumber        string             `json:"phone_number,omitempty"`
	City               string             `json:"city,omitempty"`
	Country            string             `json:"country,omitempty"`
	BudgetRange        domain.BudgetRange `json:"budget_range,omitempty"`
	EmailNotifications *bool              `json:"email_notifications,omitempty"`
	SMSNotifications   *bool              `json:"sms_notifications,omitempty"`
}

// UserRequest is the body of POST /users. A missing profile creates the
// default one.
type UserRequest struct {
	Username  string         `json:"username"`
	Email     string         `json:"email,omitempty"`
	FirstName string         `json:"first_name,omitempty"`
	LastName  string         `json:"last_name,omitempty"`
	IsStaff   bool           `json:"is_staff"`
	Profile   *ProfileFields `json:"profile,omitempty"`
}

// Profile is the API representation of a user profile.
type Profile struct {
	PhoneNumber        string             `json:"phone_number"`
	City               string             `json:"city"`
	Country            string             `json:"country"`
	BudgetRange        domain.BudgetRange `json:"budget_range"`
	EmailNotifications bool               `json:"email_notifications"`
	SMSNotifications   bool               `json:"sms_notifications"`
	IsComplete         bool               `json:"is_complete"`
}

// User is the API representation of a user with its profile.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	FullName  string    `json:"full_name"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
	Profile   Profile   `json:"profile"`
}

// CreateUser handles POST /users.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body UserRequest
	if !readBody(w, r, &body) {
		return
	}

	u := domain.User{
		Username:  body.Username,
		Email:     body.Email,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		IsStaff:   body.IsStaff,
	}
	var profile *domain.Profile
	if body.Profile != nil {
		p := domain.Profile{
			PhoneNumber:        body.Profile.PhoneNumber,
			City:               body.Profile.City,
			Country:            body.Profile.Country,
			BudgetRange:        body.Profile.BudgetRange,
			EmailNotifications: true,
		}
		if body.Profile.EmailNotifications != nil {
			p.EmailNotifications = *body.Profile.EmailNotifications
		}
		if body.Profile.SMSNotifications != nil {
			p.SMSNotifications = *body.Profile.SMSNotifications
		}
		profile = &p
	}

	created, prof, err := s.users.Register(r.Context(), u, profile)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userToResponse(created, prof))
}

// GetMe handles GET /users/me.
func (s *Server) GetMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r)
	if !ok {
		return
	}
	u, p, err := s.users.Me(r.Context(), caller)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(u, p))
}

func userToResponse(u domain.User, p domain.Profile) User {
	return User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		IsStaff:   u.IsStaff,
		CreatedAt: u.CreatedAt,
		Profile: Profile{
			PhoneNumber:        p.PhoneNumber,
			City:               p.City,
			Country:            p.Country,
			BudgetRange:        p.BudgetRange,
			EmailNotifications: p.EmailNotifications,
			SMSNotifications:   p.SMSNotifications,
			IsComplete:         p.IsComplete(),
		},
	}
}

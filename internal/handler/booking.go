package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
)

// BookingRequest is the body of POST /bookings. UserID and TotalPrice are
// only honoured for staff callers.
type BookingRequest struct {
	TripID          uuid.UUID     `json:"trip_id"`
	UserID          *uuid.UUID    `json:"user_id,omitempty"`
	NumberOfPeople  int           `json:"number_of_people"`
	TotalPrice      *domain.Money `json:"total_price,omitempty"`
	SpecialRequests string        `json:"special_requests,omitempty"`
	ContactPhone    string        `json:"contact_phone,omitempty"`
	ContactEmail    string        `json:"contact_email,omitempty"`
}

// BookingUpdateRequest is the body of PATCH /bookings/{id}. Omitted fields
// are left unchanged.
type BookingUpdateRequest struct {
	NumberOfPeople  *int    `json:"number_of_people,omitempty"`
	SpecialRequests *string `json:"special_requests,omitempty"`
	ContactPhone    *string `json:"contact_phone,omitempty"`
	ContactEmail    *string `json:"contact_email,omitempty"`
}

// StatusRequest is the body of POST /bookings/{id}/status.
type StatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Booking is the API representation of a booking.
type Booking struct {
	ID               uuid.UUID            `json:"id"`
	UserID           uuid.UUID            `json:"user_id"`
	TripID           uuid.UUID            `json:"trip_id"`
	NumberOfPeople   int                  `json:"number_of_people"`
	TotalPrice       domain.Money         `json:"total_price"`
	Status           domain.BookingStatus `json:"status"`
	BookingDate      time.Time            `json:"booking_date"`
	ConfirmationDate *time.Time           `json:"confirmation_date,omitempty"`
	CancellationDate *time.Time           `json:"cancellation_date,omitempty"`
	SpecialRequests  string               `json:"special_requests,omitempty"`
	ContactPhone     string               `json:"contact_phone,omitempty"`
	ContactEmail     string               `json:"contact_email,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// HistoryEntry is the API representation of one audit trail row.
type HistoryEntry struct {
	ID        uuid.UUID             `json:"id"`
	BookingID uuid.UUID             `json:"booking_id"`
	OldStatus *domain.BookingStatus `json:"old_status"`
	NewStatus domain.BookingStatus  `json:"new_status"`
	ChangedBy *uuid.UUID            `json:"changed_by"`
	Reason    string                `json:"reason,omitempty"`
	ChangedAt time.Time             `json:"changed_at"`
}

// SweepResponse is the body of POST /admin/bookings/sweep.
type SweepResponse struct {
	Completed int `json:"completed"`
}

// CreateBooking handles POST /bookings.
func (s *Server) CreateBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r)
	if !ok {
		return
	}
	var body BookingRequest
	if !readBody(w, r, &body) {
		return
	}
	if body.TripID == uuid.Nil {
		badRequest(w, "trip_id is required")
		return
	}

	req := domain.BookingRequest{
		TripID:          body.TripID,
		NumberOfPeople:  body.NumberOfPeople,
		TotalPrice:      body.TotalPrice,
		SpecialRequests: body.SpecialRequests,
		ContactPhone:    body.ContactPhone,
		ContactEmail:    body.ContactEmail,
	}
	if body.UserID != nil {
		req.UserID = *body.UserID
	}

	created, err := s.bookings.Create(r.Context(), caller, req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookingToResponse(created))
}

// ListBookings handles GET /bookings. Supports ?page=, ?limit= and ?status=.
func (s *Server) ListBookings(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r)
	if !ok {
		return
	}
	p, ok := pageParams(w, r)
	if !ok {
		return
	}
	var status *string
	if err := runtime.BindQueryParameter("form", true, false, "status", r.URL.Query(), &status); err != nil {
		badRequest(w, "invalid status")
		return
	}

	var period *string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &period); err != nil {
		badRequest(w, "invalid period")
		return
	}

	var f domain.BookingFilter
	if status != nil && *status != "" {
		st, err := domain.ParseBookingStatus(strings.ToLower(*status))
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		f.Status = &st
	}
	if period != nil && *period != "" {
		when, err := domain.ParseBookingPeriod(strings.ToLower(*period))
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		f.Period = &when
	}

	bookings, total, err := s.bookings.List(r.Context(), caller, f, p)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(bookings, bookingToResponse, p, total))
}

// GetBooking handles GET /bookings/{id}.
func (s *Server) GetBooking(w http.ResponseWriter, r *http.Request) {
	s.withBooking(w, r, func(caller domain.Caller, id uuid.UUID) (domain.Booking, error) {
		return s.bookings.Get(r.Context(), caller, id)
	})
}

// UpdateBooking handles PATCH /bookings/{id}.
func (s *Server) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	var body BookingUpdateRequest
	if !readBody(w, r, &body) {
		return
	}
	s.withBooking(w, r, func(caller domain.Caller, id uuid.UUID) (domain.Booking, error) {
		return s.bookings.Update(r.Context(), caller, id, domain.BookingChanges{
			NumberOfPeople:  body.NumberOfPeople,
			SpecialRequests: body.SpecialRequests,
			ContactPhone:    body.ContactPhone,
			ContactEmail:    body.ContactEmail,
		})
	})
}

// CancelBooking handles POST /bookings/{id}/cancel.
func (s *Server) CancelBooking(w http.ResponseWriter, r *http.Request) {
	s.withBooking(w, r, func(caller domain.Caller, id uuid.UUID) (domain.Booking, error) {
		return s.bookings.Cancel(r.Context(), caller, id)
	})
}

// ConfirmBooking handles POST /bookings/{id}/confirm.
func (s *Server) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	s.withBooking(w, r, func(caller domain.Caller, id uuid.UUID) (domain.Booking, error) {
		return s.bookings.Confirm(r.Context(), caller, id)
	})
}

// SetBookingStatus handles POST /bookings/{id}/status.
func (s *Server) SetBookingStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body StatusRequest
	if !readBody(w, r, &body) {
		return
	}
	to, err := domain.ParseBookingStatus(strings.ToLower(strings.TrimSpace(body.Status)))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	updated, err := s.bookings.AdminSetStatus(r.Context(), caller, id, to, body.Reason)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingToResponse(updated))
}

// ListBookingHistory handles GET /bookings/{id}/history. Newest entry first.
func (s *Server) ListBookingHistory(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	entries, err := s.bookings.ListHistory(r.Context(), caller, id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	data := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		data[i] = historyToResponse(e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

// SweepExpiredBookings handles POST /admin/bookings/sweep.
func (s *Server) SweepExpiredBookings(w http.ResponseWriter, r *http.Request) {
	n, err := s.bookings.SweepExpired(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SweepResponse{Completed: n})
}

func (s *Server) withBooking(w http.ResponseWriter, r *http.Request, fn func(domain.Caller, uuid.UUID) (domain.Booking, error)) {
	caller, ok := callerOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := fn(caller, id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingToResponse(b))
}

// --- mapping helpers --------------------------------------------------------

func bookingToResponse(b domain.Booking) Booking {
	return Booking{
		ID:               b.ID,
		UserID:           b.UserID,
		TripID:           b.TripID,
		NumberOfPeople:   b.NumberOfPeople,
		TotalPrice:       b.TotalPrice,
		Status:           b.Status,
		BookingDate:      b.BookingDate,
		ConfirmationDate: b.ConfirmationDate,
		CancellationDate: b.CancellationDate,
		SpecialRequests:  b.SpecialRequests,
		ContactPhone:     b.ContactPhone,
		ContactEmail:     b.ContactEmail,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func historyToResponse(e domain.HistoryEntry) HistoryEntry {
	return HistoryEntry{
		ID:        e.ID,
		BookingID: e.BookingID,
		OldStatus: e.OldStatus,
		NewStatus: e.NewStatus,
		ChangedBy: e.ChangedBy,
		Reason:    e.Reason,
		ChangedAt: e.ChangedAt,
	}
}

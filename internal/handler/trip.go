package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
)

// TripRequest is the body of POST /trips and PUT /trips/{id}.
type TripRequest struct {
	Title       string             `json:"title"`
	Destination string             `json:"destination"`
	Description *string            `json:"description,omitempty"`
	Price       domain.Money       `json:"price"`
	MaxCapacity int                `json:"max_capacity"`
	StartDate   openapi_types.Date `json:"start_date"`
	EndDate     openapi_types.Date `json:"end_date"`
	IsActive    *bool              `json:"is_active,omitempty"`
}

// Trip is the API representation of a trip and its capacity ledger.
type Trip struct {
	ID              uuid.UUID          `json:"id"`
	Title           string             `json:"title"`
	Destination     string             `json:"destination"`
	Description     string             `json:"description,omitempty"`
	Price           domain.Money       `json:"price"`
	MaxCapacity     int                `json:"max_capacity"`
	CurrentBookings int                `json:"current_bookings"`
	AvailableSpots  int                `json:"available_spots"`
	IsFullyBooked   bool               `json:"is_fully_booked"`
	CanBook         bool               `json:"can_book"`
	IsPast          bool               `json:"is_past"`
	StartDate       openapi_types.Date `json:"start_date"`
	EndDate         openapi_types.Date `json:"end_date"`
	IsActive        bool               `json:"is_active"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body TripRequest
	if !readBody(w, r, &body) {
		return
	}

	created, err := s.trips.Create(r.Context(), requestToTrip(uuid.Nil, body))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.tripToResponse(created))
}

// ListTrips handles GET /trips.
// Supports ?page=, ?limit= and ?bookable=true to list only trips open for
// booking today.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	p, ok := pageParams(w, r)
	if !ok {
		return
	}
	var bookable *bool
	if err := runtime.BindQueryParameter("form", true, false, "bookable", r.URL.Query(), &bookable); err != nil {
		badRequest(w, "invalid bookable: must be true or false")
		return
	}

	trips, total, err := s.trips.List(r.Context(), bookable != nil && *bookable, p)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(trips, s.tripToResponse, p, total))
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tripToResponse(trip))
}

// UpdateTrip handles PUT /trips/{id}. The capacity ledger cannot be set
// through this endpoint.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body TripRequest
	if !readBody(w, r, &body) {
		return
	}

	updated, err := s.trips.Update(r.Context(), requestToTrip(id, body))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tripToResponse(updated))
}

// DeleteTrip handles DELETE /trips/{id}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.trips.Delete(r.Context(), id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

func requestToTrip(id uuid.UUID, body TripRequest) domain.Trip {
	t := domain.Trip{
		ID:          id,
		Title:       body.Title,
		Destination: body.Destination,
		Price:       body.Price,
		MaxCapacity: body.MaxCapacity,
		StartDate:   body.StartDate.Time,
		EndDate:     body.EndDate.Time,
		IsActive:    true,
	}
	if body.Description != nil {
		t.Description = *body.Description
	}
	if body.IsActive != nil {
		t.IsActive = *body.IsActive
	}
	return t
}

func (s *Server) tripToResponse(t domain.Trip) Trip {
	today := s.clock.Now()
	return Trip{
		ID:              t.ID,
		Title:           t.Title,
		Destination:     t.Destination,
		Description:     t.Description,
		Price:           t.Price,
		MaxCapacity:     t.MaxCapacity,
		CurrentBookings: t.CurrentBookings,
		AvailableSpots:  t.AvailableSpots(),
		IsFullyBooked:   t.IsFullyBooked(),
		CanBook:         t.CanBook(today),
		IsPast:          t.IsPast(today),
		StartDate:       openapi_types.Date{Time: t.StartDate},
		EndDate:         openapi_types.Date{Time: t.EndDate},
		IsActive:        t.IsActive,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

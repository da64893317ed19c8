package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/WuorBhang/alx-backend-travel-app/internal/middleware"
)

// Routes registers every endpoint. Health, the API document and trip reads
// are public; everything else requires a bearer token accepted by authn.
func (s *Server) Routes(authn func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Get("/trips", s.ListTrips)
	r.Get("/trips/{id}", s.GetTrip)

	r.Group(func(r chi.Router) {
		r.Use(authn)

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", s.CreateBooking)
			r.Get("/", s.ListBookings)
			r.Get("/{id}", s.GetBooking)
			r.Patch("/{id}", s.UpdateBooking)
			r.Post("/{id}/cancel", s.CancelBooking)
			r.Post("/{id}/confirm", s.ConfirmBooking)
			r.Post("/{id}/status", s.SetBookingStatus)
			r.Get("/{id}/history", s.ListBookingHistory)
		})
		r.Get("/users/me", s.GetMe)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff)

			r.Post("/trips", s.CreateTrip)
			r.Put("/trips/{id}", s.UpdateTrip)
			r.Delete("/trips/{id}", s.DeleteTrip)
			r.Post("/admin/bookings/sweep", s.SweepExpiredBookings)
			r.Post("/users", s.CreateUser)
		})
	})

	return r
}

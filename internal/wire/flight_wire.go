package wire

import (
	"net/http"

	"travel-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireFlight(
	r chi.Router,
	flightHandler *adaptor.FlightHandler,
	auth, admin func(http.Handler) http.Handler,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/flights", flightHandler.SearchFlights)
	r.Get("/api/flights/{id}", flightHandler.GetFlight)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/flights", func(r chi.Router) {
		r.Use(auth)  // Must be authenticated
		r.Use(admin) // Must be admin

		r.Post("/", flightHandler.CreateFlight)       // POST /api/admin/flights
		r.Put("/{id}", flightHandler.UpdateFlight)    // PUT /api/admin/flights/{id}
		r.Delete("/{id}", flightHandler.DeleteFlight) // DELETE /api/admin/flights/{id}
	})
}

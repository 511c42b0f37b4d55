package wire

import (
	"net/http"

	"travel-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireHotel(
	r chi.Router,
	hotelHandler *adaptor.HotelHandler,
	auth, admin func(http.Handler) http.Handler,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/hotels", hotelHandler.SearchHotels)
	r.Get("/api/hotels/{id}", hotelHandler.GetHotel)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/hotels", func(r chi.Router) {
		r.Use(auth)  // Must be authenticated
		r.Use(admin) // Must be admin

		r.Post("/", hotelHandler.CreateHotel)       // POST /api/admin/hotels
		r.Put("/{id}", hotelHandler.UpdateHotel)    // PUT /api/admin/hotels/{id}
		r.Delete("/{id}", hotelHandler.DeleteHotel) // DELETE /api/admin/hotels/{id}
	})
}

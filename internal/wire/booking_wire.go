package wire

import (
	"net/http"

	"travel-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	auth, admin func(http.Handler) http.Handler,
) {
	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Post("/api/bookings", bookingHandler.CreateBooking)
		r.Get("/api/bookings/{id}", bookingHandler.GetBooking)
		r.Post("/api/bookings/{id}/cancel", bookingHandler.CancelBooking)
		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/bookings", func(r chi.Router) {
		r.Use(auth)
		r.Use(admin)

		r.Post("/{id}/confirm", bookingHandler.ConfirmBooking)
		r.Get("/status/{status}", bookingHandler.GetBookingsByStatus)
	})
}

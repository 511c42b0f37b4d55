package wire

import (
	"net/http"

	"travel-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	auth, admin func(http.Handler) http.Handler,
) {
	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Post("/api/payments", paymentHandler.ProcessPayment)
		r.Get("/api/payments/{id}", paymentHandler.GetPayment)
		r.Get("/api/user/payments", paymentHandler.GetUserPayments)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/payments", func(r chi.Router) {
		r.Use(auth)
		r.Use(admin)

		r.Get("/status/{status}", paymentHandler.GetPaymentsByStatus)
		r.Get("/revenue", paymentHandler.GetTotalRevenue)
	})
}

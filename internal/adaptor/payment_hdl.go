package adaptor

import (
	"encoding/json"
	"net/http"

	"travel-booking/internal/dto/request"
	"travel-booking/internal/usecase"
	"travel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// ProcessPayment handles POST /api/payments (protected). A failed settlement
// is still a 200: the payment record carries the outcome.
func (h *PaymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.ProcessPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	payment, err := h.service.ProcessPayment(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "process payment")
		return
	}

	utils.ResponseSuccess(w, "Payment processed", payment)
}

// GetPayment handles GET /api/payments/{id} (owner or admin)
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	id, ok := pathID(w, r, "payment")
	if !ok {
		return
	}

	payment, err := h.service.GetPaymentByID(r.Context(), id, userID, utils.IsAdmin(r.Context()))
	if err != nil {
		handleServiceError(w, h.log, err, "get payment")
		return
	}

	utils.ResponseSuccess(w, "success", payment)
}

// GetUserPayments handles GET /api/user/payments (protected)
func (h *PaymentHandler) GetUserPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	payments, err := h.service.GetUserPayments(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "get user payments")
		return
	}

	utils.ResponseSuccess(w, "success", payments)
}

// GetPaymentsByStatus handles GET /api/admin/payments/status/{status}
func (h *PaymentHandler) GetPaymentsByStatus(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.GetPaymentsByStatus(r.Context(), chi.URLParam(r, "status"))
	if err != nil {
		handleServiceError(w, h.log, err, "get payments by status")
		return
	}

	utils.ResponseSuccess(w, "success", payments)
}

// GetTotalRevenue handles GET /api/admin/payments/revenue?start_date=&end_date=
func (h *PaymentHandler) GetTotalRevenue(w http.ResponseWriter, r *http.Request) {
	req := &request.RevenueRequest{
		StartDate: queryString(r, "start_date"),
		EndDate:   queryString(r, "end_date"),
	}

	revenue, err := h.service.GetTotalRevenue(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "get total revenue")
		return
	}

	utils.ResponseSuccess(w, "success", revenue)
}

package adaptor

import (
	"encoding/json"
	"net/http"

	"travel-booking/internal/dto/request"
	"travel-booking/internal/usecase"
	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

type FlightHandler struct {
	service usecase.FlightService
	log     *zap.Logger
}

func NewFlightHandler(service usecase.FlightService, log *zap.Logger) *FlightHandler {
	return &FlightHandler{
		service: service,
		log:     log.With(zap.String("handler", "flight")),
	}
}

// SearchFlights handles GET /api/flights (public)
func (h *FlightHandler) SearchFlights(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	maxPrice, err := queryFloat(r, "max_price")
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid max_price", nil)
		return
	}

	req := &request.FlightSearchRequest{
		Origin:        query.Get("origin"),
		Destination:   query.Get("destination"),
		DepartureDate: queryString(r, "departure_date"),
		MaxPrice:      maxPrice,
	}
	req.Page = utils.ParseInt(query.Get("page"), 1)
	req.PerPage = utils.ParseInt(query.Get("per_page"), utils.DefaultPerPage)

	flights, err := h.service.SearchFlights(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "search flights")
		return
	}

	utils.ResponseSuccess(w, "success", flights)
}

// GetFlight handles GET /api/flights/{id} (public)
func (h *FlightHandler) GetFlight(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "flight")
	if !ok {
		return
	}

	flight, err := h.service.GetFlightByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.log, err, "get flight")
		return
	}

	utils.ResponseSuccess(w, "success", flight)
}

// CreateFlight handles POST /api/admin/flights
func (h *FlightHandler) CreateFlight(w http.ResponseWriter, r *http.Request) {
	var req request.FlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	flight, err := h.service.CreateFlight(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create flight")
		return
	}

	utils.ResponseCreated(w, "Flight created", flight)
}

// UpdateFlight handles PUT /api/admin/flights/{id}
func (h *FlightHandler) UpdateFlight(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "flight")
	if !ok {
		return
	}

	var req request.FlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	flight, err := h.service.UpdateFlight(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update flight")
		return
	}

	utils.ResponseSuccess(w, "Flight updated", flight)
}

// DeleteFlight handles DELETE /api/admin/flights/{id}
func (h *FlightHandler) DeleteFlight(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "flight")
	if !ok {
		return
	}

	if err := h.service.DeleteFlight(r.Context(), id); err != nil {
		handleServiceError(w, h.log, err, "delete flight")
		return
	}

	utils.ResponseSuccess(w, "Flight deleted", nil)
}

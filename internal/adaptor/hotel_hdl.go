package adaptor

import (
	"encoding/json"
	"net/http"

	"travel-booking/internal/dto/request"
	"travel-booking/internal/usecase"
	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

type HotelHandler struct {
	service usecase.HotelService
	log     *zap.Logger
}

func NewHotelHandler(service usecase.HotelService, log *zap.Logger) *HotelHandler {
	return &HotelHandler{
		service: service,
		log:     log.With(zap.String("handler", "hotel")),
	}
}

// SearchHotels handles GET /api/hotels (public)
func (h *HotelHandler) SearchHotels(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	maxPrice, err := queryFloat(r, "max_price")
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid max_price", nil)
		return
	}

	minRating, err := queryFloat(r, "min_rating")
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid min_rating", nil)
		return
	}

	req := &request.HotelSearchRequest{
		Location:  query.Get("location"),
		MaxPrice:  maxPrice,
		MinRating: minRating,
	}
	req.Page = utils.ParseInt(query.Get("page"), 1)
	req.PerPage = utils.ParseInt(query.Get("per_page"), utils.DefaultPerPage)

	hotels, err := h.service.SearchHotels(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "search hotels")
		return
	}

	utils.ResponseSuccess(w, "success", hotels)
}

// GetHotel handles GET /api/hotels/{id} (public)
func (h *HotelHandler) GetHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "hotel")
	if !ok {
		return
	}

	hotel, err := h.service.GetHotelByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.log, err, "get hotel")
		return
	}

	utils.ResponseSuccess(w, "success", hotel)
}

// CreateHotel handles POST /api/admin/hotels
func (h *HotelHandler) CreateHotel(w http.ResponseWriter, r *http.Request) {
	var req request.HotelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	hotel, err := h.service.CreateHotel(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create hotel")
		return
	}

	utils.ResponseCreated(w, "Hotel created", hotel)
}

// UpdateHotel handles PUT /api/admin/hotels/{id}
func (h *HotelHandler) UpdateHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "hotel")
	if !ok {
		return
	}

	var req request.HotelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	hotel, err := h.service.UpdateHotel(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update hotel")
		return
	}

	utils.ResponseSuccess(w, "Hotel updated", hotel)
}

// DeleteHotel handles DELETE /api/admin/hotels/{id}
func (h *HotelHandler) DeleteHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "hotel")
	if !ok {
		return
	}

	if err := h.service.DeleteHotel(r.Context(), id); err != nil {
		handleServiceError(w, h.log, err, "delete hotel")
		return
	}

	utils.ResponseSuccess(w, "Hotel deleted", nil)
}

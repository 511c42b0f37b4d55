package response

import "travel-booking/internal/data/entity"

type HotelResponse struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Location       string  `json:"location"`
	Description    string  `json:"description"`
	PricePerNight  float64 `json:"price_per_night"`
	RoomsAvailable int     `json:"rooms_available"`
	Rating         float64 `json:"rating"`
	Amenities      string  `json:"amenities"`
}

func HotelToResponse(h *entity.Hotel) HotelResponse {
	return HotelResponse{
		ID:             h.ID,
		Name:           h.Name,
		Location:       h.Location,
		Description:    h.Description,
		PricePerNight:  h.PricePerNight.Float64(),
		RoomsAvailable: h.RoomsAvailable,
		Rating:         h.Rating,
		Amenities:      h.Amenities,
	}
}

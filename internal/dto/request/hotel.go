package request

type HotelRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Location       string  `json:"location" validate:"required,max=200"`
	Description    string  `json:"description" validate:"max=2000"`
	PricePerNight  float64 `json:"price_per_night" validate:"gt=0,lte=100000"`
	RoomsAvailable int     `json:"rooms_available" validate:"min=0,max=10000"`
	Rating         float64 `json:"rating" validate:"min=0,max=5"`
	Amenities      string  `json:"amenities" validate:"max=1000"`
}

type HotelSearchRequest struct {
	Location  string   `json:"location"`
	MaxPrice  *float64 `json:"max_price" validate:"omitempty,gt=0"`
	MinRating *float64 `json:"min_rating" validate:"omitempty,min=0,max=5"`
	PaginatedRequest
}

package request

type FlightRequest struct {
	Airline        string  `json:"airline" validate:"required,max=100"`
	FlightNumber   string  `json:"flight_number" validate:"required,max=20"`
	Origin         string  `json:"origin" validate:"required,max=100"`
	Destination    string  `json:"destination" validate:"required,max=100,nefield=Origin"`
	DepartureTime  string  `json:"departure_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	ArrivalTime    string  `json:"arrival_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Price          float64 `json:"price" validate:"gt=0,lte=100000"`
	AvailableSeats int     `json:"available_seats" validate:"min=0,max=1000"`
}

type FlightSearchRequest struct {
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	DepartureDate *string  `json:"departure_date" validate:"omitempty,datetime=2006-01-02"`
	MaxPrice      *float64 `json:"max_price" validate:"omitempty,gt=0"`
	PaginatedRequest
}

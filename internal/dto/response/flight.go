package response

import (
	"time"

	"travel-booking/internal/data/entity"
)

type FlightResponse struct {
	ID             int64     `json:"id"`
	Airline        string    `json:"airline"`
	FlightNumber   string    `json:"flight_number"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DepartureTime  time.Time `json:"departure_time"`
	ArrivalTime    time.Time `json:"arrival_time"`
	Price          float64   `json:"price"`
	AvailableSeats int       `json:"available_seats"`
}

func FlightToResponse(f *entity.Flight) FlightResponse {
	return FlightResponse{
		ID:             f.ID,
		Airline:        f.Airline,
		FlightNumber:   f.FlightNumber,
		Origin:         f.Origin,
		Destination:    f.Destination,
		DepartureTime:  f.DepartureTime,
		ArrivalTime:    f.ArrivalTime,
		Price:          f.Price.Float64(),
		AvailableSeats: f.AvailableSeats,
	}
}

package entity

import "time"

type Flight struct {
	Base
	Airline        string    `db:"airline"`
	FlightNumber   string    `db:"flight_number"`
	Origin         string    `db:"origin"`
	Destination    string    `db:"destination"`
	DepartureTime  time.Time `db:"departure_time"`
	ArrivalTime    time.Time `db:"arrival_time"`
	Price          Money     `db:"price_cents"`
	AvailableSeats int       `db:"available_seats"`
}

// DisplayName is how a flight is referred to on bookings and payments.
func (f *Flight) DisplayName() string {
	return f.Airline + " " + f.FlightNumber
}

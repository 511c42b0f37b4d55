package entity

type Hotel struct {
	Base
	Name           string  `db:"name"`
	Location       string  `db:"location"`
	Description    string  `db:"description"`
	PricePerNight  Money   `db:"price_per_night_cents"`
	RoomsAvailable int     `db:"rooms_available"`
	Rating         float64 `db:"rating"`
	Amenities      string  `db:"amenities"`
}

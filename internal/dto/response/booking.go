package response

import (
	"time"

	"travel-booking/internal/data/entity"
)

const (
	FlightNotFound = "Flight not found"
	HotelNotFound  = "Hotel not found"
	UnknownUser    = "Unknown User"
)

type BookingResponse struct {
	ID             int64                `json:"id"`
	UserID         string               `json:"user_id"`
	UserName       string               `json:"user_name"`
	Type           entity.BookingType   `json:"type"`
	ReferenceID    int64                `json:"reference_id"`
	ReferenceName  string               `json:"reference_name"`
	CheckInDate    *string              `json:"check_in_date"`
	CheckOutDate   *string              `json:"check_out_date"`
	NumberOfGuests int                  `json:"number_of_guests"`
	Status         entity.BookingStatus `json:"status"`
	DateBooked     time.Time            `json:"date_booked"`
	TotalAmount    float64              `json:"total_amount"`
	PaymentStatus  entity.PaymentStatus `json:"payment_status"`
}

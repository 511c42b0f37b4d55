package request

import "travel-booking/internal/data/entity"

type CreateBookingRequest struct {
	Type           entity.BookingType `json:"type" validate:"required,oneof=flight hotel"`
	ReferenceID    int64              `json:"reference_id" validate:"required,gt=0"`
	CheckInDate    *string            `json:"check_in_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CheckOutDate   *string            `json:"check_out_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	NumberOfGuests int                `json:"number_of_guests" validate:"min=1,max=10"`
}

// ApplyDefaults fills fields the client may omit.
func (r *CreateBookingRequest) ApplyDefaults() {
	if r.NumberOfGuests == 0 {
		r.NumberOfGuests = 1
	}
}

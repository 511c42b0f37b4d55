package request

import "travel-booking/internal/data/entity"

type ProcessPaymentRequest struct {
	BookingID     int64   `json:"booking_id" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"required,max=50"`
	Amount        float64 `json:"amount" validate:"gt=0,lte=100000"`
}

func (r *ProcessPaymentRequest) ApplyDefaults() {
	if r.PaymentMethod == "" {
		r.PaymentMethod = entity.DefaultPaymentMethod
	}
}

type RevenueRequest struct {
	StartDate *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

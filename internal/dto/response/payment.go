package response

import (
	"time"

	"travel-booking/internal/data/entity"
)

type PaymentResponse struct {
	ID            int64                `json:"id"`
	BookingID     int64                `json:"booking_id"`
	UserID        string               `json:"user_id"`
	UserName      string               `json:"user_name"`
	BookingType   entity.BookingType   `json:"booking_type"`
	ReferenceName string               `json:"reference_name"`
	Amount        float64              `json:"amount"`
	PaymentStatus entity.PaymentStatus `json:"payment_status"`
	PaymentDate   time.Time            `json:"payment_date"`
	PaymentMethod string               `json:"payment_method"`
	TransactionID string               `json:"transaction_id"`
}

type RevenueResponse struct {
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	TotalRevenue float64 `json:"total_revenue"`
}

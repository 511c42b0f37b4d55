package event

import (
	"time"

	"travel-booking/internal/data/entity"

	"github.com/google/uuid"
)

type Type string

const (
	BookingCreated   Type = "booking.created"
	BookingConfirmed Type = "booking.confirmed"
	BookingCancelled Type = "booking.cancelled"
	PaymentCompleted Type = "payment.completed"
	PaymentFailed    Type = "payment.failed"
)

// BookingEvent is published after a booking or payment change commits.
type BookingEvent struct {
	ID            uuid.UUID            `json:"id"`
	Type          Type                 `json:"type"`
	BookingID     int64                `json:"booking_id"`
	UserID        string               `json:"user_id"`
	BookingType   entity.BookingType   `json:"booking_type"`
	ReferenceID   int64                `json:"reference_id"`
	Status        entity.BookingStatus `json:"status"`
	PaymentStatus entity.PaymentStatus `json:"payment_status,omitempty"`
	TransactionID string               `json:"transaction_id,omitempty"`
	Amount        float64              `json:"amount,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func NewBookingEvent(t Type, b *entity.Booking) BookingEvent {
	return BookingEvent{
		ID:          uuid.New(),
		Type:        t,
		BookingID:   b.ID,
		UserID:      b.UserID,
		BookingType: b.Type,
		ReferenceID: b.ReferenceID,
		Status:      b.Status,
		OccurredAt:  time.Now().UTC(),
	}
}

// NewPaymentEvent derives the event type from the settled payment status.
func NewPaymentEvent(b *entity.Booking, p *entity.Payment) BookingEvent {
	t := PaymentFailed
	if p.Status == entity.PaymentStatusCompleted {
		t = PaymentCompleted
	}
	evt := NewBookingEvent(t, b)
	evt.PaymentStatus = p.Status
	evt.TransactionID = p.TransactionID
	evt.Amount = p.Amount.Float64()
	return evt
}

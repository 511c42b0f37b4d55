package entity

import (
	"time"
)

type BookingType string

const (
	BookingTypeFlight BookingType = "flight"
	BookingTypeHotel  BookingType = "hotel"
)

func (t BookingType) Valid() bool {
	return t == BookingTypeFlight || t == BookingTypeHotel
}

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Cancelled and completed are terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Active bookings block a second booking of the same item by the same user.
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

type Booking struct {
	ID             int64         `db:"id"`
	UserID         string        `db:"user_id"`
	Type           BookingType   `db:"type"`
	ReferenceID    int64         `db:"reference_id"`
	CheckInDate    *time.Time    `db:"check_in_date"`
	CheckOutDate   *time.Time    `db:"check_out_date"`
	NumberOfGuests int           `db:"number_of_guests"`
	Status         BookingStatus `db:"status"`
	DateBooked     time.Time     `db:"date_booked"`
	UpdatedAt      time.Time     `db:"updated_at"`
}

func (b *Booking) HasStayDates() bool {
	return b.CheckInDate != nil && b.CheckOutDate != nil
}

// Nights returns the whole days between check-in and check-out, or 0 when
// either date is missing.
func (b *Booking) Nights() int {
	if !b.HasStayDates() {
		return 0
	}
	in := truncateDay(*b.CheckInDate)
	out := truncateDay(*b.CheckOutDate)
	return int((out.Unix() - in.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/response"
	"travel-booking/pkg/utils"
)

type reference struct {
	Name   string
	Amount entity.Money
	Found  bool
}

// resolveReference names the booked item and prices the booking. A deleted
// item resolves to a sentinel name with a zero amount.
func resolveReference(ctx context.Context, repo *repository.Repository, b *entity.Booking) (reference, error) {
	switch b.Type {
	case entity.BookingTypeFlight:
		flight, err := repo.Flight.FindByID(ctx, b.ReferenceID)
		if err != nil {
			return reference{}, err
		}
		if flight == nil {
			return reference{Name: response.FlightNotFound}, nil
		}
		return reference{Name: flight.DisplayName(), Amount: flight.Price, Found: true}, nil

	case entity.BookingTypeHotel:
		hotel, err := repo.Hotel.FindByID(ctx, b.ReferenceID)
		if err != nil {
			return reference{}, err
		}
		if hotel == nil {
			return reference{Name: response.HotelNotFound}, nil
		}
		return reference{Name: hotel.Name, Amount: stayPrice(hotel, b), Found: true}, nil
	}

	return reference{}, fmt.Errorf("booking %d has unknown type %q", b.ID, b.Type)
}

// stayPrice charges per night when both dates are known and one night
// otherwise.
func stayPrice(hotel *entity.Hotel, b *entity.Booking) entity.Money {
	if !b.HasStayDates() {
		return hotel.PricePerNight
	}
	return hotel.PricePerNight.Times(b.Nights())
}

func userDisplayName(ctx context.Context, repo *repository.Repository, userID string) (string, error) {
	user, err := repo.User.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return response.UnknownUser, nil
	}
	return user.FullName(), nil
}

func buildBookingResponse(ctx context.Context, repo *repository.Repository, b *entity.Booking) (*response.BookingResponse, error) {
	ref, err := resolveReference(ctx, repo, b)
	if err != nil {
		return nil, fmt.Errorf("resolve reference of booking %d: %w", b.ID, err)
	}

	userName, err := userDisplayName(ctx, repo, b.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve user of booking %d: %w", b.ID, err)
	}

	payment, err := repo.Payment.FindByBookingID(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve payment of booking %d: %w", b.ID, err)
	}

	paymentStatus := entity.PaymentStatusPending
	if payment != nil {
		paymentStatus = payment.Status
	}

	resp := &response.BookingResponse{
		ID:             b.ID,
		UserID:         b.UserID,
		UserName:       userName,
		Type:           b.Type,
		ReferenceID:    b.ReferenceID,
		ReferenceName:  ref.Name,
		NumberOfGuests: b.NumberOfGuests,
		Status:         b.Status,
		DateBooked:     b.DateBooked,
		TotalAmount:    ref.Amount.Float64(),
		PaymentStatus:  paymentStatus,
	}

	// flights never expose stay dates
	if b.Type == entity.BookingTypeHotel {
		resp.CheckInDate = formatDate(b.CheckInDate)
		resp.CheckOutDate = formatDate(b.CheckOutDate)
	}

	return resp, nil
}

func buildPaymentResponse(ctx context.Context, repo *repository.Repository, p *entity.Payment, b *entity.Booking) (*response.PaymentResponse, error) {
	ref, err := resolveReference(ctx, repo, b)
	if err != nil {
		return nil, fmt.Errorf("resolve reference of payment %d: %w", p.ID, err)
	}

	userName, err := userDisplayName(ctx, repo, b.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve user of payment %d: %w", p.ID, err)
	}

	return &response.PaymentResponse{
		ID:            p.ID,
		BookingID:     p.BookingID,
		UserID:        b.UserID,
		UserName:      userName,
		BookingType:   b.Type,
		ReferenceName: ref.Name,
		Amount:        p.Amount.Float64(),
		PaymentStatus: p.Status,
		PaymentDate:   p.PaymentDate,
		PaymentMethod: p.Method,
		TransactionID: p.TransactionID,
	}, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(utils.DateLayout)
	return &s
}

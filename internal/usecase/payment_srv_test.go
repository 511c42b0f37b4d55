package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/dto/request"
	"travel-booking/internal/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingFlightBooking(f *fixture, userID string, flightID int64) int64 {
	return f.store.addBooking(entity.Booking{
		UserID:         userID,
		Type:           entity.BookingTypeFlight,
		ReferenceID:    flightID,
		NumberOfGuests: 1,
		Status:         entity.BookingStatusPending,
	})
}

func TestProcessPayment_LastSeat(t *testing.T) {
	f := newFixture(t, settleAlways(entity.PaymentStatusCompleted), nil)
	flightID := f.store.addFlight(testFlight(1, 499.99))
	bookingID := pendingFlightBooking(f, "user-1", flightID)

	resp, err := f.payments.ProcessPayment(context.Background(), "user-1", &request.ProcessPaymentRequest{
		BookingID: bookingID,
		Amount:    499.99,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.PaymentStatusCompleted, resp.PaymentStatus)
	assert.Equal(t, 499.99, resp.Amount)
	assert.Equal(t, entity.DefaultPaymentMethod, resp.PaymentMethod)
	assert.NotEmpty(t, resp.TransactionID)
	assert.Equal(t, "Ada Lovelace", resp.UserName)
	assert.Equal(t, entity.BookingTypeFlight, resp.BookingType)

	assert.Equal(t, entity.BookingStatusConfirmed, f.store.booking(bookingID).Status)
	assert.Equal(t, 0, f.store.flight(flightID).AvailableSeats)
	assert.Contains(t, f.cache.invalidated, flightsKind)
	assert.Equal(t, []event.Type{event.PaymentCompleted}, f.events.types())
}

func TestProcessPayment_HotelAmountMustMatchNights(t *testing.T) {
	f := newFixture(t, nil, nil)
	hotelID := f.store.addHotel(testHotel(4, 100))
	in := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	out := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	bookingID := f.store.addBooking(entity.Booking{
		UserID: "user-1", Type: entity.BookingTypeHotel, ReferenceID: hotelID,
		CheckInDate: &in, CheckOutDate: &out, NumberOfGuests: 2, Status: entity.BookingStatusPending,
	})
	ctx := context.Background()

	_, err := f.payments.ProcessPayment(ctx, "user-1", &request.ProcessPaymentRequest{BookingID: bookingID, PaymentMethod: "Card", Amount: 250})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "invalid payment amount, expected 300.00, provided 250.00", Message(err))
	assert.Equal(t, 0, f.store.paymentCount())
	assert.Equal(t, 4, f.store.hotel(hotelID).RoomsAvailable)

	resp, err := f.payments.ProcessPayment(ctx, "user-1", &request.ProcessPaymentRequest{BookingID: bookingID, PaymentMethod: "Card", Amount: 300})
	require.NoError(t, err)
	assert.Equal(t, 300.0, resp.Amount)
	assert.Equal(t, 3, f.store.hotel(hotelID).RoomsAvailable)
}

func TestProcessPayment_AmountIsExact(t *testing.T) {
	f := newFixture(t, nil, nil)
	flightID := f.store.addFlight(testFlight(3, 499.99))
	bookingID := pendingFlightBooking(f, "user-1", flightID)

	_, err := f.payments.ProcessPayment(context.Background(), "user-1", &request.ProcessPaymentRequest{BookingID: bookingID, PaymentMethod: "Card", Amount: 499.98})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestProcessPayment_FailedThenRetry(t *testing.T) {
	settler := &fixedSettler{outcomes: []entity.PaymentStatus{entity.PaymentStatusFailed, entity.PaymentStatusCompleted}}
	f := newFixture(t, settler, nil)
	flightID := f.store.addFlight(testFlight(2, 150))
	bookingID := pendingFlightBooking(f, "user-1", flightID)
	ctx := context.Background()
	req := &request.ProcessPaymentRequest{BookingID: bookingID, PaymentMethod: "Card", Amount: 150}

	first, err := f.payments.ProcessPayment(ctx, "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusFailed, first.PaymentStatus)
	assert.Equal(t, entity.BookingStatusPending, f.store.booking(bookingID).Status)
	assert.Equal(t, 2, f.store.flight(flightID).AvailableSeats)

	second, err := f.payments.ProcessPayment(ctx, "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusCompleted, second.PaymentStatus)
	assert.Equal(t, first.ID, second.ID, "retry updates the payment in place")
	assert.NotEqual(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, 1, f.store.paymentCount())
	assert.Equal(t, entity.BookingStatusConfirmed, f.store.booking(bookingID).Status)
	assert.Equal(t, 1, f.store.flight(flightID).AvailableSeats)

	assert.Equal(t, []event.Type{event.PaymentFailed, event.PaymentCompleted}, f.events.types())
}

func TestProcessPayment_RetryAfterRepriceConflicts(t *testing.T) {
	settler := &fixedSettler{outcomes: []entity.PaymentStatus{entity.PaymentStatusFailed, entity.PaymentStatusCompleted}}
	f := newFixture(t, settler, nil)
	flightID := f.store.addFlight(testFlight(2, 150))
	bookingID := pendingFlightBooking(f, "user-1", flightID)
	ctx := context.Background()

	_, err := f.payments.ProcessPayment(ctx, "user-1", &request.ProcessPaymentRequest{BookingID: bookingID, PaymentMethod: "Card", Amount: 150})
	require.NoError(t, err)

	f.store.repriceFlight(flightID, entity.MoneyFromFloat(175))

	_, err = f.payments.ProcessPayment(ctx, "user-1", &request.ProcessPaymentRequest{BookingID: bookingID, PaymentMethod: "Card", Amount: 175})
	assert.ErrorIs(t, err, ErrConflict)

	payment, ok := f.store.paymentOf(bookingID)
	require.True(t, ok)
	assert.Equal(t, entity.MoneyFromFloat(150), payment.Amount)
	assert.Equal(t, entity.PaymentStatusFailed, payment.Status)
	assert.Equal(t, entity.BookingStatusPending, f.store.booking(bookingID).Status)
	assert.Equal(t, 2, f.store.flight(flightID).AvailableSeats)
}

func TestProcessPayment_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("missing booking", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		_, err := f.payments.ProcessPayment(ctx, "user-1", &request.ProcessPaymentRequest{BookingID: 77, PaymentMethod: "Card", Amount: 10})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("not the owner", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		bookingID := pendingFlightBooking(f, "user-1", f.store.addFlight(testFlight(2, 10)))
		_, err := f.payments.ProcessPayment(ctx, "user-2", &request.ProcessPaymentRequest{BookingID: bookingID, PaymentMethod: "Card", Amount: 10})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("cancelled booking", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		bookingID := f.store.addBooking(entity.Booking{
			UserID: "user-1", Type: entity.BookingTypeFlight, ReferenceID: f.store.addFlight(testFlight(2, 10)),
			NumberOfGuests: 1, Status: entity.BookingStatusCancelled,
		})
		_, err := f.payments.ProcessPayment(ctx, "user-1", &request.ProcessPaymentRequest{BookingID: bookingID, PaymentMethod: "Card", Amount: 10})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("already paid", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		flightID := f.store.addFlight(testFlight(2, 10))
		bookingID := pendingFlightBooking(f, "user-1", flightID)
		req := &request.ProcessPaymentRequest{BookingID: bookingID, PaymentMethod: "Card", Amount: 10}

		_, err := f.payments.ProcessPayment(ctx, "user-1", req)
		require.NoError(t, err)
		_, err = f.payments.ProcessPayment(ctx, "user-1", req)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, 1, f.store.flight(flightID).AvailableSeats)
	})

	t.Run("inventory item deleted", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		flightID := f.store.addFlight(testFlight(2, 10))
		bookingID := pendingFlightBooking(f, "user-1", flightID)
		f.store.deleteFlight(flightID)

		_, err := f.payments.ProcessPayment(ctx, "user-1", &request.ProcessPaymentRequest{BookingID: bookingID, PaymentMethod: "Card", Amount: 10})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid request", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		_, err := f.payments.ProcessPayment(ctx, "user-1", &request.ProcessPaymentRequest{BookingID: 0, Amount: -1})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestProcessPayment_SoldOutRollsBack(t *testing.T) {
	f := newFixture(t, nil, nil)
	flightID := f.store.addFlight(testFlight(0, 80))
	bookingID := pendingFlightBooking(f, "user-1", flightID)

	_, err := f.payments.ProcessPayment(context.Background(), "user-1", &request.ProcessPaymentRequest{BookingID: bookingID, PaymentMethod: "Card", Amount: 80})
	assert.ErrorIs(t, err, ErrConflict)

	assert.Equal(t, 0, f.store.paymentCount(), "payment row rolled back with the failed reservation")
	assert.Equal(t, entity.BookingStatusPending, f.store.booking(bookingID).Status)
	assert.Equal(t, 0, f.store.flight(flightID).AvailableSeats)
}

func TestProcessPayment_AdminConfirmedHoldsItsUnit(t *testing.T) {
	f := newFixture(t, nil, nil)
	flightID := f.store.addFlight(testFlight(2, 80))
	bookingID := pendingFlightBooking(f, "user-1", flightID)
	ctx := context.Background()

	require.NoError(t, f.bookings.ConfirmBooking(ctx, bookingID))
	require.Equal(t, 1, f.store.flight(flightID).AvailableSeats)

	resp, err := f.payments.ProcessPayment(ctx, "user-1", &request.ProcessPaymentRequest{BookingID: bookingID, PaymentMethod: "Card", Amount: 80})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusCompleted, resp.PaymentStatus)
	assert.Equal(t, 1, f.store.flight(flightID).AvailableSeats)
}

func TestProcessPayment_ConcurrentLastSeat(t *testing.T) {
	f := newFixture(t, settleAlways(entity.PaymentStatusCompleted), nil)
	flightID := f.store.addFlight(testFlight(1, 499.99))

	users := []string{"user-1", "user-2"}
	bookings := make([]int64, len(users))
	for i, u := range users {
		bookings[i] = pendingFlightBooking(f, u, flightID)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(users))
	for i, u := range users {
		i, u := i, u
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.payments.ProcessPayment(context.Background(), u, &request.ProcessPaymentRequest{
				BookingID: bookings[i], PaymentMethod: "Card", Amount: 499.99,
			})
		}()
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrConflict):
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)
	assert.Equal(t, 0, f.store.flight(flightID).AvailableSeats)

	var confirmed int
	for _, id := range bookings {
		if f.store.booking(id).Status == entity.BookingStatusConfirmed {
			confirmed++
		}
	}
	assert.Equal(t, 1, confirmed)
}

func TestPaymentReads(t *testing.T) {
	f := newFixture(t, nil, nil)
	flightID := f.store.addFlight(testFlight(5, 40))
	ctx := context.Background()

	b1 := pendingFlightBooking(f, "user-1", flightID)
	b2 := pendingFlightBooking(f, "user-2", flightID)
	p1, err := f.payments.ProcessPayment(ctx, "user-1", &request.ProcessPaymentRequest{BookingID: b1, PaymentMethod: "Card", Amount: 40})
	require.NoError(t, err)
	_, err = f.payments.ProcessPayment(ctx, "user-2", &request.ProcessPaymentRequest{BookingID: b2, PaymentMethod: "Card", Amount: 40})
	require.NoError(t, err)

	got, err := f.payments.GetPaymentByID(ctx, p1.ID, "user-1", false)
	require.NoError(t, err)
	assert.Equal(t, b1, got.BookingID)

	_, err = f.payments.GetPaymentByID(ctx, p1.ID, "user-2", false)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.payments.GetPaymentByID(ctx, p1.ID, "admin", true)
	assert.NoError(t, err)
	_, err = f.payments.GetPaymentByID(ctx, 999, "user-1", false)
	assert.ErrorIs(t, err, ErrNotFound)

	mine, err := f.payments.GetUserPayments(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	completed, err := f.payments.GetPaymentsByStatus(ctx, "completed")
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	_, err = f.payments.GetPaymentsByStatus(ctx, "lost")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGetTotalRevenue(t *testing.T) {
	f := newFixture(t, nil, nil)
	flightID := f.store.addFlight(testFlight(5, 40.5))
	ctx := context.Background()

	for _, u := range []string{"user-1", "user-2"} {
		id := pendingFlightBooking(f, u, flightID)
		_, err := f.payments.ProcessPayment(ctx, u, &request.ProcessPaymentRequest{BookingID: id, PaymentMethod: "Card", Amount: 40.5})
		require.NoError(t, err)
	}

	all, err := f.payments.GetTotalRevenue(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 81.0, all.TotalRevenue)

	today := time.Now().UTC().Format("2006-01-02")
	bounded, err := f.payments.GetTotalRevenue(ctx, &request.RevenueRequest{StartDate: &today, EndDate: &today})
	require.NoError(t, err)
	assert.Equal(t, 81.0, bounded.TotalRevenue)

	past, err := f.payments.GetTotalRevenue(ctx, &request.RevenueRequest{StartDate: strPtr("2020-01-01"), EndDate: strPtr("2020-12-31")})
	require.NoError(t, err)
	assert.Zero(t, past.TotalRevenue)

	_, err = f.payments.GetTotalRevenue(ctx, &request.RevenueRequest{StartDate: strPtr("2024-02-01"), EndDate: strPtr("2024-01-01")})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

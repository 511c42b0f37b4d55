package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/request"
	"travel-booking/internal/dto/response"
	"travel-booking/internal/event"
	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

type BookingService interface {
	// Customer endpoints
	CreateBooking(ctx context.Context, userID string, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetBookingByID(ctx context.Context, id int64, userID string, isAdmin bool) (*response.BookingResponse, error)
	GetUserBookings(ctx context.Context, userID string) ([]response.BookingResponse, error)
	CancelBooking(ctx context.Context, id int64, userID string, isAdmin bool) error

	// Admin endpoints
	ConfirmBooking(ctx context.Context, id int64) error
	GetBookingsByStatus(ctx context.Context, status string) ([]response.BookingResponse, error)
}

type bookingService struct {
	repo  *repository.Repository
	infra Infra
	log   *zap.Logger
}

func NewBookingService(repo *repository.Repository, infra Infra, log *zap.Logger) BookingService {
	return &bookingService{
		repo:  repo,
		infra: infra.withDefaults(),
		log:   log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, userID string, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if req == nil {
		return nil, invalid("booking request is required")
	}
	req.ApplyDefaults()

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	booking := &entity.Booking{
		UserID:         userID,
		Type:           req.Type,
		ReferenceID:    req.ReferenceID,
		NumberOfGuests: req.NumberOfGuests,
		Status:         entity.BookingStatusPending,
	}

	switch req.Type {
	case entity.BookingTypeFlight:
		if err := s.checkFlight(ctx, userID, req.ReferenceID); err != nil {
			return nil, err
		}
	case entity.BookingTypeHotel:
		checkIn, checkOut, err := stayDates(req)
		if err != nil {
			return nil, err
		}
		if err := s.checkHotel(ctx, userID, req.ReferenceID, *checkIn); err != nil {
			return nil, err
		}
		booking.CheckInDate = checkIn
		booking.CheckOutDate = checkOut
	}

	// The claim only narrows the race window across replicas; the partial
	// unique indexes decide.
	claimKey := bookingClaimKey(booking)
	claimed, err := s.infra.Claims.Acquire(ctx, claimKey)
	switch {
	case err != nil:
		// not ours to release
		s.log.Warn("Booking claim unavailable, relying on storage constraint",
			zap.Error(err),
			zap.String("claim", claimKey),
		)
	case !claimed:
		return nil, conflict("a booking for this %s is already being processed", booking.Type)
	default:
		defer func() {
			if err := s.infra.Claims.Release(ctx, claimKey); err != nil {
				s.log.Warn("Failed to release booking claim", zap.Error(err), zap.String("claim", claimKey))
			}
		}()
	}

	booking.DateBooked = time.Now().UTC()
	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrDuplicateBooking) {
			return nil, duplicateBooking(booking.Type)
		}
		s.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("type", string(req.Type)),
			zap.Int64("reference_id", req.ReferenceID),
		)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.String("user_id", userID),
		zap.String("type", string(booking.Type)),
		zap.Int64("reference_id", booking.ReferenceID),
		zap.Int("guests", booking.NumberOfGuests),
	)
	publishEvent(ctx, s.infra.Events, s.log, event.NewBookingEvent(event.BookingCreated, booking))

	return buildBookingResponse(ctx, s.repo, booking)
}

func (s *bookingService) checkFlight(ctx context.Context, userID string, flightID int64) error {
	flight, err := s.repo.Flight.FindByID(ctx, flightID)
	if err != nil {
		return fmt.Errorf("find flight %d: %w", flightID, err)
	}
	if flight == nil {
		return notFound("flight with ID %d not found", flightID)
	}
	if flight.AvailableSeats < 1 {
		return conflict("no seats available on flight %s", flight.FlightNumber)
	}

	exists, err := s.repo.Booking.HasActiveFlightBooking(ctx, userID, flightID)
	if err != nil {
		return fmt.Errorf("check duplicate flight booking: %w", err)
	}
	if exists {
		return duplicateBooking(entity.BookingTypeFlight)
	}
	return nil
}

func (s *bookingService) checkHotel(ctx context.Context, userID string, hotelID int64, checkIn time.Time) error {
	hotel, err := s.repo.Hotel.FindByID(ctx, hotelID)
	if err != nil {
		return fmt.Errorf("find hotel %d: %w", hotelID, err)
	}
	if hotel == nil {
		return notFound("hotel with ID %d not found", hotelID)
	}
	if hotel.RoomsAvailable < 1 {
		return conflict("no rooms available at %s", hotel.Name)
	}

	exists, err := s.repo.Booking.HasActiveHotelBooking(ctx, userID, hotelID, checkIn)
	if err != nil {
		return fmt.Errorf("check duplicate hotel booking: %w", err)
	}
	if exists {
		return duplicateBooking(entity.BookingTypeHotel)
	}
	return nil
}

func stayDates(req *request.CreateBookingRequest) (*time.Time, *time.Time, error) {
	if req.CheckInDate == nil || req.CheckOutDate == nil || *req.CheckInDate == "" || *req.CheckOutDate == "" {
		return nil, nil, invalid("check-in and check-out dates are required for hotel bookings")
	}

	checkIn, err := utils.ParseDate(*req.CheckInDate)
	if err != nil {
		return nil, nil, invalid("invalid check-in date: %s", *req.CheckInDate)
	}
	checkOut, err := utils.ParseDate(*req.CheckOutDate)
	if err != nil {
		return nil, nil, invalid("invalid check-out date: %s", *req.CheckOutDate)
	}
	if !checkOut.After(*checkIn) {
		return nil, nil, invalid("check-out date must be after check-in date")
	}

	return checkIn, checkOut, nil
}

func duplicateBooking(t entity.BookingType) error {
	if t == entity.BookingTypeHotel {
		return conflict("you already have an active booking for this hotel on this check-in date")
	}
	return conflict("you already have an active booking for this flight")
}

func bookingClaimKey(b *entity.Booking) string {
	key := fmt.Sprintf("%s:%s:%d", b.Type, b.UserID, b.ReferenceID)
	if b.CheckInDate != nil {
		key += ":" + b.CheckInDate.Format(utils.DateLayout)
	}
	return key
}

func (s *bookingService) GetBookingByID(ctx context.Context, id int64, userID string, isAdmin bool) (*response.BookingResponse, error) {
	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}
	if booking == nil {
		return nil, notFound("booking with ID %d not found", id)
	}
	if booking.UserID != userID && !isAdmin {
		return nil, forbidden("you do not have access to booking %d", id)
	}

	return buildBookingResponse(ctx, s.repo, booking)
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID string) ([]response.BookingResponse, error) {
	bookings, err := s.repo.Booking.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user bookings: %w", err)
	}

	return s.buildList(ctx, bookings), nil
}

func (s *bookingService) GetBookingsByStatus(ctx context.Context, status string) ([]response.BookingResponse, error) {
	st := entity.BookingStatus(strings.ToLower(status))
	if !st.Valid() {
		return nil, invalid("unknown booking status %q", status)
	}

	bookings, err := s.repo.Booking.FindByStatus(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("get bookings by status: %w", err)
	}

	return s.buildList(ctx, bookings), nil
}

// buildList is best effort: a booking whose view cannot be assembled is
// logged and left out.
func (s *bookingService) buildList(ctx context.Context, bookings []*entity.Booking) []response.BookingResponse {
	result := make([]response.BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		view, err := buildBookingResponse(ctx, s.repo, booking)
		if err != nil {
			s.log.Error("Skipping booking in list",
				zap.Error(err),
				zap.Int64("booking_id", booking.ID),
			)
			continue
		}
		result = append(result, *view)
	}
	return result
}

// CancelBooking cancels and, for a confirmed booking, gives its single unit
// of capacity back in the same transaction. The guest count does not scale
// the release.
func (s *bookingService) CancelBooking(ctx context.Context, id int64, userID string, isAdmin bool) error {
	var cancelled *entity.Booking
	var released bool

	err := s.repo.Tx.InTx(ctx, func(tx *repository.Repository) error {
		booking, err := tx.Booking.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("load booking %d: %w", id, err)
		}
		if booking == nil {
			return notFound("booking with ID %d not found", id)
		}
		if booking.UserID != userID && !isAdmin {
			return forbidden("you do not have permission to cancel booking %d", id)
		}
		if !booking.Status.CanTransitionTo(entity.BookingStatusCancelled) {
			return conflict("booking %d is %s and cannot be cancelled", id, booking.Status)
		}

		previous := booking.Status
		if err := tx.Booking.UpdateStatus(ctx, id, previous, entity.BookingStatusCancelled); err != nil {
			return statusUpdateError(id, err)
		}

		if previous == entity.BookingStatusConfirmed {
			err := tx.Inventory.Release(ctx, booking.Type, booking.ReferenceID, 1)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				s.log.Warn("Inventory item gone, nothing to release",
					zap.Int64("booking_id", id),
					zap.String("type", string(booking.Type)),
					zap.Int64("reference_id", booking.ReferenceID),
				)
			case err != nil:
				return fmt.Errorf("release inventory for booking %d: %w", id, err)
			default:
				released = true
			}
		}

		payment, err := tx.Payment.FindByBookingID(ctx, id)
		if err != nil {
			return fmt.Errorf("load payment of booking %d: %w", id, err)
		}
		if payment != nil && payment.Status.CanTransitionTo(entity.PaymentStatusRefunded) {
			payment.Status = entity.PaymentStatusRefunded
			if err := tx.Payment.Update(ctx, payment); err != nil {
				return fmt.Errorf("refund payment of booking %d: %w", id, err)
			}
		}

		booking.Status = entity.BookingStatusCancelled
		cancelled = booking
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("Booking cancelled",
		zap.Int64("booking_id", id),
		zap.String("by", userID),
		zap.Bool("admin", isAdmin),
		zap.Bool("released", released),
	)
	if released {
		invalidateKind(ctx, s.infra.Cache, s.log, cancelled.Type)
	}
	publishEvent(ctx, s.infra.Events, s.log, event.NewBookingEvent(event.BookingCancelled, cancelled))

	return nil
}

// ConfirmBooking is the administrative path to confirmed. It commits one
// unit of capacity exactly like a successful payment does.
func (s *bookingService) ConfirmBooking(ctx context.Context, id int64) error {
	var confirmed *entity.Booking

	err := s.repo.Tx.InTx(ctx, func(tx *repository.Repository) error {
		booking, err := tx.Booking.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("load booking %d: %w", id, err)
		}
		if booking == nil {
			return notFound("booking with ID %d not found", id)
		}
		if booking.Status != entity.BookingStatusPending {
			return conflict("only pending bookings can be confirmed, booking %d is %s", id, booking.Status)
		}

		if err := reserveUnit(ctx, tx, booking); err != nil {
			return err
		}
		if err := tx.Booking.UpdateStatus(ctx, id, entity.BookingStatusPending, entity.BookingStatusConfirmed); err != nil {
			return statusUpdateError(id, err)
		}

		booking.Status = entity.BookingStatusConfirmed
		confirmed = booking
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("Booking confirmed by admin", zap.Int64("booking_id", id))
	invalidateKind(ctx, s.infra.Cache, s.log, confirmed.Type)
	publishEvent(ctx, s.infra.Events, s.log, event.NewBookingEvent(event.BookingConfirmed, confirmed))

	return nil
}

// reserveUnit takes one seat or room for the booking.
func reserveUnit(ctx context.Context, tx *repository.Repository, b *entity.Booking) error {
	ok, err := tx.Inventory.Reserve(ctx, b.Type, b.ReferenceID, 1)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("%s with ID %d no longer exists", b.Type, b.ReferenceID)
	}
	if err != nil {
		return fmt.Errorf("reserve inventory for booking %d: %w", b.ID, err)
	}
	if !ok {
		if b.Type == entity.BookingTypeHotel {
			return conflict("no rooms left for booking %d", b.ID)
		}
		return conflict("no seats left for booking %d", b.ID)
	}
	return nil
}

func statusUpdateError(id int64, err error) error {
	if errors.Is(err, repository.ErrStatusChanged) {
		return conflict("booking %d was modified concurrently", id)
	}
	return fmt.Errorf("update booking %d: %w", id, err)
}

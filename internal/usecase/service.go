package usecase

import (
	"context"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/event"

	"go.uber.org/zap"
)

type Service struct {
	Booking BookingService
	Payment PaymentService
	Flight  FlightService
	Hotel   HotelService
}

func NewService(repo *repository.Repository, infra Infra, log *zap.Logger) *Service {
	return &Service{
		Booking: NewBookingService(repo, infra, log),
		Payment: NewPaymentService(repo, infra, log),
		Flight:  NewFlightService(repo, infra, log),
		Hotel:   NewHotelService(repo, infra, log),
	}
}

// publishEvent runs after commit. A broker outage is logged and does not
// fail the request.
func publishEvent(ctx context.Context, events EventPublisher, log *zap.Logger, evt event.BookingEvent) {
	if err := events.Publish(ctx, evt); err != nil {
		log.Warn("Failed to publish booking event",
			zap.Error(err),
			zap.String("type", string(evt.Type)),
			zap.Int64("booking_id", evt.BookingID),
		)
	}
}

// invalidateKind drops cached search pages whose counters just changed.
func invalidateKind(ctx context.Context, cache SearchCache, log *zap.Logger, t entity.BookingType) {
	kind := flightsKind
	if t == entity.BookingTypeHotel {
		kind = hotelsKind
	}
	if err := cache.Invalidate(ctx, kind); err != nil {
		log.Warn("Failed to invalidate search cache", zap.Error(err), zap.String("kind", kind))
	}
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/request"
	"travel-booking/internal/dto/response"
	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

const flightsKind = "flights"

type FlightService interface {
	SearchFlights(ctx context.Context, req *request.FlightSearchRequest) (*response.PaginatedResponse[response.FlightResponse], error)
	GetFlightByID(ctx context.Context, id int64) (*response.FlightResponse, error)

	// Admin endpoints
	CreateFlight(ctx context.Context, req *request.FlightRequest) (*response.FlightResponse, error)
	UpdateFlight(ctx context.Context, id int64, req *request.FlightRequest) (*response.FlightResponse, error)
	DeleteFlight(ctx context.Context, id int64) error
}

type flightService struct {
	repo  *repository.Repository
	infra Infra
	log   *zap.Logger
}

func NewFlightService(repo *repository.Repository, infra Infra, log *zap.Logger) FlightService {
	return &flightService{
		repo:  repo,
		infra: infra.withDefaults(),
		log:   log.With(zap.String("service", "flight")),
	}
}

func (s *flightService) SearchFlights(ctx context.Context, req *request.FlightSearchRequest) (*response.PaginatedResponse[response.FlightResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	filter := repository.FlightFilter{
		Origin:      req.Origin,
		Destination: req.Destination,
	}
	if req.DepartureDate != nil {
		day, err := utils.ParseDate(*req.DepartureDate)
		if err != nil {
			return nil, invalid("invalid departure date: %s", *req.DepartureDate)
		}
		filter.DepartureDate = day
	}
	if req.MaxPrice != nil {
		maxPrice := entity.MoneyFromFloat(*req.MaxPrice)
		filter.MaxPrice = &maxPrice
	}

	key := fmt.Sprintf("o=%s|d=%s|dep=%s|max=%s|p=%d|n=%d",
		req.Origin, req.Destination, strOrEmpty(req.DepartureDate), floatOrEmpty(req.MaxPrice), req.CurrentPage(), req.Limit())

	var cached response.PaginatedResponse[response.FlightResponse]
	if hit, err := s.infra.Cache.Get(ctx, flightsKind, key, &cached); err != nil {
		s.log.Warn("Flight cache read failed", zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	flights, err := s.repo.Flight.Search(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("search flights: %w", err)
	}
	total, err := s.repo.Flight.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count flights: %w", err)
	}

	items := make([]response.FlightResponse, len(flights))
	for i, f := range flights {
		items[i] = response.FlightToResponse(f)
	}
	result := response.NewPaginatedResponse(items, req.CurrentPage(), req.Limit(), total)

	if err := s.infra.Cache.Set(ctx, flightsKind, key, result); err != nil {
		s.log.Warn("Flight cache write failed", zap.Error(err))
	}

	return result, nil
}

func (s *flightService) GetFlightByID(ctx context.Context, id int64) (*response.FlightResponse, error) {
	flight, err := s.repo.Flight.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get flight %d: %w", id, err)
	}
	if flight == nil {
		return nil, notFound("flight with ID %d not found", id)
	}

	resp := response.FlightToResponse(flight)
	return &resp, nil
}

func (s *flightService) CreateFlight(ctx context.Context, req *request.FlightRequest) (*response.FlightResponse, error) {
	flight, err := flightFromRequest(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Flight.FindByFlightNumber(ctx, flight.FlightNumber)
	if err != nil {
		return nil, fmt.Errorf("check flight number: %w", err)
	}
	if existing != nil {
		return nil, conflict("flight with number %s already exists", flight.FlightNumber)
	}

	if err := s.repo.Flight.Create(ctx, flight); err != nil {
		if errors.Is(err, repository.ErrFlightNumberTaken) {
			return nil, conflict("flight with number %s already exists", flight.FlightNumber)
		}
		return nil, fmt.Errorf("create flight: %w", err)
	}

	s.log.Info("Flight created",
		zap.Int64("flight_id", flight.ID),
		zap.String("flight_number", flight.FlightNumber),
	)
	invalidateKind(ctx, s.infra.Cache, s.log, entity.BookingTypeFlight)

	resp := response.FlightToResponse(flight)
	return &resp, nil
}

func (s *flightService) UpdateFlight(ctx context.Context, id int64, req *request.FlightRequest) (*response.FlightResponse, error) {
	updated, err := flightFromRequest(req)
	if err != nil {
		return nil, err
	}

	flight, err := s.repo.Flight.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get flight %d: %w", id, err)
	}
	if flight == nil {
		return nil, notFound("flight with ID %d not found", id)
	}

	if flight.FlightNumber != updated.FlightNumber {
		existing, err := s.repo.Flight.FindByFlightNumber(ctx, updated.FlightNumber)
		if err != nil {
			return nil, fmt.Errorf("check flight number: %w", err)
		}
		if existing != nil {
			return nil, conflict("flight with number %s already exists", updated.FlightNumber)
		}
	}

	updated.Base = flight.Base
	if err := s.repo.Flight.Update(ctx, updated); err != nil {
		switch {
		case errors.Is(err, repository.ErrFlightNumberTaken):
			return nil, conflict("flight with number %s already exists", updated.FlightNumber)
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound("flight with ID %d not found", id)
		}
		return nil, fmt.Errorf("update flight %d: %w", id, err)
	}

	s.log.Info("Flight updated", zap.Int64("flight_id", id))
	invalidateKind(ctx, s.infra.Cache, s.log, entity.BookingTypeFlight)

	resp := response.FlightToResponse(updated)
	return &resp, nil
}

// DeleteFlight refuses while confirmed bookings hold seats on the flight.
// Pending bookings of a deleted flight resolve to the "not found" view.
func (s *flightService) DeleteFlight(ctx context.Context, id int64) error {
	flight, err := s.repo.Flight.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get flight %d: %w", id, err)
	}
	if flight == nil {
		return notFound("flight with ID %d not found", id)
	}

	active, err := s.repo.Booking.CountByReference(ctx, entity.BookingTypeFlight, id, entity.BookingStatusConfirmed)
	if err != nil {
		return fmt.Errorf("count bookings of flight %d: %w", id, err)
	}
	if active > 0 {
		return conflict("cannot delete flight with active bookings")
	}

	if err := s.repo.Flight.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("flight with ID %d not found", id)
		}
		return fmt.Errorf("delete flight %d: %w", id, err)
	}

	invalidateKind(ctx, s.infra.Cache, s.log, entity.BookingTypeFlight)
	return nil
}

func flightFromRequest(req *request.FlightRequest) (*entity.Flight, error) {
	if req == nil {
		return nil, invalid("flight request is required")
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	departure, err := time.Parse(time.RFC3339, req.DepartureTime)
	if err != nil {
		return nil, invalid("invalid departure time: %s", req.DepartureTime)
	}
	arrival, err := time.Parse(time.RFC3339, req.ArrivalTime)
	if err != nil {
		return nil, invalid("invalid arrival time: %s", req.ArrivalTime)
	}
	if !arrival.After(departure) {
		return nil, invalid("arrival time must be after departure time")
	}

	return &entity.Flight{
		Airline:        req.Airline,
		FlightNumber:   req.FlightNumber,
		Origin:         req.Origin,
		Destination:    req.Destination,
		DepartureTime:  departure.UTC(),
		ArrivalTime:    arrival.UTC(),
		Price:          entity.MoneyFromFloat(req.Price),
		AvailableSeats: req.AvailableSeats,
	}, nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *f)
}

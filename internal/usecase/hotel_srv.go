package usecase

import (
	"context"
	"errors"
	"fmt"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/request"
	"travel-booking/internal/dto/response"
	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

const hotelsKind = "hotels"

type HotelService interface {
	SearchHotels(ctx context.Context, req *request.HotelSearchRequest) (*response.PaginatedResponse[response.HotelResponse], error)
	GetHotelByID(ctx context.Context, id int64) (*response.HotelResponse, error)

	// Admin endpoints
	CreateHotel(ctx context.Context, req *request.HotelRequest) (*response.HotelResponse, error)
	UpdateHotel(ctx context.Context, id int64, req *request.HotelRequest) (*response.HotelResponse, error)
	DeleteHotel(ctx context.Context, id int64) error
}

type hotelService struct {
	repo  *repository.Repository
	infra Infra
	log   *zap.Logger
}

func NewHotelService(repo *repository.Repository, infra Infra, log *zap.Logger) HotelService {
	return &hotelService{
		repo:  repo,
		infra: infra.withDefaults(),
		log:   log.With(zap.String("service", "hotel")),
	}
}

func (s *hotelService) SearchHotels(ctx context.Context, req *request.HotelSearchRequest) (*response.PaginatedResponse[response.HotelResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	filter := repository.HotelFilter{
		Location:  req.Location,
		MinRating: req.MinRating,
	}
	if req.MaxPrice != nil {
		maxPrice := entity.MoneyFromFloat(*req.MaxPrice)
		filter.MaxPrice = &maxPrice
	}

	key := fmt.Sprintf("l=%s|max=%s|r=%s|p=%d|n=%d",
		req.Location, floatOrEmpty(req.MaxPrice), floatOrEmpty(req.MinRating), req.CurrentPage(), req.Limit())

	var cached response.PaginatedResponse[response.HotelResponse]
	if hit, err := s.infra.Cache.Get(ctx, hotelsKind, key, &cached); err != nil {
		s.log.Warn("Hotel cache read failed", zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	hotels, err := s.repo.Hotel.Search(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("search hotels: %w", err)
	}
	total, err := s.repo.Hotel.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count hotels: %w", err)
	}

	items := make([]response.HotelResponse, len(hotels))
	for i, h := range hotels {
		items[i] = response.HotelToResponse(h)
	}
	result := response.NewPaginatedResponse(items, req.CurrentPage(), req.Limit(), total)

	if err := s.infra.Cache.Set(ctx, hotelsKind, key, result); err != nil {
		s.log.Warn("Hotel cache write failed", zap.Error(err))
	}

	return result, nil
}

func (s *hotelService) GetHotelByID(ctx context.Context, id int64) (*response.HotelResponse, error) {
	hotel, err := s.repo.Hotel.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get hotel %d: %w", id, err)
	}
	if hotel == nil {
		return nil, notFound("hotel with ID %d not found", id)
	}

	resp := response.HotelToResponse(hotel)
	return &resp, nil
}

func (s *hotelService) CreateHotel(ctx context.Context, req *request.HotelRequest) (*response.HotelResponse, error) {
	hotel, err := hotelFromRequest(req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Hotel.Create(ctx, hotel); err != nil {
		return nil, fmt.Errorf("create hotel: %w", err)
	}

	s.log.Info("Hotel created", zap.Int64("hotel_id", hotel.ID), zap.String("name", hotel.Name))
	invalidateKind(ctx, s.infra.Cache, s.log, entity.BookingTypeHotel)

	resp := response.HotelToResponse(hotel)
	return &resp, nil
}

func (s *hotelService) UpdateHotel(ctx context.Context, id int64, req *request.HotelRequest) (*response.HotelResponse, error) {
	updated, err := hotelFromRequest(req)
	if err != nil {
		return nil, err
	}

	hotel, err := s.repo.Hotel.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get hotel %d: %w", id, err)
	}
	if hotel == nil {
		return nil, notFound("hotel with ID %d not found", id)
	}

	updated.Base = hotel.Base
	if err := s.repo.Hotel.Update(ctx, updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("hotel with ID %d not found", id)
		}
		return nil, fmt.Errorf("update hotel %d: %w", id, err)
	}

	s.log.Info("Hotel updated", zap.Int64("hotel_id", id))
	invalidateKind(ctx, s.infra.Cache, s.log, entity.BookingTypeHotel)

	resp := response.HotelToResponse(updated)
	return &resp, nil
}

func (s *hotelService) DeleteHotel(ctx context.Context, id int64) error {
	hotel, err := s.repo.Hotel.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get hotel %d: %w", id, err)
	}
	if hotel == nil {
		return notFound("hotel with ID %d not found", id)
	}

	active, err := s.repo.Booking.CountByReference(ctx, entity.BookingTypeHotel, id, entity.BookingStatusConfirmed)
	if err != nil {
		return fmt.Errorf("count bookings of hotel %d: %w", id, err)
	}
	if active > 0 {
		return conflict("cannot delete hotel with active bookings")
	}

	if err := s.repo.Hotel.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("hotel with ID %d not found", id)
		}
		return fmt.Errorf("delete hotel %d: %w", id, err)
	}

	invalidateKind(ctx, s.infra.Cache, s.log, entity.BookingTypeHotel)
	return nil
}

func hotelFromRequest(req *request.HotelRequest) (*entity.Hotel, error) {
	if req == nil {
		return nil, invalid("hotel request is required")
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	return &entity.Hotel{
		Name:           req.Name,
		Location:       req.Location,
		Description:    req.Description,
		PricePerNight:  entity.MoneyFromFloat(req.PricePerNight),
		RoomsAvailable: req.RoomsAvailable,
		Rating:         req.Rating,
		Amenities:      req.Amenities,
	}, nil
}

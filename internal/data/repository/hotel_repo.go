package repository

import (
	"context"
	"fmt"
	"strings"

	"travel-booking/internal/data/entity"
	"travel-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type HotelFilter struct {
	Location  string
	MaxPrice  *entity.Money
	MinRating *float64
}

type HotelRepository interface {
	Create(ctx context.Context, hotel *entity.Hotel) error
	FindByID(ctx context.Context, id int64) (*entity.Hotel, error)
	Search(ctx context.Context, filter HotelFilter, limit, offset int) ([]*entity.Hotel, error)
	Count(ctx context.Context, filter HotelFilter) (int64, error)
	Update(ctx context.Context, hotel *entity.Hotel) error
	Delete(ctx context.Context, id int64) error
}

type hotelRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewHotelRepository(db database.DBTX, log *zap.Logger) HotelRepository {
	return &hotelRepository{
		db:  db,
		log: log.With(zap.String("repository", "hotel")),
	}
}

const hotelColumns = `id, name, location, description, price_per_night_cents, rooms_available,
		       rating, amenities, created_at, updated_at`

func scanHotel(row scanner) (*entity.Hotel, error) {
	var hotel entity.Hotel
	err := row.Scan(
		&hotel.ID,
		&hotel.Name,
		&hotel.Location,
		&hotel.Description,
		&hotel.PricePerNight,
		&hotel.RoomsAvailable,
		&hotel.Rating,
		&hotel.Amenities,
		&hotel.CreatedAt,
		&hotel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &hotel, nil
}

func (r *hotelRepository) Create(ctx context.Context, hotel *entity.Hotel) error {
	query := `
		INSERT INTO hotels (name, location, description, price_per_night_cents, rooms_available, rating, amenities)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		hotel.Name,
		hotel.Location,
		hotel.Description,
		hotel.PricePerNight,
		hotel.RoomsAvailable,
		hotel.Rating,
		hotel.Amenities,
	).Scan(&hotel.ID, &hotel.CreatedAt, &hotel.UpdatedAt)

	if err != nil {
		r.log.Error("Failed to create hotel",
			zap.Error(err),
			zap.String("name", hotel.Name),
		)
		return fmt.Errorf("create hotel %s: %w", hotel.Name, err)
	}

	return nil
}

func (r *hotelRepository) FindByID(ctx context.Context, id int64) (*entity.Hotel, error) {
	query := `SELECT ` + hotelColumns + ` FROM hotels WHERE id = $1`

	hotel, err := scanHotel(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find hotel by ID",
			zap.Error(err),
			zap.Int64("hotel_id", id),
		)
		return nil, fmt.Errorf("find hotel by ID %d: %w", id, err)
	}

	return hotel, nil
}

func (f HotelFilter) where() (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Location != "" {
		add("location ILIKE '%%' || $%d || '%%'", containsPattern(f.Location))
	}
	if f.MaxPrice != nil {
		add("price_per_night_cents <= $%d", int64(*f.MaxPrice))
	}
	if f.MinRating != nil {
		add("rating >= $%d", *f.MinRating)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *hotelRepository) Search(ctx context.Context, filter HotelFilter, limit, offset int) ([]*entity.Hotel, error) {
	where, args := filter.where()
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM hotels%s ORDER BY rating DESC, id LIMIT $%d OFFSET $%d`,
		hotelColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to search hotels",
			zap.Error(err),
			zap.String("location", filter.Location),
		)
		return nil, fmt.Errorf("search hotels: %w", err)
	}
	defer rows.Close()

	var hotels []*entity.Hotel
	for rows.Next() {
		hotel, err := scanHotel(rows)
		if err != nil {
			r.log.Error("Failed to scan hotel row", zap.Error(err))
			return nil, fmt.Errorf("scan hotel row: %w", err)
		}
		hotels = append(hotels, hotel)
	}

	return hotels, rows.Err()
}

func (r *hotelRepository) Count(ctx context.Context, filter HotelFilter) (int64, error) {
	where, args := filter.where()
	query := `SELECT COUNT(*) FROM hotels` + where

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count hotels", zap.Error(err))
		return 0, fmt.Errorf("count hotels: %w", err)
	}
	return count, nil
}

func (r *hotelRepository) Update(ctx context.Context, hotel *entity.Hotel) error {
	query := `
		UPDATE hotels
		SET name = $2, location = $3, description = $4, price_per_night_cents = $5,
		    rooms_available = $6, rating = $7, amenities = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		hotel.ID,
		hotel.Name,
		hotel.Location,
		hotel.Description,
		hotel.PricePerNight,
		hotel.RoomsAvailable,
		hotel.Rating,
		hotel.Amenities,
	).Scan(&hotel.UpdatedAt)

	if err == pgx.ErrNoRows {
		return fmt.Errorf("update hotel %d: %w", hotel.ID, ErrNotFound)
	}
	if err != nil {
		r.log.Error("Failed to update hotel",
			zap.Error(err),
			zap.Int64("hotel_id", hotel.ID),
		)
		return fmt.Errorf("update hotel %d: %w", hotel.ID, err)
	}

	return nil
}

func (r *hotelRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM hotels WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete hotel",
			zap.Error(err),
			zap.Int64("hotel_id", id),
		)
		return fmt.Errorf("delete hotel %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete hotel %d: %w", id, ErrNotFound)
	}

	r.log.Info("Hotel deleted", zap.Int64("hotel_id", id))
	return nil
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type FlightFilter struct {
	Origin        string
	Destination   string
	DepartureDate *time.Time
	MaxPrice      *entity.Money
}

type FlightRepository interface {
	Create(ctx context.Context, flight *entity.Flight) error
	FindByID(ctx context.Context, id int64) (*entity.Flight, error)
	FindByFlightNumber(ctx context.Context, flightNumber string) (*entity.Flight, error)
	Search(ctx context.Context, filter FlightFilter, limit, offset int) ([]*entity.Flight, error)
	Count(ctx context.Context, filter FlightFilter) (int64, error)
	Update(ctx context.Context, flight *entity.Flight) error
	Delete(ctx context.Context, id int64) error
}

type flightRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewFlightRepository(db database.DBTX, log *zap.Logger) FlightRepository {
	return &flightRepository{
		db:  db,
		log: log.With(zap.String("repository", "flight")),
	}
}

const flightColumns = `id, airline, flight_number, origin, destination, departure_time, arrival_time,
		       price_cents, available_seats, created_at, updated_at`

func scanFlight(row scanner) (*entity.Flight, error) {
	var flight entity.Flight
	err := row.Scan(
		&flight.ID,
		&flight.Airline,
		&flight.FlightNumber,
		&flight.Origin,
		&flight.Destination,
		&flight.DepartureTime,
		&flight.ArrivalTime,
		&flight.Price,
		&flight.AvailableSeats,
		&flight.CreatedAt,
		&flight.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &flight, nil
}

func (r *flightRepository) Create(ctx context.Context, flight *entity.Flight) error {
	query := `
		INSERT INTO flights (airline, flight_number, origin, destination, departure_time,
		                     arrival_time, price_cents, available_seats)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		flight.Airline,
		flight.FlightNumber,
		flight.Origin,
		flight.Destination,
		flight.DepartureTime,
		flight.ArrivalTime,
		flight.Price,
		flight.AvailableSeats,
	).Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt)

	if _, ok := uniqueViolation(err); ok {
		return fmt.Errorf("create flight %s: %w", flight.FlightNumber, ErrFlightNumberTaken)
	}
	if err != nil {
		r.log.Error("Failed to create flight",
			zap.Error(err),
			zap.String("flight_number", flight.FlightNumber),
		)
		return fmt.Errorf("create flight %s: %w", flight.FlightNumber, err)
	}

	return nil
}

func (r *flightRepository) FindByID(ctx context.Context, id int64) (*entity.Flight, error) {
	query := `SELECT ` + flightColumns + ` FROM flights WHERE id = $1`

	flight, err := scanFlight(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find flight by ID",
			zap.Error(err),
			zap.Int64("flight_id", id),
		)
		return nil, fmt.Errorf("find flight by ID %d: %w", id, err)
	}

	return flight, nil
}

func (r *flightRepository) FindByFlightNumber(ctx context.Context, flightNumber string) (*entity.Flight, error) {
	query := `SELECT ` + flightColumns + ` FROM flights WHERE flight_number = $1`

	flight, err := scanFlight(r.db.QueryRow(ctx, query, flightNumber))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find flight by number",
			zap.Error(err),
			zap.String("flight_number", flightNumber),
		)
		return nil, fmt.Errorf("find flight by number %s: %w", flightNumber, err)
	}

	return flight, nil
}

func (f FlightFilter) where() (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Origin != "" {
		add("origin ILIKE '%%' || $%d || '%%'", containsPattern(f.Origin))
	}
	if f.Destination != "" {
		add("destination ILIKE '%%' || $%d || '%%'", containsPattern(f.Destination))
	}
	if f.DepartureDate != nil {
		add("departure_time::date = $%d::date", f.DepartureDate.Format("2006-01-02"))
	}
	if f.MaxPrice != nil {
		add("price_cents <= $%d", int64(*f.MaxPrice))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *flightRepository) Search(ctx context.Context, filter FlightFilter, limit, offset int) ([]*entity.Flight, error) {
	where, args := filter.where()
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM flights%s ORDER BY departure_time, id LIMIT $%d OFFSET $%d`,
		flightColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to search flights",
			zap.Error(err),
			zap.String("origin", filter.Origin),
			zap.String("destination", filter.Destination),
		)
		return nil, fmt.Errorf("search flights: %w", err)
	}
	defer rows.Close()

	var flights []*entity.Flight
	for rows.Next() {
		flight, err := scanFlight(rows)
		if err != nil {
			r.log.Error("Failed to scan flight row", zap.Error(err))
			return nil, fmt.Errorf("scan flight row: %w", err)
		}
		flights = append(flights, flight)
	}

	return flights, rows.Err()
}

func (r *flightRepository) Count(ctx context.Context, filter FlightFilter) (int64, error) {
	where, args := filter.where()
	query := `SELECT COUNT(*) FROM flights` + where

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count flights", zap.Error(err))
		return 0, fmt.Errorf("count flights: %w", err)
	}
	return count, nil
}

func (r *flightRepository) Update(ctx context.Context, flight *entity.Flight) error {
	query := `
		UPDATE flights
		SET airline = $2, flight_number = $3, origin = $4, destination = $5,
		    departure_time = $6, arrival_time = $7, price_cents = $8,
		    available_seats = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		flight.ID,
		flight.Airline,
		flight.FlightNumber,
		flight.Origin,
		flight.Destination,
		flight.DepartureTime,
		flight.ArrivalTime,
		flight.Price,
		flight.AvailableSeats,
	).Scan(&flight.UpdatedAt)

	if err == pgx.ErrNoRows {
		return fmt.Errorf("update flight %d: %w", flight.ID, ErrNotFound)
	}
	if _, ok := uniqueViolation(err); ok {
		return fmt.Errorf("update flight %d: %w", flight.ID, ErrFlightNumberTaken)
	}
	if err != nil {
		r.log.Error("Failed to update flight",
			zap.Error(err),
			zap.Int64("flight_id", flight.ID),
		)
		return fmt.Errorf("update flight %d: %w", flight.ID, err)
	}

	return nil
}

func (r *flightRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM flights WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete flight",
			zap.Error(err),
			zap.Int64("flight_id", id),
		)
		return fmt.Errorf("delete flight %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete flight %d: %w", id, ErrNotFound)
	}

	r.log.Info("Flight deleted", zap.Int64("flight_id", id))
	return nil
}

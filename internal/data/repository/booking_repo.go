package repository

import (
	"context"
	"fmt"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id int64) (*entity.Booking, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID string) ([]*entity.Booking, error)
	FindByStatus(ctx context.Context, status entity.BookingStatus) ([]*entity.Booking, error)

	// Business queries
	HasActiveFlightBooking(ctx context.Context, userID string, flightID int64) (bool, error)
	HasActiveHotelBooking(ctx context.Context, userID string, hotelID int64, checkIn time.Time) (bool, error)
	CountByReference(ctx context.Context, bookingType entity.BookingType, referenceID int64, status entity.BookingStatus) (int64, error)
	UpdateStatus(ctx context.Context, id int64, from, to entity.BookingStatus) error
}

type bookingRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewBookingRepository(db database.DBTX, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, user_id, type, reference_id, check_in_date, check_out_date,
		       number_of_guests, status, date_booked, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.Type,
		&booking.ReferenceID,
		&booking.CheckInDate,
		&booking.CheckOutDate,
		&booking.NumberOfGuests,
		&booking.Status,
		&booking.DateBooked,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// Create inserts a pending booking. The partial unique indexes on active
// bookings turn a lost duplicate race into ErrDuplicateBooking.
func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (user_id, type, reference_id, check_in_date, check_out_date,
		                      number_of_guests, status, date_booked, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		booking.UserID,
		booking.Type,
		booking.ReferenceID,
		booking.CheckInDate,
		booking.CheckOutDate,
		booking.NumberOfGuests,
		booking.Status,
		booking.DateBooked,
	).Scan(&booking.ID, &booking.UpdatedAt)

	if pgErr, ok := uniqueViolation(err); ok {
		r.log.Info("Duplicate active booking rejected by constraint",
			zap.String("constraint", pgErr.ConstraintName),
			zap.String("user_id", booking.UserID),
			zap.Int64("reference_id", booking.ReferenceID),
		)
		return fmt.Errorf("create booking for user %s: %w", booking.UserID, ErrDuplicateBooking)
	}
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("user_id", booking.UserID),
			zap.String("type", string(booking.Type)),
			zap.Int64("reference_id", booking.ReferenceID),
		)
		return fmt.Errorf("create booking for user %s: %w", booking.UserID, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id int64) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return r.findOne(ctx, query, id)
}

// FindByIDForUpdate locks the booking row until the surrounding transaction
// ends. Outside a transaction the lock is released immediately.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id int64) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, query, id)
}

func (r *bookingRepository) findOne(ctx context.Context, query string, id int64) (*entity.Booking, error) {
	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.Int64("booking_id", id),
		)
		return nil, fmt.Errorf("find booking by ID %d: %w", id, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID string) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY date_booked DESC
	`

	bookings, err := r.findMany(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, fmt.Errorf("find bookings by user ID %s: %w", userID, err)
	}
	return bookings, nil
}

func (r *bookingRepository) FindByStatus(ctx context.Context, status entity.BookingStatus) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = $1
		ORDER BY date_booked DESC
	`

	bookings, err := r.findMany(ctx, query, status)
	if err != nil {
		r.log.Error("Failed to find bookings by status",
			zap.Error(err),
			zap.String("status", string(status)),
		)
		return nil, fmt.Errorf("find bookings by status %s: %w", status, err)
	}
	return bookings, nil
}

func (r *bookingRepository) findMany(ctx context.Context, query string, args ...any) ([]*entity.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

func (r *bookingRepository) HasActiveFlightBooking(ctx context.Context, userID string, flightID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE user_id = $1 AND type = 'flight' AND reference_id = $2
			  AND status IN ('pending', 'confirmed')
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, flightID).Scan(&exists); err != nil {
		r.log.Error("Failed to check active flight booking",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.Int64("flight_id", flightID),
		)
		return false, fmt.Errorf("check active flight booking: %w", err)
	}
	return exists, nil
}

// HasActiveHotelBooking compares check-in by calendar date only.
func (r *bookingRepository) HasActiveHotelBooking(ctx context.Context, userID string, hotelID int64, checkIn time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE user_id = $1 AND type = 'hotel' AND reference_id = $2
			  AND check_in_date = $3::date
			  AND status IN ('pending', 'confirmed')
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, hotelID, checkIn.Format("2006-01-02")).Scan(&exists); err != nil {
		r.log.Error("Failed to check active hotel booking",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.Int64("hotel_id", hotelID),
		)
		return false, fmt.Errorf("check active hotel booking: %w", err)
	}
	return exists, nil
}

func (r *bookingRepository) CountByReference(ctx context.Context, bookingType entity.BookingType, referenceID int64, status entity.BookingStatus) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE type = $1 AND reference_id = $2 AND status = $3`

	var count int64
	if err := r.db.QueryRow(ctx, query, bookingType, referenceID, status).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by reference",
			zap.Error(err),
			zap.String("type", string(bookingType)),
			zap.Int64("reference_id", referenceID),
		)
		return 0, fmt.Errorf("count %s bookings for %d: %w", bookingType, referenceID, err)
	}
	return count, nil
}

// UpdateStatus moves a booking from one status to another. It fails with
// ErrStatusChanged when the stored status is no longer from.
func (r *bookingRepository) UpdateStatus(ctx context.Context, id int64, from, to entity.BookingStatus) error {
	query := `UPDATE bookings SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`

	result, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.Int64("booking_id", id),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return fmt.Errorf("update booking %d status to %s: %w", id, to, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update booking %d status from %s: %w", id, from, ErrStatusChanged)
	}

	return nil
}

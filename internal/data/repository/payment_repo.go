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

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id int64) (*entity.Payment, error)
	FindByBookingID(ctx context.Context, bookingID int64) (*entity.Payment, error)
	FindByUserID(ctx context.Context, userID string) ([]*entity.Payment, error)
	FindByStatus(ctx context.Context, status entity.PaymentStatus) ([]*entity.Payment, error)
	Update(ctx context.Context, payment *entity.Payment) error
	TotalRevenue(ctx context.Context, start, end *time.Time) (entity.Money, error)
}

type paymentRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewPaymentRepository(db database.DBTX, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

// default name postgres gives the UNIQUE (transaction_id) constraint
const txnIDConstraint = "payments_transaction_id_key"

const paymentColumns = `p.id, p.booking_id, p.amount_cents, p.status, p.payment_method, p.transaction_id, p.payment_date`

func scanPayment(row scanner) (*entity.Payment, error) {
	var payment entity.Payment
	err := row.Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.Amount,
		&payment.Status,
		&payment.Method,
		&payment.TransactionID,
		&payment.PaymentDate,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (booking_id, amount_cents, status, payment_method, transaction_id, payment_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		payment.BookingID,
		payment.Amount,
		payment.Status,
		payment.Method,
		payment.TransactionID,
		payment.PaymentDate,
	).Scan(&payment.ID)

	if pgErr, ok := uniqueViolation(err); ok {
		if pgErr.ConstraintName == txnIDConstraint {
			return fmt.Errorf("create payment for booking %d: %w", payment.BookingID, ErrDuplicateTxnID)
		}
		return fmt.Errorf("create payment for booking %d: %w", payment.BookingID, ErrDuplicatePayment)
	}
	if err != nil {
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.Int64("booking_id", payment.BookingID),
			zap.String("transaction_id", payment.TransactionID),
		)
		return fmt.Errorf("create payment for booking %d: %w", payment.BookingID, err)
	}

	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id int64) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.id = $1`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by ID",
			zap.Error(err),
			zap.Int64("payment_id", id),
		)
		return nil, fmt.Errorf("find payment by ID %d: %w", id, err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID int64) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.booking_id = $1`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, bookingID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by booking ID",
			zap.Error(err),
			zap.Int64("booking_id", bookingID),
		)
		return nil, fmt.Errorf("find payment by booking ID %d: %w", bookingID, err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByUserID(ctx context.Context, userID string) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE b.user_id = $1
		ORDER BY p.payment_date DESC
	`

	payments, err := r.findMany(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to find payments by user ID",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, fmt.Errorf("find payments by user ID %s: %w", userID, err)
	}
	return payments, nil
}

func (r *paymentRepository) FindByStatus(ctx context.Context, status entity.PaymentStatus) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments p
		WHERE p.status = $1
		ORDER BY p.payment_date DESC
	`

	payments, err := r.findMany(ctx, query, status)
	if err != nil {
		r.log.Error("Failed to find payments by status",
			zap.Error(err),
			zap.String("status", string(status)),
		)
		return nil, fmt.Errorf("find payments by status %s: %w", status, err)
	}
	return payments, nil
}

func (r *paymentRepository) findMany(ctx context.Context, query string, args ...any) ([]*entity.Payment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

// Update rewrites a settlement attempt in place. The amount column is never
// touched after insert.
func (r *paymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	query := `
		UPDATE payments
		SET status = $2, payment_method = $3, transaction_id = $4, payment_date = $5
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		payment.ID,
		payment.Status,
		payment.Method,
		payment.TransactionID,
		payment.PaymentDate,
	)
	if _, ok := uniqueViolation(err); ok {
		return fmt.Errorf("update payment %d: %w", payment.ID, ErrDuplicateTxnID)
	}
	if err != nil {
		r.log.Error("Failed to update payment",
			zap.Error(err),
			zap.Int64("payment_id", payment.ID),
		)
		return fmt.Errorf("update payment %d: %w", payment.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update payment %d: %w", payment.ID, ErrNotFound)
	}

	return nil
}

// TotalRevenue sums completed payments whose payment date falls inside the
// optional inclusive bounds.
func (r *paymentRepository) TotalRevenue(ctx context.Context, start, end *time.Time) (entity.Money, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM payments
		WHERE status = 'completed'
		  AND ($1::timestamptz IS NULL OR payment_date >= $1)
		  AND ($2::timestamptz IS NULL OR payment_date <= $2)
	`

	var total int64
	if err := r.db.QueryRow(ctx, query, start, end).Scan(&total); err != nil {
		r.log.Error("Failed to sum revenue", zap.Error(err))
		return 0, fmt.Errorf("sum revenue: %w", err)
	}

	return entity.Money(total), nil
}

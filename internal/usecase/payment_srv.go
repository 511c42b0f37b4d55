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

type PaymentService interface {
	ProcessPayment(ctx context.Context, userID string, req *request.ProcessPaymentRequest) (*response.PaymentResponse, error)
	GetPaymentByID(ctx context.Context, id int64, userID string, isAdmin bool) (*response.PaymentResponse, error)
	GetUserPayments(ctx context.Context, userID string) ([]response.PaymentResponse, error)

	// Admin endpoints
	GetPaymentsByStatus(ctx context.Context, status string) ([]response.PaymentResponse, error)
	GetTotalRevenue(ctx context.Context, req *request.RevenueRequest) (*response.RevenueResponse, error)
}

type paymentService struct {
	repo  *repository.Repository
	infra Infra
	now   func() time.Time
	log   *zap.Logger
}

func NewPaymentService(repo *repository.Repository, infra Infra, log *zap.Logger) PaymentService {
	return &paymentService{
		repo:  repo,
		infra: infra.withDefaults(),
		now:   time.Now,
		log:   log.With(zap.String("service", "payment")),
	}
}

// ProcessPayment settles one attempt for a booking. The payment row, the
// booking status and the inventory decrement commit together or not at all.
func (s *paymentService) ProcessPayment(ctx context.Context, userID string, req *request.ProcessPaymentRequest) (*response.PaymentResponse, error) {
	if req == nil {
		return nil, invalid("payment request is required")
	}
	req.ApplyDefaults()

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Process payment validation failed", zap.Any("errors", errs))
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	booking, err := s.repo.Booking.FindByID(ctx, req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("load booking %d: %w", req.BookingID, err)
	}
	if booking == nil {
		return nil, notFound("booking with ID %d not found", req.BookingID)
	}
	if booking.UserID != userID {
		return nil, forbidden("you do not have permission to pay for booking %d", booking.ID)
	}
	if err := s.checkPayable(ctx, s.repo, booking); err != nil {
		return nil, err
	}

	ref, err := resolveReference(ctx, s.repo, booking)
	if err != nil {
		return nil, fmt.Errorf("price booking %d: %w", booking.ID, err)
	}
	if !ref.Found {
		return nil, notFound("%s with ID %d for booking %d no longer exists", booking.Type, booking.ReferenceID, booking.ID)
	}

	// exact match on cents, no tolerance
	amount := entity.MoneyFromFloat(req.Amount)
	if amount != ref.Amount {
		return nil, invalid("invalid payment amount, expected %.2f, provided %.2f", ref.Amount.Float64(), amount.Float64())
	}

	settlement := s.infra.Settler.Settle(ctx, booking, amount)

	var payment *entity.Payment
	var reserved bool

	err = s.repo.Tx.InTx(ctx, func(tx *repository.Repository) error {
		locked, err := tx.Booking.FindByIDForUpdate(ctx, booking.ID)
		if err != nil {
			return fmt.Errorf("lock booking %d: %w", booking.ID, err)
		}
		if locked == nil {
			return notFound("booking with ID %d not found", booking.ID)
		}
		// another request may have paid or cancelled while we settled
		if err := s.checkPayable(ctx, tx, locked); err != nil {
			return err
		}

		payment, err = s.recordAttempt(ctx, tx, locked.ID, amount, req.PaymentMethod, settlement)
		if err != nil {
			return err
		}

		if settlement.Status != entity.PaymentStatusCompleted {
			return nil
		}

		// admin-confirmed bookings already hold their unit
		if locked.Status == entity.BookingStatusPending {
			if err := reserveUnit(ctx, tx, locked); err != nil {
				return err
			}
			if err := tx.Booking.UpdateStatus(ctx, locked.ID, entity.BookingStatusPending, entity.BookingStatusConfirmed); err != nil {
				return statusUpdateError(locked.ID, err)
			}
			locked.Status = entity.BookingStatusConfirmed
			reserved = true
		}

		booking = locked
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
			s.log.Info("Payment rejected",
				zap.Error(err),
				zap.Int64("booking_id", booking.ID),
			)
		}
		return nil, err
	}

	s.log.Info("Payment processed",
		zap.Int64("payment_id", payment.ID),
		zap.Int64("booking_id", booking.ID),
		zap.String("status", string(payment.Status)),
		zap.String("transaction_id", payment.TransactionID),
		zap.Float64("amount", payment.Amount.Float64()),
	)
	if reserved {
		invalidateKind(ctx, s.infra.Cache, s.log, booking.Type)
	}
	publishEvent(ctx, s.infra.Events, s.log, event.NewPaymentEvent(booking, payment))

	return buildPaymentResponse(ctx, s.repo, payment, booking)
}

func (s *paymentService) checkPayable(ctx context.Context, repo *repository.Repository, b *entity.Booking) error {
	if b.Status == entity.BookingStatusCancelled {
		return conflict("booking %d is cancelled", b.ID)
	}

	existing, err := repo.Payment.FindByBookingID(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("load payment of booking %d: %w", b.ID, err)
	}
	if existing != nil && existing.Status == entity.PaymentStatusCompleted {
		return conflict("booking %d has already been paid", b.ID)
	}
	return nil
}

// recordAttempt updates the booking's payment in place or creates it. The
// amount of an existing payment never changes, so a retry at a different
// price is a conflict.
func (s *paymentService) recordAttempt(ctx context.Context, tx *repository.Repository, bookingID int64, amount entity.Money, method string, st Settlement) (*entity.Payment, error) {
	payment, err := tx.Payment.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load payment of booking %d: %w", bookingID, err)
	}

	now := s.now().UTC()

	if payment == nil {
		payment = &entity.Payment{
			BookingID:     bookingID,
			Amount:        amount,
			Status:        st.Status,
			Method:        method,
			TransactionID: st.TransactionID,
			PaymentDate:   now,
		}
		if err := tx.Payment.Create(ctx, payment); err != nil {
			return nil, paymentWriteError(bookingID, err)
		}
		return payment, nil
	}

	if payment.Amount != amount {
		return nil, conflict("booking %d was priced at %.2f when payment was first attempted, now %.2f; cancel and book again",
			bookingID, payment.Amount.Float64(), amount.Float64())
	}
	if !payment.Status.CanTransitionTo(st.Status) {
		return nil, conflict("payment of booking %d is %s and cannot become %s", bookingID, payment.Status, st.Status)
	}

	payment.Status = st.Status
	payment.Method = method
	payment.TransactionID = st.TransactionID
	payment.PaymentDate = now
	if err := tx.Payment.Update(ctx, payment); err != nil {
		return nil, paymentWriteError(bookingID, err)
	}
	return payment, nil
}

func paymentWriteError(bookingID int64, err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicatePayment):
		return conflict("booking %d already has a payment in progress", bookingID)
	case errors.Is(err, repository.ErrDuplicateTxnID):
		return conflict("transaction id collision, please retry")
	}
	return fmt.Errorf("save payment of booking %d: %w", bookingID, err)
}

func (s *paymentService) GetPaymentByID(ctx context.Context, id int64, userID string, isAdmin bool) (*response.PaymentResponse, error) {
	payment, err := s.repo.Payment.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get payment %d: %w", id, err)
	}
	if payment == nil {
		return nil, notFound("payment with ID %d not found", id)
	}

	booking, err := s.repo.Booking.FindByID(ctx, payment.BookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking of payment %d: %w", id, err)
	}
	if booking == nil {
		return nil, notFound("booking of payment %d not found", id)
	}
	if booking.UserID != userID && !isAdmin {
		return nil, forbidden("you do not have access to payment %d", id)
	}

	return buildPaymentResponse(ctx, s.repo, payment, booking)
}

func (s *paymentService) GetUserPayments(ctx context.Context, userID string) ([]response.PaymentResponse, error) {
	payments, err := s.repo.Payment.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user payments: %w", err)
	}
	return s.buildList(ctx, payments), nil
}

func (s *paymentService) GetPaymentsByStatus(ctx context.Context, status string) ([]response.PaymentResponse, error) {
	st := entity.PaymentStatus(strings.ToLower(status))
	if !st.Valid() {
		return nil, invalid("unknown payment status %q", status)
	}

	payments, err := s.repo.Payment.FindByStatus(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("get payments by status: %w", err)
	}
	return s.buildList(ctx, payments), nil
}

func (s *paymentService) buildList(ctx context.Context, payments []*entity.Payment) []response.PaymentResponse {
	result := make([]response.PaymentResponse, 0, len(payments))
	for _, payment := range payments {
		view, err := s.buildOne(ctx, payment)
		if err != nil {
			s.log.Error("Skipping payment in list",
				zap.Error(err),
				zap.Int64("payment_id", payment.ID),
			)
			continue
		}
		result = append(result, *view)
	}
	return result
}

func (s *paymentService) buildOne(ctx context.Context, payment *entity.Payment) (*response.PaymentResponse, error) {
	booking, err := s.repo.Booking.FindByID(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %d of payment %d missing", payment.BookingID, payment.ID)
	}
	return buildPaymentResponse(ctx, s.repo, payment, booking)
}

// GetTotalRevenue sums completed payments. Both bounds are optional and
// inclusive; the end date covers its whole day.
func (s *paymentService) GetTotalRevenue(ctx context.Context, req *request.RevenueRequest) (*response.RevenueResponse, error) {
	if req == nil {
		req = &request.RevenueRequest{}
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	var start, end *time.Time
	var err error
	if req.StartDate != nil {
		if start, err = utils.ParseDate(*req.StartDate); err != nil {
			return nil, invalid("invalid start date: %s", *req.StartDate)
		}
	}
	if req.EndDate != nil {
		if end, err = utils.ParseDate(*req.EndDate); err != nil {
			return nil, invalid("invalid end date: %s", *req.EndDate)
		}
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, invalid("end date must not be before start date")
	}
	if end != nil {
		endOfDay := end.Add(24*time.Hour - time.Nanosecond)
		end = &endOfDay
	}

	total, err := s.repo.Payment.TotalRevenue(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("total revenue: %w", err)
	}

	return &response.RevenueResponse{
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		TotalRevenue: total.Float64(),
	}, nil
}

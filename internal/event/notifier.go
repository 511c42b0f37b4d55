package event

import (
	"context"

	"go.uber.org/zap"
)

// Notifier turns booking events into customer notifications. Delivery is a
// structured log line; a mail or push gateway plugs in here.
type Notifier struct {
	log *zap.Logger
}

func NewNotifier(log *zap.Logger) *Notifier {
	return &Notifier{log: log.With(zap.String("component", "notifier"))}
}

func (n *Notifier) Handle(_ context.Context, evt BookingEvent) error {
	fields := []zap.Field{
		zap.String("event_id", evt.ID.String()),
		zap.Int64("booking_id", evt.BookingID),
		zap.String("user_id", evt.UserID),
		zap.String("booking_type", string(evt.BookingType)),
	}

	switch evt.Type {
	case BookingCreated:
		n.log.Info("Booking received, awaiting payment", fields...)
	case BookingConfirmed:
		n.log.Info("Booking confirmed", fields...)
	case BookingCancelled:
		n.log.Info("Booking cancelled", fields...)
	case PaymentCompleted:
		n.log.Info("Payment receipt", append(fields,
			zap.String("transaction_id", evt.TransactionID),
			zap.Float64("amount", evt.Amount),
		)...)
	case PaymentFailed:
		n.log.Info("Payment failed, customer may retry", append(fields,
			zap.String("transaction_id", evt.TransactionID),
		)...)
	default:
		n.log.Warn("Unknown event type", append(fields, zap.String("type", string(evt.Type)))...)
	}
	return nil
}

package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"travel-booking/internal/data/entity"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	queue     []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.queue) == 0 {
		return kafka.Message{}, context.Canceled
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func sampleBooking() *entity.Booking {
	return &entity.Booking{
		ID:          7,
		UserID:      "user-1",
		Type:        entity.BookingTypeFlight,
		ReferenceID: 3,
		Status:      entity.BookingStatusConfirmed,
	}
}

func TestProducerPublish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "booking-events", zap.NewNop())

	payment := &entity.Payment{Status: entity.PaymentStatusCompleted, TransactionID: "TXN1", Amount: 49999}
	require.NoError(t, p.Publish(context.Background(), NewPaymentEvent(sampleBooking(), payment)))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "7", string(w.msgs[0].Key))

	var got BookingEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, PaymentCompleted, got.Type)
	assert.Equal(t, "TXN1", got.TransactionID)
	assert.InDelta(t, 499.99, got.Amount, 0.0001)
}

func TestProducerPublishError(t *testing.T) {
	p := newProducer(&fakeWriter{err: errors.New("broker down")}, "booking-events", zap.NewNop())

	err := p.Publish(context.Background(), NewBookingEvent(BookingCreated, sampleBooking()))
	assert.ErrorContains(t, err, "broker down")
}

func TestConsumerSkipsBadMessagesAndCommits(t *testing.T) {
	good, _ := json.Marshal(NewBookingEvent(BookingCancelled, sampleBooking()))
	r := &fakeReader{queue: []kafka.Message{
		{Offset: 1, Value: []byte("{not json")},
		{Offset: 2, Value: good},
	}}
	c := newConsumer(r, zap.NewNop())

	var handled []BookingEvent
	err := c.Consume(context.Background(), func(_ context.Context, evt BookingEvent) error {
		handled = append(handled, evt)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, handled, 1)
	assert.Equal(t, BookingCancelled, handled[0].Type)
	assert.Equal(t, []int64{1, 2}, r.committed)
}

func TestConsumerStopsOnHandlerError(t *testing.T) {
	good, _ := json.Marshal(NewBookingEvent(BookingCreated, sampleBooking()))
	r := &fakeReader{queue: []kafka.Message{{Offset: 5, Value: good}}}
	c := newConsumer(r, zap.NewNop())

	err := c.Consume(context.Background(), func(context.Context, BookingEvent) error {
		return errors.New("smtp down")
	})

	assert.ErrorContains(t, err, "smtp down")
	assert.Empty(t, r.committed)
}

func TestNotifierLogsReceipt(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewNotifier(zap.New(core))

	payment := &entity.Payment{Status: entity.PaymentStatusCompleted, TransactionID: "TXN9", Amount: 30000}
	require.NoError(t, n.Handle(context.Background(), NewPaymentEvent(sampleBooking(), payment)))

	entries := logs.FilterMessage("Payment receipt").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "TXN9", entries[0].ContextMap()["transaction_id"])
}

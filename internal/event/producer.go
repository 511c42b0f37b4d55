package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
	topic  string
	log    *zap.Logger
}

func NewProducer(brokers []string, topic string, log *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newProducer(writer, topic, log)
}

func newProducer(w messageWriter, topic string, log *zap.Logger) *Producer {
	return &Producer{
		writer: w,
		topic:  topic,
		log:    log.With(zap.String("component", "producer"), zap.String("topic", topic)),
	}
}

// Publish keys messages by booking id so events of one booking stay ordered
// within a partition.
func (p *Producer) Publish(ctx context.Context, evt BookingEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", evt.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(evt.BookingID, 10)),
		Value: data,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(evt.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("Failed to publish event",
			zap.Error(err),
			zap.String("type", string(evt.Type)),
			zap.Int64("booking_id", evt.BookingID),
		)
		return fmt.Errorf("publish event %s: %w", evt.Type, err)
	}

	p.log.Debug("Event published",
		zap.String("type", string(evt.Type)),
		zap.Int64("booking_id", evt.BookingID),
	)
	return nil
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

package event

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Handler func(ctx context.Context, evt BookingEvent) error

type Consumer struct {
	reader messageReader
	log    *zap.Logger
}

func NewConsumer(brokers []string, groupID, topic string, log *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	})
	return newConsumer(reader, log.With(zap.String("topic", topic)))
}

func newConsumer(r messageReader, log *zap.Logger) *Consumer {
	return &Consumer{
		reader: r,
		log:    log.With(zap.String("component", "consumer")),
	}
}

// Consume runs until ctx is cancelled. Undecodable messages are committed
// and skipped. A handler error stops the loop without committing, so the
// message is redelivered after restart.
func (c *Consumer) Consume(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return err
		}

		var evt BookingEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			c.log.Warn("Skipping undecodable event",
				zap.Error(err),
				zap.Int64("offset", msg.Offset),
			)
		} else if err := handle(ctx, evt); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

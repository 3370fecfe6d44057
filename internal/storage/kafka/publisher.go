// Package kafka publishes order lifecycle events to Kafka.
package kafka

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/segmentio/kafka-go"

	"github.com/xenking/foodhub/internal/domain/order"
)

const eventTypeHeader = "event-type"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ order.Publisher = (*Publisher)(nil)

// Publisher writes order events keyed by order id, so every event of one
// order lands on the same partition in commit order.
type Publisher struct {
	w messageWriter
}

// Config describes the Kafka destination.
type Config struct {
	Brokers []string
	Topic   string
}

// NewPublisher creates a Publisher writing to cfg.Topic.
func NewPublisher(cfg Config) *Publisher {
	return &Publisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}
}

// Publish writes e synchronously.
func (p *Publisher) Publish(ctx context.Context, e order.Event) error {
	msg := kafka.Message{
		Key:     []byte(e.OrderID),
		Value:   EncodeEvent(e),
		Time:    e.At,
		Headers: []kafka.Header{{Key: eventTypeHeader, Value: []byte(e.Type)}},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "publish %s for order %s", e.Type, e.OrderID)
	}
	return nil
}

// Close flushes pending writes.
func (p *Publisher) Close() error {
	return p.w.Close()
}

// EncodeEvent renders e as the JSON event payload.
func EncodeEvent(e order.Event) []byte {
	var enc jx.Encoder
	enc.Obj(func(enc *jx.Encoder) {
		enc.Field("type", func(enc *jx.Encoder) { enc.Str(string(e.Type)) })
		enc.Field("orderId", func(enc *jx.Encoder) { enc.Str(e.OrderID) })
		enc.Field("customerId", func(enc *jx.Encoder) { enc.Str(e.CustomerID) })
		if e.RestaurantID != "" {
			enc.Field("restaurantId", func(enc *jx.Encoder) { enc.Str(e.RestaurantID) })
		}
		enc.Field("status", func(enc *jx.Encoder) { enc.Str(string(e.Status)) })
		enc.Field("total", func(enc *jx.Encoder) { enc.Num(jx.Num(e.Total.StringFixed(2))) })
		if e.ChangedBy != "" {
			enc.Field("changedBy", func(enc *jx.Encoder) { enc.Str(e.ChangedBy) })
		}
		enc.Field("at", func(enc *jx.Encoder) { enc.Str(e.At.UTC().Format(time.RFC3339Nano)) })
	})
	return enc.Bytes()
}

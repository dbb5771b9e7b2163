package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	TopicPointsEarned       = "loyalty.points.earned"
	TopicPointsRedeemed     = "loyalty.points.redeemed"
	TopicOrderSubmitted     = "catering.order.submitted"
	TopicOrderStatusChanged = "catering.order.status_changed"
)

type PointsEvent struct {
	TransactionID string    `json:"transactionId"`
	UserID        string    `json:"userId"`
	Points        int64     `json:"points"`
	Source        string    `json:"source"`
	Description   string    `json:"description"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type OrderEvent struct {
	OrderID     string    `json:"orderId"`
	UserID      string    `json:"userId,omitempty"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"totalAmount"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Publisher streams domain events after the change they describe is committed.
type Publisher interface {
	PublishPointsEarned(ctx context.Context, event PointsEvent) error
	PublishPointsRedeemed(ctx context.Context, event PointsEvent) error
	PublishOrderSubmitted(ctx context.Context, event OrderEvent) error
	PublishOrderStatusChanged(ctx context.Context, event OrderEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer messageWriter
	log    *zap.Logger
}

func NewProducer(brokers []string, log *zap.Logger) *Producer {
	log = log.Named("events.producer")
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Warn("failed to deliver events", zap.Int("count", len(messages)), zap.Error(err))
			}
		},
	}
	return &Producer{Writer: writer, log: log}
}

func (p *Producer) PublishPointsEarned(ctx context.Context, event PointsEvent) error {
	return p.publish(ctx, TopicPointsEarned, event.UserID, event)
}

func (p *Producer) PublishPointsRedeemed(ctx context.Context, event PointsEvent) error {
	return p.publish(ctx, TopicPointsRedeemed, event.UserID, event)
}

func (p *Producer) PublishOrderSubmitted(ctx context.Context, event OrderEvent) error {
	return p.publish(ctx, TopicOrderSubmitted, event.OrderID, event)
}

func (p *Producer) PublishOrderStatusChanged(ctx context.Context, event OrderEvent) error {
	return p.publish(ctx, TopicOrderStatusChanged, event.OrderID, event)
}

func (p *Producer) publish(ctx context.Context, topic, key string, event any) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.log.Debug("publishing event", zap.String("topic", topic), zap.String("key", key))

	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishPointsEarned(context.Context, PointsEvent) error      { return nil }
func (NoopPublisher) PublishPointsRedeemed(context.Context, PointsEvent) error    { return nil }
func (NoopPublisher) PublishOrderSubmitted(context.Context, OrderEvent) error     { return nil }
func (NoopPublisher) PublishOrderStatusChanged(context.Context, OrderEvent) error { return nil }
func (NoopPublisher) Close() error                                                { return nil }

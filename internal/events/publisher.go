package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bakery-ops/internal/domain"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// Type names a domain event
type Type string

const (
	OrderPlaced        Type = "order.placed"
	OrderStatusChanged Type = "order.status_changed"
	ProductLowStock    Type = "product.low_stock"
)

// Envelope is the JSON body of every published message
type Envelope struct {
	ID         uuid.UUID   `json:"id"`
	Type       Type        `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

// StatusChange is the payload of an order.status_changed event
type StatusChange struct {
	OrderID  uuid.UUID          `json:"orderId"`
	Previous domain.OrderStatus `json:"previous"`
	Current  domain.OrderStatus `json:"current"`
}

// LowStock is the payload of a product.low_stock event
type LowStock struct {
	ProductID   uuid.UUID `json:"productId"`
	Name        string    `json:"name"`
	StockQty    int       `json:"stockQty"`
	MinStockQty int       `json:"minStockQty"`
}

// Publisher announces domain changes to other systems. Callers treat
// publishing as best effort: the change is already committed.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, order *domain.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *domain.Order, previous domain.OrderStatus) error
	PublishLowStock(ctx context.Context, product *domain.Product) error
	Close() error
}

// MessageWriter is the part of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Topics selects where each kind of event goes
type Topics struct {
	Orders    string
	Inventory string
}

// KafkaPublisher writes JSON events to Kafka with trace context headers
type KafkaPublisher struct {
	writer MessageWriter
	topics Topics
	logger *zap.Logger
}

// NewKafkaWriter builds a writer that routes by per-message topic
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaPublisher creates a publisher over the given writer
func NewKafkaPublisher(writer MessageWriter, topics Topics, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		topics: topics,
		logger: logger,
	}
}

func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, p.topics.Orders, order.ID.String(), OrderPlaced, order)
}

func (p *KafkaPublisher) PublishOrderStatusChanged(ctx context.Context, order *domain.Order, previous domain.OrderStatus) error {
	payload := StatusChange{
		OrderID:  order.ID,
		Previous: previous,
		Current:  order.Status,
	}
	return p.publish(ctx, p.topics.Orders, order.ID.String(), OrderStatusChanged, payload)
}

func (p *KafkaPublisher) PublishLowStock(ctx context.Context, product *domain.Product) error {
	payload := LowStock{
		ProductID:   product.ID,
		Name:        product.Name,
		StockQty:    product.StockQty,
		MinStockQty: product.MinStockQty,
	}
	return p.publish(ctx, p.topics.Inventory, product.ID.String(), ProductLowStock, payload)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, key string, eventType Type, payload interface{}) error {
	body, err := json.Marshal(Envelope{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}

	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   body,
		Headers: traceHeaders(ctx, eventType),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	p.logger.Debug("Event published",
		zap.String("type", string(eventType)),
		zap.String("topic", topic),
		zap.String("key", key),
	)
	return nil
}

// traceHeaders carries the current trace context so consumers can link spans
func traceHeaders(ctx context.Context, eventType Type) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []kafka.Header{{Key: "event-type", Value: []byte(eventType)}}
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, *domain.Order) error { return nil }

func (NopPublisher) PublishOrderStatusChanged(context.Context, *domain.Order, domain.OrderStatus) error {
	return nil
}

func (NopPublisher) PublishLowStock(context.Context, *domain.Product) error { return nil }

func (NopPublisher) Close() error { return nil }

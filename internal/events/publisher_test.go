package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"bakery-ops/internal/domain"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

var testTopics = Topics{Orders: "bakery.orders", Inventory: "bakery.inventory"}

func TestPublishOrderPlaced(t *testing.T) {
	writer := &recordingWriter{}
	publisher := NewKafkaPublisher(writer, testTopics, zap.NewNop())

	order := &domain.Order{
		ID:           uuid.New(),
		CustomerName: "Ada",
		Total:        decimal.RequireFromString("10.50"),
		Status:       domain.StatusPending,
		Items:        []domain.OrderItem{},
	}

	require.NoError(t, publisher.PublishOrderPlaced(context.Background(), order))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "bakery.orders", msg.Topic)
	assert.Equal(t, order.ID.String(), string(msg.Key))

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &envelope))
	assert.Equal(t, string(OrderPlaced), envelope["type"])

	payload := envelope["payload"].(map[string]interface{})
	assert.Equal(t, 10.5, payload["total"])
	assert.Equal(t, "Ada", payload["customerName"])
}

func TestPublishStatusChangeAndLowStock(t *testing.T) {
	writer := &recordingWriter{}
	publisher := NewKafkaPublisher(writer, testTopics, zap.NewNop())

	order := &domain.Order{ID: uuid.New(), Status: domain.StatusReady}
	product := &domain.Product{ID: uuid.New(), Name: "Croissant", StockQty: 2, MinStockQty: 5}

	require.NoError(t, publisher.PublishOrderStatusChanged(context.Background(), order, domain.StatusBaking))
	require.NoError(t, publisher.PublishLowStock(context.Background(), product))
	require.Len(t, writer.messages, 2)

	var change struct {
		Type    Type         `json:"type"`
		Payload StatusChange `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &change))
	assert.Equal(t, OrderStatusChanged, change.Type)
	assert.Equal(t, domain.StatusBaking, change.Payload.Previous)
	assert.Equal(t, domain.StatusReady, change.Payload.Current)

	assert.Equal(t, "bakery.inventory", writer.messages[1].Topic)
	var low struct {
		Payload LowStock `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(writer.messages[1].Value, &low))
	assert.Equal(t, 2, low.Payload.StockQty)
	assert.Equal(t, "Croissant", low.Payload.Name)
}

func TestPublishCarriesTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "place-order")
	defer span.End()

	writer := &recordingWriter{}
	publisher := NewKafkaPublisher(writer, testTopics, zap.NewNop())
	require.NoError(t, publisher.PublishOrderPlaced(ctx, &domain.Order{ID: uuid.New()}))

	headers := map[string]string{}
	for _, h := range writer.messages[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, string(OrderPlaced), headers["event-type"])
	assert.Contains(t, headers["traceparent"], span.SpanContext().TraceID().String())
}

func TestPublishWrapsWriterErrors(t *testing.T) {
	writer := &recordingWriter{err: errors.New("broker down")}
	publisher := NewKafkaPublisher(writer, testTopics, zap.NewNop())

	err := publisher.PublishOrderPlaced(context.Background(), &domain.Order{ID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")

	require.NoError(t, publisher.Close())
	assert.True(t, writer.closed)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.PublishOrderPlaced(context.Background(), &domain.Order{}))
	assert.NoError(t, p.PublishLowStock(context.Background(), &domain.Product{}))
	assert.NoError(t, p.Close())
}

package producer

import (
	"context"
	"encoding/json"
	"time"

	"warehouse-service/internal/service"

	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventType = "event-type"

	EventOrderPlaced        = "order_placed"
	EventOrderStatusChanged = "order_status_changed"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderEventsProducer пишет события заказов в один топик, ключ: id заказа
// (все события одного заказа попадают в одну партицию).
type OrderEventsProducer struct {
	writer  messageWriter
	timeout time.Duration
}

func NewOrderEventsProducer(brokers []string, topic string) *OrderEventsProducer {
	return &OrderEventsProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		timeout: 5 * time.Second,
	}
}

func (p *OrderEventsProducer) PublishOrderPlaced(ctx context.Context, e service.OrderPlacedEvent) error {
	return p.write(ctx, e.OrderID.String(), EventOrderPlaced, e)
}

func (p *OrderEventsProducer) PublishOrderStatusChanged(ctx context.Context, e service.OrderStatusChangedEvent) error {
	return p.write(ctx, e.OrderID.String(), EventOrderStatusChanged, e)
}

func (p *OrderEventsProducer) write(ctx context.Context, key, eventType string, payload any) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: []kafka.Header{{Key: HeaderEventType, Value: []byte(eventType)}},
	})
}

func (p *OrderEventsProducer) Close() error {
	return p.writer.Close()
}

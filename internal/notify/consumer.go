package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"warehouse-service/internal/producer"
	"warehouse-service/internal/service"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ItemView struct {
	Name     string
	Quantity int
	Price    string
	Subtotal string
}

// OrderPlacedView: данные для шаблона order_placed.
type OrderPlacedView struct {
	OrderNumber string
	Username    string
	OrderDate   string
	Items       []ItemView
	Total       string
}

func orderPlacedView(e service.OrderPlacedEvent) OrderPlacedView {
	v := OrderPlacedView{
		OrderNumber: e.OrderNumber,
		Username:    e.Username,
		OrderDate:   e.OrderDate.Format("2006-01-02 15:04"),
		Total:       e.TotalAmount.StringFixed(2),
	}
	for _, it := range e.Items {
		v.Items = append(v.Items, ItemView{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.PriceAtOrder.StringFixed(2),
			Subtotal: it.PriceAtOrder.Mul(decimal.NewFromInt(int64(it.Quantity))).StringFixed(2),
		})
	}
	return v
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type OrderEventsConsumer struct {
	reader messageReader
	sender Sender
	log    *zap.Logger
}

func NewOrderEventsConsumer(brokers []string, groupID, topic string, sender Sender, log *zap.Logger) *OrderEventsConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		MinBytes:          10e3,
		MaxBytes:          10e6,
		CommitInterval:    time.Second,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	})
	return &OrderEventsConsumer{reader: r, sender: sender, log: log}
}

func (c *OrderEventsConsumer) Run(ctx context.Context) error {
	c.log.Info("kafka consumer started")
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			c.log.Error("read message", zap.Error(err))
			continue
		}
		c.handle(m)
	}
}

func (c *OrderEventsConsumer) handle(m kafka.Message) {
	if eventType(m) != producer.EventOrderPlaced {
		return
	}
	var ev service.OrderPlacedEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		c.log.Error("unmarshal order event", zap.ByteString("value", m.Value), zap.Error(err))
		return
	}
	if ev.Email == "" {
		c.log.Warn("order event without email", zap.String("order_number", ev.OrderNumber))
		return
	}
	err := c.sender.Send(Email{
		To:       ev.Email,
		Subject:  "Order " + ev.OrderNumber + " confirmed",
		Template: "order_placed",
		Data:     orderPlacedView(ev),
	})
	if err != nil {
		c.log.Error("send email failed", zap.String("to", ev.Email), zap.String("order_number", ev.OrderNumber), zap.Error(err))
		return
	}
	c.log.Info("email sent", zap.String("to", ev.Email), zap.String("order_number", ev.OrderNumber))
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == producer.HeaderEventType {
			return string(h.Value)
		}
	}
	return ""
}

func (c *OrderEventsConsumer) Close() error { return c.reader.Close() }

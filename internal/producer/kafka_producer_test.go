package producer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"warehouse-service/internal/service"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type captureWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *captureWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		panic("write without deadline")
	}
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *captureWriter) Close() error { w.closed = true; return nil }

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublishOrderPlaced(t *testing.T) {
	w := &captureWriter{}
	p := &OrderEventsProducer{writer: w, timeout: time.Second}

	ev := service.OrderPlacedEvent{
		OrderID:     uuid.New(),
		OrderNumber: "AB12CD34",
		Email:       "alice@example.com",
		TotalAmount: decimal.RequireFromString("45.00"),
		Items: []service.OrderItemEvent{
			{ProductID: uuid.New(), Name: "Widget", Quantity: 2, PriceAtOrder: decimal.RequireFromString("10.00")},
		},
	}
	if err := p.PublishOrderPlaced(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	m := w.msgs[0]
	if string(m.Key) != ev.OrderID.String() {
		t.Fatalf("key = %s, want order id", m.Key)
	}
	if got := header(m, HeaderEventType); got != EventOrderPlaced {
		t.Fatalf("event type = %q", got)
	}

	var back service.OrderPlacedEvent
	if err := json.Unmarshal(m.Value, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.OrderNumber != "AB12CD34" || !back.TotalAmount.Equal(ev.TotalAmount) || len(back.Items) != 1 {
		t.Fatalf("unexpected payload: %+v", back)
	}
}

func TestPublishOrderStatusChanged_HeaderAndClose(t *testing.T) {
	w := &captureWriter{}
	p := &OrderEventsProducer{writer: w, timeout: time.Second}

	if err := p.PublishOrderStatusChanged(context.Background(), service.OrderStatusChangedEvent{
		OrderID: uuid.New(), From: "Pending", To: "Cancelled",
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := header(w.msgs[0], HeaderEventType); got != EventOrderStatusChanged {
		t.Fatalf("event type = %q", got)
	}
	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("close: err=%v closed=%v", err, w.closed)
	}
}

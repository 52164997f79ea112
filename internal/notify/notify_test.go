package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"warehouse-service/internal/producer"
	"warehouse-service/internal/service"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	gopkgmail "gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gopkgmail.Message
}

func (d *fakeDialer) DialAndSend(m ...*gopkgmail.Message) error {
	d.sent = append(d.sent, m...)
	return nil
}

type fakeSender struct {
	emails []Email
	err    error
}

func (s *fakeSender) Send(e Email) error {
	s.emails = append(s.emails, e)
	return s.err
}

// fakeReader отдаёт сообщения по очереди, потом возвращает context.Canceled.
type fakeReader struct {
	msgs []kafka.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, context.Canceled
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) Close() error { return nil }

func placedEvent() service.OrderPlacedEvent {
	return service.OrderPlacedEvent{
		OrderID:     uuid.New(),
		OrderNumber: "7F3A9C01",
		Username:    "alice",
		Email:       "alice@example.com",
		TotalAmount: decimal.RequireFromString("45"),
		OrderDate:   time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		Items: []service.OrderItemEvent{
			{Name: "Widget", Quantity: 2, PriceAtOrder: decimal.RequireFromString("10")},
			{Name: "Gadget", Quantity: 1, PriceAtOrder: decimal.RequireFromString("25")},
		},
	}
}

func message(t *testing.T, eventType string, v any) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return kafka.Message{
		Value:   raw,
		Headers: []kafka.Header{{Key: producer.HeaderEventType, Value: []byte(eventType)}},
	}
}

func TestEmailSender_RendersBothParts(t *testing.T) {
	d := &fakeDialer{}
	s, err := newEmailSender("shop@example.com", d)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	err = s.Send(Email{
		To:       "alice@example.com",
		Subject:  "Order 7F3A9C01 confirmed",
		Template: "order_placed",
		Data:     orderPlacedView(placedEvent()),
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(d.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(d.sent))
	}

	var buf bytes.Buffer
	if _, err := d.sent[0].WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}
	body := buf.String()
	for _, want := range []string{"text/plain", "text/html", "7F3A9C01", "45.00", "Widget"} {
		if !strings.Contains(body, want) {
			t.Fatalf("message does not contain %q", want)
		}
	}
}

func TestEmailSender_UnknownTemplate(t *testing.T) {
	s, err := newEmailSender("shop@example.com", &fakeDialer{})
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	if err := s.Send(Email{To: "a@b.c", Template: "nope"}); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}

func TestOrderPlacedView_Money(t *testing.T) {
	v := orderPlacedView(placedEvent())
	if v.Total != "45.00" {
		t.Fatalf("total = %s", v.Total)
	}
	if v.Items[0].Subtotal != "20.00" || v.Items[0].Price != "10.00" {
		t.Fatalf("unexpected item view: %+v", v.Items[0])
	}
	if v.OrderDate != "2026-03-01 12:30" {
		t.Fatalf("order date = %s", v.OrderDate)
	}
}

func TestConsumer_SendsOnlyOrderPlaced(t *testing.T) {
	ev := placedEvent()
	r := &fakeReader{msgs: []kafka.Message{
		message(t, producer.EventOrderStatusChanged, service.OrderStatusChangedEvent{OrderID: ev.OrderID}),
		{Value: []byte("{broken")},
		message(t, producer.EventOrderPlaced, ev),
	}}
	s := &fakeSender{}
	c := &OrderEventsConsumer{reader: r, sender: s, log: zap.NewNop()}

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(s.emails) != 1 {
		t.Fatalf("emails = %d, want 1", len(s.emails))
	}
	got := s.emails[0]
	if got.To != "alice@example.com" || got.Template != "order_placed" {
		t.Fatalf("unexpected email: %+v", got)
	}
}

func TestConsumer_SkipsEventWithoutEmailAndSurvivesSendError(t *testing.T) {
	noEmail := placedEvent()
	noEmail.Email = ""
	r := &fakeReader{msgs: []kafka.Message{
		message(t, producer.EventOrderPlaced, noEmail),
		message(t, producer.EventOrderPlaced, placedEvent()),
		message(t, producer.EventOrderPlaced, placedEvent()),
	}}
	s := &fakeSender{err: errors.New("smtp down")}
	c := &OrderEventsConsumer{reader: r, sender: s, log: zap.NewNop()}

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(s.emails) != 2 {
		t.Fatalf("send attempts = %d, want 2", len(s.emails))
	}
}

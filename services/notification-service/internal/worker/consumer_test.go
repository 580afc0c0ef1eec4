package worker

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type sent struct{ to, subject, message string }

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (f *fakeNotifier) Notify(to, subject, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sent{to, subject, message})
	return nil
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestHandleDelivery(t *testing.T) {
	tests := []struct {
		key     string
		body    string
		to      string
		subject string
		text    string
	}{
		{"booking.created", `{"booking_id":"b1","listing_id":"l1","amount":45000,"guest_email":"g@nesta.ng"}`, "g@nesta.ng", "Booking received", "₦45,000"},
		{"booking.confirmed", `{"booking_id":"b1","status":"confirmed","guest_email":"g@nesta.ng"}`, "g@nesta.ng", "Booking confirmed", "now confirmed"},
		{"booking.refunded", `{"booking_id":"b1","status":"refunded","guest_email":"g@nesta.ng"}`, "g@nesta.ng", "Booking refunded", "b1"},
		{"payment.paid", `{"booking_id":"b1","reference":"PSK_1","provider":"paystack","amount":5000}`, opsRecipient, "Payment received", "₦5,000 via paystack"},
		{"payout.created", `{"booking_id":"b1","ref":"bo_b1","amount":45000,"status":"pending","payee_email":"h@nesta.ng"}`, "h@nesta.ng", "Payout scheduled", "bo_b1"},
		{"payout.created", `{"booking_id":"b1","ref":"bo_b1","amount":-45000,"status":"pending","payee_email":"-"}`, opsRecipient, "Payout reversed", "-₦45,000"},
		{"payout.paid", `{"booking_id":"b1","ref":"bo_b1","amount":45000,"status":"paid","payee_email":"h@nesta.ng"}`, "h@nesta.ng", "Payout paid", "status paid"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.subject, func(t *testing.T) {
			n := &fakeNotifier{}
			w := New(nil, n, "test", quietLog())
			if err := w.handleDelivery(tt.key, []byte(tt.body)); err != nil {
				t.Fatal(err)
			}
			if len(n.sent) != 1 {
				t.Fatalf("sent %d notifications", len(n.sent))
			}
			got := n.sent[0]
			if got.to != tt.to || got.subject != tt.subject || !strings.Contains(got.message, tt.text) {
				t.Errorf("notification = %+v", got)
			}
		})
	}
}

func TestHandleDeliveryPoisonAndUnknown(t *testing.T) {
	n := &fakeNotifier{}
	w := New(nil, n, "test", quietLog())
	if err := w.handleDelivery("booking.confirmed", []byte("{")); !errors.Is(err, errPoison) {
		t.Errorf("bad body err = %v, want poison", err)
	}
	if err := w.handleDelivery("listing.updated", []byte("{}")); err != nil {
		t.Errorf("unknown key err = %v", err)
	}
	if len(n.sent) != 0 {
		t.Errorf("sent = %+v", n.sent)
	}
}

type ackRecord struct {
	acked, requeued, dropped int
}

type fakeAcker struct {
	mu sync.Mutex
	r  ackRecord
}

func (a *fakeAcker) Ack(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.r.acked++
	return nil
}

func (a *fakeAcker) Nack(_ uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if requeue {
		a.r.requeued++
	} else {
		a.r.dropped++
	}
	return nil
}

func (a *fakeAcker) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

func (a *fakeAcker) snapshot() ackRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.r
}

type chanSource chan amqp.Delivery

func (c chanSource) Deliveries(context.Context, string) (<-chan amqp.Delivery, error) { return c, nil }

func TestRunAcknowledgement(t *testing.T) {
	acker := &fakeAcker{}
	src := make(chanSource, 3)
	src <- amqp.Delivery{Acknowledger: acker, RoutingKey: "booking.cancelled", Body: []byte(`{"booking_id":"b1","status":"cancelled"}`)}
	src <- amqp.Delivery{Acknowledger: acker, RoutingKey: "payment.paid", Body: []byte(`not json`)}
	close(src)

	n := &fakeNotifier{}
	w := New(src, n, "test", quietLog())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := acker.snapshot(); got.acked != 1 || got.dropped != 1 || got.requeued != 0 {
		t.Errorf("acks = %+v", got)
	}

	failing := &fakeNotifier{err: errors.New("smtp down")}
	src = make(chanSource, 1)
	src <- amqp.Delivery{Acknowledger: acker, RoutingKey: "booking.confirmed", Body: []byte(`{"booking_id":"b2"}`)}
	close(src)
	if err := New(src, failing, "test", quietLog()).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := acker.snapshot(); got.requeued != 1 {
		t.Errorf("failed notify should requeue, acks = %+v", got)
	}
}

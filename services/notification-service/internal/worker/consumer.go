package worker

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/johnagbike-dotcom/nesta-server/services/notification-service/internal/events"
	"github.com/johnagbike-dotcom/nesta-server/services/notification-service/internal/notifier"
)

// opsRecipient receives ledger notifications that have no natural addressee.
const opsRecipient = "ops"

// errPoison marks a delivery that can never be processed.
var errPoison = errors.New("poison message")

type Source interface {
	Deliveries(ctx context.Context, tag string) (<-chan amqp.Delivery, error)
}

type Worker struct {
	src      Source
	notifier notifier.Notifier
	tag      string
	log      *logrus.Entry
}

func New(src Source, n notifier.Notifier, tag string, log *logrus.Entry) *Worker {
	return &Worker{src: src, notifier: n, tag: tag, log: log.WithField("component", "worker")}
}

// Run acks handled deliveries, dead-letters undecodable ones and requeues the
// rest until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	msgs, err := w.src.Deliveries(ctx, w.tag)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			err := w.handleDelivery(d.RoutingKey, d.Body)
			switch {
			case err == nil:
				_ = d.Ack(false)
			case errors.Is(err, errPoison):
				w.log.WithError(err).WithField("key", d.RoutingKey).Error("dead-lettering message")
				_ = d.Nack(false, false)
			default:
				w.log.WithError(err).WithField("key", d.RoutingKey).Warn("notify failed, requeue")
				_ = d.Nack(false, true)
			}
		}
	}
}

func (w *Worker) handleDelivery(key string, body []byte) error {
	switch key {
	case events.RKBookingCreated:
		ev, err := events.Decode[events.BookingCreated](body)
		if err != nil {
			return fmt.Errorf("%w: %w", errPoison, err)
		}
		return w.notifier.Notify(ev.GuestEmail, "Booking received",
			fmt.Sprintf("Booking %s for listing %s is awaiting payment of %s.", ev.BookingID, ev.ListingID, notifier.Naira(ev.Amount)))

	case events.RKBookingConfirmed, events.RKBookingCancelled, events.RKBookingRefunded:
		ev, err := events.Decode[events.BookingChanged](body)
		if err != nil {
			return fmt.Errorf("%w: %w", errPoison, err)
		}
		return w.notifier.Notify(ev.GuestEmail, "Booking "+ev.Status,
			fmt.Sprintf("Booking %s is now %s.", ev.BookingID, ev.Status))

	case events.RKPaymentPaid:
		ev, err := events.Decode[events.PaymentPaid](body)
		if err != nil {
			return fmt.Errorf("%w: %w", errPoison, err)
		}
		return w.notifier.Notify(opsRecipient, "Payment received",
			fmt.Sprintf("Booking %s paid %s via %s (ref %s).", ev.BookingID, notifier.Naira(ev.Amount), ev.Provider, ev.Reference))
	}

	if events.IsPayout(key) {
		ev, err := events.Decode[events.PayoutEvent](body)
		if err != nil {
			return fmt.Errorf("%w: %w", errPoison, err)
		}
		to := ev.PayeeEmail
		if to == "" || to == "-" {
			to = opsRecipient
		}
		subject := "Payout " + ev.Status
		if key == events.RKPayoutCreated {
			subject = "Payout scheduled"
			if ev.Amount < 0 {
				subject = "Payout reversed"
			}
		}
		return w.notifier.Notify(to, subject,
			fmt.Sprintf("%s for booking %s (ref %s), status %s.", notifier.Naira(ev.Amount), ev.BookingID, ev.Ref, ev.Status))
	}

	w.log.WithField("key", key).Debug("skip unknown key")
	return nil
}

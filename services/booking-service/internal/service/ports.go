package service

import (
	"context"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
)

type BookingStore interface {
	FindByIDOrReference(ctx context.Context, key string) (*domain.Booking, error)
	Upsert(ctx context.Context, id string, patch domain.Doc) (*domain.Booking, error)
	Create(ctx context.Context, doc domain.Doc) (*domain.Booking, error)
	ListAll(ctx context.Context) ([]domain.Booking, error)
}

type PayoutStore interface {
	Append(ctx context.Context, p *domain.Payout) error
	List(ctx context.Context) ([]domain.Payout, error)
	ByRef(ctx context.Context, ref string) ([]domain.Payout, error)
	UpdateStatus(ctx context.Context, id string, to domain.PayoutStatus) (*domain.Payout, error)
}

type Directory interface {
	Listing(ctx context.Context, id string) (*domain.Listing, error)
	User(ctx context.Context, id string) (*domain.User, error)
}

// EventPublisher is satisfied by *mq.Publisher.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

const (
	RKPaymentPaid    = "payment.paid"
	RKBookingCreated = "booking.created"
	RKPayoutCreated  = "payout.created"
)

func rkBooking(s domain.Status) string { return "booking." + string(s) }

func rkPayout(s domain.PayoutStatus) string { return "payout." + string(s) }

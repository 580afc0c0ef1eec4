package events

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Routing keys published by booking-service on the booking exchange.
const (
	RKBookingCreated   = "booking.created"
	RKBookingConfirmed = "booking.confirmed"
	RKBookingCancelled = "booking.cancelled"
	RKBookingRefunded  = "booking.refunded"

	RKPaymentPaid = "payment.paid"

	RKPayoutCreated = "payout.created"
	payoutPrefix    = "payout."
)

type BookingCreated struct {
	BookingID  string `json:"booking_id"`
	ListingID  string `json:"listing_id"`
	Amount     int64  `json:"amount"`
	GuestEmail string `json:"guest_email"`
}

type BookingChanged struct {
	BookingID  string  `json:"booking_id"`
	Reference  string  `json:"reference"`
	Status     string  `json:"status"`
	GuestEmail string  `json:"guest_email"`
	Amount     float64 `json:"amount"`
}

type PaymentPaid struct {
	BookingID string `json:"booking_id"`
	Reference string `json:"reference"`
	ChargeID  string `json:"charge_id"`
	Provider  string `json:"provider"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

type PayoutEvent struct {
	PayoutID   string `json:"payout_id"`
	BookingID  string `json:"booking_id"`
	Ref        string `json:"ref"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`
	PayeeEmail string `json:"payee_email"`
}

// IsPayout reports whether key is payout.created or a payout status change.
func IsPayout(key string) bool { return strings.HasPrefix(key, payoutPrefix) }

func Decode[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}

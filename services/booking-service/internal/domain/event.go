package domain

import "time"

type EventStatus string

const (
	EventSuccess EventStatus = "success"
	EventFailure EventStatus = "failure"
)

// PaymentEvent is a verified gateway notification reduced to what the booking
// engine needs. It is never stored.
type PaymentEvent struct {
	Provider   string
	Reference  string
	ExternalID string
	Status     EventStatus
	Amount     int64
	Currency   string
	Meta       EventMeta
}

type EventMeta struct {
	BookingID string
	ListingID string
	Email     string
	UserID    string
	Title     string
	Guests    int
	Nights    int
	CheckIn   string
	CheckOut  string
}

// Listing and User are the read-only collaborator records the engine consults.
type Listing struct {
	ID            string
	Title         string
	PricePerNight float64
	OwnerID       string
}

type User struct {
	ID                    string
	Email                 string
	Phone                 string
	WhatsApp              string
	Role                  string
	SubscriptionActive    bool
	SubscriptionExpiresAt time.Time // zero when the plan has no end date
	KYCStatus             string
}

package domain

import (
	"strings"
	"time"
)

const (
	ProviderPaystack    = "paystack"
	ProviderFlutterwave = "flutterwave"
)

// Booking is the typed view of a stored booking document. Doc keeps every field
// the record carries, including the ones this service does not interpret.
type Booking struct {
	ID         string
	Reference  string
	Status     Status
	ListingID  string
	GuestID    string
	GuestEmail string
	HostID     string
	HostEmail  string
	Nights     int
	Gross      float64
	Currency   string
	Provider   string
	CheckIn    time.Time
	CheckOut   time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	CancelRequested bool
	RefundRequested bool
	ContactReleased bool

	Doc Doc
}

func BookingFromDoc(id string, d Doc) Booking {
	if id == "" {
		id = d.String(IDKeys...)
	}
	b := Booking{
		ID:         id,
		Reference:  d.String(referenceKeys...),
		Status:     NormalizeStatus(d.String("status")),
		ListingID:  d.String(listingKeys...),
		GuestID:    d.String("guestId", "userId", "uid"),
		GuestEmail: d.String(guestKeys...),
		HostID:     d.String(hostIDKeys...),
		HostEmail:  d.String(hostEmailKeys...),
		Nights:     int(d.Number(nightsKeys...)),
		Gross:      d.Number(grossKeys...),
		Currency:   d.String("currency"),
		Provider:   d.String("provider"),

		CancelRequested: d.Bool("cancelRequested", "cancellationRequested"),
		RefundRequested: d.Bool("refundRequested"),
		ContactReleased: d.Bool("contactReleased"),
		Doc:             d,
	}
	if b.Currency == "" {
		b.Currency = DefaultCurrency
	}
	b.CheckIn, _ = d.Time(checkInKeys...)
	b.CheckOut, _ = d.Time(checkOutKeys...)
	b.CreatedAt, _ = d.Time(createdKeys...)
	b.UpdatedAt, _ = d.Time(updatedKeys...)
	return b
}

// Matches reports whether key names this booking by id, alternate id or reference.
func (b Booking) Matches(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	if b.ID == key || b.Reference == key {
		return true
	}
	for _, k := range IDKeys {
		if b.Doc.String(k) == key {
			return true
		}
	}
	return false
}

// PayoutRef is the ledger reference used for every payout tied to a booking.
func PayoutRef(bookingID string) string {
	return "bo_" + bookingID
}

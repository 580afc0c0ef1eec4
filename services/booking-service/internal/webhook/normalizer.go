package webhook

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
)

const (
	paystackChargeSuccess = "charge.success"
	flutterwaveCompleted  = "charge.completed"
)

// Normalize turns a verified provider payload into a PaymentEvent. A nil event
// with a nil error means the event type is irrelevant and should be acknowledged.
func Normalize(provider string, payload []byte) (*domain.PaymentEvent, error) {
	var env domain.Doc
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", provider, err)
	}
	switch provider {
	case domain.ProviderPaystack:
		return normalizePaystack(env), nil
	case domain.ProviderFlutterwave:
		return normalizeFlutterwave(env), nil
	}
	return nil, fmt.Errorf("unknown provider %q", provider)
}

func normalizePaystack(env domain.Doc) *domain.PaymentEvent {
	if env.String("event") != paystackChargeSuccess {
		return nil
	}
	data := env.Map("data")
	if data == nil {
		data = domain.Doc{}
	}
	ev := &domain.PaymentEvent{
		Provider:   domain.ProviderPaystack,
		Reference:  data.String("reference"),
		ExternalID: data.String("id"),
		Status:     domain.EventFailure,
		Amount:     domain.KoboToNaira(data.Number("amount")),
		Currency:   strings.ToUpper(data.String("currency")),
	}
	if st := strings.ToLower(data.String("status")); st == "" || st == "success" {
		ev.Status = domain.EventSuccess
	}
	meta := metadata(data, "metadata")
	ev.Meta = readMeta(meta)
	if email := data.Map("customer").String("email"); email != "" {
		ev.Meta.Email = email
	}
	return ev
}

func normalizeFlutterwave(env domain.Doc) *domain.PaymentEvent {
	event := env.String("event", "event_type", "event.type")
	if !strings.Contains(strings.ToLower(event), flutterwaveCompleted) {
		return nil
	}
	data := env.Map("data")
	if data == nil {
		data = env
	}
	ev := &domain.PaymentEvent{
		Provider:   domain.ProviderFlutterwave,
		Reference:  data.String("tx_ref", "flw_ref", "reference", "id"),
		ExternalID: data.String("id"),
		Status:     domain.EventFailure,
		Amount:     int64(math.Round(data.Number("amount"))),
		Currency:   strings.ToUpper(data.String("currency")),
	}
	if strings.EqualFold(data.String("status"), "successful") {
		ev.Status = domain.EventSuccess
	}
	meta := metadata(data, "meta", "meta_data")
	ev.Meta = readMeta(meta)
	if ev.Meta.Email == "" {
		ev.Meta.Email = data.Map("customer").String("email")
	}
	return ev
}

// metadata returns the first metadata object among keys. Some integrations send
// it as a JSON-encoded string.
func metadata(data domain.Doc, keys ...string) domain.Doc {
	for _, k := range keys {
		if m := data.Map(k); m != nil {
			return m
		}
		if s, ok := data[k].(string); ok && strings.HasPrefix(strings.TrimSpace(s), "{") {
			var m domain.Doc
			if json.Unmarshal([]byte(s), &m) == nil {
				return m
			}
		}
	}
	return domain.Doc{}
}

func readMeta(m domain.Doc) domain.EventMeta {
	guests := int(m.Number("guests"))
	if guests <= 0 {
		guests = 1
	}
	return domain.EventMeta{
		BookingID: m.String("bookingId", "booking_id"),
		ListingID: m.String("listingId", "listing_id"),
		Email:     m.String("email"),
		UserID:    m.String("userId", "user_id"),
		Title:     m.String("title", "listingTitle"),
		Guests:    guests,
		Nights:    int(m.Number("nights")),
		CheckIn:   m.String("checkIn", "check_in"),
		CheckOut:  m.String("checkOut", "check_out"),
	}
}

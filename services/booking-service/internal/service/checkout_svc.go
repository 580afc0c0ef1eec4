package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/gateway"
)

// Initializer starts a hosted checkout. *gateway.Paystack satisfies it.
type Initializer interface {
	Live() bool
	Initialize(ctx context.Context, in gateway.InitRequest) (*gateway.InitResult, error)
}

// Verifier asks a provider about one transaction reference.
type Verifier interface {
	Verify(ctx context.Context, reference string) (*gateway.Verification, error)
}

type CheckoutSvc struct {
	store       BookingStore
	dir         Directory
	engine      *BookingSvc
	gw          Initializer
	verifiers   map[string]Verifier
	callbackURL string
	pub         EventPublisher
	log         *logrus.Entry
}

func NewCheckoutSvc(store BookingStore, dir Directory, engine *BookingSvc, gw Initializer, verifiers map[string]Verifier, frontendURL string, pub EventPublisher, log *logrus.Entry) *CheckoutSvc {
	return &CheckoutSvc{
		store:       store,
		dir:         dir,
		engine:      engine,
		gw:          gw,
		verifiers:   verifiers,
		callbackURL: strings.TrimRight(frontendURL, "/") + "/bookings",
		pub:         pub,
		log:         log.WithField("component", "checkout"),
	}
}

type CheckoutInput struct {
	Email     string
	ListingID string
	Nights    int
	Title     string
	UserID    string
	CheckIn   string
	CheckOut  string
}

type CheckoutResult struct {
	BookingID        string `json:"bookingId"`
	Reference        string `json:"reference,omitempty"`
	AuthorizationURL string `json:"authorization_url,omitempty"`
	AccessCode       string `json:"access_code,omitempty"`
	Amount           int64  `json:"amount"`
	Mock             bool   `json:"mock"`
}

// Initialize prices the stay from the listing, records a pending booking and
// opens a Paystack checkout for it. Without a live gateway the pending booking
// is returned in mock mode.
func (s *CheckoutSvc) Initialize(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, &domain.InvalidValueError{Field: "email", Value: in.Email}
	}
	if in.ListingID == "" {
		return nil, &domain.InvalidValueError{Field: "listingId", Value: in.ListingID}
	}
	listing, err := s.dir.Listing(ctx, in.ListingID)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", in.ListingID, err)
	}
	nights := in.Nights
	if nights < 1 {
		nights = 1
	}
	amount := int64(math.Round(listing.PricePerNight * float64(nights)))
	if amount <= 0 {
		return nil, &domain.InvalidValueError{Field: "pricePerNight", Value: fmt.Sprint(listing.PricePerNight)}
	}
	title := in.Title
	if title == "" {
		title = listing.Title
	}

	live := s.gw != nil && s.gw.Live()
	doc := domain.Doc{
		"listingId":  in.ListingID,
		"title":      title,
		"email":      email,
		"guestEmail": email,
		"nights":     nights,
		"amountN":    amount,
		"currency":   domain.DefaultCurrency,
		"provider":   domain.ProviderPaystack,
		"status":     string(domain.StatusPending),
		"gateway":    "init",
	}
	if !live {
		doc["gateway"] = "mock"
	}
	if listing.OwnerID != "" {
		doc["hostId"] = listing.OwnerID
		doc["ownerId"] = listing.OwnerID
	}
	if in.UserID != "" {
		doc["userId"] = in.UserID
		doc["guestId"] = in.UserID
	}
	if in.CheckIn != "" {
		doc["checkIn"] = in.CheckIn
	}
	if in.CheckOut != "" {
		doc["checkOut"] = in.CheckOut
	}
	b, err := s.store.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("create pending booking: %w", err)
	}
	s.publish(ctx, RKBookingCreated, map[string]any{"booking_id": b.ID, "listing_id": in.ListingID, "amount": amount, "guest_email": email})

	out := &CheckoutResult{BookingID: b.ID, Amount: amount, Mock: !live}
	if !live {
		s.log.WithField("booking_id", b.ID).Info("checkout in mock mode")
		return out, nil
	}

	res, err := s.gw.Initialize(ctx, gateway.InitRequest{
		Email:       email,
		AmountKobo:  amount * 100,
		CallbackURL: s.callbackURL,
		Metadata: map[string]any{
			"bookingId": b.ID,
			"listingId": in.ListingID,
			"title":     title,
			"amountN":   amount,
			"nights":    nights,
			"userId":    in.UserID,
		},
	})
	if err != nil {
		s.log.WithError(err).WithField("booking_id", b.ID).Error("paystack initialize failed")
		return nil, err
	}
	if _, err := s.store.Upsert(ctx, b.ID, domain.Doc{"reference": res.Reference, "gateway": domain.ProviderPaystack}); err != nil {
		return nil, fmt.Errorf("store reference for %s: %w", b.ID, err)
	}
	out.Reference = res.Reference
	out.AuthorizationURL = res.AuthorizationURL
	out.AccessCode = res.AccessCode
	return out, nil
}

// Verify asks the provider about a reference and settles the booking the same
// way a webhook would. A failed charge cancels a booking still pending.
func (s *CheckoutSvc) Verify(ctx context.Context, bookingID, reference, provider string) (*domain.Booking, *gateway.Verification, error) {
	if provider == "" {
		provider = domain.ProviderPaystack
	}
	provider = strings.ToLower(provider)
	v, ok := s.verifiers[provider]
	if !ok {
		return nil, nil, &domain.InvalidValueError{Field: "provider", Value: provider, Allowed: []string{domain.ProviderPaystack, domain.ProviderFlutterwave}}
	}
	if reference == "" && bookingID != "" {
		b, err := s.store.FindByIDOrReference(ctx, bookingID)
		if err != nil {
			return nil, nil, err
		}
		reference = b.Reference
	}
	if reference == "" {
		return nil, nil, &domain.InvalidValueError{Field: "reference", Value: reference}
	}

	res, err := v.Verify(ctx, reference)
	if err != nil {
		return nil, nil, err
	}
	if bookingID == "" {
		bookingID = res.Meta.BookingID
	}
	log := s.log.WithFields(logrus.Fields{"provider": provider, "reference": reference, "booking_id": bookingID})

	if !res.Success {
		log.WithField("status", res.Status).Info("payment not successful")
		b, err := s.store.FindByIDOrReference(ctx, firstNonEmpty(bookingID, reference))
		if errors.Is(err, domain.ErrNotFound) {
			return nil, res, nil
		}
		if err != nil {
			return nil, nil, err
		}
		if b.Status == domain.StatusPending {
			b, err = s.engine.Cancel(ctx, b.ID, "payment "+res.Status, "gateway:"+provider)
			if err != nil {
				return nil, nil, err
			}
		}
		return b, res, nil
	}

	meta := res.Meta
	meta.BookingID = bookingID
	b, err := s.engine.ApplyWebhookEvent(ctx, domain.PaymentEvent{
		Provider:   provider,
		Reference:  reference,
		ExternalID: res.ID,
		Status:     domain.EventSuccess,
		Amount:     res.Amount,
		Currency:   domain.DefaultCurrency,
		Meta:       meta,
	})
	if err != nil {
		return nil, nil, err
	}
	if b == nil {
		b, err = s.store.FindByIDOrReference(ctx, firstNonEmpty(bookingID, reference))
		if err != nil {
			return nil, nil, err
		}
	}
	log.Info("payment verified")
	return b, res, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (s *CheckoutSvc) publish(ctx context.Context, key string, v any) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishJSON(ctx, key, v); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("publish failed")
	}
}

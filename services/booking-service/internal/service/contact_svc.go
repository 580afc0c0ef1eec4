package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/johnagbike-dotcom/nesta-server/pkg/auth"
	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
)

// Denial codes, one per gate check.
const (
	DenyNotFound      = "booking_not_found"
	DenyForbidden     = "forbidden"
	DenyNotActive     = "booking_not_active"
	DenyRequestOpen   = "request_outstanding"
	DenyTooEarly      = "contact_not_available_yet"
	DenyHostNotFound  = "host_not_found"
	DenyNotSubscribed = "host_not_subscribed"
	DenyKYC           = "host_kyc_incomplete"
	DenyNoContact     = "contact_unavailable"
)

type DenialError struct {
	Code    string
	Message string
}

func (e *DenialError) Error() string { return e.Code + ": " + e.Message }

func deny(code, msg string) error { return &DenialError{Code: code, Message: msg} }

var inactiveStatuses = map[domain.Status]bool{
	domain.StatusPending:   true,
	domain.StatusCancelled: true,
	domain.StatusRefunded:  true,
	domain.StatusFailed:    true,
	domain.StatusExpired:   true,
}

type Requester struct {
	ID    string
	Email string
	Role  string
}

type Contact struct {
	BookingID string `json:"bookingId"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	WhatsApp  string `json:"whatsapp,omitempty"`
	Released  bool   `json:"released"`
}

// ContactSvc discloses host contact details once a booking is close enough to
// check-in. It reads bookings and users and only ever stamps the release
// marker on the booking.
type ContactSvc struct {
	store      BookingStore
	dir        Directory
	log        *logrus.Entry
	now        func() time.Time
	windowDays int
}

func NewContactSvc(store BookingStore, dir Directory, log *logrus.Entry, windowDays int) *ContactSvc {
	return &ContactSvc{
		store:      store,
		dir:        dir,
		log:        log.WithField("component", "contact-gate"),
		now:        func() time.Time { return time.Now().UTC() },
		windowDays: windowDays,
	}
}

// Reveal runs the gate checks in a fixed order and reports the first failure.
func (s *ContactSvc) Reveal(ctx context.Context, bookingID string, r Requester) (*Contact, error) {
	b, err := s.store.FindByIDOrReference(ctx, bookingID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, deny(DenyNotFound, "Booking not found")
	}
	if err != nil {
		return nil, err
	}
	if !authorized(*b, r) {
		return nil, deny(DenyForbidden, "Only the guest, the host or an admin can view these details")
	}
	if inactiveStatuses[b.Status] {
		return nil, deny(DenyNotActive, fmt.Sprintf("Booking is %s", b.Status))
	}
	if b.CancelRequested || b.RefundRequested {
		return nil, deny(DenyRequestOpen, "A cancellation or refund request is pending on this booking")
	}
	if b.CheckIn.IsZero() || s.now().Before(b.CheckIn.AddDate(0, 0, -s.windowDays)) {
		return nil, deny(DenyTooEarly, fmt.Sprintf("Contact details will be available %d days before check-in", s.windowDays))
	}

	hostID := b.HostID
	if hostID == "" && b.ListingID != "" {
		if l, err := s.dir.Listing(ctx, b.ListingID); err == nil {
			hostID = l.OwnerID
		}
	}
	host, err := s.dir.User(ctx, hostID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, deny(DenyHostNotFound, "Host not found")
	}
	if err != nil {
		return nil, err
	}
	if !host.SubscriptionActive || (!host.SubscriptionExpiresAt.IsZero() && host.SubscriptionExpiresAt.Before(s.now())) {
		return nil, deny(DenyNotSubscribed, "Host not subscribed")
	}
	if host.KYCStatus != "" && host.KYCStatus != "approved" {
		return nil, deny(DenyKYC, "Host verification is not complete")
	}
	if host.Phone == "" && host.Email == "" {
		return nil, deny(DenyNoContact, "Host has no contact details on file")
	}

	if !b.ContactReleased {
		_, err := s.store.Upsert(ctx, b.ID, domain.Doc{
			"contactReleased":    true,
			"contactReleasedAt":  s.now(),
			"refundPolicyStatus": "restricted",
		})
		if err != nil {
			s.log.WithError(err).WithField("booking_id", b.ID).Warn("could not stamp contact release")
		}
	}
	return &Contact{BookingID: b.ID, Email: host.Email, Phone: host.Phone, WhatsApp: host.WhatsApp, Released: true}, nil
}

func authorized(b domain.Booking, r Requester) bool {
	if r.Role == auth.RoleAdmin {
		return true
	}
	if r.ID != "" && (r.ID == b.GuestID || r.ID == b.HostID) {
		return true
	}
	email := strings.ToLower(strings.TrimSpace(r.Email))
	if email == "" {
		return false
	}
	for _, v := range []string{b.GuestEmail, b.HostEmail, b.Doc.String("ownerEmail")} {
		if strings.EqualFold(v, email) {
			return true
		}
	}
	return false
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/lock"
)

const defaultGuestEmail = "guest@example.com"

// BookingSvc is the booking lifecycle engine. Every mutation of one booking
// runs under that booking's lock.
type BookingSvc struct {
	store    BookingStore
	ledger   *LedgerSvc
	dir      Directory
	locks    lock.Locker
	pub      EventPublisher
	log      *logrus.Entry
	tracer   trace.Tracer
	now      func() time.Time
	sharePct int
}

func NewBookingSvc(store BookingStore, ledger *LedgerSvc, dir Directory, locks lock.Locker, pub EventPublisher, log *logrus.Entry, sharePct int) *BookingSvc {
	if locks == nil {
		locks = lock.NewKeyedMutex()
	}
	if sharePct <= 0 {
		sharePct = domain.DefaultHostSharePercent
	}
	return &BookingSvc{
		store:    store,
		ledger:   ledger,
		dir:      dir,
		locks:    locks,
		pub:      pub,
		log:      log.WithField("component", "booking-engine"),
		tracer:   otel.Tracer("booking-service/engine"),
		now:      func() time.Time { return time.Now().UTC() },
		sharePct: sharePct,
	}
}

func (s *BookingSvc) Get(ctx context.Context, key string) (*domain.Booking, error) {
	return s.store.FindByIDOrReference(ctx, key)
}

// ApplyWebhookEvent confirms the booking a successful payment belongs to,
// creating it when no row exists yet. It never touches the payout ledger:
// payouts follow staff confirmation through SetStatus only. A nil booking
// means the event was a no-op.
func (s *BookingSvc) ApplyWebhookEvent(ctx context.Context, ev domain.PaymentEvent) (*domain.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.ApplyWebhookEvent", trace.WithAttributes(
		attribute.String("payment.provider", ev.Provider),
		attribute.String("payment.reference", ev.Reference),
	))
	defer span.End()

	log := s.log.WithFields(logrus.Fields{"provider": ev.Provider, "reference": ev.Reference, "booking_id": ev.Meta.BookingID})
	if ev.Status != domain.EventSuccess {
		log.Info("non-success payment event ignored")
		return nil, nil
	}

	key := ev.Meta.BookingID
	if key == "" {
		key = ev.Reference
	}
	if key == "" {
		log.Warn("payment event carries neither booking id nor reference")
		return nil, nil
	}
	release, err := s.locks.Lock(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("lock booking %s: %w", key, err)
	}
	defer release()

	existing, err := s.store.FindByIDOrReference(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		span.RecordError(err)
		return nil, err
	}
	if existing == nil && ev.Meta.BookingID != "" && ev.Reference != "" {
		// pre-created row whose id the gateway did not echo back
		if b, err := s.store.FindByIDOrReference(ctx, ev.Reference); err == nil {
			existing = b
		}
	}

	var (
		b       *domain.Booking
		changed = true
	)
	if existing != nil {
		if existing.ID != key {
			relID, err := s.locks.Lock(ctx, existing.ID)
			if err != nil {
				return nil, fmt.Errorf("lock booking %s: %w", existing.ID, err)
			}
			defer relID()
		}
		b, changed, err = s.confirmFromEvent(ctx, *existing, ev)
	} else {
		b, err = s.createFromEvent(ctx, ev)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !changed {
		return b, nil
	}
	s.publish(ctx, RKPaymentPaid, map[string]any{
		"booking_id": b.ID,
		"reference":  ev.Reference,
		"charge_id":  ev.ExternalID,
		"provider":   ev.Provider,
		"amount":     ev.Amount,
		"currency":   domain.DefaultCurrency,
	})
	return b, nil
}

func (s *BookingSvc) confirmFromEvent(ctx context.Context, b domain.Booking, ev domain.PaymentEvent) (*domain.Booking, bool, error) {
	log := s.log.WithFields(logrus.Fields{"booking_id": b.ID, "status": b.Status})
	if b.Status.Terminal() {
		log.Warn("payment event for closed booking ignored")
		return &b, false, nil
	}
	if b.Status == domain.StatusConfirmed {
		switch {
		case ev.Reference == "" || b.Reference == ev.Reference:
			log.Debug("duplicate payment event")
			return &b, false, nil
		case b.Reference != "":
			log.WithField("event_reference", ev.Reference).Warn("payment event with another reference for confirmed booking ignored")
			return &b, false, nil
		}
	}
	patch := domain.Doc{
		"status":     string(domain.StatusConfirmed),
		"provider":   ev.Provider,
		"gateway":    "success",
		"verifiedAt": s.now(),
	}
	switch {
	case ev.Reference == "":
	case b.Reference == "":
		patch["reference"] = ev.Reference
	case b.Reference != ev.Reference:
		// the booking keeps resolving by the reference it was created with
		patch["paymentReference"] = ev.Reference
	}
	if ev.ExternalID != "" {
		patch["paymentId"] = ev.ExternalID
	}
	if b.Gross == 0 && ev.Amount > 0 {
		patch["amount"] = ev.Amount
	}
	updated, err := s.store.Upsert(ctx, b.ID, patch)
	if err != nil {
		return nil, false, fmt.Errorf("confirm booking %s: %w", b.ID, err)
	}
	log.Info("booking confirmed by payment")
	return updated, true, nil
}

func (s *BookingSvc) createFromEvent(ctx context.Context, ev domain.PaymentEvent) (*domain.Booking, error) {
	m := ev.Meta
	email := m.Email
	if email == "" {
		email = defaultGuestEmail
	}
	doc := domain.Doc{
		"listingId":  m.ListingID,
		"title":      m.Title,
		"email":      email,
		"guestEmail": email,
		"guests":     m.Guests,
		"nights":     m.Nights,
		"amount":     ev.Amount,
		"currency":   domain.DefaultCurrency,
		"provider":   ev.Provider,
		"gateway":    "success",
		"status":     string(domain.StatusConfirmed),
		"reference":  ev.Reference,
		"verifiedAt": s.now(),
	}
	if m.UserID != "" {
		doc["userId"] = m.UserID
		doc["guestId"] = m.UserID
	}
	if ev.ExternalID != "" {
		doc["paymentId"] = ev.ExternalID
	}
	if m.CheckIn != "" {
		doc["checkIn"] = m.CheckIn
	}
	if m.CheckOut != "" {
		doc["checkOut"] = m.CheckOut
	}
	if hostID := s.hostForListing(ctx, m.ListingID); hostID != "" {
		doc["hostId"] = hostID
		doc["ownerId"] = hostID
	}

	var (
		b   *domain.Booking
		err error
	)
	if m.BookingID != "" {
		b, err = s.store.Upsert(ctx, m.BookingID, doc)
	} else {
		b, err = s.store.Create(ctx, doc)
	}
	if err != nil {
		return nil, fmt.Errorf("create booking from %s event: %w", ev.Provider, err)
	}
	s.log.WithFields(logrus.Fields{"booking_id": b.ID, "reference": ev.Reference, "amount": ev.Amount}).Info("booking created from payment")
	return b, nil
}

func (s *BookingSvc) hostForListing(ctx context.Context, listingID string) string {
	if s.dir == nil || listingID == "" {
		return ""
	}
	l, err := s.dir.Listing(ctx, listingID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.WithError(err).WithField("listing_id", listingID).Warn("listing lookup failed")
		}
		return ""
	}
	return l.OwnerID
}

// SetStatus is the operator path. Confirmation books the host's share as a
// payout and a refund books the matching clawback, both under bo_<id>.
func (s *BookingSvc) SetStatus(ctx context.Context, id, next, actor string) (*domain.Booking, error) {
	st, err := domain.ParseBookingStatus(next)
	if err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "booking.SetStatus", trace.WithAttributes(
		attribute.String("booking.id", id), attribute.String("booking.next", string(st))))
	defer span.End()

	b, release, err := s.lockAndLoad(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	if b.Status == st {
		// a gateway confirmation leaves the host payout to the operator
		if st == domain.StatusConfirmed {
			if err := s.ensurePayout(ctx, *b, 1, "Host payout for confirmed booking"); err != nil {
				span.RecordError(err)
				return nil, err
			}
		}
		return b, nil
	}
	if !domain.CanTransition(b.Status, st) {
		return nil, &domain.TransitionError{From: b.Status, To: st}
	}

	switch st {
	case domain.StatusConfirmed:
		err = s.ensurePayout(ctx, *b, 1, "Host payout for confirmed booking")
	case domain.StatusRefunded:
		err = s.ensurePayout(ctx, *b, -1, "Refund clawback for booking")
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := s.now()
	patch := domain.Doc{"status": string(st), "statusUpdatedBy": actor, "statusUpdatedAt": now}
	switch st {
	case domain.StatusConfirmed:
		patch["confirmedAt"] = now
	case domain.StatusRefunded:
		patch["refundedAt"] = now
		patch["refundedBy"] = actor
	case domain.StatusCancelled:
		patch["cancelledAt"] = now
		patch["cancelledBy"] = actor
	}
	updated, err := s.store.Upsert(ctx, b.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("set status of %s: %w", b.ID, err)
	}
	s.log.WithFields(logrus.Fields{"booking_id": b.ID, "from": b.Status, "to": st, "actor": actor}).Info("booking status changed")
	s.publishBooking(ctx, st, updated)
	return updated, nil
}

// Cancel closes a booking without touching the ledger.
func (s *BookingSvc) Cancel(ctx context.Context, id, reason, actor string) (*domain.Booking, error) {
	b, release, err := s.lockAndLoad(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	switch b.Status {
	case domain.StatusCancelled:
		return nil, domain.ErrAlreadyCancelled
	case domain.StatusRefunded:
		return nil, domain.ErrAlreadyRefunded
	}
	now := s.now()
	updated, err := s.store.Upsert(ctx, b.ID, domain.Doc{
		"status":                string(domain.StatusCancelled),
		"cancelRequested":       false,
		"cancellationRequested": false,
		"cancelReason":          reason,
		"cancelledBy":           actor,
		"cancelledAt":           now,
	})
	if err != nil {
		return nil, fmt.Errorf("cancel %s: %w", b.ID, err)
	}
	s.log.WithFields(logrus.Fields{"booking_id": b.ID, "from": b.Status, "actor": actor}).Info("booking cancelled")
	s.publishBooking(ctx, domain.StatusCancelled, updated)
	return updated, nil
}

type RefundInput struct {
	Note      string
	Reference string // gateway refund reference, when the refund was issued there
	Actor     string
}

// Refund records the refund, books the clawback and leaves an audit trail on
// the booking.
func (s *BookingSvc) Refund(ctx context.Context, id string, in RefundInput) (*domain.Booking, error) {
	b, release, err := s.lockAndLoad(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	if b.Status == domain.StatusRefunded {
		return nil, domain.ErrAlreadyRefunded
	}
	if !domain.CanTransition(b.Status, domain.StatusRefunded) {
		return nil, &domain.TransitionError{From: b.Status, To: domain.StatusRefunded}
	}
	if err := s.ensurePayout(ctx, *b, -1, strings.TrimSpace("Refund clawback for booking. "+in.Note)); err != nil {
		return nil, err
	}
	now := s.now()
	updated, err := s.store.Upsert(ctx, b.ID, domain.Doc{
		"status":          string(domain.StatusRefunded),
		"refundRequested": false,
		"refundNote":      in.Note,
		"refundReference": in.Reference,
		"refundedBy":      in.Actor,
		"refundedAt":      now,
		"audit": map[string]any{
			"type":  "refund",
			"state": string(domain.StatusRefunded),
			"at":    now,
			"note":  in.Note,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("refund %s: %w", b.ID, err)
	}
	s.log.WithFields(logrus.Fields{"booking_id": b.ID, "actor": in.Actor}).Info("booking refunded")
	s.publishBooking(ctx, domain.StatusRefunded, updated)
	return updated, nil
}

func (s *BookingSvc) lockAndLoad(ctx context.Context, key string) (*domain.Booking, func(), error) {
	b, err := s.store.FindByIDOrReference(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	release, err := s.locks.Lock(ctx, b.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("lock booking %s: %w", b.ID, err)
	}
	// re-read under the lock
	b, err = s.store.FindByIDOrReference(ctx, b.ID)
	if err != nil {
		release()
		return nil, nil, err
	}
	return b, release, nil
}

// ensurePayout appends the host-share entry of the given sign unless the ledger
// already holds one for this booking.
func (s *BookingSvc) ensurePayout(ctx context.Context, b domain.Booking, sign int64, note string) error {
	if s.ledger == nil {
		return nil
	}
	amount := sign * domain.HostShare(b.Gross, s.sharePct)
	if amount == 0 {
		s.log.WithField("booking_id", b.ID).Warn("booking has no gross amount, payout skipped")
		return nil
	}
	ref := domain.PayoutRef(b.ID)
	exists, err := s.ledger.hasEntry(ctx, ref, amount)
	if err != nil {
		return fmt.Errorf("check ledger for %s: %w", ref, err)
	}
	if exists {
		return nil
	}
	_, err = s.ledger.Append(ctx, domain.Payout{
		PayeeEmail: s.payeeEmail(ctx, b),
		PayeeType:  domain.PayeeHost,
		Amount:     amount,
		Currency:   domain.DefaultCurrency,
		Ref:        ref,
		Note:       note,
		BookingID:  b.ID,
	})
	return err
}

func (s *BookingSvc) payeeEmail(ctx context.Context, b domain.Booking) string {
	if b.HostEmail != "" {
		return b.HostEmail
	}
	if s.dir != nil && b.HostID != "" {
		if u, err := s.dir.User(ctx, b.HostID); err == nil && u.Email != "" {
			return u.Email
		}
	}
	return ""
}

type ListFilter struct {
	Status string
	Query  string
	Page   int
	Limit  int
}

type BookingPage struct {
	Items []domain.Booking
	Page  int
	Limit int
	Total int
}

// List serves the admin console: newest first, status tab and keyword filter.
func (s *BookingSvc) List(ctx context.Context, f ListFilter) (*BookingPage, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	tab := strings.ToLower(strings.TrimSpace(f.Status))
	kw := strings.ToLower(strings.TrimSpace(f.Query))
	var rows []domain.Booking
	for _, b := range all {
		if tab != "" && tab != "all" && string(b.Status) != tab {
			continue
		}
		if kw != "" && !bookingMatches(b, kw) {
			continue
		}
		rows = append(rows, b)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	start := (page - 1) * limit
	if start > len(rows) {
		start = len(rows)
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return &BookingPage{Items: rows[start:end], Page: page, Limit: limit, Total: len(rows)}, nil
}

func bookingMatches(b domain.Booking, kw string) bool {
	for _, v := range []string{b.ID, b.Reference, b.GuestEmail, b.HostEmail, b.ListingID, b.Doc.String("title")} {
		if strings.Contains(strings.ToLower(v), kw) {
			return true
		}
	}
	return false
}

func (s *BookingSvc) publishBooking(ctx context.Context, st domain.Status, b *domain.Booking) {
	s.publish(ctx, rkBooking(st), map[string]any{
		"booking_id":  b.ID,
		"reference":   b.Reference,
		"status":      b.Status,
		"guest_email": b.GuestEmail,
		"amount":      b.Gross,
	})
}

func (s *BookingSvc) publish(ctx context.Context, key string, v any) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishJSON(ctx, key, v); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("publish failed")
	}
}

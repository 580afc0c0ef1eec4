package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
)

// LedgerSvc owns the host payout ledger and its read-time reconciliation view.
type LedgerSvc struct {
	store    PayoutStore
	bookings BookingStore
	pub      EventPublisher
	log      *logrus.Entry
	tracer   trace.Tracer
	now      func() time.Time
	sharePct int
}

func NewLedgerSvc(store PayoutStore, bookings BookingStore, pub EventPublisher, log *logrus.Entry, sharePct int) *LedgerSvc {
	if sharePct <= 0 {
		sharePct = domain.DefaultHostSharePercent
	}
	return &LedgerSvc{
		store:    store,
		bookings: bookings,
		pub:      pub,
		log:      log.WithField("component", "ledger"),
		tracer:   otel.Tracer("booking-service/ledger"),
		now:      func() time.Time { return time.Now().UTC() },
		sharePct: sharePct,
	}
}

// Append stamps id and timestamps and records the payout as the newest entry.
func (l *LedgerSvc) Append(ctx context.Context, p domain.Payout) (*domain.Payout, error) {
	now := l.now()
	p.ID = "po_" + uuid.NewString()
	p.Date, p.CreatedAt, p.UpdatedAt = now, now, now
	p.Source = ""
	if p.Status == "" {
		p.Status = domain.PayoutPending
	}
	if p.Currency == "" {
		p.Currency = domain.DefaultCurrency
	}
	if p.PayeeType == "" {
		p.PayeeType = domain.PayeeHost
	}
	if p.PayeeEmail == "" {
		p.PayeeEmail = "-"
	}
	if err := l.store.Append(ctx, &p); err != nil {
		return nil, fmt.Errorf("append payout %s: %w", p.Ref, err)
	}
	l.log.WithFields(logrus.Fields{"payout_id": p.ID, "ref": p.Ref, "amount": p.Amount}).Info("payout recorded")
	l.publish(ctx, RKPayoutCreated, p)
	return &p, nil
}

// hasEntry reports whether ref already carries a payout with the same sign.
func (l *LedgerSvc) hasEntry(ctx context.Context, ref string, amount int64) (bool, error) {
	rows, err := l.store.ByRef(ctx, ref)
	if err != nil {
		return false, err
	}
	for _, r := range rows {
		if (r.Amount >= 0) == (amount >= 0) {
			return true, nil
		}
	}
	return false, nil
}

type ViewFilter struct {
	Status string // "" or "all" for every row
	Query  string
	From   time.Time
	To     time.Time
}

// BuildView returns the persisted ledger plus synthetic clawback rows for
// refunded bookings the ledger does not yet account for. Synthetic rows come
// first, in booking order, and are derived only from booking fields so
// repeated reads agree.
func (l *LedgerSvc) BuildView(ctx context.Context, f ViewFilter) ([]domain.Payout, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.BuildView")
	defer span.End()

	persisted, err := l.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	bookings, err := l.bookings.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	var synthetic []domain.Payout
	for _, b := range bookings {
		if b.Status != domain.StatusRefunded || covered(persisted, b) {
			continue
		}
		synthetic = append(synthetic, l.syntheticRow(b))
	}
	span.SetAttributes(attribute.Int("ledger.persisted", len(persisted)), attribute.Int("ledger.synthetic", len(synthetic)))

	rows := append(synthetic, persisted...)
	out := rows[:0]
	for _, r := range rows {
		if f.match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func covered(rows []domain.Payout, b domain.Booking) bool {
	for _, p := range rows {
		if p.Covers(b) {
			return true
		}
	}
	return false
}

func (l *LedgerSvc) syntheticRow(b domain.Booking) domain.Payout {
	ref := b.Reference
	if ref == "" {
		ref = "NESTA_" + b.ID
	}
	at := b.UpdatedAt
	if at.IsZero() {
		at = b.CreatedAt
	}
	payee := b.HostEmail
	if payee == "" {
		payee = b.Doc.String("listingOwner")
	}
	if payee == "" {
		payee = "-"
	}
	return domain.Payout{
		ID:         domain.SyntheticIDPrefix + b.ID,
		Date:       at,
		PayeeEmail: payee,
		PayeeType:  domain.PayeeHost,
		Amount:     -domain.HostShare(b.Gross, l.sharePct),
		Currency:   domain.DefaultCurrency,
		Status:     domain.PayoutPending,
		Ref:        ref,
		Note:       domain.SyntheticNote,
		BookingID:  b.ID,
		Source:     domain.SourceSynthetic,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

func (f ViewFilter) match(p domain.Payout) bool {
	if st := strings.ToLower(strings.TrimSpace(f.Status)); st != "" && st != "all" && string(p.Status) != st {
		return false
	}
	if kw := strings.ToLower(strings.TrimSpace(f.Query)); kw != "" {
		if !strings.Contains(strings.ToLower(p.PayeeEmail), kw) && !strings.Contains(strings.ToLower(p.Ref), kw) {
			return false
		}
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		at := p.UpdatedAt
		if at.IsZero() {
			at = p.CreatedAt
		}
		if at.IsZero() {
			at = p.Date
		}
		if at.IsZero() {
			return false
		}
		if !f.From.IsZero() && at.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && at.After(f.To) {
			return false
		}
	}
	return true
}

// SetStatus moves a persisted payout. Synthetic rows have no backing record and
// report not found until the refund is recorded for real.
func (l *LedgerSvc) SetStatus(ctx context.Context, id, next string) (*domain.Payout, error) {
	st, err := domain.ParsePayoutStatus(next)
	if err != nil {
		return nil, err
	}
	if domain.IsSyntheticID(id) {
		return nil, fmt.Errorf("payout %s: %w", id, domain.ErrNotFound)
	}
	p, err := l.store.UpdateStatus(ctx, id, st)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("payout %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update payout %s: %w", id, err)
	}
	l.publish(ctx, rkPayout(st), *p)
	return p, nil
}

func (l *LedgerSvc) publish(ctx context.Context, key string, p domain.Payout) {
	if l.pub == nil {
		return
	}
	err := l.pub.PublishJSON(ctx, key, map[string]any{
		"payout_id":   p.ID,
		"booking_id":  p.BookingID,
		"ref":         p.Ref,
		"amount":      p.Amount,
		"currency":    p.Currency,
		"status":      p.Status,
		"payee_email": p.PayeeEmail,
	})
	if err != nil {
		l.log.WithError(err).WithField("key", key).Warn("publish failed")
	}
}

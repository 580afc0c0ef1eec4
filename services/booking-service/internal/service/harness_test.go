package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/repository"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type published struct {
	key string
	v   any
}

type fakePub struct {
	mu   sync.Mutex
	msgs []published
}

func (p *fakePub) PublishJSON(_ context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{key, v})
	return nil
}

func (p *fakePub) count(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, m := range p.msgs {
		if m.key == key {
			n++
		}
	}
	return n
}

type harness struct {
	files    *repository.FileStore
	bookings *repository.BookingRepo
	payouts  *repository.PayoutFileRepo
	dir      *repository.Directory
	pub      *fakePub
	ledger   *LedgerSvc
	engine   *BookingSvc
	contacts *ContactSvc
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	files, err := repository.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	h := &harness{
		files:    files,
		bookings: repository.NewBookingRepo(nil, files, quietLog()),
		payouts:  repository.NewPayoutFileRepo(files),
		dir:      repository.NewDirectory(nil, files, quietLog()),
		pub:      &fakePub{},
	}
	now := func() time.Time { return fixedNow }
	h.ledger = NewLedgerSvc(h.payouts, h.bookings, h.pub, quietLog(), 0)
	h.ledger.now = now
	h.engine = NewBookingSvc(h.bookings, h.ledger, h.dir, nil, h.pub, quietLog(), 0)
	h.engine.now = now
	h.contacts = NewContactSvc(h.bookings, h.dir, quietLog(), 3)
	h.contacts.now = now
	return h
}

func (h *harness) seed(t *testing.T, collection string, docs ...domain.Doc) {
	t.Helper()
	err := h.files.Update(collection, func(cur []domain.Doc) ([]domain.Doc, error) {
		return append(cur, docs...), nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func (h *harness) ledgerRows(t *testing.T) []domain.Payout {
	t.Helper()
	rows, err := h.payouts.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

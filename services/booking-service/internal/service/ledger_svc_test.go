package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
)

func TestBuildViewAddsStableSyntheticRows(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.seed(t, "bookings",
		domain.Doc{"id": "legacy1", "status": "refunded", "amount": 20000, "reference": "PSK_L1",
			"hostEmail": "h@nesta.ng", "updatedAt": "2025-01-02T10:00:00Z", "createdAt": "2025-01-01T10:00:00Z"},
		domain.Doc{"id": "legacy2", "status": "refunded", "amount": 1000, "createdAt": "2025-01-03T10:00:00Z"},
		domain.Doc{"id": "live", "status": "confirmed", "amount": 5000},
	)
	if _, err := h.ledger.Append(ctx, domain.Payout{Ref: "bo_live", Amount: 4500, BookingID: "live"}); err != nil {
		t.Fatal(err)
	}

	first, err := h.ledger.BuildView(ctx, ViewFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 3 {
		t.Fatalf("view = %+v, want 2 synthetic + 1 persisted", first)
	}
	var syn []domain.Payout
	for _, p := range first {
		if p.Synthetic() {
			syn = append(syn, p)
		}
	}
	if len(syn) != 2 || !first[0].Synthetic() || !first[1].Synthetic() {
		t.Fatalf("synthetic rows should lead the view: %+v", first)
	}
	byID := map[string]domain.Payout{}
	for _, p := range syn {
		byID[p.ID] = p
	}
	l1, ok := byID["syn_refund_legacy1"]
	if !ok {
		t.Fatalf("missing synthetic row for legacy1: %+v", syn)
	}
	if l1.Amount != -18000 || l1.Ref != "PSK_L1" || l1.PayeeEmail != "h@nesta.ng" || l1.Source != domain.SourceSynthetic {
		t.Errorf("synthetic row = %+v", l1)
	}
	if want := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC); !l1.CreatedAt.Equal(want) {
		t.Errorf("synthetic createdAt = %v, want booking updatedAt", l1.CreatedAt)
	}
	if l2 := byID["syn_refund_legacy2"]; l2.Ref != "NESTA_legacy2" || l2.PayeeEmail != "-" || l2.Amount != -900 {
		t.Errorf("synthetic row = %+v", l2)
	}

	second, err := h.ledger.BuildView(ctx, ViewFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated views differ")
	}
	if rows := h.ledgerRows(t); len(rows) != 1 {
		t.Errorf("synthetic rows were persisted: %+v", rows)
	}
}

func TestBuildViewFilters(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	for _, p := range []domain.Payout{
		{Ref: "bo_a", Amount: 100, PayeeEmail: "alpha@nesta.ng"},
		{Ref: "bo_b", Amount: 200, PayeeEmail: "beta@nesta.ng"},
	} {
		if _, err := h.ledger.Append(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	rows, _ := h.ledger.BuildView(ctx, ViewFilter{})
	if _, err := h.ledger.SetStatus(ctx, rows[0].ID, "paid"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		f    ViewFilter
		want int
	}{
		{"all", ViewFilter{Status: "all"}, 2},
		{"paid tab", ViewFilter{Status: "paid"}, 1},
		{"pending tab", ViewFilter{Status: "pending"}, 1},
		{"keyword on email", ViewFilter{Query: "ALPHA"}, 1},
		{"keyword on ref", ViewFilter{Query: "bo_"}, 2},
		{"open-ended from", ViewFilter{From: fixedNow.Add(-time.Hour)}, 2},
		{"range ends before ledger", ViewFilter{To: fixedNow.Add(-time.Hour)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.ledger.BuildView(ctx, tt.f)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d rows, want %d", len(got), tt.want)
			}
		})
	}
}

func TestLedgerSetStatus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p, err := h.ledger.Append(ctx, domain.Payout{Ref: "bo_x", Amount: 900})
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != domain.PayoutPending || p.Currency != "NGN" || p.PayeeType != domain.PayeeHost {
		t.Errorf("defaults = %+v", p)
	}

	got, err := h.ledger.SetStatus(ctx, p.ID, "processing")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.PayoutProcessing {
		t.Errorf("status = %s", got.Status)
	}
	if h.pub.count("payout.processing") != 1 {
		t.Errorf("published = %+v", h.pub.msgs)
	}

	var inv *domain.InvalidValueError
	if _, err := h.ledger.SetStatus(ctx, p.ID, "settled"); !errors.As(err, &inv) || len(inv.Allowed) != 4 {
		t.Errorf("bad status err = %v", err)
	}
	if _, err := h.ledger.SetStatus(ctx, "syn_refund_b1", "paid"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("synthetic id err = %v, want ErrNotFound", err)
	}
	if _, err := h.ledger.SetStatus(ctx, "po_missing", "paid"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing id err = %v, want ErrNotFound", err)
	}
}

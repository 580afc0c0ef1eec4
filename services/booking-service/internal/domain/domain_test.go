package domain

import (
	"errors"
	"testing"
	"time"
)

func TestHostShare(t *testing.T) {
	cases := []struct {
		gross float64
		want  int64
	}{
		{100000, 90000},
		{0, 0},
		{5, 5}, // 4.5 rounds away from zero
		{15, 14},
		{1001, 901},
		{12345, 11111},
	}
	for _, tc := range cases {
		if got := HostShare(tc.gross, 90); got != tc.want {
			t.Errorf("HostShare(%v) = %d, want %d", tc.gross, got, tc.want)
		}
	}
}

func TestKoboToNaira(t *testing.T) {
	if got := KoboToNaira(2500050); got != 25001 {
		t.Errorf("KoboToNaira = %d, want 25001", got)
	}
}

func TestBookingFromDocAliases(t *testing.T) {
	d := Doc{
		"amountN":    float64(50000),
		"ref":        "PSK_1",
		"email":      "guest@x.ng",
		"ownerId":    "host-1",
		"listing_id": "L1",
		"nightCount": float64(2),
		"startDate":  "2026-10-20",
		"created":    float64(1700000000000),
	}
	b := BookingFromDoc("b1", d)
	if b.Gross != 50000 || b.Reference != "PSK_1" || b.GuestEmail != "guest@x.ng" {
		t.Errorf("aliases not resolved: %+v", b)
	}
	if b.HostID != "host-1" || b.ListingID != "L1" || b.Nights != 2 {
		t.Errorf("aliases not resolved: %+v", b)
	}
	if b.Status != StatusPending {
		t.Errorf("missing status = %q, want pending", b.Status)
	}
	if want := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC); !b.CheckIn.Equal(want) {
		t.Errorf("CheckIn = %v, want %v", b.CheckIn, want)
	}
	if b.CreatedAt.IsZero() {
		t.Error("CreatedAt from epoch millis not parsed")
	}
}

func TestGrossPriority(t *testing.T) {
	d := Doc{"total": 0, "amount": "30000", "amountN": 40000, "totalAmount": 50000}
	if got := d.Number(grossKeys...); got != 30000 {
		t.Errorf("gross = %v, want 30000 (first non-zero)", got)
	}
}

func TestParseTimeLooseTimestampObject(t *testing.T) {
	got, ok := ParseTimeLoose(map[string]any{"seconds": float64(1760000000), "nanoseconds": float64(0)})
	if !ok || got.Unix() != 1760000000 {
		t.Errorf("ParseTimeLoose = %v, %v", got, ok)
	}
	if _, ok := ParseTimeLoose("not a date"); ok {
		t.Error("garbage string parsed as a date")
	}
}

func TestMatches(t *testing.T) {
	b := BookingFromDoc("", Doc{"firestoreId": "fs1", "id": "local1", "reference": "R1"})
	for _, key := range []string{"fs1", "local1", "R1"} {
		if !b.Matches(key) {
			t.Errorf("Matches(%q) = false", key)
		}
	}
	if b.Matches("") || b.Matches("other") {
		t.Error("Matches accepted an unrelated key")
	}
}

func TestTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusRefunded, false},
		{StatusConfirmed, StatusRefunded, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusRefunded, StatusCancelled, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestParseStatusErrors(t *testing.T) {
	_, err := ParseBookingStatus("bogus")
	var iv *InvalidValueError
	if !errors.As(err, &iv) || len(iv.Allowed) != 4 {
		t.Fatalf("ParseBookingStatus(bogus) err = %v", err)
	}
	if st, err := ParsePayoutStatus(" PAID "); err != nil || st != PayoutPaid {
		t.Errorf("ParsePayoutStatus = %q, %v", st, err)
	}
	if _, err := ParsePayoutStatus("settled"); !errors.As(err, &iv) {
		t.Errorf("ParsePayoutStatus(settled) err = %v", err)
	}
}

func TestTransitionErrorIsTerminal(t *testing.T) {
	err := error(&TransitionError{From: StatusRefunded, To: StatusConfirmed})
	if !errors.Is(err, ErrTerminal) {
		t.Error("transition out of refunded should match ErrTerminal")
	}
	err = &TransitionError{From: StatusPending, To: StatusRefunded}
	if errors.Is(err, ErrTerminal) {
		t.Error("pending is not terminal")
	}
}

func TestPayoutCovers(t *testing.T) {
	b := Booking{ID: "b1", Reference: "R1"}
	if !(Payout{Ref: "bo_b1"}).Covers(b) || !(Payout{Ref: "R1"}).Covers(b) {
		t.Error("Covers missed a matching ref")
	}
	if (Payout{Ref: "bo_b2"}).Covers(b) {
		t.Error("Covers matched another booking")
	}
}

func TestNextStatuses(t *testing.T) {
	if got := NextStatuses(StatusConfirmed); len(got) != 2 || got[0] != "cancelled" || got[1] != "refunded" {
		t.Errorf("NextStatuses(confirmed) = %v", got)
	}
	if got := NextStatuses(StatusRefunded); len(got) != 0 {
		t.Errorf("NextStatuses(refunded) = %v, want none", got)
	}
}

package webhook

import (
	"errors"
	"net/http"
	"testing"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
)

const paystackBody = `{"event":"charge.success","data":{"id":4099,"reference":"PSK_abc","status":"success","amount":500000,"currency":"NGN","customer":{"email":"ada@x.ng"},"metadata":{"listing_id":"L1","nights":2}}}`

func TestVerifyPaystack(t *testing.T) {
	v := NewVerifier(Secrets{PaystackSecretKey: "sk_test"})
	body := []byte(paystackBody)

	h := http.Header{}
	h.Set(HeaderPaystackSignature, Sign("sk_test", body))
	if err := v.Verify(domain.ProviderPaystack, body, h); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	alt := http.Header{}
	alt.Set(HeaderSignature, Sign("sk_test", body))
	if err := v.Verify(domain.ProviderPaystack, body, alt); err != nil {
		t.Fatalf("X-Signature header rejected: %v", err)
	}

	// same JSON, different whitespace
	reserialized := []byte(`{"event": "charge.success", "data": {"id": 4099, "reference": "PSK_abc", "status": "success", "amount": 500000, "currency": "NGN", "customer": {"email": "ada@x.ng"}, "metadata": {"listing_id": "L1", "nights": 2}}}`)
	if err := v.Verify(domain.ProviderPaystack, reserialized, h); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Errorf("re-serialized body err = %v, want ErrInvalidSignature", err)
	}

	if err := v.Verify(domain.ProviderPaystack, body, http.Header{}); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Errorf("missing header err = %v", err)
	}
	bad := http.Header{}
	bad.Set(HeaderPaystackSignature, "zz-not-hex")
	if err := v.Verify(domain.ProviderPaystack, body, bad); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Errorf("non-hex header err = %v", err)
	}
}

func TestVerifyMissingSecret(t *testing.T) {
	v := NewVerifier(Secrets{})
	for _, p := range []string{domain.ProviderPaystack, domain.ProviderFlutterwave} {
		if err := v.Verify(p, []byte("{}"), http.Header{}); !errors.Is(err, domain.ErrMissingSecret) {
			t.Errorf("%s: err = %v, want ErrMissingSecret", p, err)
		}
	}
}

func TestVerifyFlutterwave(t *testing.T) {
	v := NewVerifier(Secrets{FlwVerifHash: "flw-hash"})
	h := http.Header{}
	h.Set("verif-hash", "flw-hash")
	if err := v.Verify(domain.ProviderFlutterwave, []byte("{}"), h); err != nil {
		t.Fatalf("valid hash rejected: %v", err)
	}
	h.Set("verif-hash", "other")
	if err := v.Verify(domain.ProviderFlutterwave, []byte("{}"), h); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Errorf("wrong hash err = %v", err)
	}
}

func TestNormalizePaystack(t *testing.T) {
	ev, err := Normalize(domain.ProviderPaystack, []byte(paystackBody))
	if err != nil || ev == nil {
		t.Fatalf("Normalize() = %v, %v", ev, err)
	}
	if ev.Amount != 5000 {
		t.Errorf("amount = %d, want 5000 (kobo to naira)", ev.Amount)
	}
	if ev.Reference != "PSK_abc" || ev.ExternalID != "4099" || ev.Status != domain.EventSuccess {
		t.Errorf("event = %+v", ev)
	}
	if ev.Meta.BookingID != "" || ev.Meta.ListingID != "L1" || ev.Meta.Nights != 2 || ev.Meta.Guests != 1 || ev.Meta.Email != "ada@x.ng" {
		t.Errorf("meta = %+v", ev.Meta)
	}
}

func TestNormalizeIgnoresOtherEvents(t *testing.T) {
	cases := []struct {
		provider string
		body     string
	}{
		{domain.ProviderPaystack, `{"event":"transfer.success","data":{}}`},
		{domain.ProviderFlutterwave, `{"event":"transfer.completed","data":{}}`},
	}
	for _, tc := range cases {
		ev, err := Normalize(tc.provider, []byte(tc.body))
		if err != nil || ev != nil {
			t.Errorf("%s: Normalize() = %v, %v; want nil, nil", tc.provider, ev, err)
		}
	}
}

func TestNormalizeFlutterwave(t *testing.T) {
	body := `{"event":"Charge.Completed","data":{"id":881,"tx_ref":"nesta-tx-1","flw_ref":"FLW-X","status":"SUCCESSFUL","amount":30000.4,"currency":"ngn","meta":{"booking_id":"b42","email":"meta@x.ng"}}}`
	ev, err := Normalize(domain.ProviderFlutterwave, []byte(body))
	if err != nil || ev == nil {
		t.Fatalf("Normalize() = %v, %v", ev, err)
	}
	if ev.Reference != "nesta-tx-1" || ev.Amount != 30000 || ev.Status != domain.EventSuccess || ev.Currency != "NGN" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Meta.BookingID != "b42" || ev.Meta.Email != "meta@x.ng" {
		t.Errorf("meta = %+v", ev.Meta)
	}

	failed := `{"event":"charge.completed","data":{"flw_ref":"FLW-Y","status":"failed","amount":100,"meta_data":{"bookingId":"b43"}}}`
	ev, err = Normalize(domain.ProviderFlutterwave, []byte(failed))
	if err != nil || ev == nil {
		t.Fatalf("Normalize(failed) = %v, %v", ev, err)
	}
	if ev.Status != domain.EventFailure || ev.Reference != "FLW-Y" || ev.Meta.BookingID != "b43" {
		t.Errorf("failed event = %+v", ev)
	}
}

func TestNormalizeMalformed(t *testing.T) {
	if _, err := Normalize(domain.ProviderPaystack, []byte("{oops")); err == nil {
		t.Fatal("malformed JSON should error")
	}
}

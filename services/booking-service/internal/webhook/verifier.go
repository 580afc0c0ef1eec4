package webhook

import (
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
)

const (
	HeaderPaystackSignature = "X-Paystack-Signature"
	HeaderSignature         = "X-Signature"
	HeaderFlutterwaveHash   = "Verif-Hash"
)

type Secrets struct {
	PaystackSecretKey string
	FlwVerifHash      string
}

// Verifier authenticates raw webhook bodies before anything parses them.
type Verifier struct {
	secrets Secrets
}

func NewVerifier(s Secrets) *Verifier {
	return &Verifier{secrets: s}
}

// Verify returns domain.ErrMissingSecret when the deployment lacks the
// provider's secret and domain.ErrInvalidSignature on any header problem.
func (v *Verifier) Verify(provider string, rawBody []byte, h http.Header) error {
	switch provider {
	case domain.ProviderPaystack:
		if v.secrets.PaystackSecretKey == "" {
			return fmt.Errorf("%w: PAYSTACK_SECRET_KEY", domain.ErrMissingSecret)
		}
		sig := h.Get(HeaderPaystackSignature)
		if sig == "" {
			sig = h.Get(HeaderSignature)
		}
		got, err := hex.DecodeString(strings.TrimSpace(sig))
		if sig == "" || err != nil {
			return domain.ErrInvalidSignature
		}
		mac := hmac.New(sha512.New, []byte(v.secrets.PaystackSecretKey))
		mac.Write(rawBody)
		if !hmac.Equal(got, mac.Sum(nil)) {
			return domain.ErrInvalidSignature
		}
		return nil
	case domain.ProviderFlutterwave:
		if v.secrets.FlwVerifHash == "" {
			return fmt.Errorf("%w: FLW_VERIF_HASH", domain.ErrMissingSecret)
		}
		got := h.Get(HeaderFlutterwaveHash)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(v.secrets.FlwVerifHash)) != 1 {
			return domain.ErrInvalidSignature
		}
		return nil
	}
	return fmt.Errorf("unknown provider %q", provider)
}

// Sign computes the Paystack signature for body. Used by tooling and tests.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Package gateway calls the payment providers' REST APIs.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
)

const (
	PaystackBaseURL    = "https://api.paystack.co"
	FlutterwaveBaseURL = "https://api.flutterwave.com"

	requestTimeout = 15 * time.Second
)

type InitRequest struct {
	Email       string
	AmountKobo  int64
	CallbackURL string
	Metadata    map[string]any
}

type InitResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// Verification is a provider's answer for one transaction reference.
type Verification struct {
	Provider  string
	Reference string
	ID        string
	Success   bool
	Status    string
	Amount    int64 // whole currency units
	Meta      domain.EventMeta
}

func newClient(secret, baseURL, fallback string) *resty.Client {
	if baseURL == "" {
		baseURL = fallback
	}
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(requestTimeout).
		SetAuthToken(secret).
		SetHeader("Accept", "application/json")
}

type Paystack struct {
	secret string
	rc     *resty.Client
}

func NewPaystack(secret, baseURL string) *Paystack {
	return &Paystack{secret: secret, rc: newClient(secret, baseURL, PaystackBaseURL)}
}

func (p *Paystack) Live() bool { return p.secret != "" }

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (p *Paystack) Initialize(ctx context.Context, in InitRequest) (*InitResult, error) {
	if !p.Live() {
		return nil, fmt.Errorf("%w: PAYSTACK_SECRET_KEY", domain.ErrMissingSecret)
	}
	res, err := p.rc.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"email":        in.Email,
			"amount":       in.AmountKobo,
			"callback_url": in.CallbackURL,
			"metadata":     in.Metadata,
		}).
		Post("/transaction/initialize")
	var env paystackEnvelope
	if err := decode(res, err, "paystack", &env); err != nil {
		return nil, err
	}
	data, err := decodeDoc(env.Data)
	if err != nil {
		return nil, err
	}
	out := &InitResult{
		AuthorizationURL: data.String("authorization_url"),
		AccessCode:       data.String("access_code"),
		Reference:        data.String("reference"),
	}
	if !env.Status || out.AuthorizationURL == "" {
		return nil, fmt.Errorf("paystack initialize failed: %s", env.Message)
	}
	return out, nil
}

func (p *Paystack) Verify(ctx context.Context, reference string) (*Verification, error) {
	if !p.Live() {
		return nil, fmt.Errorf("%w: PAYSTACK_SECRET_KEY", domain.ErrMissingSecret)
	}
	res, err := p.rc.R().
		SetContext(ctx).
		SetPathParam("reference", reference).
		Get("/transaction/verify/{reference}")
	var env paystackEnvelope
	if err := decode(res, err, "paystack", &env); err != nil {
		return nil, err
	}
	data, err := decodeDoc(env.Data)
	if err != nil {
		return nil, err
	}
	st := strings.ToLower(data.String("status"))
	v := &Verification{
		Provider:  domain.ProviderPaystack,
		Reference: reference,
		ID:        data.String("id"),
		Status:    st,
		Success:   env.Status && st == "success",
		Amount:    domain.KoboToNaira(data.Number("amount")),
	}
	v.Meta.BookingID = data.Map("metadata").String("bookingId", "booking_id")
	return v, nil
}

type Flutterwave struct {
	secret string
	rc     *resty.Client
}

func NewFlutterwave(secret, baseURL string) *Flutterwave {
	return &Flutterwave{secret: secret, rc: newClient(secret, baseURL, FlutterwaveBaseURL)}
}

func (f *Flutterwave) Live() bool { return f.secret != "" }

func (f *Flutterwave) Verify(ctx context.Context, txRef string) (*Verification, error) {
	if !f.Live() {
		return nil, fmt.Errorf("%w: FLW_SECRET_KEY", domain.ErrMissingSecret)
	}
	res, err := f.rc.R().
		SetContext(ctx).
		SetQueryParam("tx_ref", txRef).
		Get("/v3/transactions/verify_by_reference")
	var env struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := decode(res, err, "flutterwave", &env); err != nil {
		return nil, err
	}
	data, err := decodeDoc(env.Data)
	if err != nil {
		return nil, err
	}
	st := strings.ToLower(data.String("status"))
	v := &Verification{
		Provider:  domain.ProviderFlutterwave,
		Reference: txRef,
		ID:        data.String("id"),
		Status:    st,
		Success:   strings.EqualFold(env.Status, "success") && st == "successful",
		Amount:    int64(math.Round(data.Number("amount"))),
	}
	meta := data.Map("meta")
	if meta == nil {
		meta = data.Map("meta_data")
	}
	v.Meta.BookingID = meta.String("bookingId", "booking_id")
	return v, nil
}

// decode parses the body whatever Content-Type the provider sent.
func decode(res *resty.Response, err error, name string, out any) error {
	if err != nil {
		return fmt.Errorf("%s request: %w", name, err)
	}
	if res.IsError() {
		return fmt.Errorf("%s %s failed: %s (%d)", name, res.Request.URL, res.String(), res.StatusCode())
	}
	if err := json.Unmarshal(res.Body(), out); err != nil {
		return fmt.Errorf("parse %s response: %w", name, err)
	}
	return nil
}

func decodeDoc(raw json.RawMessage) (domain.Doc, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return domain.Doc{}, nil
	}
	var d domain.Doc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse transaction: %w", err)
	}
	return d, nil
}

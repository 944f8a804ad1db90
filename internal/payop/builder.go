package payop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/payop-gateway/internal/obs"
	"github.com/noah-isme/payop-gateway/internal/order"
	"github.com/noah-isme/payop-gateway/internal/signature"
)

// ErrRequestRejected is returned when the processor responds without a
// redirect URL or with a non-empty error list. The raw rejection detail is
// logged but never surfaced to the buyer.
var ErrRequestRejected = errors.New("payop: payment request rejected")

// Credentials holds the merchant keys issued in the PayOp client panel.
// They are passed in explicitly at construction time; there is no ambient
// settings lookup.
type Credentials struct {
	PublicKey string
	SecretKey string
}

// Validate reports missing keys. A builder with invalid credentials must
// never be constructed, so the failure surfaces to the merchant at startup
// rather than to a buyer mid-checkout.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.PublicKey) == "" {
		return errors.New("payop: public key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("payop: secret key is required")
	}
	return nil
}

// PaymentAPI abstracts the outbound create-payment call.
type PaymentAPI interface {
	CreatePayment(ctx context.Context, req Request) (Response, error)
}

// Builder assembles signed payment requests and obtains the hosted-page
// redirect URL. It never mutates order state.
type Builder struct {
	creds     Credentials
	api       PaymentAPI
	validate  *validator.Validate
	resultURL string
	failURL   string
	language  string
	logger    zerolog.Logger
}

// BuilderConfig wires a Builder.
type BuilderConfig struct {
	Credentials Credentials
	API         PaymentAPI
	ResultURL   string
	FailURL     string
	Language    string
	Logger      zerolog.Logger
}

// NewBuilder validates configuration and constructs a Builder.
func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if err := cfg.Credentials.Validate(); err != nil {
		return nil, err
	}
	if cfg.API == nil {
		return nil, errors.New("payop: payment api client is required")
	}
	if strings.TrimSpace(cfg.ResultURL) == "" || strings.TrimSpace(cfg.FailURL) == "" {
		return nil, errors.New("payop: result and fail urls are required")
	}
	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = "en"
	}
	return &Builder{
		creds:     cfg.Credentials,
		api:       cfg.API,
		validate:  validator.New(),
		resultURL: cfg.ResultURL,
		failURL:   cfg.FailURL,
		language:  language,
		logger:    cfg.Logger,
	}, nil
}

// BuildRequest assembles the signed outbound payload from an order snapshot.
// The signature covers id, amount and currency only; no status exists at
// build time.
func (b *Builder) BuildRequest(snap order.Snapshot) (Request, error) {
	amount, err := signature.FormatAmount(snap.Amount)
	if err != nil {
		return Request{}, fmt.Errorf("payop: order %s: %w", snap.ID, err)
	}
	payload := signature.Payload{
		OrderID:  snap.ID,
		Amount:   amount,
		Currency: snap.Currency,
	}
	req := Request{
		PublicKey: b.creds.PublicKey,
		Order: RequestOrder{
			ID:          snap.ID,
			Amount:      amount,
			Currency:    snap.Currency,
			Description: "Payment order #" + snap.ID,
		},
		Customer:  RequestCustomer{Email: snap.BillingEmail},
		Language:  b.language,
		ResultURL: b.resultURL,
		FailURL:   b.failURL,
		Signature: signature.Sign(payload, b.creds.SecretKey),
	}
	if err := b.validate.Struct(req); err != nil {
		return Request{}, fmt.Errorf("payop: invalid request payload: %w", err)
	}
	return req, nil
}

// CreateRedirect builds the signed request, posts it to the processor and
// returns the hosted payment page URL. Rejections map to ErrRequestRejected;
// the call is not retried.
func (b *Builder) CreateRedirect(ctx context.Context, snap order.Snapshot) (string, error) {
	req, err := b.BuildRequest(snap)
	if err != nil {
		return "", err
	}
	start := time.Now()
	resp, err := b.api.CreatePayment(ctx, req)
	result := "success"
	if err != nil {
		result = "transport_error"
	} else if resp.Rejected() {
		result = "rejected"
	}
	if obs.PaymentRequestTotal != nil {
		obs.PaymentRequestTotal.WithLabelValues(result).Inc()
	}
	if obs.PaymentRequestLatency != nil {
		obs.PaymentRequestLatency.WithLabelValues(result).Observe(obs.DurationMillis(time.Since(start)))
	}
	if err != nil {
		return "", err
	}
	if resp.Rejected() {
		b.logger.Warn().
			Str("order_id", snap.ID).
			Interface("errors", resp.Errors).
			Msg("payment request rejected by processor")
		return "", ErrRequestRejected
	}
	return resp.Data.RedirectURL, nil
}

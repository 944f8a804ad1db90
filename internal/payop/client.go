package payop

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/payop-gateway/internal/resilience"
)

// DefaultAPIURL is the production PayOp create-payment endpoint.
const DefaultAPIURL = "https://payop.com/api/v1.1/payments/payment"

// ErrTransport wraps network-layer failures reaching the PayOp API.
var ErrTransport = errors.New("payop: transport error")

// Client posts signed payment requests to the PayOp API. TLS certificate
// verification is always on; the legacy integration disabled it, which is a
// weakness this client deliberately does not reproduce.
type Client struct {
	HTTP   resilience.HTTPClient
	APIURL string
}

// NewClient builds a client with an instrumented transport and the given
// call timeout. The outbound call is never retried here.
func NewClient(apiURL string, timeout time.Duration, breaker *resilience.Breaker) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		HTTP: resilience.HTTPClient{
			Client: &http.Client{
				Timeout:   timeout,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			},
			Breaker:     breaker,
			MaxAttempts: 1,
			Timeout:     timeout,
		},
		APIURL: apiURL,
	}
}

// CreatePayment posts the signed request and decodes the processor response.
// Transport failures are wrapped in ErrTransport; interpretation of the
// decoded response (rejection vs redirect) is left to the builder.
func (c *Client) CreatePayment(ctx context.Context, req Request) (Response, error) {
	var out Response
	if c == nil || c.HTTP.Client == nil {
		return out, errors.New("payop: client not configured")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return out, fmt.Errorf("payop: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("payop: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", "payop-gateway/1.0")

	resp, err := c.HTTP.Do(ctx, httpReq)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("payop: decode response (status %d): %w", resp.StatusCode, err)
	}
	return out, nil
}

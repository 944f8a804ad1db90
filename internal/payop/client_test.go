package payop_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/payop-gateway/internal/payop"
	"github.com/noah-isme/payop-gateway/internal/resilience"
)

func testClient(srv *httptest.Server) *payop.Client {
	return &payop.Client{
		HTTP:   resilience.HTTPClient{Client: srv.Client(), Timeout: time.Second},
		APIURL: srv.URL,
	}
}

func TestCreatePaymentPostsWireShape(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":{"redirectUrl":"https://checkout.payop.com/pay/xyz"}}`))
	}))
	t.Cleanup(srv.Close)

	req := payop.Request{
		PublicKey: "pk-123",
		Order: payop.RequestOrder{
			ID:          "42",
			Amount:      "19.9900",
			Currency:    "USD",
			Description: "Payment order #42",
		},
		Customer:  payop.RequestCustomer{Email: "buyer@example.com"},
		Language:  "en",
		ResultURL: "https://shop.example/ok",
		FailURL:   "https://shop.example/fail",
		Signature: "deadbeef",
	}
	resp, err := testClient(srv).CreatePayment(context.Background(), req)
	require.NoError(t, err)
	require.False(t, resp.Rejected())
	require.Equal(t, "https://checkout.payop.com/pay/xyz", resp.Data.RedirectURL)

	require.Equal(t, "pk-123", got["publicKey"])
	order, ok := got["order"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "42", order["id"])
	require.Equal(t, "19.9900", order["amount"])
	require.Equal(t, "USD", order["currency"])
	customer, ok := got["customer"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "buyer@example.com", customer["email"])
	require.Equal(t, "deadbeef", got["signature"])
}

func TestCreatePaymentDecodesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"code":"denied","message":"merchant disabled"}]}`))
	}))
	t.Cleanup(srv.Close)

	resp, err := testClient(srv).CreatePayment(context.Background(), payop.Request{})
	require.NoError(t, err)
	require.True(t, resp.Rejected())
	require.Len(t, resp.Errors, 1)
	require.Equal(t, "denied", resp.Errors[0].Code)
}

func TestCreatePaymentWrapsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	srv.Close()

	_, err := testClient(srv).CreatePayment(context.Background(), payop.Request{})
	require.ErrorIs(t, err, payop.ErrTransport)
}

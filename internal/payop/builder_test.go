package payop_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/payop-gateway/internal/order"
	"github.com/noah-isme/payop-gateway/internal/payop"
	"github.com/noah-isme/payop-gateway/internal/signature"
)

type stubAPI struct {
	lastRequest payop.Request
	response    payop.Response
	err         error
}

func (s *stubAPI) CreatePayment(_ context.Context, req payop.Request) (payop.Response, error) {
	s.lastRequest = req
	return s.response, s.err
}

func newBuilder(t *testing.T, api payop.PaymentAPI) *payop.Builder {
	t.Helper()
	builder, err := payop.NewBuilder(payop.BuilderConfig{
		Credentials: payop.Credentials{PublicKey: "pk-123", SecretKey: "s3cr3t"},
		API:         api,
		ResultURL:   "https://shop.example/v1/payop/return/success",
		FailURL:     "https://shop.example/v1/payop/return/fail",
		Language:    "en",
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)
	return builder
}

func snapshot() order.Snapshot {
	return order.Snapshot{
		ID:           "42",
		Amount:       "19.99",
		Currency:     "USD",
		Status:       order.StatusPending,
		BillingEmail: "buyer@example.com",
	}
}

func TestNewBuilderRequiresCredentials(t *testing.T) {
	_, err := payop.NewBuilder(payop.BuilderConfig{
		Credentials: payop.Credentials{PublicKey: "pk"},
		API:         &stubAPI{},
		ResultURL:   "https://shop.example/ok",
		FailURL:     "https://shop.example/fail",
	})
	require.Error(t, err)

	_, err = payop.NewBuilder(payop.BuilderConfig{
		Credentials: payop.Credentials{SecretKey: "sk"},
		API:         &stubAPI{},
		ResultURL:   "https://shop.example/ok",
		FailURL:     "https://shop.example/fail",
	})
	require.Error(t, err)
}

func TestBuildRequestSignsNormalisedAmount(t *testing.T) {
	builder := newBuilder(t, &stubAPI{})

	req, err := builder.BuildRequest(snapshot())
	require.NoError(t, err)

	require.Equal(t, "pk-123", req.PublicKey)
	require.Equal(t, "19.9900", req.Order.Amount)
	require.Equal(t, "Payment order #42", req.Order.Description)
	require.Equal(t, "buyer@example.com", req.Customer.Email)

	expected := signature.Sign(signature.Payload{OrderID: "42", Amount: "19.9900", Currency: "USD"}, "s3cr3t")
	require.Equal(t, expected, req.Signature)
}

func TestBuildRequestRejectsBadAmount(t *testing.T) {
	builder := newBuilder(t, &stubAPI{})
	snap := snapshot()
	snap.Amount = "not-a-number"

	_, err := builder.BuildRequest(snap)
	require.Error(t, err)
}

func TestCreateRedirectReturnsProcessorURL(t *testing.T) {
	api := &stubAPI{}
	api.response.Data.RedirectURL = "https://checkout.payop.com/pay/abc"
	builder := newBuilder(t, api)

	url, err := builder.CreateRedirect(context.Background(), snapshot())
	require.NoError(t, err)
	require.Equal(t, "https://checkout.payop.com/pay/abc", url)
	require.Equal(t, "42", api.lastRequest.Order.ID)
}

func TestCreateRedirectMapsRejection(t *testing.T) {
	api := &stubAPI{}
	api.response.Errors = []payop.ResponseError{{Code: "invalid", Message: "bad merchant"}}
	builder := newBuilder(t, api)

	_, err := builder.CreateRedirect(context.Background(), snapshot())
	require.ErrorIs(t, err, payop.ErrRequestRejected)
}

func TestCreateRedirectMissingRedirectURLIsRejection(t *testing.T) {
	builder := newBuilder(t, &stubAPI{})

	_, err := builder.CreateRedirect(context.Background(), snapshot())
	require.ErrorIs(t, err, payop.ErrRequestRejected)
}

func TestCreateRedirectPropagatesTransportError(t *testing.T) {
	transportErr := errors.New("connection refused")
	builder := newBuilder(t, &stubAPI{err: transportErr})

	_, err := builder.CreateRedirect(context.Background(), snapshot())
	require.ErrorIs(t, err, transportErr)
}

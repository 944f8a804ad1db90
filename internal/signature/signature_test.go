package signature_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/payop-gateway/internal/signature"
)

const secret = "s3cr3t"

func payload() signature.Payload {
	return signature.Payload{OrderID: "42", Amount: "19.9900", Currency: "USD"}
}

func TestCanonicalOrdersValuesByFieldName(t *testing.T) {
	// amount < currency < id, so the value order is amount:currency:id.
	require.Equal(t, "19.9900:USD:42:s3cr3t", signature.Canonical(payload(), secret))

	withStatus := payload()
	withStatus.Status = "success"
	require.Equal(t, "19.9900:USD:42:success:s3cr3t", signature.Canonical(withStatus, secret))
}

func TestSignIsDeterministic(t *testing.T) {
	first := signature.Sign(payload(), secret)
	second := signature.Sign(payload(), secret)
	require.Equal(t, first, second)
	require.Len(t, first, 64)
}

func TestVerifyAcceptsOwnSignature(t *testing.T) {
	p := payload()
	p.Status = "success"
	digest := signature.Sign(p, secret)
	require.True(t, signature.Verify(p, secret, digest))
	require.True(t, signature.Verify(p, secret, "  "+digest+"\n"))
}

func TestVerifyRejectsTamperedFields(t *testing.T) {
	p := payload()
	p.Status = "success"
	digest := signature.Sign(p, secret)

	tampered := p
	tampered.Amount = "1.0000"
	require.False(t, signature.Verify(tampered, secret, digest))

	tampered = p
	tampered.OrderID = "43"
	require.False(t, signature.Verify(tampered, secret, digest))

	tampered = p
	tampered.Status = "pending"
	require.False(t, signature.Verify(tampered, secret, digest))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	p := payload()
	digest := signature.Sign(p, secret)
	require.False(t, signature.Verify(p, "other", digest))
}

func TestVerifyFailsClosed(t *testing.T) {
	p := payload()
	digest := signature.Sign(p, secret)

	require.False(t, signature.Verify(p, secret, ""))
	require.False(t, signature.Verify(p, "", digest))

	incomplete := p
	incomplete.Amount = ""
	require.False(t, signature.Verify(incomplete, secret, signature.Sign(incomplete, secret)))
}

func TestFormatAmountNormalisesToFourDecimals(t *testing.T) {
	for _, raw := range []string{"10", "10.0", "10.00000", " 10.00 "} {
		got, err := signature.FormatAmount(raw)
		require.NoError(t, err, raw)
		require.Equal(t, "10.0000", got, raw)
	}

	got, err := signature.FormatAmount("19.99")
	require.NoError(t, err)
	require.Equal(t, "19.9900", got)
}

func TestFormatAmountEqualRepresentationsSignEqually(t *testing.T) {
	base := payload()
	digests := map[string]struct{}{}
	for _, raw := range []string{"19.99", "19.990", "19.9900"} {
		amount, err := signature.FormatAmount(raw)
		require.NoError(t, err)
		p := base
		p.Amount = amount
		digests[signature.Sign(p, secret)] = struct{}{}
	}
	require.Len(t, digests, 1)
}

func TestFormatAmountRejectsBadInput(t *testing.T) {
	for _, raw := range []string{"", "  ", "-5", "abc", "10,00"} {
		_, err := signature.FormatAmount(raw)
		require.Error(t, err, raw)
	}
}

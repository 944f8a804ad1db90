package signature

import (
	"crypto/hmac"
	"sort"
	"strings"

	"github.com/noah-isme/payop-gateway/internal/common"
)

// Payload holds the fields covered by a PayOp signature. Status is only
// present on inbound notifications; outbound payment requests sign the
// id/amount/currency trio alone.
type Payload struct {
	OrderID  string
	Amount   string
	Currency string
	Status   string
}

// Fields returns the named signable fields. Status is omitted when empty so
// the same canonicalisation serves both directions.
func (p Payload) Fields() map[string]string {
	fields := map[string]string{
		"id":       p.OrderID,
		"amount":   p.Amount,
		"currency": p.Currency,
	}
	if p.Status != "" {
		fields["status"] = p.Status
	}
	return fields
}

func (p Payload) complete() bool {
	return p.OrderID != "" && p.Amount != "" && p.Currency != ""
}

// Canonical builds the signing string: field values ordered by field name,
// joined with ':', with the secret appended last. Ordering is by name, not
// by insertion, so both ends derive the same string regardless of how the
// payload was assembled.
func Canonical(p Payload, secret string) string {
	fields := p.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names)+1)
	for _, name := range names {
		parts = append(parts, fields[name])
	}
	parts = append(parts, secret)
	return strings.Join(parts, ":")
}

// Sign computes the lowercase hex SHA-256 digest of the canonical string.
func Sign(p Payload, secret string) string {
	return common.Sha256Hex(Canonical(p, secret))
}

// Verify recomputes the digest and compares it in constant time. It fails
// closed: an incomplete payload, empty secret or empty provided digest never
// verifies.
func Verify(p Payload, secret, provided string) bool {
	if !p.complete() || secret == "" {
		return false
	}
	provided = strings.TrimSpace(provided)
	if provided == "" {
		return false
	}
	expected := Sign(p, secret)
	return hmac.Equal([]byte(expected), []byte(provided))
}

package signature

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount normalises a monetary amount to exactly four decimal places,
// the form PayOp signs. "10", "10.0" and "10.00000" all canonicalise to
// "10.0000"; any other representation would change the digest.
func FormatAmount(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("amount is empty")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse amount %q: %w", raw, err)
	}
	if d.IsNegative() {
		return "", fmt.Errorf("amount %q is negative", raw)
	}
	return d.StringFixed(4), nil
}

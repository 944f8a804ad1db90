package callback

import (
	"net/url"
	"strings"
)

// PushNotification is the signed server-to-server IPN delivered by the
// processor. Once its signature verifies it is proof of payment. The known
// field set is fixed; anything else the processor echoes back lands in
// Extra and is never part of the signed contract.
type PushNotification struct {
	OrderID   string
	Status    string
	Signature string
	Extra     url.Values
}

// StatusSuccess is the processor's value for a successful payment.
const StatusSuccess = "success"

// ParsePush extracts a push notification from raw request fields
// (query string or form body).
func ParsePush(values url.Values) PushNotification {
	notification := PushNotification{
		OrderID:   strings.TrimSpace(values.Get("orderId")),
		Status:    strings.TrimSpace(values.Get("status")),
		Signature: strings.TrimSpace(values.Get("signature")),
		Extra:     url.Values{},
	}
	for key, vals := range values {
		switch key {
		case "orderId", "status", "signature":
			continue
		}
		notification.Extra[key] = vals
	}
	return notification
}

// ReturnOutcome distinguishes the two browser-return flavours.
type ReturnOutcome string

const (
	// ReturnSuccess is the redirect after the buyer completed the hosted
	// page. It carries no signature and is a UX signal only; it must never
	// authorize payment-completion side effects.
	ReturnSuccess ReturnOutcome = "success"
	// ReturnFail is the redirect after the buyer failed or refused payment.
	ReturnFail ReturnOutcome = "fail"
)

// Return is the unsigned browser-redirect pull. It is deliberately a
// separate type from PushNotification so call sites cannot feed the
// untrusted channel into the trusted settlement path.
type Return struct {
	OrderID string
	Outcome ReturnOutcome
}

// ParseReturn extracts a browser return from raw request fields.
func ParseReturn(values url.Values, outcome ReturnOutcome) Return {
	return Return{
		OrderID: strings.TrimSpace(values.Get("orderId")),
		Outcome: outcome,
	}
}

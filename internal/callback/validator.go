package callback

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/payop-gateway/internal/order"
	"github.com/noah-isme/payop-gateway/internal/signature"
)

// ValidationResult classifies an inbound push notification.
type ValidationResult int

const (
	// Valid means the signature verified against the order's stored
	// amount/currency and the payment succeeded.
	Valid ValidationResult = iota
	// MissingOrderID means the notification did not reference an order.
	MissingOrderID
	// StatusNotSuccess is a legitimate but negative outcome, distinct from
	// forgery.
	StatusNotSuccess
	// InvalidSignature means the digest did not match; the notification
	// cannot be trusted.
	InvalidSignature
)

func (r ValidationResult) String() string {
	switch r {
	case Valid:
		return "valid"
	case MissingOrderID:
		return "missing_order_id"
	case StatusNotSuccess:
		return "status_not_success"
	case InvalidSignature:
		return "invalid_signature"
	default:
		return "unknown"
	}
}

// Validator authenticates push notifications against the order they claim
// to describe. It is purely advisory and never mutates state.
type Validator struct {
	Secret string
	Store  order.Store
}

// Validate applies the authentication algorithm. Amount and currency are
// read fresh from the order store, never trusted from the notification
// body. The returned snapshot is only meaningful when the error is nil.
func (v *Validator) Validate(ctx context.Context, n PushNotification) (ValidationResult, order.Snapshot, error) {
	if v == nil || v.Store == nil {
		return InvalidSignature, order.Snapshot{}, errors.New("callback: validator not configured")
	}
	if n.OrderID == "" {
		return MissingOrderID, order.Snapshot{}, nil
	}
	snap, err := v.Store.GetOrder(ctx, n.OrderID)
	if err != nil {
		return InvalidSignature, order.Snapshot{}, err
	}
	if n.Status != StatusSuccess {
		return StatusNotSuccess, snap, nil
	}
	amount, err := signature.FormatAmount(snap.Amount)
	if err != nil {
		return InvalidSignature, snap, fmt.Errorf("callback: order %s amount: %w", snap.ID, err)
	}
	payload := signature.Payload{
		OrderID:  n.OrderID,
		Amount:   amount,
		Currency: snap.Currency,
		Status:   n.Status,
	}
	if !signature.Verify(payload, v.Secret, n.Signature) {
		return InvalidSignature, snap, nil
	}
	return Valid, snap, nil
}

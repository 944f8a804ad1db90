package callback

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/payop-gateway/internal/events"
	"github.com/noah-isme/payop-gateway/internal/obs"
	"github.com/noah-isme/payop-gateway/internal/order"
)

// Transition notes recorded on the order, mirroring what the merchant sees
// in the order history.
const (
	noteCompleted  = "Payment completed successfully"
	noteProcessing = "Payment successfully paid"
	noteFailed     = "Payment not paid"
)

// Processor maps validated notification outcomes onto order-state
// transitions. Completion side effects run at most once per order; the
// unsigned browser returns can never reach them.
type Processor struct {
	Store  order.Store
	Events *events.Bus
	Logger zerolog.Logger
}

// CompletePayment applies the settlement for a verified push notification.
// The current status is checked before any mutation: a second delivery of
// the same notification finds the order completed and is a no-op. Returns
// whether the full settlement ran.
func (p *Processor) CompletePayment(ctx context.Context, snap order.Snapshot) (bool, error) {
	if p == nil || p.Store == nil {
		return false, errors.New("callback: processor not configured")
	}
	if snap.Status == order.StatusCompleted {
		// A previous delivery may have flipped the status and then died
		// before the paid mark landed. MarkPaid guards on paid_at, so for a
		// fully settled order this is a no-op and for the crashed case it
		// applies the missing side effect.
		if err := p.Store.MarkPaid(ctx, snap.ID); err != nil {
			return false, err
		}
		p.Logger.Info().Str("order_id", snap.ID).Msg("order already completed, skipping settlement")
		return false, nil
	}
	if snap.Status == order.StatusCancelled {
		return false, fmt.Errorf("callback: order %s is cancelled, refusing settlement", snap.ID)
	}
	if err := p.Store.SetStatus(ctx, snap.ID, order.StatusCompleted, noteCompleted); err != nil {
		return false, err
	}
	if err := p.Store.MarkPaid(ctx, snap.ID); err != nil {
		return false, err
	}
	if obs.OrderCompletionsTotal != nil {
		obs.OrderCompletionsTotal.Inc()
	}
	p.emit(ctx, events.TopicOrderPaid, snap.ID, map[string]string{
		"status":   string(order.StatusCompleted),
		"amount":   snap.Amount,
		"currency": snap.Currency,
	})
	return true, nil
}

// AcknowledgeSuccessReturn handles the unsigned browser redirect after the
// buyer completed the hosted page. It only nudges the order into
// processing; proof of payment arrives on the signed push path.
func (p *Processor) AcknowledgeSuccessReturn(ctx context.Context, ret Return) error {
	if p == nil || p.Store == nil {
		return errors.New("callback: processor not configured")
	}
	snap, err := p.Store.GetOrder(ctx, ret.OrderID)
	if err != nil {
		return err
	}
	if !order.CanTransition(snap.Status, order.StatusProcessing) {
		return nil
	}
	if err := p.Store.SetStatus(ctx, snap.ID, order.StatusProcessing, noteProcessing); err != nil {
		return err
	}
	p.emit(ctx, events.TopicOrderProcessing, snap.ID, map[string]string{
		"status": string(order.StatusProcessing),
	})
	return nil
}

// AcknowledgeFailReturn handles the browser redirect after a failed or
// refused payment. Returns the cancellation URL the buyer is sent to.
func (p *Processor) AcknowledgeFailReturn(ctx context.Context, ret Return) (string, error) {
	if p == nil || p.Store == nil {
		return "", errors.New("callback: processor not configured")
	}
	snap, err := p.Store.GetOrder(ctx, ret.OrderID)
	if err != nil {
		return "", err
	}
	if order.CanTransition(snap.Status, order.StatusFailed) {
		if err := p.Store.SetStatus(ctx, snap.ID, order.StatusFailed, noteFailed); err != nil {
			return "", err
		}
		p.emit(ctx, events.TopicPaymentFailed, snap.ID, map[string]string{
			"status": string(order.StatusFailed),
		})
	}
	return p.Store.CancelURL(ctx, snap.ID)
}

func (p *Processor) emit(ctx context.Context, topic, orderID string, payload map[string]string) {
	if p.Events == nil {
		return
	}
	if _, err := p.Events.Emit(ctx, topic, orderID, payload); err != nil {
		p.Logger.Error().Err(err).Str("topic", topic).Str("order_id", orderID).Msg("emit event")
	}
}

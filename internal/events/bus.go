package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event describes a payment outcome applied to an order.
type Event struct {
	ID         uuid.UUID
	Topic      string
	OrderID    string
	Payload    map[string]string
	OccurredAt time.Time
}

// Notifier reacts to emitted events (logging, metrics, downstream hooks).
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Bus fans events out to the configured notifiers. Events are not persisted;
// the order row itself is the system of record for payment outcomes.
type Bus struct {
	Notifiers []Notifier
	Logger    zerolog.Logger
}

// Emit dispatches the event to all notifiers. Notifier failures are logged
// and swallowed so a broken observer can never block settlement.
func (b *Bus) Emit(ctx context.Context, topic, orderID string, payload map[string]string) (Event, error) {
	if b == nil {
		return Event{}, errors.New("events: bus not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Event{}, errors.New("events: topic is required")
	}
	if strings.TrimSpace(orderID) == "" {
		return Event{}, errors.New("events: order id is required")
	}
	event := Event{
		ID:         uuid.New(),
		Topic:      topic,
		OrderID:    orderID,
		Payload:    payload,
		OccurredAt: time.Now(),
	}
	for _, notifier := range b.Notifiers {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, event); err != nil {
			b.Logger.Error().Err(err).
				Str("topic", topic).
				Str("order_id", orderID).
				Msg("event notifier failed")
		}
	}
	return event, nil
}

// LogNotifier writes each event as a structured log line.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, event Event) error {
	evt := n.Logger.Info().
		Str("event_id", event.ID.String()).
		Str("topic", event.Topic).
		Str("order_id", event.OrderID).
		Time("occurred_at", event.OccurredAt)
	for key, value := range event.Payload {
		evt = evt.Str(key, value)
	}
	evt.Msg("domain_event")
	return nil
}

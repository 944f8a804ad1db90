package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/payop-gateway/internal/events"
)

type recordingNotifier struct {
	got []events.Event
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, event events.Event) error {
	r.got = append(r.got, event)
	return r.err
}

func TestEmitFansOut(t *testing.T) {
	first := &recordingNotifier{}
	second := &recordingNotifier{}
	bus := &events.Bus{Notifiers: []events.Notifier{first, second}, Logger: zerolog.Nop()}

	event, err := bus.Emit(context.Background(), events.TopicOrderPaid, "42", map[string]string{"status": "completed"})
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderPaid, event.Topic)
	require.NotEqual(t, event.ID.String(), "00000000-0000-0000-0000-000000000000")

	require.Len(t, first.got, 1)
	require.Len(t, second.got, 1)
	require.Equal(t, "42", first.got[0].OrderID)
}

func TestEmitSwallowsNotifierFailure(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("observer down")}
	healthy := &recordingNotifier{}
	bus := &events.Bus{Notifiers: []events.Notifier{failing, healthy}, Logger: zerolog.Nop()}

	_, err := bus.Emit(context.Background(), events.TopicPaymentFailed, "42", nil)
	require.NoError(t, err)
	require.Len(t, healthy.got, 1)
}

func TestEmitValidatesInput(t *testing.T) {
	bus := &events.Bus{Logger: zerolog.Nop()}

	_, err := bus.Emit(context.Background(), "", "42", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicOrderPaid, "", nil)
	require.Error(t, err)
}

package order_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/payop-gateway/internal/order"
)

func TestCanTransitionForwardOnly(t *testing.T) {
	allowed := []struct{ from, to order.Status }{
		{order.StatusPending, order.StatusProcessing},
		{order.StatusPending, order.StatusCompleted},
		{order.StatusPending, order.StatusFailed},
		{order.StatusProcessing, order.StatusCompleted},
		{order.StatusProcessing, order.StatusFailed},
		{order.StatusProcessing, order.StatusCancelled},
	}
	for _, tc := range allowed {
		require.True(t, order.CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	refused := []struct{ from, to order.Status }{
		{order.StatusProcessing, order.StatusPending},
		{order.StatusCompleted, order.StatusFailed},
		{order.StatusCompleted, order.StatusProcessing},
		{order.StatusCancelled, order.StatusPending},
		{order.StatusFailed, order.StatusCompleted},
		{order.StatusPending, order.StatusPending},
		{order.Status("garbage"), order.StatusCompleted},
		{order.StatusPending, order.Status("garbage")},
	}
	for _, tc := range refused {
		require.False(t, order.CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStates(t *testing.T) {
	require.True(t, order.StatusCompleted.Terminal())
	require.True(t, order.StatusCancelled.Terminal())
	require.False(t, order.StatusPending.Terminal())
	require.False(t, order.StatusProcessing.Terminal())
	require.False(t, order.StatusFailed.Terminal())
}

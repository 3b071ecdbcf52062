package events_test

import (
	"context"
	"testing"
	"time"

	"teranga/internal/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBus_FanOut(t *testing.T) {
	bus := events.NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	b, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	e := events.Event{Type: events.OrderCreated, OrderID: uuid.New(), Number: 7, Status: "pending", At: time.Now()}
	require.NoError(t, bus.Publish(ctx, e))

	for _, ch := range []<-chan events.Event{a, b} {
		select {
		case got := <-ch:
			assert.Equal(t, e.OrderID, got.OrderID)
			assert.Equal(t, 7, got.Number)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestMemoryBus_ClosesOnCancel(t *testing.T) {
	bus := events.NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	// Publishing after unsubscribe must not panic.
	assert.NoError(t, bus.Publish(context.Background(), events.Event{Type: events.OrderPaid}))
}

package messaging

import (
	"context"
	"testing"
	"time"

	contractsv1 "ballotbox/contracts/gen/events/v1"

	"github.com/stretchr/testify/require"
)

func TestBusDeliversInPublishOrder(t *testing.T) {
	bus, err := NewBus([]string{"localhost:9092"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"localhost:9092"}, bus.Brokers())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan uint64, 8)
	require.NoError(t, bus.Subscribe(ctx, "ledger.vote_received", "test-cg", func(_ context.Context, event contractsv1.Envelope) error {
		received <- event.Sequence
		return nil
	}))

	for seq := uint64(1); seq <= 3; seq++ {
		require.NoError(t, bus.Publish(ctx, "ledger.vote_received", contractsv1.Envelope{EventID: "e", Sequence: seq}))
	}
	require.NoError(t, bus.Publish(ctx, "ledger.votes_reset", contractsv1.Envelope{EventID: "other"}))

	for want := uint64(1); want <= 3; want++ {
		select {
		case got := <-received:
			require.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for sequence %d", want)
		}
	}
	select {
	case got := <-received:
		t.Fatalf("unexpected delivery %d", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusPublishHonoursCancelledContext(t *testing.T) {
	bus, err := NewBus(nil, nil)
	require.NoError(t, err)

	subCtx, stop := context.WithCancel(context.Background())
	defer stop()
	block := make(chan struct{})
	require.NoError(t, bus.Subscribe(subCtx, "topic", "cg", func(context.Context, contractsv1.Envelope) error {
		<-block
		return nil
	}))
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	var publishErr error
	for i := 0; i < subscriptionBuffer+2 && publishErr == nil; i++ {
		publishErr = bus.Publish(ctx, "topic", contractsv1.Envelope{EventID: "e"})
	}
	require.ErrorIs(t, publishErr, context.DeadlineExceeded)
}

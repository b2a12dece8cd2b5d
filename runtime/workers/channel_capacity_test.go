package workers_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"council-lab/domain/event"
	"council-lab/runtime/workers"
)

func TestChannelCapacityWorker_Samples_Watched_Channels(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given a watched channel holding two pending events
	watched := make(chan event.DomainEvent, 8)
	watched <- event.MessagePosted{}
	watched <- event.MessagePosted{}
	telemetry := make(chan event.Event, 4)

	worker := workers.NewChannelCapacityWorker(
		log,
		[]workers.WatchedChannel{workers.Watch("domainEvents", watched)},
		telemetry,
		5*time.Millisecond,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = worker.Run(ctx)
	}()

	// Then a sample reporting its fill level lands on telemetry
	select {
	case evt := <-telemetry:
		req.Equal(event.ChannelCapacityType, evt.Type)
		payload, ok := evt.Payload.(event.ChannelCapacity)
		req.True(ok)
		req.Equal("domainEvents", payload.ChannelName)
		req.Equal(8, payload.Capacity)
		req.Equal(2, payload.Length)
	case <-time.After(1 * time.Second):
		req.Fail("No capacity sample received")
	}
}

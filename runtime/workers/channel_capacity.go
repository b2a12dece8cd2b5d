package workers

import (
	"context"
	"log/slog"
	"time"

	"council-lab/domain/event"
)

// WatchedChannel pairs a channel name with a gauge reading its fill
// level. Closures keep the worker ignorant of element types; len and
// cap on a channel are non-blocking.
type WatchedChannel struct {
	Name  string
	Gauge func() (length, capacity int)
}

// Watch builds a WatchedChannel for any buffered channel.
func Watch[T any](name string, ch chan T) WatchedChannel {
	return WatchedChannel{
		Name:  name,
		Gauge: func() (int, int) { return len(ch), cap(ch) },
	}
}

// ChannelCapacityWorker samples the fill level of the pipeline channels
// on a fixed interval and reports it as telemetry. Samples may be
// dropped when the telemetry channel itself is saturated; the next tick
// delivers a fresher value anyway.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	watched        []WatchedChannel
	telemetryChan  chan event.Event
	metricInterval time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger,
	watched []WatchedChannel, telemetryChan chan event.Event,
	metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:            log,
		watched:        watched,
		telemetryChan:  telemetryChan,
		metricInterval: metricInterval,
	}
}

func (w ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping capacity sampling")
			return nil
		case <-ticker.C:
			w.sample(ctx)
		}
	}
}

func (w ChannelCapacityWorker) sample(ctx context.Context) {
	for _, wc := range w.watched {
		length, capacity := wc.Gauge()
		evt := event.Event{
			Type:      event.ChannelCapacityType,
			CreatedAt: time.Now().UTC(),
			Payload: event.ChannelCapacity{
				ChannelName: wc.Name,
				Capacity:    capacity,
				Length:      length,
			},
		}
		select {
		case <-ctx.Done():
			return
		case w.telemetryChan <- evt:
		default:
			w.log.Debug("Observability telemetry event lost")
		}
	}
}

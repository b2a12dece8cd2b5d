package workers

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"council-lab/contract"
	"council-lab/domain/event"
)

// EventFanout broadcasts domain events to multiple in-process consumers.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering, durability, or retries. EventFanout is not a message broker.
//
// It is intended for observability and side effects (feeds, index, logs),
// not for core domain logic: the conversation store is always written
// before an event reaches this worker.
//
// EventFanout is safe for concurrent use by multiple goroutines.
type EventFanout struct {
	log          *slog.Logger
	domainEvents chan event.DomainEvent
	telemetry    chan event.Event
	registry     contract.IFeedRegistry
	sinks        []contract.EventSink
	sinkTimeout  time.Duration
}

var _ contract.Worker = (*EventFanout)(nil)

func NewEventFanout(log *slog.Logger,
	domainEvents chan event.DomainEvent,
	telemetry chan event.Event,
	registry contract.IFeedRegistry,
	sinkTimeout time.Duration,
	sinks ...contract.EventSink) *EventFanout {
	return &EventFanout{
		log:          log,
		domainEvents: domainEvents,
		telemetry:    telemetry,
		registry:     registry,
		sinks:        sinks,
		sinkTimeout:  sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.domainEvents:
			w.Fanout(evt)
			select {
			case w.telemetry <- toTechnicalEvent(evt):
			default:
				w.log.Debug("Observability telemetry event lost")
			}
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		}
	}
}

// Fanout delivers one event to every permanent sink plus the live feed
// sinks of the event's conversation. Each sink gets its own goroutine
// and deadline so one stuck consumer never delays the others.
func (w *EventFanout) Fanout(evt event.DomainEvent) {
	all := slices.Clone(w.sinks)
	all = append(all, w.registry.SinksFor(evt.ConversationID())...)

	for _, sink := range all {
		go func(s contract.EventSink) {
			ctx, cancel := context.WithTimeout(context.Background(), w.sinkTimeout)
			defer cancel()
			if err := s.Consume(ctx, evt); err != nil {
				w.log.Warn("Sink failed to consume event", "error", err)
			}
		}(sink)
	}
}

// toTechnicalEvent mirrors a domain event into the telemetry stream.
func toTechnicalEvent(e event.DomainEvent) event.Event {
	evt := event.Event{CreatedAt: time.Now().UTC(), Payload: e}
	switch e.(type) {
	case event.MessagePosted:
		evt.Type = event.MessagePostedType
	case event.CoordinationCompleted:
		evt.Type = event.RoundCompletedType
	case event.SpecialistFailed:
		evt.Type = event.SpecialistFailedType
	}
	return evt
}

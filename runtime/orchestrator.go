// Package runtime handles coordination rounds, event propagation and the
// supervised background machinery. It orchestrates the system without
// containing business logic or domain rules.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"council-lab/contract"
	"council-lab/domain/event"
	"council-lab/runtime/workers"
)

type Orchestrator struct {
	mu              sync.Mutex
	log             *slog.Logger
	permanentSinks  []contract.EventSink
	supervisor      contract.ISupervisor
	registry        contract.IFeedRegistry
	domainEvents    chan event.DomainEvent
	telemetryEvents chan event.Event
	handlers        []event.Handler
	sinkTimeout     time.Duration
	metricInterval  time.Duration
	heartbeat       time.Duration
}

var _ contract.IOrchestrator = (*Orchestrator)(nil)

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	registry contract.IFeedRegistry, telemetryEvents chan event.Event,
	bufferSize int, sinkTimeout, metricInterval, heartbeat time.Duration,
	handlers ...event.Handler) *Orchestrator {
	return &Orchestrator{
		log:             log,
		permanentSinks:  nil,
		supervisor:      supervisor,
		registry:        registry,
		domainEvents:    make(chan event.DomainEvent, bufferSize),
		telemetryEvents: telemetryEvents,
		handlers:        handlers,
		sinkTimeout:     sinkTimeout,
		metricInterval:  metricInterval,
		heartbeat:       heartbeat,
	}
}

// RegisterSinks attaches permanent consumers to the pipeline. Sinks must
// all be registered before Start: the fanout worker snapshots them once.
func (o *Orchestrator) RegisterSinks(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// Publish pushes a domain event into the pipeline without ever blocking
// the caller. When the buffer is full the event is dropped: sinks are
// observers, the store has already been written.
func (o *Orchestrator) Publish(e event.DomainEvent) {
	select {
	case o.domainEvents <- e:
	default:
		o.log.Warn(fmt.Sprintf("Domain event channel full for conversation %s, dropping event", e.ConversationID()))
	}
}

func (o *Orchestrator) RegisterSubscriber(subID string, conversationID uuid.UUID, sink contract.EventSink) {
	o.registry.Subscribe(subID, conversationID, sink)
}

// UnregisterSubscriber disconnects a feed follower.
func (o *Orchestrator) UnregisterSubscriber(subID string, conversationID uuid.UUID) {
	o.registry.Unsubscribe(subID, conversationID)
}

// Start initiates the orchestrator by preparing all components (fanout,
// telemetry, samplers) and then starting the supervisor. It uses a
// preparation pattern to minimize mutex locking time, and blocks until
// ctx is canceled.
func (o *Orchestrator) Start(ctx context.Context) error {
	// 1. Preparation phase: snapshot the sinks, then build the workers
	// without holding the lock.
	o.mu.Lock()
	sinks := make([]contract.EventSink, len(o.permanentSinks))
	copy(sinks, o.permanentSinks)
	o.mu.Unlock()

	fanoutWorker := workers.NewEventFanout(
		o.log,
		o.domainEvents,
		o.telemetryEvents,
		o.registry,
		o.sinkTimeout,
		sinks...,
	)

	telemetryWorker := workers.NewTelemetryWorker(o.log, o.telemetryEvents, o.handlers)

	capacityWorker := workers.NewChannelCapacityWorker(
		o.log,
		[]workers.WatchedChannel{
			workers.Watch("domainEvents", o.domainEvents),
			workers.Watch("telemetryEvents", o.telemetryEvents),
		},
		o.telemetryEvents,
		o.metricInterval,
	)

	heartbeatWorker := workers.NewHeartbeatWorker(o.log, o.heartbeat, o.telemetryEvents)

	// 2. Critical Section (Short Lock)
	// We only lock to update the supervisor.
	o.mu.Lock()
	o.supervisor.Add(fanoutWorker, telemetryWorker, capacityWorker, heartbeatWorker)
	o.mu.Unlock()

	// 3. Execution phase (No Lock)
	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

// Stop initiates a graceful shutdown of the orchestrator.
// It cancels the supervision context to signal workers to stop.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")

	// Cancel the supervised context.
	// This immediately signals all workers to stop blocking on operations.
	o.supervisor.Stop()

	o.log.Debug("Orchestrator shutdown requested")
}

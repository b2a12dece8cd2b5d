//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"github.com/google/uuid"

	"council-lab/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IFeedRegistry tracks live feed subscribers per conversation.
type IFeedRegistry interface {
	SinksFor(conversationID uuid.UUID) []EventSink
	Subscribe(subscriberID string, conversationID uuid.UUID, sink EventSink)
	Unsubscribe(subscriberID string, conversationID uuid.UUID)
}

// IOrchestrator owns the background machinery of the pipeline: the
// supervised workers, the event channels and the feed registry.
type IOrchestrator interface {
	RegisterSinks(sink ...EventSink)
	Publish(e event.DomainEvent)
	RegisterSubscriber(subID string, conversationID uuid.UUID, sink EventSink)
	UnregisterSubscriber(subID string, conversationID uuid.UUID)
	Start(ctx context.Context) error
	Stop()
}

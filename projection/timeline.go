// Package projection builds local read models from observed events.
// Handles ordering, deduplication, and projections.
// Does not emit events or interact with transports directly.
package projection

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"council-lab/contract"
	"council-lab/domain"
	"council-lab/domain/event"
)

// Timeline keeps the most recent records of every conversation it has
// seen, ordered by sequence number. Events arrive from the fanout in
// arbitrary order, so each insert re-sorts its conversation window.
type Timeline struct {
	mu       sync.Mutex
	capacity int
	byConv   map[uuid.UUID][]domain.Message
	seen     map[uuid.UUID]struct{}
}

var _ contract.EventSink = (*Timeline)(nil)

func NewTimeline(capacity int) *Timeline {
	return &Timeline{
		capacity: capacity,
		byConv:   make(map[uuid.UUID][]domain.Message),
		seen:     make(map[uuid.UUID]struct{}),
	}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	evt, ok := e.(event.MessagePosted)
	if !ok {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.seen[evt.Message.ID]; dup {
		return nil
	}
	t.seen[evt.Message.ID] = struct{}{}

	window := append(t.byConv[evt.Message.ConversationID], evt.Message)
	slices.SortFunc(window, func(a, b domain.Message) int {
		return cmp.Compare(a.Seq, b.Seq)
	})

	// Evict the oldest records once the window overflows
	for t.capacity > 0 && len(window) > t.capacity {
		delete(t.seen, window[0].ID)
		window = window[1:]
	}
	t.byConv[evt.Message.ConversationID] = window
	return nil
}

// Recent returns a copy of the projected window for one conversation.
func (t *Timeline) Recent(conversationID uuid.UUID) []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.byConv[conversationID])
}

// Size reports how many conversations and records the projection holds.
func (t *Timeline) Size() (conversations, messages int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, window := range t.byConv {
		messages += len(window)
	}
	return len(t.byConv), messages
}

package runtime

import (
	"sync"

	"github.com/google/uuid"

	"council-lab/contract"
)

type Set map[string]struct{}

// FeedRegistry tracks which live feed subscribers follow which
// conversation.
type FeedRegistry struct {
	mu          sync.RWMutex
	sessions    map[string]contract.EventSink // map subscriber -> Sink
	feedMembers map[uuid.UUID]Set             // map conversation -> subscribers
}

var _ contract.IFeedRegistry = (*FeedRegistry)(nil)

func NewFeedRegistry() *FeedRegistry {
	return &FeedRegistry{
		sessions:    make(map[string]contract.EventSink),
		feedMembers: make(map[uuid.UUID]Set),
	}
}

// SinksFor retrieves all active communication channels for a specific
// conversation. It performs a two-step lookup:
// 1. Identifies subscriber IDs associated with the conversation via feedMembers.
// 2. Resolves those IDs into actual EventSinks using the sessions map.
//
// This decoupled approach ensures that even if a subscriber follows
// multiple conversations, their connection (Sink) is managed in a single
// place. Returns nil if the conversation has no followers.
func (r *FeedRegistry) SinksFor(conversationID uuid.UUID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.feedMembers[conversationID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for subscriberID := range members {
		if sink, exists := r.sessions[subscriberID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Subscribe registers a subscriber's active connection and attaches it to
// a conversation feed. If the conversation has no feed entry yet, it is
// initialized on the fly.
func (r *FeedRegistry) Subscribe(subscriberID string, conversationID uuid.UUID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[subscriberID] = sink

	if _, ok := r.feedMembers[conversationID]; !ok {
		r.feedMembers[conversationID] = make(Set)
	}
	r.feedMembers[conversationID][subscriberID] = struct{}{}
}

// Unsubscribe removes a subscriber from the registry and from the
// conversation feed. It cleans up the session and ensures no empty sets
// are left in the feed map to prevent memory leaks over time.
func (r *FeedRegistry) Unsubscribe(subscriberID string, conversationID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, subscriberID)

	if members, ok := r.feedMembers[conversationID]; ok {
		delete(members, subscriberID)

		// If no one is left on the feed, remove the entry entirely
		if len(members) == 0 {
			delete(r.feedMembers, conversationID)
		}
	}
}

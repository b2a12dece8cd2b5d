package runtime

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"council-lab/domain/event"
)

type Sink struct {
}

func (s Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	return nil
}

func TestFeedRegistry_Subscribe_One_Conversation_One_Subscriber(t *testing.T) {
	req := require.New(t)
	registry := NewFeedRegistry()
	subscriberID := uuid.NewString()
	conversationID := uuid.New()
	sink := Sink{}

	// Given no subscriber is connected
	req.Nil(registry.SinksFor(conversationID))

	// When a subscriber follows a conversation
	registry.Subscribe(subscriberID, conversationID, sink)

	// Then its sink is reachable through the feed
	req.Len(registry.SinksFor(conversationID), 1)
	req.Contains(registry.SinksFor(conversationID), sink)
}

func TestFeedRegistry_Subscribe_One_Conversation_Multiple_Subscribers(t *testing.T) {
	req := require.New(t)
	registry := NewFeedRegistry()
	subscriberID1 := uuid.NewString()
	subscriberID2 := uuid.NewString()
	conversationID := uuid.New()
	sink1 := Sink{}
	sink2 := Sink{}

	// When subscribers follow a conversation
	registry.Subscribe(subscriberID1, conversationID, sink1)
	registry.Subscribe(subscriberID2, conversationID, sink2)

	// Then both sinks are reachable
	req.Len(registry.SinksFor(conversationID), 2)
}

func TestFeedRegistry_Unsubscribe_One_Conversation_One_Subscriber(t *testing.T) {
	req := require.New(t)
	registry := NewFeedRegistry()
	subscriberID := uuid.NewString()
	conversationID := uuid.New()
	sink := Sink{}

	// Given a subscriber follows a conversation
	registry.Subscribe(subscriberID, conversationID, sink)

	// When the subscriber leaves
	registry.Unsubscribe(subscriberID, conversationID)

	// Then no sink is left on the feed
	req.Nil(registry.SinksFor(conversationID))
}

func TestFeedRegistry_Unsubscribe_One_Conversation_Multiple_Subscribers(t *testing.T) {
	req := require.New(t)
	registry := NewFeedRegistry()
	subscriberID1 := uuid.NewString()
	subscriberID2 := uuid.NewString()
	conversationID := uuid.New()
	sink1 := Sink{}
	sink2 := Sink{}

	// Given two subscribers follow a conversation
	registry.Subscribe(subscriberID1, conversationID, sink1)
	registry.Subscribe(subscriberID2, conversationID, sink2)

	// When one of them leaves
	registry.Unsubscribe(subscriberID1, conversationID)

	// Then only one sink is left
	req.Len(registry.SinksFor(conversationID), 1)
}

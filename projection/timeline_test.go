package projection

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"council-lab/domain"
	"council-lab/domain/event"
)

func posted(conversationID uuid.UUID, seq uint64, content string) event.MessagePosted {
	return event.MessagePosted{
		Message: domain.Message{
			ID:             uuid.New(),
			ConversationID: conversationID,
			Role:           domain.RoleAssistant,
			Content:        content,
			Seq:            seq,
		},
		OwnerID: "alice@example.com",
	}
}

func TestTimeline_Consume_OrdersBySequence(t *testing.T) {
	timeline := NewTimeline(10)
	ctx := context.Background()
	conversationID := uuid.New()

	// Events reach the projection in completion order, not append order
	err := timeline.Consume(ctx, posted(conversationID, 3, "third"))
	require.NoError(t, err)
	err = timeline.Consume(ctx, posted(conversationID, 1, "first"))
	require.NoError(t, err)
	err = timeline.Consume(ctx, posted(conversationID, 2, "second"))
	require.NoError(t, err)

	window := timeline.Recent(conversationID)
	require.Len(t, window, 3)
	require.Equal(t, "first", window[0].Content)
	require.Equal(t, "second", window[1].Content)
	require.Equal(t, "third", window[2].Content)
}

func TestTimeline_Consume_IgnoresDuplicates(t *testing.T) {
	timeline := NewTimeline(10)
	ctx := context.Background()
	conversationID := uuid.New()

	evt := posted(conversationID, 1, "hello")
	require.NoError(t, timeline.Consume(ctx, evt))
	require.NoError(t, timeline.Consume(ctx, evt))

	require.Len(t, timeline.Recent(conversationID), 1)
}

func TestTimeline_Consume_EvictsOldestBeyondCapacity(t *testing.T) {
	timeline := NewTimeline(2)
	ctx := context.Background()
	conversationID := uuid.New()

	require.NoError(t, timeline.Consume(ctx, posted(conversationID, 1, "first")))
	require.NoError(t, timeline.Consume(ctx, posted(conversationID, 2, "second")))
	require.NoError(t, timeline.Consume(ctx, posted(conversationID, 3, "third")))

	window := timeline.Recent(conversationID)
	require.Len(t, window, 2)
	require.Equal(t, "second", window[0].Content)
	require.Equal(t, "third", window[1].Content)
}

func TestTimeline_Consume_IgnoresOtherEvents(t *testing.T) {
	timeline := NewTimeline(10)
	conversationID := uuid.New()

	err := timeline.Consume(context.Background(), event.CoordinationCompleted{Conversation: conversationID})
	require.NoError(t, err)

	require.Nil(t, timeline.Recent(conversationID))
}

func TestTimeline_Size(t *testing.T) {
	timeline := NewTimeline(10)
	ctx := context.Background()
	first := uuid.New()
	second := uuid.New()

	require.NoError(t, timeline.Consume(ctx, posted(first, 1, "a")))
	require.NoError(t, timeline.Consume(ctx, posted(first, 2, "b")))
	require.NoError(t, timeline.Consume(ctx, posted(second, 1, "c")))

	conversations, messages := timeline.Size()
	require.Equal(t, 2, conversations)
	require.Equal(t, 3, messages)
}

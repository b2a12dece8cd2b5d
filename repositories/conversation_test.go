package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"council-lab/domain"
	cerrors "council-lab/errors"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Append_Assigns_Sequence_And_Order(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewConversationRepository(db, slog.Default(), nil)
	conv, err := repository.CreateConversation("owner-1", "pipeline questions")
	req.NoError(err)

	contents := []string{"first", "second", "third"}
	for _, c := range contents {
		_, err = repository.AppendMessage(domain.Message{
			ConversationID: conv.ID,
			Role:           domain.RoleUser,
			Content:        c,
		})
		req.NoError(err)
	}

	messages, cursor, err := repository.History(conv.ID, nil, 0)
	req.NoError(err)
	req.Len(messages, 3)
	req.NotNil(cursor)
	for i, msg := range messages {
		req.Equal(uint64(i+1), msg.Seq)
		req.Equal(contents[i], msg.Content)
		req.NotEqual(uuid.Nil, msg.ID)
	}

	meta, err := repository.GetConversation(conv.ID)
	req.NoError(err)
	req.Equal(uint64(3), meta.LastSeq)
	req.Equal(uint64(3), meta.MessageCount)
}

func Test_History_Pagination_Resumes_At_Cursor(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	limit := 2
	repository := NewConversationRepository(db, slog.Default(), &limit)
	conv, err := repository.CreateConversation("owner-1", "long thread")
	req.NoError(err)

	for i := 0; i < 5; i++ {
		_, err = repository.AppendMessage(domain.Message{
			ConversationID: conv.ID,
			Role:           domain.RoleUser,
			Content:        fmt.Sprintf("message %d", i+1),
		})
		req.NoError(err)
	}

	page1, cursor1, err := repository.History(conv.ID, nil, 0)
	req.NoError(err)
	req.Len(page1, 2)
	req.Equal("message 1", page1[0].Content)
	req.Equal("message 2", page1[1].Content)

	page2, cursor2, err := repository.History(conv.ID, cursor1, 0)
	req.NoError(err)
	req.Len(page2, 2)
	req.Equal("message 3", page2[0].Content)
	req.Equal("message 4", page2[1].Content)

	page3, cursor3, err := repository.History(conv.ID, cursor2, 0)
	req.NoError(err)
	req.Len(page3, 1)
	req.Equal("message 5", page3[0].Content)

	page4, _, err := repository.History(conv.ID, cursor3, 0)
	req.NoError(err)
	req.Empty(page4)
}

func Test_Append_Timestamps_Stay_Monotonic(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewConversationRepository(db, slog.Default(), nil)
	conv, err := repository.CreateConversation("owner-1", "clock games")
	req.NoError(err)

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	clock := base
	repository.now = func() time.Time { return clock }

	_, err = repository.AppendMessage(domain.Message{ConversationID: conv.ID, Role: domain.RoleUser, Content: "one"})
	req.NoError(err)

	// The wall clock steps back one minute between appends
	clock = base.Add(-1 * time.Minute)
	second, err := repository.AppendMessage(domain.Message{ConversationID: conv.ID, Role: domain.RoleUser, Content: "two"})
	req.NoError(err)
	req.False(second.CreatedAt.Before(base))

	messages, _, err := repository.History(conv.ID, nil, 0)
	req.NoError(err)
	req.Len(messages, 2)
	req.False(messages[1].CreatedAt.Before(messages[0].CreatedAt))
	req.Equal(uint64(2), messages[1].Seq)
}

func Test_Append_Unknown_Conversation(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewConversationRepository(db, slog.Default(), nil)
	_, err := repository.AppendMessage(domain.Message{
		ConversationID: uuid.New(),
		Role:           domain.RoleUser,
		Content:        "to nowhere",
	})
	req.ErrorIs(err, cerrors.ErrConversationNotFound)
}

func Test_Ownership_Check(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewConversationRepository(db, slog.Default(), nil)
	conv, err := repository.CreateConversation("owner-1", "private")
	req.NoError(err)

	req.NoError(repository.OwnershipCheck(conv.ID, "owner-1"))
	req.ErrorIs(repository.OwnershipCheck(conv.ID, "owner-2"), cerrors.ErrForbidden)
	req.ErrorIs(repository.OwnershipCheck(uuid.New(), "owner-1"), cerrors.ErrConversationNotFound)
}

func Test_List_Conversations_By_Owner(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewConversationRepository(db, slog.Default(), nil)
	mine1, err := repository.CreateConversation("owner-1", "first")
	req.NoError(err)
	_, err = repository.CreateConversation("owner-2", "not mine")
	req.NoError(err)
	mine2, err := repository.CreateConversation("owner-1", "second")
	req.NoError(err)

	conversations, err := repository.ListConversations("owner-1")
	req.NoError(err)
	req.Len(conversations, 2)
	ids := lo.Map(conversations, func(c domain.Conversation, _ int) uuid.UUID { return c.ID })
	req.Contains(ids, mine1.ID)
	req.Contains(ids, mine2.ID)
}

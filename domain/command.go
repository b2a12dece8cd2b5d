package domain

import (
	"github.com/google/uuid"
)

// PostMessageCommand asks for a full coordination round on a conversation.
type PostMessageCommand struct {
	Conversation uuid.UUID
	UserID       string
	Content      string
}

// HistoryCommand pages through the persisted records of a conversation.
type HistoryCommand struct {
	Conversation uuid.UUID
	UserID       string
	Cursor       *string
	Limit        int
}

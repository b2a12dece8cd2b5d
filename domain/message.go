// Package domain contains core concepts of the coordination pipeline.
// This file defines Message records and related rules.
// Messages are immutable once appended to a conversation.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role discriminates who authored a record.
type Role string

const (
	RoleUser        Role = "user"
	RoleCoordinator Role = "coordinator"
	RoleAssistant   Role = "assistant"
)

// MaxContentLength bounds user-submitted content, counted in runes.
const MaxContentLength = 2000

// Message represents an immutable conversation record.
// ID, Seq and CreatedAt are assigned by the store on append.
type Message struct {
	ID             uuid.UUID      `json:"id"`
	ConversationID uuid.UUID      `json:"conversationId"`
	Role           Role           `json:"role"`
	Specialist     string         `json:"specialist,omitempty"`
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Seq            uint64         `json:"seq"`
	CreatedAt      time.Time      `json:"createdAt"`
}

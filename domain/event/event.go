package event

import (
	"time"

	"github.com/google/uuid"

	"council-lab/domain"
	"council-lab/domain/specialist"
)

// DomainEvent is anything the pipeline publishes about a conversation.
type DomainEvent interface {
	ConversationID() uuid.UUID
}

// MessagePosted fires once per record appended to a conversation,
// in append order. OwnerID travels with the event so downstream
// consumers never have to re-read the conversation.
type MessagePosted struct {
	Message domain.Message
	OwnerID string
}

func (m MessagePosted) ConversationID() uuid.UUID {
	return m.Message.ConversationID
}

// CoordinationCompleted closes a round, successful or not.
type CoordinationCompleted struct {
	Conversation uuid.UUID
	Selected     []specialist.ID
	Failed       []specialist.ID
	StartedAt    time.Time
	Duration     time.Duration
}

func (c CoordinationCompleted) ConversationID() uuid.UUID {
	return c.Conversation
}

// SpecialistFailed fires for each handler invocation that failed
// inside a round.
type SpecialistFailed struct {
	Conversation uuid.UUID
	Specialist   specialist.ID
	Reason       string
	At           time.Time
}

func (s SpecialistFailed) ConversationID() uuid.UUID {
	return s.Conversation
}

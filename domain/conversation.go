package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation groups an ordered set of messages under one owner.
// LastSeq and LastTimestamp are maintained by the store so appended
// records keep strictly increasing sequence numbers and monotonic
// timestamps even when the wall clock steps backwards.
type Conversation struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       string    `json:"ownerId"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"createdAt"`
	LastSeq       uint64    `json:"lastSeq"`
	LastTimestamp time.Time `json:"lastTimestamp"`
	MessageCount  uint64    `json:"messageCount"`
}

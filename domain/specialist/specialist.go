// Package specialist defines the closed identifier set of the specialist
// pool and the request/response types shared with handlers.
package specialist

import (
	"strings"

	"github.com/google/uuid"
)

// ID identifies one specialist of the pool.
type ID string

const (
	Code     ID = "code_ai"
	Design   ID = "design_ai"
	Writing  ID = "writing_ai"
	Analysis ID = "analysis_ai"
)

// Coordinator tags the synthetic record opening a coordination round.
// It is not a member of the pool and never resolves to a handler.
const Coordinator = "coordinator"

// All returns the pool in its fixed evaluation order.
func All() []ID {
	return []ID{Code, Design, Writing, Analysis}
}

// DisplayName renders the identifier for user-facing text.
func (id ID) DisplayName() string {
	return strings.ReplaceAll(string(id), "_", " ")
}

// Context carries round-level hints down to every handler of a round.
type Context struct {
	Rationale string
	Language  string // ISO 639-1 hint, empty when detection is unsure
}

// Request is the unit of work submitted to a handler.
type Request struct {
	ConversationID uuid.UUID
	MessageText    string
	Context        Context
}

// Response is what a handler hands back for persistence.
type Response struct {
	Content  string
	Metadata map[string]any
}

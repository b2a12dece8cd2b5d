package search

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Query represents the structured parameters for a message search.
// It decouples the raw user input from the index engine requirements.
type Query struct {
	RawInput     string // The original query string from the user
	Terms        string // The actual text to match against content
	Conversation string // Target conversation, empty means all readable ones
	Specialist   string // Restrict hits to one specialist, empty means all
	Limit        int    // Number of results
}

// Hit is one indexed record matching a Query.
type Hit struct {
	MessageID      uuid.UUID `json:"messageId"`
	ConversationID uuid.UUID `json:"conversationId"`
	Role           string    `json:"role"`
	Specialist     string    `json:"specialist,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	Score          float64   `json:"score"`
}

// NewSearchQuery parses a raw string to extract command-line style arguments.
// Example: react hooks --conversation 4cc6e9f9-... --specialist code_ai --limit 5
func NewSearchQuery(input string) *Query {
	query := &Query{
		RawInput: input,
		Limit:    10, // Default limit
	}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		// Handle flags like --conversation <id> or --limit 5
		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			key := strings.TrimPrefix(part, "--")
			val := parts[i+1]

			switch key {
			case "conversation":
				query.Conversation = val
			case "specialist":
				query.Specialist = val
			case "limit":
				if n, err := strconv.Atoi(val); err == nil && n > 0 {
					query.Limit = n
				}
			}
			i++ // Skip the value part in next iteration
			continue
		}

		textTerms = append(textTerms, part)
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}

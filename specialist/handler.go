//go:generate go run go.uber.org/mock/mockgen -source=handler.go -destination=../mocks/mock_handler.go -package=mocks

// Package specialist hosts the handler pool answering coordination rounds.
package specialist

import (
	"context"

	"council-lab/domain/specialist"
)

// Handler produces one specialist's response to a user message.
// Implementations must honor ctx cancellation: the dispatcher bounds
// every invocation with a timeout.
type Handler interface {
	ID() specialist.ID
	Respond(ctx context.Context, req specialist.Request) (specialist.Response, error)
}

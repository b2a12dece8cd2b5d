package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"council-lab/classify"
	"council-lab/domain"
	"council-lab/domain/specialist"
	"council-lab/errors"
	"council-lab/repositories"
	handlers "council-lab/specialist"
)

const defaultSpecialistTimeout = 10 * time.Second

// Dispatcher runs one coordination round: it classifies the user message,
// fans the request out to the selected handlers in parallel, and persists
// the responses as an ordered set on the conversation.
type Dispatcher struct {
	log        *slog.Logger
	classifier *classify.Classifier
	registry   *handlers.Registry
	store      repositories.IConversationRepository
	timeout    time.Duration
}

func NewDispatcher(
	log *slog.Logger,
	classifier *classify.Classifier,
	registry *handlers.Registry,
	store repositories.IConversationRepository,
	timeout time.Duration,
) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultSpecialistTimeout
	}
	return &Dispatcher{
		log:        log,
		classifier: classifier,
		registry:   registry,
		store:      store,
		timeout:    timeout,
	}
}

// Round is the persisted outcome of one dispatch: the coordinator record
// followed by one record per responding specialist, in selection order.
type Round struct {
	Messages  []domain.Message
	Selected  []specialist.ID
	Rationale string
}

// outcome is the fan-in slot of one handler invocation.
type outcome struct {
	resp specialist.Response
	err  error
}

// Coordinate classifies the message, resolves every selected handler
// before writing anything, then appends the coordinator record and the
// specialist responses. Handlers run concurrently, each bounded by the
// configured timeout, but responses are committed strictly in selection
// order so readers always see the same layout.
//
// On partial failure the successful responses stay persisted and the
// error is a *errors.DispatchError naming the failed specialists. A
// store failure aborts the round, returning whatever was appended.
func (d *Dispatcher) Coordinate(ctx context.Context, conversationID uuid.UUID, messageText string) (Round, error) {
	res := d.classifier.Classify(messageText)
	round := Round{
		Messages:  make([]domain.Message, 0, len(res.Specialists)+1),
		Selected:  res.Specialists,
		Rationale: res.Rationale,
	}

	// 1. Resolve every handler up front. An unknown identifier fails the
	// whole round before a single record is written.
	selected := make([]handlers.Handler, 0, len(res.Specialists))
	for _, id := range res.Specialists {
		h, err := d.registry.HandlerFor(id)
		if err != nil {
			return round, err
		}
		selected = append(selected, h)
	}

	fanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	req := specialist.Request{
		ConversationID: conversationID,
		MessageText:    messageText,
		Context: specialist.Context{
			Rationale: res.Rationale,
			Language:  res.Language,
		},
	}

	// 2. Fan out. Each handler writes into its own slot so completion
	// order never leaks into commit order.
	results := make([]outcome, len(selected))
	var wg sync.WaitGroup
	for i, h := range selected {
		wg.Add(1)
		go func(idx int, h handlers.Handler) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					d.log.Error("Specialist handler panicked", "id", h.ID(), "panic", r)
					results[idx] = outcome{err: fmt.Errorf("%w: %v", errors.ErrSpecialistPanic, r)}
				}
			}()

			callCtx, cancelCall := context.WithTimeout(fanCtx, d.timeout)
			defer cancelCall()

			resp, err := h.Respond(callCtx, req)
			results[idx] = outcome{resp: resp, err: err}
		}(i, h)
	}

	// 3. Open the round while the handlers run. The coordinator record
	// always precedes the responses, whatever the handlers are doing.
	coordinator, err := d.store.AppendMessage(domain.Message{
		ConversationID: conversationID,
		Role:           domain.RoleCoordinator,
		Specialist:     specialist.Coordinator,
		Content:        res.Rationale,
		Metadata: map[string]any{
			"specialists": lo.Map(res.Specialists, func(id specialist.ID, _ int) string {
				return string(id)
			}),
		},
	})
	if err != nil {
		// Abandon the round: release the handlers and wait them out so
		// no goroutine outlives the call.
		cancel()
		wg.Wait()
		return round, err
	}
	round.Messages = append(round.Messages, coordinator)

	wg.Wait()

	// 4. Commit in selection order. Failures are collected, never rolled
	// back over: a specialist that answered stays answered.
	var failed, succeeded []specialist.ID
	reasons := make(map[specialist.ID]string)
	var firstCause error
	for i, id := range res.Specialists {
		if results[i].err != nil {
			d.log.Error("Specialist failed to respond", "id", id, "error", results[i].err)
			if firstCause == nil {
				firstCause = results[i].err
			}
			failed = append(failed, id)
			reasons[id] = results[i].err.Error()
			continue
		}

		msg, err := d.store.AppendMessage(domain.Message{
			ConversationID: conversationID,
			Role:           domain.RoleAssistant,
			Specialist:     string(id),
			Content:        results[i].resp.Content,
			Metadata:       results[i].resp.Metadata,
		})
		if err != nil {
			return round, err
		}
		round.Messages = append(round.Messages, msg)
		succeeded = append(succeeded, id)
	}

	if len(failed) > 0 {
		return round, &errors.DispatchError{
			Specialist: failed[0],
			Failed:     failed,
			Succeeded:  succeeded,
			Reasons:    reasons,
			Cause:      firstCause,
		}
	}
	return round, nil
}

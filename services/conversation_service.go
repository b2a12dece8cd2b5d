//go:generate go run go.uber.org/mock/mockgen -source=conversation_service.go -destination=../mocks/mock_conversation_service.go -package=mocks
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"council-lab/contract"
	"council-lab/domain"
	"council-lab/domain/event"
	"council-lab/domain/specialist"
	cerrors "council-lab/errors"
	"council-lab/observability"
	"council-lab/repositories"
	"council-lab/runtime"
)

// ICoordinator runs one full dispatch round against a conversation.
// *runtime.Dispatcher is the production implementation.
type ICoordinator interface {
	Coordinate(ctx context.Context, conversationID uuid.UUID, messageText string) (runtime.Round, error)
}

type IConversationService interface {
	Post(ctx context.Context, cmd domain.PostMessageCommand) ([]domain.Message, error)
	History(cmd domain.HistoryCommand) ([]domain.Message, *string, error)
	CreateConversation(userID, title string) (domain.Conversation, error)
	ListConversations(userID string) ([]domain.Conversation, error)
	CheckAccess(userID string, conversationID uuid.UUID) error
	Subscribe(userID string, conversationID uuid.UUID, sink contract.EventSink) string
	Unsubscribe(subscriptionID string, conversationID uuid.UUID)
}

// ConversationService wraps one coordination round per user message:
// validate, append the user record, dispatch, then let the event
// pipeline observe what the store accepted.
type ConversationService struct {
	log          *slog.Logger
	store        repositories.IConversationRepository
	coordinator  ICoordinator
	orchestrator contract.IOrchestrator
	stats        *observability.PipelineStats

	// locks serializes rounds per conversation. Entries are never
	// reclaimed.
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewConversationService(
	log *slog.Logger,
	store repositories.IConversationRepository,
	coordinator ICoordinator,
	orchestrator contract.IOrchestrator,
	stats *observability.PipelineStats,
) *ConversationService {
	return &ConversationService{
		log:          log,
		store:        store,
		coordinator:  coordinator,
		orchestrator: orchestrator,
		stats:        stats,
		locks:        make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *ConversationService) lockFor(conversationID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[conversationID] = lock
	}
	return lock
}

// Post runs one coordination round and returns every record it
// appended, in order: user, coordinator, then specialists. On partial
// failure the returned error is a *errors.DispatchError and the slice
// still holds everything that was persisted.
func (s *ConversationService) Post(ctx context.Context, cmd domain.PostMessageCommand) ([]domain.Message, error) {
	// 1. Validate before anything locks or writes.
	content := strings.TrimSpace(cmd.Content)
	if content == "" || utf8.RuneCountInString(content) > domain.MaxContentLength {
		return nil, cerrors.ErrContentLength
	}

	// 2. Ownership gates every conversation operation.
	if err := s.store.OwnershipCheck(cmd.Conversation, cmd.UserID); err != nil {
		return nil, err
	}

	// 3. One round at a time per conversation; rounds on other
	// conversations proceed in parallel.
	lock := s.lockFor(cmd.Conversation)
	lock.Lock()
	defer lock.Unlock()

	s.stats.IncrRoundsStarted()
	startedAt := time.Now()

	// 4. The user record opens the round.
	userMsg, err := s.store.AppendMessage(domain.Message{
		ConversationID: cmd.Conversation,
		Role:           domain.RoleUser,
		Content:        content,
	})
	if err != nil {
		s.stats.IncrRoundsFailed()
		return nil, err
	}
	appended := []domain.Message{userMsg}

	// 5. Dispatch. Whatever happens next, records already appended stay.
	round, roundErr := s.coordinator.Coordinate(ctx, cmd.Conversation, content)
	appended = append(appended, round.Messages...)

	// 6. Events are observational: emitted after the store accepted the
	// records, never blocking the round.
	s.publishRound(cmd.Conversation, cmd.UserID, appended, round, startedAt, roundErr)
	s.recordRound(appended, roundErr)

	if roundErr != nil {
		return appended, roundErr
	}
	return appended, nil
}

func (s *ConversationService) publishRound(conversationID uuid.UUID, ownerID string, appended []domain.Message, round runtime.Round, startedAt time.Time, roundErr error) {
	for _, msg := range appended {
		s.orchestrator.Publish(event.MessagePosted{Message: msg, OwnerID: ownerID})
	}

	var failed []specialist.ID
	var dispatchErr *cerrors.DispatchError
	if errors.As(roundErr, &dispatchErr) {
		failed = dispatchErr.Failed
		for _, id := range failed {
			s.orchestrator.Publish(event.SpecialistFailed{
				Conversation: conversationID,
				Specialist:   id,
				Reason:       dispatchErr.Reasons[id],
				At:           time.Now(),
			})
		}
	}

	s.orchestrator.Publish(event.CoordinationCompleted{
		Conversation: conversationID,
		Selected:     round.Selected,
		Failed:       failed,
		StartedAt:    startedAt,
		Duration:     time.Since(startedAt),
	})
}

func (s *ConversationService) recordRound(appended []domain.Message, roundErr error) {
	s.stats.AddMessagesAppended(uint64(len(appended)))

	var dispatchErr *cerrors.DispatchError
	switch {
	case roundErr == nil:
		s.stats.IncrRoundsSucceeded()
	case errors.As(roundErr, &dispatchErr):
		s.stats.IncrRoundsPartial()
		for _, id := range dispatchErr.Failed {
			s.stats.IncrSpecialistFailure(id)
		}
	default:
		s.stats.IncrRoundsFailed()
	}
}

// History pages through a conversation the caller owns.
func (s *ConversationService) History(cmd domain.HistoryCommand) ([]domain.Message, *string, error) {
	if err := s.store.OwnershipCheck(cmd.Conversation, cmd.UserID); err != nil {
		return nil, nil, err
	}
	return s.store.History(cmd.Conversation, cmd.Cursor, cmd.Limit)
}

func (s *ConversationService) CreateConversation(userID, title string) (domain.Conversation, error) {
	return s.store.CreateConversation(userID, title)
}

func (s *ConversationService) ListConversations(userID string) ([]domain.Conversation, error) {
	return s.store.ListConversations(userID)
}

// CheckAccess runs the same ownership gate history reads go through,
// without touching any record.
func (s *ConversationService) CheckAccess(userID string, conversationID uuid.UUID) error {
	return s.store.OwnershipCheck(conversationID, userID)
}

// Subscribe attaches a live feed sink and returns the subscription
// identifier to unsubscribe with. Access must already have been
// checked; each call is its own subscription, so one user can follow
// the same conversation from several connections.
func (s *ConversationService) Subscribe(userID string, conversationID uuid.UUID, sink contract.EventSink) string {
	subscriptionID := fmt.Sprintf("%s:%s", userID, uuid.NewString())
	s.orchestrator.RegisterSubscriber(subscriptionID, conversationID, sink)
	return subscriptionID
}

func (s *ConversationService) Unsubscribe(subscriptionID string, conversationID uuid.UUID) {
	s.orchestrator.UnregisterSubscriber(subscriptionID, conversationID)
}

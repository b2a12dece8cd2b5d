//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"council-lab/domain"
	cerrors "council-lab/errors"
)

// Retries absorb optimistic transaction conflicts under concurrent appends.
const maxTxnRetries = 3

type IConversationRepository interface {
	CreateConversation(ownerID, title string) (domain.Conversation, error)
	GetConversation(id uuid.UUID) (domain.Conversation, error)
	ListConversations(ownerID string) ([]domain.Conversation, error)
	OwnershipCheck(id uuid.UUID, ownerID string) error
	AppendMessage(msg domain.Message) (domain.Message, error)
	History(conversationID uuid.UUID, cursor *string, limit int) ([]domain.Message, *string, error)
}

type ConversationRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
	now           func() time.Time
}

func NewConversationRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *ConversationRepository {
	return &ConversationRepository{
		db:            db,
		log:           log,
		limitMessages: limitMessages,
		now:           time.Now,
	}
}

func conversationKey(id uuid.UUID) []byte {
	return []byte("conv:" + id.String())
}

func messagePrefix(conversationID uuid.UUID) string {
	return fmt.Sprintf("msg:%s:", conversationID)
}

// messageKey orders records by sequence number, not by timestamp:
//  1. A prefix scan in key order is exactly insertion order, with
//     19-digit zero padding keeping the lexicographic sort correct.
//  2. The UUID suffix keeps keys unique whatever the clock does.
func messageKey(msg domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", msg.ConversationID, msg.Seq, msg.ID))
}

// storeError folds badger failures into the domain error set.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, cerrors.ErrConversationNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", cerrors.ErrStoreUnavailable, err)
}

func (r *ConversationRepository) CreateConversation(ownerID, title string) (domain.Conversation, error) {
	conv := domain.Conversation{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     strings.TrimSpace(title),
		CreatedAt: r.now().UTC(),
	}
	data, err := json.Marshal(conv)
	if err != nil {
		return domain.Conversation{}, err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(conversationKey(conv.ID), data)
	})
	if err != nil {
		return domain.Conversation{}, storeError(err)
	}
	return conv, nil
}

func (r *ConversationRepository) GetConversation(id uuid.UUID) (domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		conv, err = getConversationTxn(txn, id)
		return err
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	return conv, nil
}

func getConversationTxn(txn *badger.Txn, id uuid.UUID) (domain.Conversation, error) {
	item, err := txn.Get(conversationKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.Conversation{}, fmt.Errorf("%w: %s", cerrors.ErrConversationNotFound, id)
		}
		return domain.Conversation{}, fmt.Errorf("%w: %v", cerrors.ErrStoreUnavailable, err)
	}
	var conv domain.Conversation
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &conv)
	})
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("%w: %v", cerrors.ErrStoreUnavailable, err)
	}
	return conv, nil
}

// ListConversations scans the conversation namespace and keeps the
// owner's entries, newest first.
func (r *ConversationRepository) ListConversations(ownerID string) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte("conv:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var conv domain.Conversation
				if err := json.Unmarshal(val, &conv); err != nil {
					return err
				}
				if conv.OwnerID == ownerID {
					conversations = append(conversations, conv)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	slices.SortFunc(conversations, func(a, b domain.Conversation) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return conversations, nil
}

// OwnershipCheck separates "not yours" from "does not exist" so the
// transport can answer 403 and 404 distinctly.
func (r *ConversationRepository) OwnershipCheck(id uuid.UUID, ownerID string) error {
	conv, err := r.GetConversation(id)
	if err != nil {
		return err
	}
	if conv.OwnerID != ownerID {
		return cerrors.ErrForbidden
	}
	return nil
}

// AppendMessage persists one record and advances the conversation head
// in a single transaction. The store assigns ID, Seq and CreatedAt;
// CreatedAt never goes backwards within a conversation, even when the
// wall clock does.
func (r *ConversationRepository) AppendMessage(msg domain.Message) (domain.Message, error) {
	var stored domain.Message
	op := func() error {
		return r.db.Update(func(txn *badger.Txn) error {
			conv, err := getConversationTxn(txn, msg.ConversationID)
			if err != nil {
				return err
			}

			stored = msg
			stored.ID = uuid.New()
			stored.Seq = conv.LastSeq + 1
			now := r.now().UTC()
			if now.Before(conv.LastTimestamp) {
				now = conv.LastTimestamp
			}
			stored.CreatedAt = now

			data, err := json.Marshal(stored)
			if err != nil {
				return err
			}
			if err = txn.Set(messageKey(stored), data); err != nil {
				return err
			}

			conv.LastSeq = stored.Seq
			conv.LastTimestamp = stored.CreatedAt
			conv.MessageCount++
			meta, err := json.Marshal(conv)
			if err != nil {
				return err
			}
			return txn.Set(conversationKey(conv.ID), meta)
		})
	}

	var err error
	for attempt := 1; attempt <= maxTxnRetries; attempt++ {
		if err = op(); !errors.Is(err, badger.ErrConflict) {
			break
		}
		r.log.Debug("append conflict, retrying",
			"attempt", attempt,
			"conversation_id", msg.ConversationID,
		)
	}
	if err != nil {
		if errors.Is(err, cerrors.ErrConversationNotFound) {
			return domain.Message{}, err
		}
		return domain.Message{}, storeError(err)
	}
	return stored, nil
}

// History pages forward through a conversation. Keys embed the sequence
// number, so iteration order is insertion order. The returned cursor is
// the key suffix of the last record; passing it back resumes after it.
func (r *ConversationRepository) History(conversationID uuid.UUID, cursor *string, limit int) ([]domain.Message, *string, error) {
	if limit <= 0 && r.limitMessages != nil {
		limit = *r.limitMessages
	}

	var messages []domain.Message
	var lastKey string
	err := r.db.View(func(txn *badger.Txn) error {
		prefixStr := messagePrefix(conversationID)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			seekKey = prefix
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(messages) == limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d messages reached", limit))
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[len(prefixStr):])
			err := item.Value(func(value []byte) error {
				var msg domain.Message
				if err := json.Unmarshal(value, &msg); err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, storeError(err)
	}
	if len(messages) == 0 {
		return nil, nil, nil
	}
	return messages, &lastKey, nil
}

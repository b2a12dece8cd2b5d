//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_repository.go -package=mocks
package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"

	"council-lab/domain"
	"council-lab/domain/search"
)

// ISearchRepository indexes appended records and answers content queries.
type ISearchRepository interface {
	Index(msg domain.Message, ownerID string) error
	Search(ctx context.Context, ownerID string, query search.Query) ([]search.Hit, error)
}

// SearchRepository wraps a single bluge writer. Readers are cheap
// snapshots taken per query.
type SearchRepository struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchRepository(writer *bluge.Writer, log *slog.Logger) *SearchRepository {
	return &SearchRepository{writer: writer, log: log}
}

// Index stores enough fields to render a hit without a badger
// round-trip. Owner is indexed for scoping but never returned.
func (s *SearchRepository) Index(msg domain.Message, ownerID string) error {
	doc := bluge.NewDocument(msg.ID.String()).
		AddField(bluge.NewTextField("content", msg.Content).StoreValue()).
		AddField(bluge.NewKeywordField("conversation", msg.ConversationID.String()).StoreValue()).
		AddField(bluge.NewKeywordField("owner", ownerID)).
		AddField(bluge.NewKeywordField("role", string(msg.Role)).StoreValue()).
		AddField(bluge.NewKeywordField("specialist", msg.Specialist).StoreValue()).
		AddField(bluge.NewStoredOnlyField("created_at", []byte(msg.CreatedAt.UTC().Format(time.RFC3339Nano))))

	return s.writer.Update(doc.ID(), doc)
}

// Search runs a boolean query: content match, owner filter, optional
// conversation and specialist filters. Hits come back best first.
func (s *SearchRepository) Search(ctx context.Context, ownerID string, query search.Query) ([]search.Hit, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			s.log.Warn("closing search reader", "error", cerr)
		}
	}()

	boolean := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query.Terms).SetField("content")).
		AddMust(bluge.NewTermQuery(ownerID).SetField("owner"))
	if query.Conversation != "" {
		boolean.AddMust(bluge.NewTermQuery(query.Conversation).SetField("conversation"))
	}
	if query.Specialist != "" {
		boolean.AddMust(bluge.NewTermQuery(query.Specialist).SetField("specialist"))
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}
	request := bluge.NewTopNSearch(limit, boolean).WithStandardAggregations()

	return s.collect(ctx, reader, request)
}

func (s *SearchRepository) collect(ctx context.Context, reader *bluge.Reader, request bluge.SearchRequest) ([]search.Hit, error) {
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var hits []search.Hit
	match, err := iterator.Next()
	for err == nil && match != nil {
		hit := search.Hit{Score: match.Score}
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					hit.MessageID = id
				}
			case "conversation":
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					hit.ConversationID = id
				}
			case "role":
				hit.Role = string(value)
			case "specialist":
				hit.Specialist = string(value)
			case "content":
				hit.Content = string(value)
			case "created_at":
				if at, parseErr := time.Parse(time.RFC3339Nano, string(value)); parseErr == nil {
					hit.CreatedAt = at
				}
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		hits = append(hits, hit)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}

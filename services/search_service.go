//go:generate go run go.uber.org/mock/mockgen -source=search_service.go -destination=../mocks/mock_search_service.go -package=mocks
package services

import (
	"context"

	"council-lab/domain/search"
	"council-lab/repositories"
)

type ISearchService interface {
	Search(ctx context.Context, ownerID, rawQuery, conversation string) ([]search.Hit, error)
}

// SearchService parses raw queries and scopes them to the caller. The
// index lags the store; a just-appended record may not be visible yet.
type SearchService struct {
	searchRepository repositories.ISearchRepository
}

func NewSearchService(repo repositories.ISearchRepository) *SearchService {
	return &SearchService{searchRepository: repo}
}

// Search accepts raw user input, including command-line style flags
// (--conversation, --specialist, --limit). An explicit conversation
// argument wins over the flag.
func (s *SearchService) Search(ctx context.Context, ownerID, rawQuery, conversation string) ([]search.Hit, error) {
	query := search.NewSearchQuery(rawQuery)
	if conversation != "" {
		query.Conversation = conversation
	}
	if query.Terms == "" {
		return nil, nil
	}
	return s.searchRepository.Search(ctx, ownerID, *query)
}

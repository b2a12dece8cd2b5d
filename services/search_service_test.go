package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"council-lab/domain/search"
	"council-lab/mocks"
	"council-lab/services"
)

func TestSearchService_Search(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockISearchRepository(ctrl)
	svc := services.NewSearchService(mockRepo)

	t.Run("should parse flags and scope to the caller", func(t *testing.T) {
		req := require.New(t)
		expected := search.Query{
			RawInput:   "react hooks --specialist code_ai --limit 5",
			Terms:      "react hooks",
			Specialist: "code_ai",
			Limit:      5,
		}
		hits := []search.Hit{{Content: "react hooks everywhere"}}
		mockRepo.EXPECT().
			Search(gomock.Any(), "alice", expected).
			Return(hits, nil).
			Times(1)

		got, err := svc.Search(context.Background(), "alice", "react hooks --specialist code_ai --limit 5", "")

		req.NoError(err)
		req.Equal(hits, got)
	})

	t.Run("should let an explicit conversation override the flag", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().
			Search(gomock.Any(), "alice", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, query search.Query) ([]search.Hit, error) {
				req.Equal("conv-override", query.Conversation)
				return nil, nil
			}).
			Times(1)

		_, err := svc.Search(context.Background(), "alice", "hooks --conversation conv-flag", "conv-override")

		req.NoError(err)
	})

	t.Run("should skip the index when only flags were given", func(t *testing.T) {
		req := require.New(t)
		// Repository must not be called
		got, err := svc.Search(context.Background(), "alice", "--limit 5", "")

		req.NoError(err)
		req.Nil(got)
	})
}

//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"council-lab/client"
	"council-lab/domain"
)

type testCoordinationSuite struct {
	BaseSuite
}

func TestCoordinationSuite(t *testing.T) {
	suite.Run(t, &testCoordinationSuite{})
}

func (s *testCoordinationSuite) TestFullCoordinationFlow() {
	email := fmt.Sprintf("e2e-%d@example.com", time.Now().UnixNano())
	const password = "E2e123!Complex"

	var conv domain.Conversation
	var round client.Round

	// --- STEP 1: ACCOUNT ---
	s.Run("Step 1: Register and log back in", func() {
		s.Step("Registering a fresh account", func(ctx context.Context) {
			token, err := s.API.Register(ctx, email, password)
			s.Require().NoError(err)
			s.Require().NotEmpty(token)
		})
		s.Step("Logging in with the same credentials", func(ctx context.Context) {
			token, err := s.API.Login(ctx, email, password)
			s.Require().NoError(err)
			s.Require().NotEmpty(token)
		})
	})

	// --- STEP 2: CONVERSATION ---
	s.Run("Step 2: Create a conversation and find it in the list", func() {
		s.Step("Creating the conversation", func(ctx context.Context) {
			var err error
			conv, err = s.API.CreateConversation(ctx, "e2e coordination run")
			s.Require().NoError(err)
			s.Require().NotEqual(uuid.Nil, conv.ID)
		})
		s.Step("Listing conversations", func(ctx context.Context) {
			list, err := s.API.ListConversations(ctx)
			s.Require().NoError(err)
			found := false
			for _, c := range list {
				if c.ID == conv.ID {
					found = true
				}
			}
			s.Require().True(found, "Created conversation missing from the list")
		})
	})

	// --- STEP 3: LIVE FEED + ROUND ---
	s.Run("Step 3: Post a message and watch the round on the live feed", func() {
		var feed *client.Feed
		s.Step("Opening the feed", func(ctx context.Context) {
			var err error
			feed, err = s.API.Feed(ctx, conv.ID)
			s.Require().NoError(err)
		})
		defer func() {
			if feed != nil {
				_ = feed.Close()
			}
		}()

		s.Step("Posting a code question", func(ctx context.Context) {
			var err error
			round, err = s.API.PostMessage(ctx, conv.ID, "Can you review this react component code?")
			s.Require().NoError(err)
			s.Dump("Round", round)

			s.Require().Empty(round.Failed, "Builtin handlers never fail")
			s.Require().GreaterOrEqual(len(round.Messages), 3, "Round should hold user, coordinator and at least one specialist")
			s.Require().Equal(domain.RoleUser, round.Messages[0].Role)
			s.Require().Equal(domain.RoleCoordinator, round.Messages[1].Role)
			for _, msg := range round.Messages[2:] {
				s.Require().Equal(domain.RoleAssistant, msg.Role)
			}
		})

		// The fanout makes no ordering promise, so match frames as a set
		s.Step("Reading the round back off the feed", func(ctx context.Context) {
			arrived := make(map[uuid.UUID]bool)
			for i := range round.Messages {
				frame, err := feed.Next(10 * time.Second)
				s.Require().NoError(err, "Frame %d never arrived", i)
				s.Require().Equal("message_posted", frame.Type)
				arrived[frame.Message.ID] = true
			}
			for _, want := range round.Messages {
				s.Require().True(arrived[want.ID], "Record %s never reached the feed", want.ID)
			}
			s.T().Logf("Verified: all %d records reached the feed", len(round.Messages))
		})
	})

	// --- STEP 4: HISTORY ---
	s.Run("Step 4: Read the conversation back in order", func() {
		s.Step("Fetching the full history", func(ctx context.Context) {
			messages, _, err := s.API.History(ctx, conv.ID, "", 0)
			s.Require().NoError(err)
			s.Require().Len(messages, len(round.Messages))
			for i := 1; i < len(messages); i++ {
				s.Require().Greater(messages[i].Seq, messages[i-1].Seq, "History out of order")
			}
		})
		s.Step("Paging with a cursor", func(ctx context.Context) {
			firstPage, cursor, err := s.API.History(ctx, conv.ID, "", 2)
			s.Require().NoError(err)
			s.Require().Len(firstPage, 2)
			s.Require().NotEmpty(cursor)

			rest, _, err := s.API.History(ctx, conv.ID, cursor, 0)
			s.Require().NoError(err)
			s.Require().Len(rest, len(round.Messages)-2)
			s.Require().Equal(round.Messages[2].ID, rest[0].ID, "Cursor did not resume after the first page")
		})
	})

	// --- STEP 5: SEARCH ---
	// The index trails the store, so poll until the round shows up
	s.Run("Step 5: Search finds the round once indexed", func() {
		s.Eventually(func() bool {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			hits, err := s.API.Search(ctx, "react", conv.ID.String())
			return err == nil && len(hits) > 0
		}, 20*time.Second, 1*time.Second, "Indexed records not searchable within timeout")
	})

	// --- STEP 6: COUNTERS ---
	s.Run("Step 6: Counters reflect the run", func() {
		s.Step("Fetching server stats", func(ctx context.Context) {
			stats, err := s.API.Stats(ctx)
			s.Require().NoError(err)
			s.Dump("Stats", stats)
			s.Require().GreaterOrEqual(stats.RoundsStarted, uint64(1))
			s.Require().GreaterOrEqual(stats.MessagesAppended, uint64(len(round.Messages)))
		})
	})
}

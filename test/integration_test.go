package test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"council-lab/classify"
	"council-lab/domain"
	"council-lab/domain/event"
	"council-lab/domain/search"
	"council-lab/mocks"
	"council-lab/observability"
	"council-lab/projection"
	"council-lab/repositories"
	"council-lab/runtime"
	"council-lab/runtime/workers"
	"council-lab/services"
	"council-lab/sink"
	handlers "council-lab/specialist"
)

func Test_Scenario(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	// Reduced to 16 Mo for testing (avoid 20 Go of storage)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	telemetryChan := make(chan event.Event, 100)
	supervisor := workers.NewSupervisor(log, telemetryChan, 200*time.Millisecond)
	feedRegistry := runtime.NewFeedRegistry()
	store := repositories.NewConversationRepository(db, log, lo.ToPtr(100))
	searchRepository := repositories.NewSearchRepository(writer, log)

	stats := observability.NewPipelineStats()
	counter := event.NewCounter()
	orchestrator := runtime.NewOrchestrator(
		log, supervisor, feedRegistry, telemetryChan,
		1000,
		500*time.Millisecond,
		500*time.Millisecond,
		100*time.Millisecond,
		event.NewMessagePostedHandler(log, counter),
		observability.NewStatsHandler(stats),
	)

	// Permanent sinks must be in place before the fanout starts
	timeline := projection.NewTimeline(100)
	orchestrator.RegisterSinks(sink.NewIndexSink(searchRepository, log), timeline)

	classifier, err := classify.NewClassifier()
	req.NoError(err)
	dispatcher := runtime.NewDispatcher(log, classifier, handlers.NewBuiltinRegistry(), store, time.Second)
	service := services.NewConversationService(log, store, dispatcher, orchestrator, stats)

	go func() {
		_ = orchestrator.Start(ctx)
	}()

	// Clean everything at the end of the test
	t.Cleanup(func() {
		orchestrator.Stop()
		req.NoError(writer.Close())
		req.NoError(db.Close())
	})

	ownerID := uuid.NewString()
	conversation, err := service.CreateConversation(ownerID, "integration run")
	req.NoError(err)

	// 1. A live subscriber collects whatever the fanout delivers. Each
	// consume runs on its own goroutine, so hand the records over a channel.
	got := make(chan domain.Message, 8)
	ctrl := gomock.NewController(t)
	feedSink := mocks.NewMockEventSink(ctrl)
	feedSink.EXPECT().Consume(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e event.DomainEvent) error {
			if posted, ok := e.(event.MessagePosted); ok {
				got <- posted.Message
			}
			return nil
		}).AnyTimes()
	subID := service.Subscribe(ownerID, conversation.ID, feedSink)
	defer service.Unsubscribe(subID, conversation.ID)

	// 2. When a user message triggers a coordination round
	appended, err := service.Post(ctx, domain.PostMessageCommand{
		Conversation: conversation.ID,
		UserID:       ownerID,
		Content:      "please review this react component",
	})
	req.NoError(err)
	req.Len(appended, 3)
	req.Equal(domain.RoleUser, appended[0].Role)
	req.Equal(domain.RoleCoordinator, appended[1].Role)
	req.Equal(domain.RoleAssistant, appended[2].Role)

	// 3. Then every appended record reaches the live feed. The fanout
	// makes no ordering promise, so match them as a set.
	arrived := make(map[uuid.UUID]bool)
	for i := 0; i < len(appended); i++ {
		select {
		case msg := <-got:
			arrived[msg.ID] = true
		case <-time.After(2 * time.Second):
			req.Fail("Timeout: the round never fully reached the feed")
		}
	}
	for _, msg := range appended {
		req.True(arrived[msg.ID], "Record %s never reached the feed", msg.ID)
	}

	// 4. The store reads the round back in sequence order
	messages, cursor, err := service.History(domain.HistoryCommand{
		Conversation: conversation.ID,
		UserID:       ownerID,
	})
	req.NoError(err)
	req.NotNil(cursor)
	req.Len(messages, len(appended))
	for i, msg := range messages {
		req.Equal(appended[i].ID, msg.ID)
	}

	// 5. Other accounts stay locked out
	_, err = service.Post(ctx, domain.PostMessageCommand{
		Conversation: conversation.ID,
		UserID:       uuid.NewString(),
		Content:      "let me in",
	})
	req.Error(err)

	// 6. The projection and the index catch up asynchronously
	req.Eventually(func() bool {
		conversations, records := timeline.Size()
		return conversations == 1 && records == len(appended)
	}, 2*time.Second, 50*time.Millisecond, "Timeline never caught up with the round")

	query := search.NewSearchQuery(fmt.Sprintf("react --conversation %s", conversation.ID))
	req.Eventually(func() bool {
		hits, err := searchRepository.Search(ctx, ownerID, *query)
		return err == nil && len(hits) > 0
	}, 5*time.Second, 100*time.Millisecond, "Indexed records never became searchable")

	// 7. Counters reflect exactly one clean round
	snapshot := stats.Snapshot()
	req.Equal(uint64(1), snapshot.RoundsStarted)
	req.Equal(uint64(1), snapshot.RoundsSucceeded)
	req.Equal(uint64(0), snapshot.RoundsPartial)
	req.Equal(uint64(3), snapshot.MessagesAppended)
}

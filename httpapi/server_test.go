package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"council-lab/auth"
	"council-lab/contract"
	"council-lab/domain"
	"council-lab/domain/event"
	"council-lab/domain/search"
	"council-lab/domain/specialist"
	cerrors "council-lab/errors"
	"council-lab/httpapi"
	"council-lab/mocks"
	"council-lab/observability"
	"council-lab/projection"
	"council-lab/services"
)

type serverFixture struct {
	handler       http.Handler
	auth          *mocks.MockIAuthService
	conversations *mocks.MockIConversationService
	search        *mocks.MockISearchService
	stats         *observability.PipelineStats
	timeline      *projection.Timeline
	tokens        *auth.TokenManager
}

func newTestServer(t *testing.T) *serverFixture {
	ctrl := gomock.NewController(t)

	fx := &serverFixture{
		auth:          mocks.NewMockIAuthService(ctrl),
		conversations: mocks.NewMockIConversationService(ctrl),
		search:        mocks.NewMockISearchService(ctrl),
		stats:         observability.NewPipelineStats(),
		timeline:      projection.NewTimeline(100),
		tokens:        auth.NewTokenManager("test-secret", time.Hour),
	}
	log := slog.New(slog.DiscardHandler)
	server := httpapi.NewServer(log, fx.auth, fx.conversations, fx.search, fx.stats, fx.timeline, fx.tokens)
	fx.handler = server.Routes()
	return fx
}

// bearer returns a valid Authorization header value for userID.
func (fx *serverFixture) bearer(t *testing.T, userID string) string {
	token, err := fx.tokens.GenerateToken(userID, []string{"user"})
	require.NoError(t, err)
	return "Bearer " + token
}

func (fx *serverFixture) do(method, target, authHeader string, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	r := httptest.NewRequest(method, target, reader)
	r.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		r.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	fx.handler.ServeHTTP(rec, r)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestRegisterEndpoint(t *testing.T) {
	fx := newTestServer(t)

	t.Run("should return a token when registration succeeds", func(t *testing.T) {
		req := require.New(t)
		fx.auth.EXPECT().
			Register("new@example.com", "ComplexPass123!").
			Return(services.Token("signed-token"), nil).
			Times(1)

		rec := fx.do(http.MethodPost, "/v1/auth/register", "",
			`{"email":"new@example.com","password":"ComplexPass123!"}`)

		req.Equal(http.StatusCreated, rec.Code)
		var body map[string]string
		req.NoError(json.NewDecoder(rec.Body).Decode(&body))
		req.Equal("signed-token", body["token"])
	})

	t.Run("should reject an invalid body", func(t *testing.T) {
		req := require.New(t)

		rec := fx.do(http.MethodPost, "/v1/auth/register", "", "not json")

		req.Equal(http.StatusBadRequest, rec.Code)
		req.Equal("invalid JSON body", errorMessage(t, rec))
	})

	t.Run("should reject a missing email", func(t *testing.T) {
		req := require.New(t)

		rec := fx.do(http.MethodPost, "/v1/auth/register", "", `{"password":"ComplexPass123!"}`)

		req.Equal(http.StatusBadRequest, rec.Code)
	})

	t.Run("should map duplicate users to a conflict", func(t *testing.T) {
		req := require.New(t)
		fx.auth.EXPECT().
			Register("dup@example.com", "ComplexPass123!").
			Return(services.Token(""), cerrors.ErrUserAlreadyExists).
			Times(1)

		rec := fx.do(http.MethodPost, "/v1/auth/register", "",
			`{"email":"dup@example.com","password":"ComplexPass123!"}`)

		req.Equal(http.StatusConflict, rec.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	fx := newTestServer(t)

	t.Run("should return a token when credentials match", func(t *testing.T) {
		req := require.New(t)
		fx.auth.EXPECT().
			Login("user@example.com", "ComplexPass123!").
			Return(services.Token("signed-token"), nil).
			Times(1)

		rec := fx.do(http.MethodPost, "/v1/auth/login", "",
			`{"email":"user@example.com","password":"ComplexPass123!"}`)

		req.Equal(http.StatusOK, rec.Code)
		var body map[string]string
		req.NoError(json.NewDecoder(rec.Body).Decode(&body))
		req.Equal("signed-token", body["token"])
	})

	t.Run("should map invalid credentials to unauthorized", func(t *testing.T) {
		req := require.New(t)
		fx.auth.EXPECT().
			Login("user@example.com", "WrongPass123!").
			Return(services.Token(""), cerrors.ErrInvalidCredentials).
			Times(1)

		rec := fx.do(http.MethodPost, "/v1/auth/login", "",
			`{"email":"user@example.com","password":"WrongPass123!"}`)

		req.Equal(http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthGate(t *testing.T) {
	fx := newTestServer(t)

	t.Run("should reject protected routes without a token", func(t *testing.T) {
		req := require.New(t)

		rec := fx.do(http.MethodGet, "/v1/conversations", "", "")

		req.Equal(http.StatusUnauthorized, rec.Code)
		req.Equal("authorization token is missing", errorMessage(t, rec))
	})

	t.Run("should reject a forged token", func(t *testing.T) {
		req := require.New(t)

		rec := fx.do(http.MethodGet, "/v1/conversations", "Bearer not-a-token", "")

		req.Equal(http.StatusUnauthorized, rec.Code)
		req.Equal("invalid or expired token", errorMessage(t, rec))
	})
}

func TestConversationEndpoints(t *testing.T) {
	fx := newTestServer(t)

	t.Run("should create a conversation for the caller", func(t *testing.T) {
		req := require.New(t)
		created := domain.Conversation{
			ID:      uuid.New(),
			OwnerID: "user-1",
			Title:   "Project ideas",
		}
		fx.conversations.EXPECT().
			CreateConversation("user-1", "Project ideas").
			Return(created, nil).
			Times(1)

		rec := fx.do(http.MethodPost, "/v1/conversations", fx.bearer(t, "user-1"),
			`{"title":"Project ideas"}`)

		req.Equal(http.StatusCreated, rec.Code)
		var body domain.Conversation
		req.NoError(json.NewDecoder(rec.Body).Decode(&body))
		req.Equal(created.ID, body.ID)
		req.Equal("Project ideas", body.Title)
	})

	t.Run("should reject a conversation without a title", func(t *testing.T) {
		req := require.New(t)

		rec := fx.do(http.MethodPost, "/v1/conversations", fx.bearer(t, "user-1"), `{}`)

		req.Equal(http.StatusBadRequest, rec.Code)
		req.Equal("title is required", errorMessage(t, rec))
	})

	t.Run("should return an empty array when the user has no conversations", func(t *testing.T) {
		req := require.New(t)
		fx.conversations.EXPECT().
			ListConversations("user-2").
			Return(nil, nil).
			Times(1)

		rec := fx.do(http.MethodGet, "/v1/conversations", fx.bearer(t, "user-2"), "")

		req.Equal(http.StatusOK, rec.Code)
		req.Contains(rec.Body.String(), `"conversations":[]`)
	})
}

func TestHistoryEndpoint(t *testing.T) {
	fx := newTestServer(t)
	conversationID := uuid.New()

	t.Run("should page through records", func(t *testing.T) {
		req := require.New(t)
		cursor := "opaque-cursor"
		next := "next-cursor"
		fx.conversations.EXPECT().
			History(domain.HistoryCommand{
				Conversation: conversationID,
				UserID:       "user-1",
				Cursor:       &cursor,
				Limit:        2,
			}).
			Return([]domain.Message{
				{ID: uuid.New(), ConversationID: conversationID, Role: domain.RoleUser, Content: "first", Seq: 1},
				{ID: uuid.New(), ConversationID: conversationID, Role: domain.RoleCoordinator, Content: "second", Seq: 2},
			}, &next, nil).
			Times(1)

		rec := fx.do(http.MethodGet,
			"/v1/conversations/"+conversationID.String()+"/messages?cursor=opaque-cursor&limit=2",
			fx.bearer(t, "user-1"), "")

		req.Equal(http.StatusOK, rec.Code)
		var body struct {
			Messages   []domain.Message `json:"messages"`
			NextCursor *string          `json:"nextCursor"`
		}
		req.NoError(json.NewDecoder(rec.Body).Decode(&body))
		req.Len(body.Messages, 2)
		req.NotNil(body.NextCursor)
		req.Equal("next-cursor", *body.NextCursor)
	})

	t.Run("should reject a malformed limit", func(t *testing.T) {
		req := require.New(t)

		rec := fx.do(http.MethodGet,
			"/v1/conversations/"+conversationID.String()+"/messages?limit=zero",
			fx.bearer(t, "user-1"), "")

		req.Equal(http.StatusBadRequest, rec.Code)
		req.Equal("limit must be a positive integer", errorMessage(t, rec))
	})

	t.Run("should reject an invalid conversation id", func(t *testing.T) {
		req := require.New(t)

		rec := fx.do(http.MethodGet, "/v1/conversations/not-a-uuid/messages",
			fx.bearer(t, "user-1"), "")

		req.Equal(http.StatusBadRequest, rec.Code)
		req.Equal("invalid conversation id", errorMessage(t, rec))
	})

	t.Run("should map foreign conversations to forbidden", func(t *testing.T) {
		req := require.New(t)
		fx.conversations.EXPECT().
			History(gomock.Any()).
			Return(nil, nil, cerrors.ErrForbidden).
			Times(1)

		rec := fx.do(http.MethodGet,
			"/v1/conversations/"+conversationID.String()+"/messages",
			fx.bearer(t, "intruder"), "")

		req.Equal(http.StatusForbidden, rec.Code)
	})
}

func TestPostMessageEndpoint(t *testing.T) {
	fx := newTestServer(t)
	conversationID := uuid.New()
	target := "/v1/conversations/" + conversationID.String() + "/messages"

	t.Run("should return every record when the round succeeds", func(t *testing.T) {
		req := require.New(t)
		records := []domain.Message{
			{ID: uuid.New(), Role: domain.RoleUser, Content: "analyze my app", Seq: 1},
			{ID: uuid.New(), Role: domain.RoleCoordinator, Content: "routing", Seq: 2},
			{ID: uuid.New(), Role: domain.RoleAssistant, Specialist: "code_ai", Content: "done", Seq: 3},
		}
		fx.conversations.EXPECT().
			Post(gomock.Any(), domain.PostMessageCommand{
				Conversation: conversationID,
				UserID:       "user-1",
				Content:      "analyze my app",
			}).
			Return(records, nil).
			Times(1)

		rec := fx.do(http.MethodPost, target, fx.bearer(t, "user-1"),
			`{"content":"analyze my app"}`)

		req.Equal(http.StatusCreated, rec.Code)
		var body struct {
			Messages []domain.Message `json:"messages"`
			Failed   []struct {
				Specialist string `json:"specialist"`
				Error      string `json:"error"`
			} `json:"failed"`
		}
		req.NoError(json.NewDecoder(rec.Body).Decode(&body))
		req.Len(body.Messages, 3)
		req.Empty(body.Failed)
	})

	t.Run("should return a multi-status with failures when specialists fail", func(t *testing.T) {
		req := require.New(t)
		records := []domain.Message{
			{ID: uuid.New(), Role: domain.RoleUser, Content: "write a post", Seq: 4},
			{ID: uuid.New(), Role: domain.RoleCoordinator, Content: "routing", Seq: 5},
		}
		dispatchErr := &cerrors.DispatchError{
			Specialist: specialist.Writing,
			Failed:     []specialist.ID{specialist.Writing},
			Reasons:    map[specialist.ID]string{specialist.Writing: "model overloaded"},
		}
		fx.conversations.EXPECT().
			Post(gomock.Any(), gomock.Any()).
			Return(records, dispatchErr).
			Times(1)

		rec := fx.do(http.MethodPost, target, fx.bearer(t, "user-1"),
			`{"content":"write a post"}`)

		req.Equal(http.StatusMultiStatus, rec.Code)
		var body struct {
			Messages []domain.Message `json:"messages"`
			Failed   []struct {
				Specialist string `json:"specialist"`
				Error      string `json:"error"`
			} `json:"failed"`
		}
		req.NoError(json.NewDecoder(rec.Body).Decode(&body))
		req.Len(body.Messages, 2)
		req.Len(body.Failed, 1)
		req.Equal("writing_ai", body.Failed[0].Specialist)
		req.Equal("model overloaded", body.Failed[0].Error)
	})

	t.Run("should reject an empty content before calling the service", func(t *testing.T) {
		req := require.New(t)

		rec := fx.do(http.MethodPost, target, fx.bearer(t, "user-1"), `{"content":""}`)

		req.Equal(http.StatusBadRequest, rec.Code)
		req.Equal("content is required", errorMessage(t, rec))
	})

	t.Run("should map content violations to bad request", func(t *testing.T) {
		req := require.New(t)
		fx.conversations.EXPECT().
			Post(gomock.Any(), gomock.Any()).
			Return(nil, cerrors.ErrContentLength).
			Times(1)

		rec := fx.do(http.MethodPost, target, fx.bearer(t, "user-1"),
			`{"content":"   "}`)

		req.Equal(http.StatusBadRequest, rec.Code)
	})

	t.Run("should map store failures to service unavailable", func(t *testing.T) {
		req := require.New(t)
		fx.conversations.EXPECT().
			Post(gomock.Any(), gomock.Any()).
			Return(nil, cerrors.ErrStoreUnavailable).
			Times(1)

		rec := fx.do(http.MethodPost, target, fx.bearer(t, "user-1"),
			`{"content":"hello"}`)

		req.Equal(http.StatusServiceUnavailable, rec.Code)
	})
}

func TestSearchEndpoint(t *testing.T) {
	fx := newTestServer(t)

	t.Run("should pass the query through and return hits", func(t *testing.T) {
		req := require.New(t)
		hits := []search.Hit{{
			MessageID:      uuid.New(),
			ConversationID: uuid.New(),
			Role:           "assistant",
			Specialist:     "code_ai",
			Content:        "use useMemo for derived state",
			Score:          1.42,
		}}
		fx.search.EXPECT().
			Search(gomock.Any(), "user-1", "react hooks", "").
			Return(hits, nil).
			Times(1)

		rec := fx.do(http.MethodGet, "/v1/search?q=react+hooks", fx.bearer(t, "user-1"), "")

		req.Equal(http.StatusOK, rec.Code)
		var body struct {
			Hits []search.Hit `json:"hits"`
		}
		req.NoError(json.NewDecoder(rec.Body).Decode(&body))
		req.Len(body.Hits, 1)
		req.Equal("code_ai", body.Hits[0].Specialist)
	})

	t.Run("should scope the search to a conversation", func(t *testing.T) {
		req := require.New(t)
		fx.search.EXPECT().
			Search(gomock.Any(), "user-1", "deploy", "conv-42").
			Return(nil, nil).
			Times(1)

		rec := fx.do(http.MethodGet, "/v1/search?q=deploy&conversation=conv-42",
			fx.bearer(t, "user-1"), "")

		req.Equal(http.StatusOK, rec.Code)
		req.Contains(rec.Body.String(), `"hits":[]`)
	})
}

func TestStatsEndpoint(t *testing.T) {
	fx := newTestServer(t)
	req := require.New(t)

	fx.stats.IncrRoundsStarted()
	fx.stats.IncrRoundsSucceeded()
	fx.stats.AddMessagesAppended(4)
	err := fx.timeline.Consume(context.Background(), event.MessagePosted{
		Message: domain.Message{ID: uuid.New(), ConversationID: uuid.New(), Seq: 1},
	})
	req.NoError(err)

	rec := fx.do(http.MethodGet, "/v1/stats", fx.bearer(t, "operator"), "")

	req.Equal(http.StatusOK, rec.Code)
	var body struct {
		RoundsStarted    uint64 `json:"rounds_started"`
		RoundsSucceeded  uint64 `json:"rounds_succeeded"`
		MessagesAppended uint64 `json:"messages_appended"`
		Timeline         struct {
			Conversations int `json:"conversations"`
			Messages      int `json:"messages"`
		} `json:"timeline"`
	}
	req.NoError(json.NewDecoder(rec.Body).Decode(&body))
	req.Equal(uint64(1), body.RoundsStarted)
	req.Equal(uint64(1), body.RoundsSucceeded)
	req.Equal(uint64(4), body.MessagesAppended)
	req.Equal(1, body.Timeline.Conversations)
	req.Equal(1, body.Timeline.Messages)
}

func TestHealthzEndpoint(t *testing.T) {
	fx := newTestServer(t)
	req := require.New(t)

	rec := fx.do(http.MethodGet, "/v1/healthz", "", "")

	req.Equal(http.StatusOK, rec.Code)
	req.Contains(rec.Body.String(), `"status":"ok"`)
}

func TestFeedEndpoint(t *testing.T) {
	t.Run("should stream appended records to a subscribed client", func(t *testing.T) {
		req := require.New(t)
		fx := newTestServer(t)
		conversationID := uuid.New()

		sinkCh := make(chan contract.EventSink, 1)
		unsubscribed := make(chan struct{})
		fx.conversations.EXPECT().
			CheckAccess("user-1", conversationID).
			Return(nil).
			Times(1)
		fx.conversations.EXPECT().
			Subscribe("user-1", conversationID, gomock.Any()).
			DoAndReturn(func(_ string, _ uuid.UUID, sink contract.EventSink) string {
				sinkCh <- sink
				return "sub-42"
			}).
			Times(1)
		fx.conversations.EXPECT().
			Unsubscribe("sub-42", conversationID).
			Do(func(string, uuid.UUID) { close(unsubscribed) }).
			Times(1)

		server := httptest.NewServer(fx.handler)
		defer server.Close()

		wsURL := "ws" + strings.TrimPrefix(server.URL, "http") +
			"/v1/conversations/" + conversationID.String() + "/feed"
		header := http.Header{"Authorization": []string{fx.bearer(t, "user-1")}}
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
		req.NoError(err)
		defer conn.Close()

		var sink contract.EventSink
		select {
		case sink = <-sinkCh:
		case <-time.After(time.Second):
			req.FailNow("timed out waiting for the subscription")
		}

		posted := domain.Message{
			ID:             uuid.New(),
			ConversationID: conversationID,
			Role:           domain.RoleAssistant,
			Specialist:     "code_ai",
			Content:        "profile the render loop",
			Seq:            7,
		}
		req.NoError(sink.Consume(context.Background(), event.MessagePosted{Message: posted, OwnerID: "user-1"}))

		req.NoError(conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, data, err := conn.ReadMessage()
		req.NoError(err)

		var frame httpapi.FeedFrame
		req.NoError(json.Unmarshal(data, &frame))
		req.Equal("message_posted", frame.Type)
		req.Equal(posted.ID, frame.Message.ID)
		req.Equal("profile the render loop", frame.Message.Content)

		req.NoError(conn.Close())
		select {
		case <-unsubscribed:
		case <-time.After(time.Second):
			req.FailNow("timed out waiting for the unsubscribe")
		}
	})

	t.Run("should refuse the feed for foreign conversations before upgrading", func(t *testing.T) {
		req := require.New(t)
		fx := newTestServer(t)
		conversationID := uuid.New()

		fx.conversations.EXPECT().
			CheckAccess("intruder", conversationID).
			Return(cerrors.ErrForbidden).
			Times(1)

		server := httptest.NewServer(fx.handler)
		defer server.Close()

		wsURL := "ws" + strings.TrimPrefix(server.URL, "http") +
			"/v1/conversations/" + conversationID.String() + "/feed"
		header := http.Header{"Authorization": []string{fx.bearer(t, "intruder")}}
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)

		req.Error(err)
		req.Nil(conn)
		req.NotNil(resp)
		req.Equal(http.StatusForbidden, resp.StatusCode)
	})
}

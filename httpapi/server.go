// Package httpapi exposes the coordination pipeline as a JSON API with
// a websocket feed. Handlers translate between HTTP and service calls;
// content rules and ordering live below the service boundary.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"council-lab/auth"
	"council-lab/domain"
	"council-lab/domain/search"
	cerrors "council-lab/errors"
	"council-lab/observability"
	"council-lab/projection"
	"council-lab/services"
)

var validate = validator.New()

// Origin is not checked; access control happens before the upgrade.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	log           *slog.Logger
	auth          services.IAuthService
	conversations services.IConversationService
	search        services.ISearchService
	stats         *observability.PipelineStats
	timeline      *projection.Timeline
	tokens        *auth.TokenManager
}

func NewServer(
	log *slog.Logger,
	authService services.IAuthService,
	conversations services.IConversationService,
	searchService services.ISearchService,
	stats *observability.PipelineStats,
	timeline *projection.Timeline,
	tokens *auth.TokenManager,
) *Server {
	return &Server{
		log:           log,
		auth:          authService,
		conversations: conversations,
		search:        searchService,
		stats:         stats,
		timeline:      timeline,
		tokens:        tokens,
	}
}

// Routes builds the full handler tree. Everything under /v1 except
// register, login and healthz requires a bearer token.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /v1/auth/login", s.handleLogin)
	mux.HandleFunc("GET /v1/healthz", s.handleHealthz)

	protected := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(s.tokens, h)
	}
	mux.Handle("POST /v1/conversations", protected(s.handleCreateConversation))
	mux.Handle("GET /v1/conversations", protected(s.handleListConversations))
	mux.Handle("GET /v1/conversations/{id}/messages", protected(s.handleHistory))
	mux.Handle("POST /v1/conversations/{id}/messages", protected(s.handlePostMessage))
	mux.Handle("GET /v1/conversations/{id}/feed", protected(s.handleFeed))
	mux.Handle("GET /v1/search", protected(s.handleSearch))
	mux.Handle("GET /v1/stats", protected(s.handleStats))

	return mux
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type createConversationRequest struct {
	Title string `json:"title" validate:"required"`
}

type conversationsResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
}

type historyResponse struct {
	Messages   []domain.Message `json:"messages"`
	NextCursor *string          `json:"nextCursor,omitempty"`
}

type postMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type failedSpecialist struct {
	Specialist string `json:"specialist"`
	Error      string `json:"error"`
}

type roundResponse struct {
	Messages []domain.Message   `json:"messages"`
	Failed   []failedSpecialist `json:"failed,omitempty"`
}

type searchResponse struct {
	Hits []search.Hit `json:"hits"`
}

type timelineStats struct {
	Conversations int `json:"conversations"`
	Messages      int `json:"messages"`
}

type statsResponse struct {
	observability.Snapshot
	Timeline timelineStats `json:"timeline"`
}

// decodeCredentials parses a register or login body. Returns an error
// when the JSON is invalid or email/password are missing.
func decodeCredentials(r io.Reader) (*credentialsRequest, error) {
	var req credentialsRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, errors.New("invalid JSON body")
	}
	if err := validate.Struct(req); err != nil {
		return nil, errors.New("a valid email and a password are required")
	}
	return &req, nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r.Body)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := s.auth.Register(req.Email, req.Password)
	if err != nil {
		s.translateError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: string(token)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r.Body)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		s.translateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: string(token)})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		s.sendJSONError(w, http.StatusUnauthorized, "authorization token is missing")
		return
	}

	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "title is required")
		return
	}

	conversation, err := s.conversations.CreateConversation(userID, req.Title)
	if err != nil {
		s.translateError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conversation)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		s.sendJSONError(w, http.StatusUnauthorized, "authorization token is missing")
		return
	}

	conversations, err := s.conversations.ListConversations(userID)
	if err != nil {
		s.translateError(w, err)
		return
	}
	if conversations == nil {
		conversations = []domain.Conversation{}
	}
	writeJSON(w, http.StatusOK, conversationsResponse{Conversations: conversations})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		s.sendJSONError(w, http.StatusUnauthorized, "authorization token is missing")
		return
	}
	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit <= 0 {
			s.sendJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}

	messages, next, err := s.conversations.History(domain.HistoryCommand{
		Conversation: conversationID,
		UserID:       userID,
		Cursor:       cursor,
		Limit:        limit,
	})
	if err != nil {
		s.translateError(w, err)
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Messages: messages, NextCursor: next})
}

// handlePostMessage runs one full coordination round.
//
// Responses distinguish the three outcomes:
//  1. 201 - every selected specialist answered; body carries all records
//  2. 207 - round committed but some specialists failed; body carries the
//     appended records plus one entry per failure
//  3. 4xx/5xx - nothing beyond what the error code implies was appended
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		s.sendJSONError(w, http.StatusUnauthorized, "authorization token is missing")
		return
	}
	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "content is required")
		return
	}

	appended, err := s.conversations.Post(r.Context(), domain.PostMessageCommand{
		Conversation: conversationID,
		UserID:       userID,
		Content:      req.Content,
	})
	if err != nil {
		var dispatchErr *cerrors.DispatchError
		if errors.As(err, &dispatchErr) {
			writeJSON(w, http.StatusMultiStatus, roundResponse{
				Messages: appended,
				Failed:   failuresOf(dispatchErr),
			})
			return
		}
		s.translateError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, roundResponse{Messages: appended})
}

func failuresOf(e *cerrors.DispatchError) []failedSpecialist {
	failed := make([]failedSpecialist, 0, len(e.Failed))
	for _, id := range e.Failed {
		failed = append(failed, failedSpecialist{Specialist: string(id), Error: e.Reasons[id]})
	}
	return failed
}

// handleFeed upgrades to a websocket and streams every record appended
// to the conversation. Ownership is checked before the upgrade so the
// client gets a proper HTTP status instead of a failed handshake.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		s.sendJSONError(w, http.StatusUnauthorized, "authorization token is missing")
		return
	}
	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}
	if err := s.conversations.CheckAccess(userID, conversationID); err != nil {
		s.translateError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := NewFeedClient(s.log, conn)
	subscriptionID := s.conversations.Subscribe(userID, conversationID, client)
	defer func() {
		s.conversations.Unsubscribe(subscriptionID, conversationID)
		client.Close()
	}()

	go client.WritePump()
	client.ReadPump()
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		s.sendJSONError(w, http.StatusUnauthorized, "authorization token is missing")
		return
	}

	hits, err := s.search.Search(r.Context(), userID, r.URL.Query().Get("q"), r.URL.Query().Get("conversation"))
	if err != nil {
		s.translateError(w, err)
		return
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Hits: hits})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snapshot := s.stats.Snapshot()
	conversations, messages := s.timeline.Size()
	writeJSON(w, http.StatusOK, statsResponse{
		Snapshot: snapshot,
		Timeline: timelineStats{Conversations: conversations, Messages: messages},
	})
}

// translateError maps service errors onto HTTP statuses. Anything not
// recognized is an internal error and gets logged, not exposed.
func (s *Server) translateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cerrors.ErrContentLength), errors.Is(err, cerrors.ErrInvalidPassword):
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cerrors.ErrInvalidCredentials):
		s.sendJSONError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, cerrors.ErrForbidden):
		s.sendJSONError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, cerrors.ErrConversationNotFound):
		s.sendJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cerrors.ErrUserAlreadyExists):
		s.sendJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, cerrors.ErrStoreUnavailable):
		s.sendJSONError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.log.Error("unhandled API error", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

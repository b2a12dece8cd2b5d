// Package client is a typed Go client for the council HTTP API. The
// load generator and the end-to-end scenarios drive the server through
// it; wire shapes mirror what the handlers encode.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"council-lab/domain"
	"council-lab/domain/search"
)

// APIError carries the status and message of a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// SpecialistFailure is one entry of a partial round response.
type SpecialistFailure struct {
	Specialist string `json:"specialist"`
	Error      string `json:"error"`
}

// Round is the response of a message post. Failed is empty on full
// success; a partial round carries the appended records anyway.
type Round struct {
	Messages []domain.Message    `json:"messages"`
	Failed   []SpecialistFailure `json:"failed,omitempty"`
}

// Stats mirrors the /v1/stats payload.
type Stats struct {
	RoundsStarted      uint64            `json:"rounds_started"`
	RoundsSucceeded    uint64            `json:"rounds_succeeded"`
	RoundsPartial      uint64            `json:"rounds_partial"`
	RoundsFailed       uint64            `json:"rounds_failed"`
	MessagesAppended   uint64            `json:"messages_appended"`
	WorkersRestarted   uint64            `json:"workers_restarted"`
	SpecialistFailures map[string]uint64 `json:"specialist_failures"`
	Timeline           struct {
		Conversations int `json:"conversations"`
		Messages      int `json:"messages"`
	} `json:"timeline"`
}

// FeedFrame is one websocket feed update.
type FeedFrame struct {
	Type    string         `json:"type"`
	Message domain.Message `json:"message"`
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs a bearer token for subsequent calls. Register and
// Login do this automatically.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Register(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, "/v1/auth/register", email, password)
}

func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, "/v1/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if _, err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	c.token = resp.Token
	return resp.Token, nil
}

func (c *Client) CreateConversation(ctx context.Context, title string) (domain.Conversation, error) {
	var conversation domain.Conversation
	body := map[string]string{"title": title}
	if _, err := c.do(ctx, http.MethodPost, "/v1/conversations", body, &conversation); err != nil {
		return domain.Conversation{}, err
	}
	return conversation, nil
}

func (c *Client) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	var resp struct {
		Conversations []domain.Conversation `json:"conversations"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/v1/conversations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

// PostMessage runs one coordination round. A partial round (some
// specialists failed) returns the round with Failed populated, not an
// error: the records were appended.
func (c *Client) PostMessage(ctx context.Context, conversationID uuid.UUID, content string) (Round, error) {
	var round Round
	body := map[string]string{"content": content}
	path := "/v1/conversations/" + conversationID.String() + "/messages"
	if _, err := c.do(ctx, http.MethodPost, path, body, &round); err != nil {
		return Round{}, err
	}
	return round, nil
}

func (c *Client) History(ctx context.Context, conversationID uuid.UUID, cursor string, limit int) ([]domain.Message, string, error) {
	var resp struct {
		Messages   []domain.Message `json:"messages"`
		NextCursor *string          `json:"nextCursor"`
	}

	params := url.Values{}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/conversations/" + conversationID.String() + "/messages"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	if _, err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, "", err
	}
	next := ""
	if resp.NextCursor != nil {
		next = *resp.NextCursor
	}
	return resp.Messages, next, nil
}

func (c *Client) Search(ctx context.Context, query, conversation string) ([]search.Hit, error) {
	var resp struct {
		Hits []search.Hit `json:"hits"`
	}

	params := url.Values{}
	params.Set("q", query)
	if conversation != "" {
		params.Set("conversation", conversation)
	}

	if _, err := c.do(ctx, http.MethodGet, "/v1/search?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Hits, nil
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if _, err := c.do(ctx, http.MethodGet, "/v1/stats", nil, &stats); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (c *Client) Healthz(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/v1/healthz", nil, nil)
	return err
}

// Feed opens the live websocket feed of a conversation.
func (c *Client) Feed(ctx context.Context, conversationID uuid.UUID) (*Feed, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") +
		"/v1/conversations/" + conversationID.String() + "/feed"
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: "feed refused"}
		}
		return nil, fmt.Errorf("dialing feed: %w", err)
	}
	return &Feed{conn: conn}, nil
}

// Feed reads frames from one conversation's live feed.
type Feed struct {
	conn *websocket.Conn
}

// Next blocks until a frame arrives or timeout elapses.
func (f *Feed) Next(timeout time.Duration) (FeedFrame, error) {
	if err := f.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return FeedFrame{}, err
	}
	_, data, err := f.conn.ReadMessage()
	if err != nil {
		return FeedFrame{}, err
	}
	var frame FeedFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return FeedFrame{}, fmt.Errorf("decoding frame: %w", err)
	}
	return frame, nil
}

func (f *Feed) Close() error {
	return f.conn.Close()
}

// do sends one JSON request and decodes the response into out when the
// status is 2xx. Statuses of 400 and above become an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

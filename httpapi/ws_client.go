package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"council-lab/contract"
	"council-lab/domain"
	"council-lab/domain/event"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 20 // 1MB
)

// FeedFrame is the wire shape of one feed update.
type FeedFrame struct {
	Type    string         `json:"type"`
	Message domain.Message `json:"message"`
}

// FeedClient bridges one websocket connection into the event pipeline.
// Consume runs on the fanout goroutine; writes go through a buffered
// channel so a slow connection never stalls the pipeline.
type FeedClient struct {
	log  *slog.Logger
	conn *websocket.Conn
	send chan []byte
	once sync.Once
	done chan struct{} // closed on unsubscribe or read error
}

var _ contract.EventSink = (*FeedClient)(nil)

func NewFeedClient(log *slog.Logger, conn *websocket.Conn) *FeedClient {
	return &FeedClient{
		log:  log,
		conn: conn,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
	}
}

// Consume forwards appended records to the connection. Frames are
// dropped, never blocked on, when the send buffer is full.
func (c *FeedClient) Consume(ctx context.Context, e event.DomainEvent) error {
	posted, ok := e.(event.MessagePosted)
	if !ok {
		return nil
	}

	data, err := json.Marshal(FeedFrame{Type: "message_posted", Message: posted.Message})
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return nil
	default:
	}

	select {
	case c.send <- data:
	default:
		c.log.Warn("feed client buffer full, dropping frame")
	}
	return nil
}

// Close is idempotent; it stops both pumps and the connection.
func (c *FeedClient) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// ReadPump drains the connection until it drops. Clients send nothing
// meaningful; reading is how pongs and closes get processed.
func (c *FeedClient) ReadPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("feed client disconnected", "error", err)
			}
			return
		}
	}
}

// WritePump owns all writes to the connection, including pings.
func (c *FeedClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

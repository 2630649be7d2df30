package relay

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pingPeriod  = 10 * time.Second
	pongWait    = 60 * time.Second
	writeWait   = 10 * time.Second
	sendBacklog = 16
)

// event is a client-submitted relay event.
type event struct {
	Type   string `json:"type"`
	GameID string `json:"gameId"`
	UserID string `json:"userId"`
	Move   string `json:"move,omitempty"`
}

// ErrorMsg is delivered only to the connection that caused it.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SessionMsg carries the reconnect session ID issued after a join.
type SessionMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// Client is one websocket connection attached to the hub. Moves from a
// single connection are processed in submission order by the read
// goroutine; deliveries go through a buffered send channel drained by
// the write goroutine.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	rdb    *redis.Client
	logger *zap.Logger
	send   chan interface{}
	done   chan struct{}

	mu     sync.Mutex
	joined map[string]string // gameID -> userID this connection joined as
}

func NewClient(hub *Hub, conn *websocket.Conn, rdb *redis.Client, logger *zap.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		rdb:    rdb,
		logger: logger,
		send:   make(chan interface{}, sendBacklog),
		done:   make(chan struct{}),
		joined: make(map[string]string),
	}
}

// Deliver queues a message for the connection. A subscriber that has
// stopped draining gets its backlog dropped rather than blocking the
// game it shares with its opponent.
func (c *Client) Deliver(msg interface{}) {
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("dropping message to slow websocket client")
	}
}

// readPump consumes events until the connection drops, then detaches
// the client from every game it joined.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		for gameID := range c.joined {
			c.hub.Unsubscribe(gameID, c)
		}
		c.mu.Unlock()
		c.conn.Close()
		close(c.done)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var ev event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
		c.dispatch(ctx, ev)
	}
}

func (c *Client) dispatch(ctx context.Context, ev event) {
	switch ev.Type {
	case "join_game":
		c.joinGame(ctx, ev.GameID, ev.UserID)
	case "make_move":
		if _, err := c.hub.MakeMove(ctx, ev.GameID, ev.UserID, ev.Move); err != nil {
			c.Deliver(ErrorMsg{Type: "error", Message: err.Error()})
		}
	default:
		c.Deliver(ErrorMsg{Type: "error", Message: "unknown event type"})
	}
}

func (c *Client) joinGame(ctx context.Context, gameID, userID string) {
	snap, err := c.hub.Join(ctx, gameID, userID, c)
	if err != nil {
		c.Deliver(ErrorMsg{Type: "error", Message: err.Error()})
		return
	}

	c.mu.Lock()
	c.joined[gameID] = userID
	c.mu.Unlock()
	c.Deliver(snap)

	if c.rdb != nil {
		sessionID, err := StoreSession(ctx, c.rdb, Session{UserID: userID, GameID: gameID})
		if err != nil {
			c.logger.Error("failed to store relay session", zap.Error(err))
			return
		}
		c.Deliver(SessionMsg{Type: "session", SessionID: sessionID})
	}
}

// resume re-joins the game recorded in a prior session after a
// reconnect, then rotates the session ID.
func (c *Client) resume(ctx context.Context, sessionID string) {
	sess, err := ResumeSession(ctx, c.rdb, sessionID)
	if err != nil {
		c.Deliver(ErrorMsg{Type: "error", Message: "invalid or expired session"})
		return
	}
	c.joinGame(ctx, sess.GameID, sess.UserID)
}

// writePump drains the send channel and keeps the connection alive
// with pings every 10s against a 60s pong deadline.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("websocket write failed", zap.Error(err))
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

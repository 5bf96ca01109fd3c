package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/gitmorph/pkg/graph"
	"github.com/matzehuels/gitmorph/pkg/transition"
)

// MessageType tags websocket messages.
type MessageType string

const (
	MessageSnapshot  MessageType = "snapshot"
	MessagePlan      MessageType = "plan"
	MessageHighlight MessageType = "highlight"
)

// Message is one websocket frame sent to clients.
type Message struct {
	Type MessageType `json:"type"`

	// Snapshot is the state on screen (snapshot messages) or the target of
	// the transition (plan messages).
	Snapshot *graph.Snapshot `json:"snapshot,omitempty"`

	Plan       *transition.Plan    `json:"plan,omitempty"`
	Stats      *transition.Stats   `json:"stats,omitempty"`
	DurationMS int64               `json:"duration_ms,omitempty"`
	Highlight  *graph.Neighborhood `json:"highlight,omitempty"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1024
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to websocket clients. A client that cannot keep up
// is disconnected rather than allowed to block the broadcaster.
type Hub struct {
	logger   *log.Logger
	onChange func(clients int)

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
}

// NewHub returns an empty hub. onChange, if set, receives the client count
// whenever a client joins or leaves.
func NewHub(logger *log.Logger, onChange func(int)) *Hub {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if onChange == nil {
		onChange = func(int) {}
	}
	return &Hub{logger: logger, onChange: onChange, clients: make(map[string]*client)}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends msg to every client without blocking.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encode websocket message", "type", msg.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping slow websocket client", "client", id)
			h.removeLocked(c)
		}
	}
}

// ServeWS upgrades the request and streams messages until the client goes
// away. initial is sent first.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, initial Message) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	data, err := json.Marshal(initial)
	if err != nil {
		h.logger.Error("encode initial message", "error", err)
		conn.Close()
		return
	}
	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	c.send <- data
	if !h.add(c) {
		conn.Close()
		return
	}
	h.logger.Debug("websocket client connected", "client", c.id, "clients", h.Len())

	go h.writePump(c)
	h.readPump(c)
}

// Run blocks until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()
	h.Close()
	return nil
}

// Close disconnects every client. Later connections are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	h.onChange(len(h.clients))
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	h.onChange(len(h.clients))
}

// readPump discards client input and keeps the read deadline alive.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
		h.logger.Debug("websocket client disconnected", "client", c.id)
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read", "client", c.id, "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

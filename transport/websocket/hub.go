package websocket

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wricardo/game-session-relay/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Default maximum message size allowed from peer.
	defaultMaxMessageSize = 4096

	// Default number of outbound messages queued per client.
	defaultSendBuffer = 256
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// Handler receives the connection events of the hub. The hub calls it from
// its event loop only, one event at a time.
type Handler interface {
	Connect(conn service.Conn) error
	HandleMessage(connID string, data []byte)
	Disconnect(connID string)
}

// Client represents a WebSocket client
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string

	// closed is only touched by the hub loop.
	closed bool
}

type inbound struct {
	client *Client
	data   []byte
}

// Hub owns every client connection and runs the single event loop that
// feeds opens, messages and closes to the handler in arrival order.
type Hub struct {
	handler  Handler
	upgrader websocket.Upgrader

	sendBuffer     int
	maxMessageSize int64
	allowedOrigins []string
	newID          func() string

	// Registered clients, owned by the event loop
	clients map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Inbound messages from clients
	inbound chan inbound

	done chan struct{}
}

// Option configures a Hub.
type Option func(*Hub)

// WithSendBuffer sets how many outbound messages may queue per client.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithMaxMessageSize sets the read limit for inbound messages.
func WithMaxMessageSize(n int64) Option {
	return func(h *Hub) {
		if n > 0 {
			h.maxMessageSize = n
		}
	}
}

// WithAllowedOrigins restricts the Origin header accepted on upgrade.
// An empty list, or "*", accepts every origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) {
		h.allowedOrigins = origins
	}
}

// WithIDGenerator replaces the connection identifier generator.
func WithIDGenerator(gen func() string) Option {
	return func(h *Hub) {
		h.newID = gen
	}
}

// NewHub creates a new WebSocket hub
func NewHub(handler Handler, opts ...Option) *Hub {
	h := &Hub{
		handler:        handler,
		sendBuffer:     defaultSendBuffer,
		maxMessageSize: defaultMaxMessageSize,
		newID:          uuid.NewString,
		clients:        make(map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		inbound:        make(chan inbound),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Run starts the hub's event loop. It returns when ctx is cancelled, after
// closing every client connection.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.inbound:
			if h.clients[msg.client] {
				h.handler.HandleMessage(msg.client.id, msg.data)
			}
		}
	}
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
		id:   h.newID(),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// registerClient hands a new client to the handler
func (h *Hub) registerClient(client *Client) {
	if err := h.handler.Connect(client); err != nil {
		log.Printf("Rejecting connection %s: %v", client.id, err)
		client.closed = true
		close(client.send)
		return
	}
	h.clients[client] = true
}

// unregisterClient tells the handler a client is gone, exactly once per client
func (h *Hub) unregisterClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	h.handler.Disconnect(client.id)

	client.closed = true
	close(client.send)
}

func (h *Hub) shutdown() {
	close(h.done)
	for client := range h.clients {
		h.unregisterClient(client)
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if len(h.allowedOrigins) == 0 || origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// ID returns the connection identifier
func (c *Client) ID() string {
	return c.id
}

// Send queues data for the write pump without blocking. A client whose
// buffer is full is too slow to keep up and gets disconnected.
func (c *Client) Send(data []byte) error {
	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		if c.conn != nil {
			c.conn.Close()
		}
		return ErrSendBufferFull
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		select {
		case c.hub.inbound <- inbound{client: c, data: data}:
		case <-c.hub.done:
			return
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
// Each queued message goes out as its own text frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/game-session-relay/game/service"
)

// recordingHandler records hub events and echoes every message back
type recordingHandler struct {
	mu          sync.Mutex
	connected   []string
	messages    []string
	disconnects []string
	conns       map[string]service.Conn
	connectErr  error
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{conns: make(map[string]service.Conn)}
}

func (h *recordingHandler) Connect(conn service.Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.connectErr != nil {
		return h.connectErr
	}
	h.connected = append(h.connected, conn.ID())
	h.conns[conn.ID()] = conn
	return nil
}

func (h *recordingHandler) HandleMessage(connID string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, connID+":"+string(data))
	h.conns[connID].Send([]byte("echo:" + string(data)))
}

func (h *recordingHandler) Disconnect(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnects = append(h.disconnects, connID)
	delete(h.conns, connID)
}

func (h *recordingHandler) snapshot() (connected, messages, disconnects []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.connected...),
		append([]string(nil), h.messages...),
		append([]string(nil), h.disconnects...)
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func startHub(t *testing.T, handler Handler, opts ...Option) (*Hub, string) {
	t.Helper()
	hub := NewHub(handler, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(server.Close)

	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestNewHub(t *testing.T) {
	hub := NewHub(newRecordingHandler())

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.clients == nil {
		t.Error("Hub clients map is nil")
	}
	if hub.register == nil || hub.unregister == nil || hub.inbound == nil {
		t.Error("Hub channels are not initialized")
	}
	if hub.sendBuffer != defaultSendBuffer || hub.maxMessageSize != defaultMaxMessageSize {
		t.Errorf("Unexpected defaults: buffer %d, max message %d", hub.sendBuffer, hub.maxMessageSize)
	}
}

func TestHubOptions(t *testing.T) {
	hub := NewHub(newRecordingHandler(),
		WithSendBuffer(8),
		WithMaxMessageSize(1024),
		WithAllowedOrigins([]string{"https://example.com"}),
		WithIDGenerator(func() string { return "fixed" }),
	)

	if hub.sendBuffer != 8 || hub.maxMessageSize != 1024 {
		t.Errorf("Options not applied: buffer %d, max message %d", hub.sendBuffer, hub.maxMessageSize)
	}
	if hub.newID() != "fixed" {
		t.Error("ID generator option not applied")
	}

	// Non-positive values keep the defaults.
	hub = NewHub(newRecordingHandler(), WithSendBuffer(0), WithMaxMessageSize(-1))
	if hub.sendBuffer != defaultSendBuffer || hub.maxMessageSize != defaultMaxMessageSize {
		t.Error("Non-positive options should be ignored")
	}
}

func TestHubCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no allow-list", nil, "https://evil.example", true},
		{"no origin header", []string{"https://game.example"}, "", true},
		{"allowed origin", []string{"https://game.example"}, "https://GAME.example", true},
		{"wildcard", []string{"*"}, "https://anything.example", true},
		{"rejected origin", []string{"https://game.example"}, "https://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub(newRecordingHandler(), WithAllowedOrigins(tt.allowed))
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := hub.checkOrigin(req); got != tt.want {
				t.Errorf("checkOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHubRegisterAndUnregisterClient(t *testing.T) {
	handler := newRecordingHandler()
	hub := NewHub(handler)
	client := &Client{hub: hub, id: "c1", send: make(chan []byte, 1)}

	hub.registerClient(client)
	if !hub.clients[client] {
		t.Fatal("Client was not registered")
	}

	hub.unregisterClient(client)
	hub.unregisterClient(client)

	_, _, disconnects := handler.snapshot()
	if len(disconnects) != 1 || disconnects[0] != "c1" {
		t.Errorf("Expected exactly one disconnect for c1, got %v", disconnects)
	}
	if !client.closed {
		t.Error("Unregistered client should be marked closed")
	}
	if err := client.Send([]byte("late")); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("Expected ErrConnectionClosed, got %v", err)
	}
}

func TestHubRejectedClient(t *testing.T) {
	handler := newRecordingHandler()
	handler.connectErr = service.ErrDuplicateConnection
	hub := NewHub(handler)
	client := &Client{hub: hub, id: "dup", send: make(chan []byte, 1)}

	hub.registerClient(client)

	if hub.clients[client] {
		t.Error("Rejected client must not be registered")
	}
	if _, ok := <-client.send; ok {
		t.Error("Rejected client's send channel should be closed")
	}
}

func TestClientSendBufferFull(t *testing.T) {
	client := &Client{id: "slow", send: make(chan []byte, 1)}

	if err := client.Send([]byte("one")); err != nil {
		t.Fatalf("First send failed: %v", err)
	}
	if err := client.Send([]byte("two")); !errors.Is(err, ErrSendBufferFull) {
		t.Errorf("Expected ErrSendBufferFull, got %v", err)
	}
}

func TestWebSocketLifecycle(t *testing.T) {
	handler := newRecordingHandler()
	ids := make(chan string, 1)
	ids <- "conn-1"
	_, wsURL := startHub(t, handler, WithIDGenerator(func() string { return <-ids }))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitFor(t, "connect", func() bool {
		connected, _, _ := handler.snapshot()
		return len(connected) == 1
	})

	for _, msg := range []string{"first", "second", "third"} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("Failed to write message: %v", err)
		}
	}

	// Each reply arrives as its own frame, in order.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for _, want := range []string{"echo:first", "echo:second", "echo:third"} {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Failed to read WebSocket message: %v", err)
		}
		if string(data) != want {
			t.Errorf("Expected %q, got %q", want, data)
		}
	}

	_, messages, _ := handler.snapshot()
	if len(messages) != 3 || messages[0] != "conn-1:first" || messages[2] != "conn-1:third" {
		t.Errorf("Unexpected messages %v", messages)
	}

	conn.Close()
	waitFor(t, "disconnect", func() bool {
		_, _, disconnects := handler.snapshot()
		return len(disconnects) == 1 && disconnects[0] == "conn-1"
	})
}

func TestWebSocketMessageTooLarge(t *testing.T) {
	handler := newRecordingHandler()
	_, wsURL := startHub(t, handler, WithMaxMessageSize(16))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 64)))

	waitFor(t, "disconnect after oversized frame", func() bool {
		_, _, disconnects := handler.snapshot()
		return len(disconnects) == 1
	})
	_, messages, _ := handler.snapshot()
	if len(messages) != 0 {
		t.Errorf("Oversized frame must not reach the handler, got %v", messages)
	}
}

func TestHubShutdownDisconnectsClients(t *testing.T) {
	handler := newRecordingHandler()
	hub := NewHub(handler)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitFor(t, "connect", func() bool {
		connected, _, _ := handler.snapshot()
		return len(connected) == 1
	})

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Hub did not stop")
	}

	_, _, disconnects := handler.snapshot()
	if len(disconnects) != 1 {
		t.Errorf("Expected shutdown to disconnect the client, got %v", disconnects)
	}
}

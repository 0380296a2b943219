package service

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/wricardo/game-session-relay/game/protocol"
	"github.com/wricardo/game-session-relay/game/session"
)

// Recorder receives relay events for instrumentation.
type Recorder interface {
	ConnectionOpened()
	ConnectionClosed()
	SessionCreated()
	SessionClosed()
	MessageHandled(action string)
	MessageDropped()
	JoinResolved(accepted bool)
	InputRelayed()
	SendFailed(action string)
}

type nopRecorder struct{}

func (nopRecorder) ConnectionOpened()     {}
func (nopRecorder) ConnectionClosed()     {}
func (nopRecorder) SessionCreated()       {}
func (nopRecorder) SessionClosed()        {}
func (nopRecorder) MessageHandled(string) {}
func (nopRecorder) MessageDropped()       {}
func (nopRecorder) JoinResolved(bool)     {}
func (nopRecorder) InputRelayed()         {}
func (nopRecorder) SendFailed(string)     {}

// Relay is the single owner of the connection registry and the session store.
// Every exported method takes the relay lock for its whole duration, so each
// handler reads and mutates shared state atomically.
type Relay struct {
	mu       sync.Mutex
	conns    *Registry
	store    *session.Store
	recorder Recorder
	debug    bool
}

// Option configures a Relay.
type Option func(*Relay)

// WithRecorder installs an event recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Relay) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithStore replaces the session store.
func WithStore(store *session.Store) Option {
	return func(r *Relay) {
		r.store = store
	}
}

// WithDebug enables per-message logging.
func WithDebug(debug bool) Option {
	return func(r *Relay) {
		r.debug = debug
	}
}

// NewRelay creates a relay with an empty registry and session store
func NewRelay(opts ...Option) *Relay {
	r := &Relay{
		conns:    NewRegistry(),
		store:    session.NewStore(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect registers a newly opened connection.
func (r *Relay) Connect(conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.conns.Register(conn.ID(), conn); err != nil {
		return fmt.Errorf("register %s: %w", conn.ID(), err)
	}
	r.recorder.ConnectionOpened()

	log.Printf("Connection %s opened (total connections: %d)", conn.ID(), r.conns.Count())
	return nil
}

// HandleMessage decodes one raw message from connID and dispatches it.
// Malformed messages are logged and dropped without a reply.
func (r *Relay) HandleMessage(connID string, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		log.Printf("Dropping message from %s: %v", connID, err)
		r.recorder.MessageDropped()
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.conns.Lookup(connID); err != nil {
		log.Printf("Dropping %s from unregistered connection %s", msg.Action(), connID)
		r.recorder.MessageDropped()
		return
	}

	if r.debug {
		log.Printf("Handling %s from %s", msg.Action(), connID)
	}
	r.recorder.MessageHandled(msg.Action())

	switch m := msg.(type) {
	case protocol.CreateGameSession:
		r.createGameSession(connID)
	case protocol.JoinGameSession:
		r.joinGameSession(connID, m)
	case protocol.JoinRequestResponse:
		r.respondToJoinRequest(connID, m)
	case protocol.DoInput:
		r.doInput(connID, m)
	}
}

// send delivers msg to a connection. Failures are logged and swallowed: a
// dead peer must never interrupt the operation that is notifying it.
func (r *Relay) send(to string, msg *protocol.Outbound) {
	data, err := msg.Encode()
	if err != nil {
		log.Printf("Failed to encode %s: %v", msg.Action, err)
		return
	}

	conn, err := r.conns.Lookup(to)
	if err == nil {
		err = conn.Send(data)
	}
	if err != nil {
		log.Printf("Failed to send %s to %s: %v", msg.Action, to, err)
		r.recorder.SendFailed(msg.Action)
		return
	}

	if r.debug {
		log.Printf("Sent %s to %s", msg.Action, to)
	}
}

// failureReason maps a handshake error onto its wire reason.
func failureReason(err error) protocol.FailureReason {
	switch {
	case errors.Is(err, session.ErrAlreadyJoined):
		return protocol.ReasonGameSessionAlreadyJoined
	case errors.Is(err, session.ErrInvalidJoinRequestCode):
		return protocol.ReasonInvalidJoinRequestCode
	default:
		return protocol.ReasonGameSessionNonExistant
	}
}

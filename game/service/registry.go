package service

import (
	"errors"
	"sort"
)

var (
	ErrDuplicateConnection = errors.New("connection already registered")
	ErrConnectionNotFound  = errors.New("connection not found")
)

// Conn is the transport handle of a live client connection.
type Conn interface {
	// ID returns the unique connection identifier.
	ID() string

	// Send queues one encoded message for delivery. It must not block.
	Send(data []byte) error
}

// Registry maps connection identifiers to their transport handles.
// Like session.Store it does no locking of its own.
type Registry struct {
	conns map[string]Conn
}

// NewRegistry creates an empty connection registry
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]Conn),
	}
}

// Register stores the handle for id.
func (r *Registry) Register(id string, conn Conn) error {
	if _, exists := r.conns[id]; exists {
		return ErrDuplicateConnection
	}
	r.conns[id] = conn
	return nil
}

// Lookup returns the handle registered for id.
func (r *Registry) Lookup(id string) (Conn, error) {
	conn, exists := r.conns[id]
	if !exists {
		return nil, ErrConnectionNotFound
	}
	return conn, nil
}

// Unregister removes id and reports whether it was present. Removing an
// unknown id is a no-op.
func (r *Registry) Unregister(id string) bool {
	if _, exists := r.conns[id]; !exists {
		return false
	}
	delete(r.conns, id)
	return true
}

// Count returns the number of registered connections
func (r *Registry) Count() int {
	return len(r.conns)
}

// IDs returns the registered connection identifiers in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

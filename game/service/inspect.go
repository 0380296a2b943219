package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/wricardo/game-session-relay/game/session"
)

// Inspector is the read-only view of the relay used by the REST and MCP surfaces.
type Inspector interface {
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	Stats(ctx context.Context) (*Stats, error)
}

// SessionInfo is a snapshot of a live game session
type SessionInfo struct {
	ID                  string    `json:"id"`
	HostID              string    `json:"host_id"`
	Members             []string  `json:"members"`
	PendingJoinRequests int       `json:"pending_join_requests"`
	CreatedAt           time.Time `json:"created_at"`
}

// Stats summarizes the relay's live state
type Stats struct {
	Connections         int `json:"connections"`
	Sessions            int `json:"sessions"`
	Members             int `json:"members"`
	PendingJoinRequests int `json:"pending_join_requests"`
}

var _ Inspector = (*Relay)(nil)

// ListSessions returns snapshots of all live sessions
func (r *Relay) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := r.store.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, snapshot(sess))
	}
	return result, nil
}

// GetSession returns a snapshot of one session
func (r *Relay) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, err := r.store.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	return snapshot(sess), nil
}

// Stats returns aggregate counters of the live state
func (r *Relay) Stats(ctx context.Context) (*Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &Stats{
		Connections: r.conns.Count(),
		Sessions:    r.store.Count(),
	}
	for _, sess := range r.store.List() {
		stats.Members += len(sess.Members)
		stats.PendingJoinRequests += len(sess.JoinRequests)
	}
	return stats, nil
}

func snapshot(sess *session.Session) *SessionInfo {
	return &SessionInfo{
		ID:                  sess.ID,
		HostID:              sess.HostID,
		Members:             slices.Clone(sess.Members),
		PendingJoinRequests: len(sess.JoinRequests),
		CreatedAt:           sess.CreatedAt,
	}
}

package service

import (
	"log"
	"slices"

	"github.com/wricardo/game-session-relay/game/protocol"
	"github.com/wricardo/game-session-relay/game/session"
)

// Disconnect cleans up after a closed connection and notifies the peers it
// leaves behind. Unknown or unaffiliated connections are a no-op.
func (r *Relay) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conns.Unregister(connID) {
		r.recorder.ConnectionClosed()
	}
	r.release(connID, r.store.AffiliationOf(connID))

	log.Printf("Connection %s closed (remaining connections: %d)", connID, r.conns.Count())
}

// release ends connID's current affiliation. Callers hold the relay lock.
func (r *Relay) release(connID string, aff session.Affiliation) {
	switch aff.Kind {
	case session.Host:
		sess, err := r.store.Get(aff.SessionID)
		if err != nil {
			return
		}
		for _, memberID := range slices.Clone(sess.Members) {
			r.send(memberID, protocol.NewGameSessionClosed())
		}
		if _, err := r.store.Remove(sess.ID); err == nil {
			r.recorder.SessionClosed()
			log.Printf("Game session %s closed (remaining sessions: %d)", sess.ID, r.store.Count())
		}

	case session.Member:
		if sess, ok := r.store.RemoveMember(connID); ok {
			r.send(sess.HostID, protocol.NewMemberDisconnected(connID))
		}

	case session.Requesting:
		if sess, ok := r.store.AbandonJoinRequest(connID); ok && r.debug {
			log.Printf("Join request %s for %s abandoned", aff.JoinRequestCode, sess.ID)
		}
	}
}

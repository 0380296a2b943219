package service

import (
	"log"

	"github.com/wricardo/game-session-relay/game/protocol"
	"github.com/wricardo/game-session-relay/game/session"
)

// createGameSession opens a session hosted by connID. A connection that is
// already affiliated first leaves its old session, exactly as if it had
// disconnected, so it never holds two affiliations.
func (r *Relay) createGameSession(connID string) {
	if aff := r.store.AffiliationOf(connID); aff.Kind != session.Unaffiliated {
		log.Printf("Connection %s leaves %s session %s to host a new one", connID, aff.Kind, aff.SessionID)
		r.release(connID, aff)
	}

	sess := r.store.Create(connID)
	r.recorder.SessionCreated()
	log.Printf("Game session %s created by %s (total sessions: %d)", sess.ID, connID, r.store.Count())

	r.send(connID, protocol.NewCreationResult(sess.ID))
}

func (r *Relay) joinGameSession(connID string, msg protocol.JoinGameSession) {
	req, err := r.store.RequestJoin(connID, msg.GameSessionID)
	if err != nil {
		if r.debug {
			log.Printf("Join request from %s for %q rejected: %v", connID, msg.GameSessionID, err)
		}
		r.send(connID, protocol.NewJoinRequestFailure(failureReason(err)))
		return
	}

	log.Printf("Connection %s requested to join %s with code %s", connID, req.SessionID, req.Code)
	r.send(connID, protocol.NewJoinRequestResult(req.Code))
	r.send(req.HostID, protocol.NewJoinRequestNotice(req.Code))
}

func (r *Relay) respondToJoinRequest(connID string, msg protocol.JoinRequestResponse) {
	res, err := r.store.RespondToJoinRequest(connID, msg.JoinRequestCode, msg.HasAccepted)
	if err != nil {
		if r.debug {
			log.Printf("Join response from %s for code %q rejected: %v", connID, msg.JoinRequestCode, err)
		}
		r.send(connID, protocol.NewJoinResponseFailure(failureReason(err)))
		return
	}
	r.recorder.JoinResolved(res.Accepted)

	if !res.Accepted {
		log.Printf("Join request %s for %s denied", res.Code, res.SessionID)
		r.send(res.RequesterID, protocol.NewJoinRequestDenied())
		return
	}

	log.Printf("Connection %s joined %s", res.RequesterID, res.SessionID)
	r.send(res.RequesterID, protocol.NewGameSessionJoined())
	r.send(connID, protocol.NewJoinResponseResult(res.Code, res.RequesterID))
}

// doInput forwards a member's input to its host. There is no reply channel
// for input, so every failure is silent.
func (r *Relay) doInput(connID string, msg protocol.DoInput) {
	aff := r.store.AffiliationOf(connID)
	if aff.Kind != session.Member {
		return
	}
	sess, err := r.store.Get(aff.SessionID)
	if err != nil {
		return
	}

	r.recorder.InputRelayed()
	r.send(sess.HostID, protocol.NewInputReceived(connID, msg))
}

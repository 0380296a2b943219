package session

import "slices"

// JoinRequest is a freshly issued pending request.
type JoinRequest struct {
	SessionID   string
	HostID      string
	RequesterID string
	Code        string
}

// JoinResolution is the outcome of a host answering a join request.
type JoinResolution struct {
	SessionID   string
	HostID      string
	RequesterID string
	Code        string
	Accepted    bool
}

// RequestJoin files a join request from connID against sessionID and issues a
// code unique among the session's pending requests.
//
// A connection holds at most one affiliation, so any existing one (in this
// session or another) fails with ErrAlreadyJoined.
func (s *Store) RequestJoin(connID, sessionID string) (JoinRequest, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return JoinRequest{}, err
	}

	if aff := s.affiliations[connID]; aff.Kind != Unaffiliated {
		return JoinRequest{}, ErrAlreadyJoined
	}
	if session.HostID == connID || slices.Contains(session.Members, connID) {
		return JoinRequest{}, ErrAlreadyJoined
	}
	for _, requesterID := range session.JoinRequests {
		if requesterID == connID {
			return JoinRequest{}, ErrAlreadyJoined
		}
	}

	code := normalize(s.newJoinRequest())
	for {
		if _, taken := session.JoinRequests[code]; !taken {
			break
		}
		code = normalize(s.newJoinRequest())
	}

	session.JoinRequests[code] = connID
	s.affiliations[connID] = Affiliation{Kind: Requesting, SessionID: session.ID, JoinRequestCode: code}

	return JoinRequest{
		SessionID:   session.ID,
		HostID:      session.HostID,
		RequesterID: connID,
		Code:        code,
	}, nil
}

// RespondToJoinRequest resolves a pending code in the session hosted by
// hostID. The code is consumed before the outcome is applied, so it resolves
// at most once.
func (s *Store) RespondToJoinRequest(hostID, code string, accepted bool) (JoinResolution, error) {
	aff := s.affiliations[hostID]
	if aff.Kind != Host {
		return JoinResolution{}, ErrSessionNotFound
	}
	session, exists := s.sessions[aff.SessionID]
	if !exists {
		return JoinResolution{}, ErrSessionNotFound
	}

	code = normalize(code)
	requesterID, pending := session.JoinRequests[code]
	if !pending {
		return JoinResolution{}, ErrInvalidJoinRequestCode
	}
	delete(session.JoinRequests, code)

	resolution := JoinResolution{
		SessionID:   session.ID,
		HostID:      session.HostID,
		RequesterID: requesterID,
		Code:        code,
		Accepted:    accepted,
	}

	if !accepted {
		s.clearAffiliation(requesterID, session.ID)
		return resolution, nil
	}

	if !slices.Contains(session.Members, requesterID) {
		session.Members = append(session.Members, requesterID)
	}
	s.affiliations[requesterID] = Affiliation{Kind: Member, SessionID: session.ID}

	return resolution, nil
}

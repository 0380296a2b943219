package session

import (
	"errors"
	"testing"
)

func newHandshakeStore() (*Store, *Session) {
	store := NewStore(
		WithSessionIDGenerator(sequence("ABC123XYZ789", "OTHERSESSION")),
		WithJoinRequestCodeGenerator(sequence("WXYZ", "QRST", "LMNO")),
	)
	return store, store.Create("host")
}

func TestRequestJoin(t *testing.T) {
	store, sess := newHandshakeStore()

	req, err := store.RequestJoin("member", "abc123xyz789")
	if err != nil {
		t.Fatalf("RequestJoin() error = %v", err)
	}

	if req.Code != "WXYZ" {
		t.Errorf("Expected code WXYZ, got %s", req.Code)
	}
	if req.SessionID != sess.ID || req.HostID != "host" || req.RequesterID != "member" {
		t.Errorf("Unexpected join request %+v", req)
	}
	if sess.JoinRequests["WXYZ"] != "member" {
		t.Error("Pending map should map the code to the requester")
	}

	aff := store.AffiliationOf("member")
	if aff.Kind != Requesting || aff.SessionID != sess.ID || aff.JoinRequestCode != "WXYZ" {
		t.Errorf("Expected requesting affiliation, got %+v", aff)
	}
}

func TestRequestJoin_SessionNotFound(t *testing.T) {
	store, sess := newHandshakeStore()

	_, err := store.RequestJoin("member", "NOPE")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Expected ErrSessionNotFound, got %v", err)
	}

	if len(sess.JoinRequests) != 0 {
		t.Error("Failed join must not add a pending request")
	}
	if aff := store.AffiliationOf("member"); aff.Kind != Unaffiliated {
		t.Errorf("Failed join must not change affiliation, got %s", aff.Kind)
	}
}

func TestRequestJoin_AlreadyJoined(t *testing.T) {
	tests := []struct {
		name  string
		setup func(store *Store, sess *Session) string
	}{
		{
			name: "already requesting",
			setup: func(store *Store, sess *Session) string {
				store.RequestJoin("member", sess.ID)
				return "member"
			},
		},
		{
			name: "already member",
			setup: func(store *Store, sess *Session) string {
				req, _ := store.RequestJoin("member", sess.ID)
				store.RespondToJoinRequest("host", req.Code, true)
				return "member"
			},
		},
		{
			name: "host of the session",
			setup: func(store *Store, sess *Session) string {
				return "host"
			},
		},
		{
			name: "host of another session",
			setup: func(store *Store, sess *Session) string {
				store.Create("other-host")
				return "other-host"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, sess := newHandshakeStore()
			connID := tt.setup(store, sess)
			before := store.AffiliationOf(connID)
			pending := len(sess.JoinRequests)

			_, err := store.RequestJoin(connID, sess.ID)
			if !errors.Is(err, ErrAlreadyJoined) {
				t.Fatalf("Expected ErrAlreadyJoined, got %v", err)
			}
			if store.AffiliationOf(connID) != before {
				t.Error("Rejected join must not change affiliation")
			}
			if len(sess.JoinRequests) != pending {
				t.Error("Rejected join must not add a pending request")
			}
		})
	}
}

func TestRequestJoin_RegeneratesCodeOnCollision(t *testing.T) {
	store := NewStore(WithJoinRequestCodeGenerator(sequence("AAAA", "AAAA", "BBBB")))
	sess := store.Create("host")

	first, _ := store.RequestJoin("m1", sess.ID)
	second, _ := store.RequestJoin("m2", sess.ID)

	if first.Code != "AAAA" || second.Code != "BBBB" {
		t.Errorf("Expected codes AAAA and BBBB, got %s and %s", first.Code, second.Code)
	}
	if len(sess.JoinRequests) != 2 {
		t.Errorf("Expected 2 pending requests, got %d", len(sess.JoinRequests))
	}
}

func TestRespondToJoinRequest_Accept(t *testing.T) {
	store, sess := newHandshakeStore()
	req, _ := store.RequestJoin("member", sess.ID)

	res, err := store.RespondToJoinRequest("host", "wxyz", true)
	if err != nil {
		t.Fatalf("RespondToJoinRequest() error = %v", err)
	}

	if !res.Accepted || res.RequesterID != "member" || res.Code != req.Code || res.HostID != "host" {
		t.Errorf("Unexpected resolution %+v", res)
	}
	if _, pending := sess.JoinRequests[req.Code]; pending {
		t.Error("Resolved code must leave the pending map")
	}
	if len(sess.Members) != 1 || sess.Members[0] != "member" {
		t.Errorf("Expected members [member], got %v", sess.Members)
	}
	if aff := store.AffiliationOf("member"); aff.Kind != Member || aff.SessionID != sess.ID {
		t.Errorf("Expected member affiliation, got %+v", aff)
	}
}

func TestRespondToJoinRequest_Deny(t *testing.T) {
	store, sess := newHandshakeStore()
	req, _ := store.RequestJoin("member", sess.ID)

	res, err := store.RespondToJoinRequest("host", req.Code, false)
	if err != nil {
		t.Fatalf("RespondToJoinRequest() error = %v", err)
	}

	if res.Accepted {
		t.Error("Expected denied resolution")
	}
	if len(sess.JoinRequests) != 0 || len(sess.Members) != 0 {
		t.Error("Denied request must leave no pending entry and no member")
	}
	if aff := store.AffiliationOf("member"); aff.Kind != Unaffiliated {
		t.Errorf("Denied requester should be unaffiliated, got %s", aff.Kind)
	}

	// A denied connection may ask again.
	if _, err := store.RequestJoin("member", sess.ID); err != nil {
		t.Errorf("Expected a new join request after denial to succeed, got %v", err)
	}
}

func TestRespondToJoinRequest_ResolvesOnce(t *testing.T) {
	for _, accepted := range []bool{true, false} {
		store, sess := newHandshakeStore()
		req, _ := store.RequestJoin("member", sess.ID)

		if _, err := store.RespondToJoinRequest("host", req.Code, accepted); err != nil {
			t.Fatalf("First resolution failed: %v", err)
		}
		if _, err := store.RespondToJoinRequest("host", req.Code, true); !errors.Is(err, ErrInvalidJoinRequestCode) {
			t.Errorf("accepted=%v: expected ErrInvalidJoinRequestCode on second resolution, got %v", accepted, err)
		}
		if len(sess.Members) > 1 {
			t.Errorf("accepted=%v: member appended more than once: %v", accepted, sess.Members)
		}
	}
}

func TestRespondToJoinRequest_Errors(t *testing.T) {
	store, sess := newHandshakeStore()
	req, _ := store.RequestJoin("member", sess.ID)

	if _, err := store.RespondToJoinRequest("stranger", req.Code, true); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Unaffiliated responder: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := store.RespondToJoinRequest("member", req.Code, true); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Requesting responder: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := store.RespondToJoinRequest("host", "NOPE", true); !errors.Is(err, ErrInvalidJoinRequestCode) {
		t.Errorf("Unknown code: expected ErrInvalidJoinRequestCode, got %v", err)
	}

	// A code is scoped to its session: another host cannot resolve it.
	store.Create("other-host")
	if _, err := store.RespondToJoinRequest("other-host", req.Code, true); !errors.Is(err, ErrInvalidJoinRequestCode) {
		t.Errorf("Foreign code: expected ErrInvalidJoinRequestCode, got %v", err)
	}

	if sess.JoinRequests[req.Code] != "member" {
		t.Error("Failed responses must not consume the pending code")
	}
}

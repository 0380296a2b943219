package session

import (
	"errors"
	"slices"
	"sort"
	"strings"
	"time"
)

var (
	ErrSessionNotFound        = errors.New("game session not found")
	ErrAlreadyJoined          = errors.New("game session already joined")
	ErrInvalidJoinRequestCode = errors.New("invalid join request code")
)

// AffiliationKind is the relationship a connection has with a session.
type AffiliationKind int

const (
	Unaffiliated AffiliationKind = iota
	Host
	Requesting
	Member
)

func (k AffiliationKind) String() string {
	switch k {
	case Host:
		return "host"
	case Requesting:
		return "requesting"
	case Member:
		return "member"
	default:
		return "unaffiliated"
	}
}

// Affiliation is the single session a connection currently belongs to.
// JoinRequestCode is only set for Requesting.
type Affiliation struct {
	Kind            AffiliationKind
	SessionID       string
	JoinRequestCode string
}

// Session is a live game session.
type Session struct {
	ID      string
	HostID  string
	Members []string
	// JoinRequests maps a pending join request code to the requesting connection.
	JoinRequests map[string]string
	CreatedAt    time.Time
}

// Store holds the live sessions and the connection affiliation index.
//
// Store is not safe for concurrent use. Its owner serializes every call
// behind one lock shared with the connection registry.
type Store struct {
	sessions     map[string]*Session
	affiliations map[string]Affiliation

	newSessionID   IDGenerator
	newJoinRequest IDGenerator
	now            func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithSessionIDGenerator replaces the session identifier generator.
func WithSessionIDGenerator(gen IDGenerator) Option {
	return func(s *Store) {
		s.newSessionID = gen
	}
}

// WithJoinRequestCodeGenerator replaces the join request code generator.
func WithJoinRequestCodeGenerator(gen IDGenerator) Option {
	return func(s *Store) {
		s.newJoinRequest = gen
	}
}

// WithClock replaces the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty session store
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions:       make(map[string]*Session),
		affiliations:   make(map[string]Affiliation),
		newSessionID:   RandomID(SessionIDLength),
		newJoinRequest: RandomID(JoinRequestCodeLength),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a new session owned by hostID and records hostID as its host.
func (s *Store) Create(hostID string) *Session {
	id := normalize(s.newSessionID())
	for s.sessionExists(id) {
		id = normalize(s.newSessionID())
	}

	session := &Session{
		ID:           id,
		HostID:       hostID,
		Members:      []string{},
		JoinRequests: make(map[string]string),
		CreatedAt:    s.now(),
	}
	s.sessions[id] = session
	s.affiliations[hostID] = Affiliation{Kind: Host, SessionID: id}

	return session
}

// Get retrieves a session by ID (case-insensitive)
func (s *Store) Get(id string) (*Session, error) {
	session, exists := s.sessions[normalize(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// AffiliationOf returns the current affiliation of a connection. Unknown
// connections are Unaffiliated.
func (s *Store) AffiliationOf(connID string) Affiliation {
	return s.affiliations[connID]
}

// Remove deletes a session and clears the affiliation of its host, members and
// pending requesters. It returns the members the session had.
func (s *Store) Remove(id string) ([]string, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	s.clearAffiliation(session.HostID, session.ID)
	for _, memberID := range session.Members {
		s.clearAffiliation(memberID, session.ID)
	}
	for _, requesterID := range session.JoinRequests {
		s.clearAffiliation(requesterID, session.ID)
	}
	delete(s.sessions, session.ID)

	return slices.Clone(session.Members), nil
}

// RemoveMember drops connID from the member list of the session it belongs to.
// It returns that session, or false if connID was not a member anywhere.
func (s *Store) RemoveMember(connID string) (*Session, bool) {
	aff := s.affiliations[connID]
	if aff.Kind != Member {
		return nil, false
	}
	delete(s.affiliations, connID)

	session, exists := s.sessions[aff.SessionID]
	if !exists {
		return nil, false
	}
	session.Members = slices.DeleteFunc(session.Members, func(id string) bool {
		return id == connID
	})

	return session, true
}

// AbandonJoinRequest withdraws the pending join request of connID, if any.
func (s *Store) AbandonJoinRequest(connID string) (*Session, bool) {
	aff := s.affiliations[connID]
	if aff.Kind != Requesting {
		return nil, false
	}
	delete(s.affiliations, connID)

	session, exists := s.sessions[aff.SessionID]
	if !exists {
		return nil, false
	}
	if session.JoinRequests[aff.JoinRequestCode] == connID {
		delete(session.JoinRequests, aff.JoinRequestCode)
	}

	return session, true
}

// List returns all live sessions ordered by creation time.
func (s *Store) List() []*Session {
	result := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		result = append(result, session)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result
}

// Count returns the number of live sessions
func (s *Store) Count() int {
	return len(s.sessions)
}

func (s *Store) sessionExists(id string) bool {
	_, exists := s.sessions[id]
	return exists
}

// clearAffiliation forgets connID's affiliation only if it still points at sessionID.
func (s *Store) clearAffiliation(connID, sessionID string) {
	if aff, ok := s.affiliations[connID]; ok && aff.SessionID == sessionID {
		delete(s.affiliations, connID)
	}
}

// normalize maps human-typed identifiers and codes onto their canonical form.
func normalize(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

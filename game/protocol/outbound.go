package protocol

import "encoding/json"

// Outbound is a message sent by the relay. Only the fields relevant to the
// action are populated; the rest are omitted from the wire form.
type Outbound struct {
	Action          string          `json:"action"`
	Success         *bool           `json:"success,omitempty"`
	FailureReason   FailureReason   `json:"failureReason,omitempty"`
	GameSessionID   string          `json:"gameSessionId,omitempty"`
	JoinRequestCode string          `json:"joinRequestCode,omitempty"`
	JoinedMemberID  string          `json:"joinedMemberId,omitempty"`
	MemberID        string          `json:"memberId,omitempty"`
	Type            json.RawMessage `json:"type,omitempty"`
	Value           json.RawMessage `json:"value,omitempty"`
}

// Encode serializes the message for the wire.
func (o *Outbound) Encode() ([]byte, error) {
	return json.Marshal(o)
}

// Succeeded reports whether the message carries success:true.
func (o *Outbound) Succeeded() bool {
	return o.Success != nil && *o.Success
}

func succeeded(ok bool) *bool {
	return &ok
}

// NewCreationResult confirms a newly created session to its host.
func NewCreationResult(gameSessionID string) *Outbound {
	return &Outbound{
		Action:        ActionGameSessionCreationResult,
		Success:       succeeded(true),
		GameSessionID: gameSessionID,
	}
}

// NewJoinRequestResult tells a requester its join request is pending under code.
func NewJoinRequestResult(code string) *Outbound {
	return &Outbound{
		Action:          ActionGameSessionJoinRequestResult,
		Success:         succeeded(true),
		JoinRequestCode: code,
	}
}

// NewJoinRequestFailure rejects a join-game-session request.
func NewJoinRequestFailure(reason FailureReason) *Outbound {
	return &Outbound{
		Action:        ActionGameSessionJoinRequestResult,
		Success:       succeeded(false),
		FailureReason: reason,
	}
}

// NewJoinRequestNotice informs a host about a pending join request.
func NewJoinRequestNotice(code string) *Outbound {
	return &Outbound{
		Action:          ActionGameSessionJoinRequest,
		JoinRequestCode: code,
	}
}

// NewJoinResponseResult confirms to the host that a member joined.
func NewJoinResponseResult(code, memberID string) *Outbound {
	return &Outbound{
		Action:          ActionGameSessionJoinRequestResponseResult,
		Success:         succeeded(true),
		JoinRequestCode: code,
		JoinedMemberID:  memberID,
	}
}

// NewJoinResponseFailure rejects a game-session-join-request-response.
func NewJoinResponseFailure(reason FailureReason) *Outbound {
	return &Outbound{
		Action:        ActionGameSessionJoinRequestResponseResult,
		Success:       succeeded(false),
		FailureReason: reason,
	}
}

// NewGameSessionJoined tells a requester it is now a member.
func NewGameSessionJoined() *Outbound {
	return &Outbound{
		Action:  ActionGameSessionJoined,
		Success: succeeded(true),
	}
}

// NewJoinRequestDenied tells a requester the host declined.
func NewJoinRequestDenied() *Outbound {
	return &Outbound{Action: ActionJoinRequestDenied}
}

// NewInputReceived forwards a member input to the host.
func NewInputReceived(memberID string, input DoInput) *Outbound {
	return &Outbound{
		Action:   ActionInputReceived,
		MemberID: memberID,
		Type:     input.Type,
		Value:    input.Value,
	}
}

// NewGameSessionClosed tells a member its session is gone.
func NewGameSessionClosed() *Outbound {
	return &Outbound{Action: ActionGameSessionClosed}
}

// NewMemberDisconnected tells a host one of its members left.
func NewMemberDisconnected(memberID string) *Outbound {
	return &Outbound{
		Action:   ActionMemberDisconnected,
		MemberID: memberID,
	}
}

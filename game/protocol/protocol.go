package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Actions sent by clients.
const (
	ActionCreateGameSession              = "create-game-session"
	ActionJoinGameSession                = "join-game-session"
	ActionGameSessionJoinRequestResponse = "game-session-join-request-response"
	ActionDoInput                        = "do-input"
)

// Actions sent by the relay.
const (
	ActionGameSessionCreationResult            = "game-session-creation-result"
	ActionGameSessionJoinRequest               = "game-session-join-request"
	ActionGameSessionJoinRequestResult         = "game-session-join-request-result"
	ActionGameSessionJoinRequestResponseResult = "game-session-join-request-response-result"
	ActionGameSessionJoined                    = "game-session-joined"
	ActionJoinRequestDenied                    = "join-request-denied"
	ActionInputReceived                        = "input-received"
	ActionGameSessionClosed                    = "game-session-closed"
	ActionMemberDisconnected                   = "member-disconnected"
)

// FailureReason is the machine-readable cause carried by a failed result.
type FailureReason string

const (
	ReasonGameSessionNonExistant   FailureReason = "game-session-non-existant"
	ReasonGameSessionAlreadyJoined FailureReason = "game-session-already-joined"
	ReasonInvalidJoinRequestCode   FailureReason = "invalid-join-request-code"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownAction    = errors.New("unknown action")
)

// Message is an inbound client message.
type Message interface {
	Action() string
}

// CreateGameSession asks the relay to open a new session hosted by the sender.
type CreateGameSession struct{}

// JoinGameSession asks to join an existing session.
type JoinGameSession struct {
	GameSessionID string `json:"gameSessionId"`
}

// JoinRequestResponse is the host's verdict on a pending join request.
type JoinRequestResponse struct {
	JoinRequestCode string `json:"joinRequestCode"`
	HasAccepted     bool   `json:"hasAccepted"`
}

// DoInput is a member input event destined for the host.
type DoInput struct {
	Type  json.RawMessage `json:"type,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

func (CreateGameSession) Action() string   { return ActionCreateGameSession }
func (JoinGameSession) Action() string     { return ActionJoinGameSession }
func (JoinRequestResponse) Action() string { return ActionGameSessionJoinRequestResponse }
func (DoInput) Action() string             { return ActionDoInput }

// Decode parses a raw client message into one of the inbound variants.
func Decode(data []byte) (Message, error) {
	var envelope struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch envelope.Action {
	case ActionCreateGameSession:
		return CreateGameSession{}, nil
	case ActionJoinGameSession:
		return decodeAs[JoinGameSession](data)
	case ActionGameSessionJoinRequestResponse:
		return decodeAs[JoinRequestResponse](data)
	case ActionDoInput:
		return decodeAs[DoInput](data)
	case "":
		return nil, fmt.Errorf("%w: missing action", ErrMalformedMessage)
	default:
		return nil, fmt.Errorf("%w: %w %q", ErrMalformedMessage, ErrUnknownAction, envelope.Action)
	}
}

func decodeAs[T Message](data []byte) (Message, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, msg.Action(), err)
	}
	return msg, nil
}

// EncodeRequest serializes an inbound message the way a client sends it,
// with the action tag alongside the payload fields.
func EncodeRequest(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}

	action, err := json.Marshal(msg.Action())
	if err != nil {
		return nil, err
	}
	fields["action"] = action

	return json.Marshal(fields)
}

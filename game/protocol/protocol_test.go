package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Message
	}{
		{
			name: "create game session",
			raw:  `{"action":"create-game-session"}`,
			want: CreateGameSession{},
		},
		{
			name: "join game session",
			raw:  `{"action":"join-game-session","gameSessionId":"ABC123XYZ789"}`,
			want: JoinGameSession{GameSessionID: "ABC123XYZ789"},
		},
		{
			name: "join game session without id",
			raw:  `{"action":"join-game-session"}`,
			want: JoinGameSession{},
		},
		{
			name: "join request response",
			raw:  `{"action":"game-session-join-request-response","joinRequestCode":"WXYZ","hasAccepted":true}`,
			want: JoinRequestResponse{JoinRequestCode: "WXYZ", HasAccepted: true},
		},
		{
			name: "join request response defaults to denied",
			raw:  `{"action":"game-session-join-request-response","joinRequestCode":"WXYZ"}`,
			want: JoinRequestResponse{JoinRequestCode: "WXYZ"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecode_DoInputKeepsRawPayload(t *testing.T) {
	msg, err := Decode([]byte(`{"action":"do-input","type":"stick-left","value":0.6}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	input, ok := msg.(DoInput)
	if !ok {
		t.Fatalf("Expected DoInput, got %T", msg)
	}
	if string(input.Type) != `"stick-left"` {
		t.Errorf("Expected raw type %q, got %q", `"stick-left"`, input.Type)
	}
	if string(input.Value) != `0.6` {
		t.Errorf("Expected raw value %q, got %q", `0.6`, input.Value)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		unknown bool
	}{
		{name: "not json", raw: `not json`},
		{name: "array", raw: `["create-game-session"]`},
		{name: "missing action", raw: `{"gameSessionId":"ABC"}`},
		{name: "null", raw: `null`},
		{name: "empty action", raw: `{"action":""}`},
		{name: "non-string action", raw: `{"action":42}`},
		{name: "unknown action", raw: `{"action":"launch-missiles"}`, unknown: true},
		{name: "outgoing action", raw: `{"action":"game-session-closed"}`, unknown: true},
		{name: "bad payload type", raw: `{"action":"game-session-join-request-response","hasAccepted":"yes"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.raw))
			if err == nil {
				t.Fatalf("Expected error, got message %#v", msg)
			}
			if !errors.Is(err, ErrMalformedMessage) {
				t.Errorf("Expected ErrMalformedMessage, got %v", err)
			}
			if errors.Is(err, ErrUnknownAction) != tt.unknown {
				t.Errorf("errors.Is(err, ErrUnknownAction) = %v, want %v", !tt.unknown, tt.unknown)
			}
		})
	}
}

func TestEncodeRequestRoundTrip(t *testing.T) {
	requests := []Message{
		CreateGameSession{},
		JoinGameSession{GameSessionID: "ABC123XYZ789"},
		JoinRequestResponse{JoinRequestCode: "WXYZ", HasAccepted: true},
	}

	for _, req := range requests {
		data, err := EncodeRequest(req)
		if err != nil {
			t.Fatalf("EncodeRequest(%T) error = %v", req, err)
		}

		got, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode(%s) error = %v", data, err)
		}
		if got != req {
			t.Errorf("Round trip = %#v, want %#v", got, req)
		}
	}
}

func TestOutboundWireForm(t *testing.T) {
	input := DoInput{Type: json.RawMessage(`"stick-left"`), Value: json.RawMessage(`0.6`)}

	tests := []struct {
		name string
		msg  *Outbound
		want string
	}{
		{
			name: "creation result",
			msg:  NewCreationResult("ABC123XYZ789"),
			want: `{"action":"game-session-creation-result","success":true,"gameSessionId":"ABC123XYZ789"}`,
		},
		{
			name: "join request result",
			msg:  NewJoinRequestResult("WXYZ"),
			want: `{"action":"game-session-join-request-result","success":true,"joinRequestCode":"WXYZ"}`,
		},
		{
			name: "join request failure",
			msg:  NewJoinRequestFailure(ReasonGameSessionNonExistant),
			want: `{"action":"game-session-join-request-result","success":false,"failureReason":"game-session-non-existant"}`,
		},
		{
			name: "join request notice",
			msg:  NewJoinRequestNotice("WXYZ"),
			want: `{"action":"game-session-join-request","joinRequestCode":"WXYZ"}`,
		},
		{
			name: "join response result",
			msg:  NewJoinResponseResult("WXYZ", "member-1"),
			want: `{"action":"game-session-join-request-response-result","success":true,"joinRequestCode":"WXYZ","joinedMemberId":"member-1"}`,
		},
		{
			name: "join response failure",
			msg:  NewJoinResponseFailure(ReasonInvalidJoinRequestCode),
			want: `{"action":"game-session-join-request-response-result","success":false,"failureReason":"invalid-join-request-code"}`,
		},
		{
			name: "joined",
			msg:  NewGameSessionJoined(),
			want: `{"action":"game-session-joined","success":true}`,
		},
		{
			name: "denied",
			msg:  NewJoinRequestDenied(),
			want: `{"action":"join-request-denied"}`,
		},
		{
			name: "input received",
			msg:  NewInputReceived("member-1", input),
			want: `{"action":"input-received","memberId":"member-1","type":"stick-left","value":0.6}`,
		},
		{
			name: "session closed",
			msg:  NewGameSessionClosed(),
			want: `{"action":"game-session-closed"}`,
		},
		{
			name: "member disconnected",
			msg:  NewMemberDisconnected("member-1"),
			want: `{"action":"member-disconnected","memberId":"member-1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.msg.Encode()
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Encode() = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestOutboundSucceeded(t *testing.T) {
	if !NewGameSessionJoined().Succeeded() {
		t.Error("Expected joined notice to report success")
	}
	if NewJoinRequestFailure(ReasonGameSessionAlreadyJoined).Succeeded() {
		t.Error("Expected failure result to report no success")
	}
	if NewGameSessionClosed().Succeeded() {
		t.Error("Expected notice without success field to report no success")
	}
}

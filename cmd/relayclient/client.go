package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/game-session-relay/game/protocol"
)

var (
	ErrJoinDenied    = errors.New("join request denied by host")
	ErrSessionClosed = errors.New("game session closed by host")
	ErrJoinFailed    = errors.New("join request failed")
	errEmptyInput    = errors.New("empty input")
)

const closeWait = time.Second

// Client is one WebSocket connection to the relay
type Client struct {
	conn *websocket.Conn
	out  io.Writer
}

// Dial connects to the relay's WebSocket endpoint
func Dial(ctx context.Context, url string, out io.Writer) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{conn: conn, out: out}, nil
}

// Send writes one client message
func (c *Client) Send(msg protocol.Message) error {
	data, err := protocol.EncodeRequest(msg)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Receive reads the next relay message
func (c *Client) Receive() (*protocol.Outbound, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var msg protocol.Outbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid relay message %q: %w", data, err)
	}
	return &msg, nil
}

// Close sends a normal closure and closes the connection
func (c *Client) Close() error {
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeWait))
	return c.conn.Close()
}

// closeOnDone closes the connection when ctx ends so a blocked Receive returns
func (c *Client) closeOnDone(ctx context.Context) func() {
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.conn.Close()
		case <-stop:
		}
	}()
	return func() { close(stop) }
}

// finished maps a read error to the loop's result
func finished(ctx context.Context, err error) error {
	if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return nil
	}
	return err
}

// Host creates a session and answers join requests with decide until the
// connection ends or ctx is cancelled.
func (c *Client) Host(ctx context.Context, decide func(code string) bool) error {
	defer c.closeOnDone(ctx)()

	if err := c.Send(protocol.CreateGameSession{}); err != nil {
		return err
	}

	for {
		msg, err := c.Receive()
		if err != nil {
			return finished(ctx, err)
		}
		fmt.Fprintln(c.out, formatEvent(msg))

		if msg.Action != protocol.ActionGameSessionJoinRequest {
			continue
		}
		response := protocol.JoinRequestResponse{
			JoinRequestCode: msg.JoinRequestCode,
			HasAccepted:     decide(msg.JoinRequestCode),
		}
		if err := c.Send(response); err != nil {
			return err
		}
	}
}

// Join asks to join sessionID, waits for the host's verdict, then forwards
// each line of inputs as a do-input event. Reaching the end of inputs closes
// the connection.
func (c *Client) Join(ctx context.Context, sessionID string, inputs io.Reader) error {
	defer c.closeOnDone(ctx)()

	if err := c.Send(protocol.JoinGameSession{GameSessionID: sessionID}); err != nil {
		return err
	}

	result, err := c.Receive()
	if err != nil {
		return finished(ctx, err)
	}
	if !result.Succeeded() {
		return fmt.Errorf("%w: %s", ErrJoinFailed, result.FailureReason)
	}
	fmt.Fprintln(c.out, formatEvent(result))

	for {
		msg, err := c.Receive()
		if err != nil {
			return finished(ctx, err)
		}
		fmt.Fprintln(c.out, formatEvent(msg))

		switch msg.Action {
		case protocol.ActionJoinRequestDenied:
			return ErrJoinDenied
		case protocol.ActionGameSessionClosed:
			return ErrSessionClosed
		case protocol.ActionGameSessionJoined:
			go c.forwardInputs(inputs)
		}
	}
}

// forwardInputs sends one do-input per line and closes the connection at EOF
func (c *Client) forwardInputs(inputs io.Reader) {
	scanner := bufio.NewScanner(inputs)
	for scanner.Scan() {
		input, err := parseInput(scanner.Text())
		if errors.Is(err, errEmptyInput) {
			continue
		}
		if err != nil {
			fmt.Fprintf(c.out, "skipping input: %v\n", err)
			continue
		}
		if err := c.Send(input); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeWait))
}

// parseInput turns "type [value]" into a do-input event. The value is sent
// as JSON when it parses as JSON, otherwise as a string.
func parseInput(line string) (protocol.DoInput, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return protocol.DoInput{}, errEmptyInput
	}

	kind, rest, _ := strings.Cut(line, " ")
	typ, err := json.Marshal(kind)
	if err != nil {
		return protocol.DoInput{}, err
	}
	input := protocol.DoInput{Type: typ}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return input, nil
	}
	if json.Valid([]byte(rest)) {
		input.Value = json.RawMessage(rest)
		return input, nil
	}
	value, err := json.Marshal(rest)
	if err != nil {
		return protocol.DoInput{}, err
	}
	input.Value = value
	return input, nil
}

// formatEvent renders a relay message as one human-readable line
func formatEvent(msg *protocol.Outbound) string {
	switch msg.Action {
	case protocol.ActionGameSessionCreationResult:
		return fmt.Sprintf("Session created: %s", msg.GameSessionID)
	case protocol.ActionGameSessionJoinRequest:
		return fmt.Sprintf("Join request: %s", msg.JoinRequestCode)
	case protocol.ActionGameSessionJoinRequestResult:
		if !msg.Succeeded() {
			return fmt.Sprintf("Join request failed: %s", msg.FailureReason)
		}
		return fmt.Sprintf("Join request code: %s (waiting for host)", msg.JoinRequestCode)
	case protocol.ActionGameSessionJoinRequestResponseResult:
		if !msg.Succeeded() {
			return fmt.Sprintf("Response failed: %s", msg.FailureReason)
		}
		return fmt.Sprintf("Member joined: %s", msg.JoinedMemberID)
	case protocol.ActionGameSessionJoined:
		return "Joined session"
	case protocol.ActionJoinRequestDenied:
		return "Join request denied by host"
	case protocol.ActionInputReceived:
		return fmt.Sprintf("Input from %s: type=%s value=%s", msg.MemberID, orNull(msg.Type), orNull(msg.Value))
	case protocol.ActionGameSessionClosed:
		return "Game session closed"
	case protocol.ActionMemberDisconnected:
		return fmt.Sprintf("Member left: %s", msg.MemberID)
	default:
		return fmt.Sprintf("Unknown message: %s", msg.Action)
	}
}

func orNull(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	return string(raw)
}

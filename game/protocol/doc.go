// Package protocol defines the wire messages exchanged between clients and
// the game session relay.
//
// Every message is a JSON object carrying an "action" field. Inbound messages
// are decoded into a closed set of variants before they reach any handler:
//
//	create-game-session                 CreateGameSession
//	join-game-session                   JoinGameSession{gameSessionId}
//	game-session-join-request-response  JoinRequestResponse{joinRequestCode, hasAccepted}
//	do-input                            DoInput{type, value}
//
// Anything else (undecodable JSON, a missing action, an unknown action) is
// reported as ErrMalformedMessage and must be dropped without a reply.
//
// Outbound messages share a single Outbound envelope built by the New*
// constructors, so the relay never hand-assembles JSON.
//
// Input payloads:
//
// The "type" and "value" of a do-input message are opaque to the relay. They
// are kept as raw JSON and forwarded byte for byte to the session host.
package protocol

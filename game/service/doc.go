// Package service provides the relay service that routes client messages
// between game session hosts and members.
//
// The service package implements:
//   - The connection registry (connection id to transport handle)
//   - Message routing by action for create, join, join-response and input
//   - Disconnect cleanup and peer notification
//   - A read-only inspection view for operators
//
// Core Types:
//
// Relay is the single service object constructed at startup. It owns the
// Registry and the session.Store and is handed to the transport, which calls
// Connect, HandleMessage and Disconnect as connection events arrive.
// Conn is the transport handle a connection registers with.
// Inspector is the read-only subset used by the REST API and MCP tools.
//
// Architecture:
//
// The service layer sits between the WebSocket transport and the session
// store. Handlers validate preconditions, mutate the store, then send zero or
// more outbound messages through the registry.
//
// Failures:
//
// Join and join-response failures are answered on the matching result action
// with success:false and a failure reason. Malformed messages and input relay
// failures are silent. A failed send to one peer is logged and never stops
// the remaining notifications of the same operation.
//
// Concurrency:
//
// All access to the registry and store happens under one mutex held for the
// whole of each Connect, HandleMessage, Disconnect and inspection call.
// Sends happen under that lock and therefore must never block.
//
// Usage:
//
//	relay := service.NewRelay(service.WithRecorder(m))
//
//	hub := websocket.NewHub(relay)
//	go hub.Run(ctx)
package service

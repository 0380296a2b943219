// Package websocket provides the WebSocket transport for the game session relay.
//
// The websocket package implements:
//   - Connection upgrade with an optional origin allow-list
//   - One read pump and one write pump goroutine per client
//   - A single event loop delivering open, message and close events
//   - Keepalive pings and read/write deadlines
//   - Slow client eviction when the send buffer fills up
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Read pumps never call the handler directly: they
// forward each frame to the hub loop, which calls the Handler one event at a
// time. Per-connection message order is therefore preserved, and a close is
// always delivered after every message read before it.
//
// Connection Lifecycle:
//
// 1. Client connects; the hub assigns a UUID and calls Handler.Connect
// 2. Each text frame is passed to Handler.HandleMessage
// 3. Outbound messages are queued through Client.Send and written one frame each
// 4. On read error or close, Handler.Disconnect runs exactly once
//
// Usage:
//
//	hub := websocket.NewHub(relay, websocket.WithSendBuffer(256))
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", hub.ServeWS)
//
// Concurrency:
//
// Client.Send must only be called from inside Handler callbacks, which run on
// the hub loop. It never blocks: a full buffer disconnects the client and
// returns ErrSendBufferFull.
package websocket

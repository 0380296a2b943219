// Package api provides the HTTP surface of the game session relay.
//
// Endpoints:
//
// Relay:
//   - GET /ws - Upgrade to a WebSocket relay connection
//
// Inspection (read-only):
//   - GET /api/sessions - List live sessions
//   - GET /api/sessions/{id} - Get one session (404 if unknown)
//   - GET /api/stats - Connection, session, member and pending request counts
//
// Operations:
//   - GET /health - Liveness probe
//   - GET /metrics - Prometheus exposition, when a metrics handler is configured
//
// Response Format:
//
// All inspection endpoints return JSON. Errors use {"error": "message"}.
//
// Usage:
//
//	server := api.NewServer(relay, hub, api.WithMetricsHandler(promhttp.Handler()))
//	http.ListenAndServe(":4000", server)
package api

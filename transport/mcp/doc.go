// Package mcp provides a Model Context Protocol server for inspecting the game session relay.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Read-only tools backed by the relay's REST API
//   - Stdio and HTTP transport modes
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - list_sessions: List all live sessions
//   - get_session: Get one session's host, members and pending join requests
//   - relay_stats: Aggregate connection and session counters
//   - protocol_reference: Describe the WebSocket message protocol
//
// Transport Modes:
//
// The server supports two transport modes:
//   - Stdio: Direct stdio communication for local MCP clients
//   - HTTP: JSON-RPC over POST, mounted at /mcp
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:4000")
//	server.ServeStdio(client.GetMCPServer())
//
// The tools never mutate relay state. Sessions are created and joined only
// over WebSocket.
package mcp

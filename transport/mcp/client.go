package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/game-session-relay/game/protocol"
	"github.com/wricardo/game-session-relay/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Game Session Relay",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Game Session Relay - MCP Interface

This is a thin client that proxies all requests to the relay's read-only REST API.
Hosts and members talk to the relay over WebSocket at /ws; these tools only observe.

AVAILABLE TOOLS:
- list_sessions: List all live game sessions
- get_session: Get the host, members and pending join requests of one session
- relay_stats: Get connection, session, member and pending request counts
- protocol_reference: Describe the WebSocket message protocol`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all live game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific game session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Game session ID (case-insensitive)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "relay_stats",
		Description: "Get aggregate counters of the relay's live state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "protocol_reference",
		Description: "Describe the WebSocket messages hosts and members exchange with the relay",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleProtocolReference)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// stringArg reads a string argument, tolerating a missing arguments map
func stringArg(request mcp.CallToolRequest, name string) string {
	args, _ := request.Params.Arguments.(map[string]interface{})
	value, _ := args[name].(string)
	return strings.TrimSpace(value)
}

// Tool handlers

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionList(response.Count, response.Sessions)), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request, "session_id")
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	var info service.SessionInfo
	err := c.apiCall(ctx, "GET", "/api/sessions/"+url.PathEscape(sessionID), nil, &info)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats service.Stats
	err := c.apiCall(ctx, "GET", "/api/stats", nil, &stats)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatStats(&stats)), nil
}

func (c *Client) handleProtocolReference(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(protocolReference()), nil
}

// Formatting helpers

func formatSessionList(count int, sessions []service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Live Sessions (%d):\n\n", count)
	if len(sessions) == 0 {
		b.WriteString("(no live sessions)\n")
		return b.String()
	}
	for _, s := range sessions {
		fmt.Fprintf(&b, "- %s (Host: %s, Members: %d, Pending: %d, Created: %s)\n",
			s.ID, s.HostID, len(s.Members), s.PendingJoinRequests, s.CreatedAt.Format("15:04:05"))
	}
	return b.String()
}

func formatSessionInfo(info *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nHost: %s\nCreated: %s\nPending join requests: %d\n",
		info.ID, info.HostID, info.CreatedAt.Format(time.RFC3339), info.PendingJoinRequests)

	fmt.Fprintf(&b, "Members (%d):\n", len(info.Members))
	for _, m := range info.Members {
		fmt.Fprintf(&b, "  - %s\n", m)
	}
	return b.String()
}

func formatStats(stats *service.Stats) string {
	return fmt.Sprintf("Relay Stats\n━━━━━━━━━━━\nConnections: %d\nSessions: %d\nMembers: %d\nPending join requests: %d\n",
		stats.Connections, stats.Sessions, stats.Members, stats.PendingJoinRequests)
}

func protocolReference() string {
	var b strings.Builder
	b.WriteString("Game Session Relay Protocol\n")
	b.WriteString("Every frame is one JSON object tagged by \"action\".\n\n")

	b.WriteString("Client to relay:\n")
	fmt.Fprintf(&b, "- %s: host a new session\n", protocol.ActionCreateGameSession)
	fmt.Fprintf(&b, "- %s {gameSessionId}: ask the host to join\n", protocol.ActionJoinGameSession)
	fmt.Fprintf(&b, "- %s {joinRequestCode, hasAccepted}: host answers a join request\n", protocol.ActionGameSessionJoinRequestResponse)
	fmt.Fprintf(&b, "- %s {type, value}: member input forwarded to the host\n", protocol.ActionDoInput)

	b.WriteString("\nRelay to client:\n")
	for _, action := range []string{
		protocol.ActionGameSessionCreationResult,
		protocol.ActionGameSessionJoinRequest,
		protocol.ActionGameSessionJoinRequestResult,
		protocol.ActionGameSessionJoinRequestResponseResult,
		protocol.ActionGameSessionJoined,
		protocol.ActionJoinRequestDenied,
		protocol.ActionInputReceived,
		protocol.ActionGameSessionClosed,
		protocol.ActionMemberDisconnected,
	} {
		fmt.Fprintf(&b, "- %s\n", action)
	}
	return b.String()
}

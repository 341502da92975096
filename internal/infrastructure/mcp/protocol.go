// Package mcp implements the HTTP client side of the Model Context Protocol:
// JSON-RPC 2.0 requests over HTTP POST with plain-JSON or SSE-framed
// responses and a session id negotiated at initialization.
package mcp

import "encoding/json"

// JSONRPCVersion is the version of JSON-RPC to use
const JSONRPCVersion = "2.0"

// ProtocolVersion is the MCP protocol version advertised at initialization
const ProtocolVersion = "2025-03-26"

// HeaderSessionID is the HTTP header carrying the negotiated session id
const HeaderSessionID = "mcp-session-id"

// JSON-RPC methods used by this client
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodToolsList   = "tools/list"
	MethodToolsCall   = "tools/call"
)

// Request represents a JSON-RPC request. Ids are session-scoped integers
// issued by the client, strictly increasing from 1.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Notification represents a JSON-RPC notification. It carries no id and no
// response is awaited.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents a JSON-RPC response envelope
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error object
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// InitializeParams is the payload of the initialize request
type InitializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ClientInfo      ClientInfo             `json:"clientInfo"`
}

// ClientInfo identifies this client to the server
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// CallToolParams is the payload of a tools/call request
type CallToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ListToolsResult is the payload of a tools/list response
type ListToolsResult struct {
	Tools []ToolEntry `json:"tools"`
}

// ToolEntry is one tool definition as advertised by the server
type ToolEntry struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"inputSchema,omitempty"`
}

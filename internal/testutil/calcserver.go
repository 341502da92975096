// Package testutil provides in-process fake servers for tests: a calculator
// MCP endpoint and a scripted Ollama chat endpoint.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// calcRequest mirrors the JSON-RPC request shape accepted by the fake
// server. The id is raw so both requests and id-less notifications decode.
type calcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// CalcServer is a fake calculator MCP server. It implements the
// initialize/initialized handshake with the mcp-session-id header, tools/list
// with the four arithmetic tools and tools/call with divide-by-zero and
// missing-argument error envelopes.
type CalcServer struct {
	// SessionID is issued on initialize. Populated by NewCalcServer.
	SessionID string

	// OmitSessionHeader suppresses the session header on initialize to
	// exercise the client's missing-session failure path.
	OmitSessionHeader bool

	// PlainJSON disables SSE framing and responds with a bare JSON body.
	PlainJSON bool

	mu            sync.Mutex
	requestIDs    []int64
	methods       []string
	notifications []string
	sessionSeen   []string
}

// NewCalcServer creates a fake calculator server with a fresh session id.
func NewCalcServer() *CalcServer {
	return &CalcServer{SessionID: uuid.NewString()}
}

// RequestIDs returns the ids of all non-notification requests received, in
// arrival order.
func (s *CalcServer) RequestIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, len(s.requestIDs))
	copy(ids, s.requestIDs)
	return ids
}

// Notifications returns the methods of all notifications received.
func (s *CalcServer) Notifications() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// SessionHeaders returns the mcp-session-id header values seen on requests
// after initialize.
func (s *CalcServer) SessionHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sessionSeen))
	copy(out, s.sessionSeen)
	return out
}

// Handler returns the http.Handler serving the fake MCP endpoint.
func (s *CalcServer) Handler() http.Handler {
	return http.HandlerFunc(s.handlePost)
}

func (s *CalcServer) handlePost(w http.ResponseWriter, r *http.Request) {
	var req calcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.record(r, req)

	switch req.Method {
	case "initialize":
		if !s.OmitSessionHeader {
			w.Header().Set("mcp-session-id", s.SessionID)
		}
		s.respond(w, req.ID, map[string]interface{}{
			"protocolVersion": "2025-03-26",
			"capabilities":    map[string]interface{}{"tools": map[string]interface{}{}},
			"serverInfo":      map[string]interface{}{"name": "calc-test", "version": "0.0.0"},
		}, nil)

	case "notifications/initialized":
		w.WriteHeader(http.StatusAccepted)

	case "tools/list":
		s.respond(w, req.ID, map[string]interface{}{"tools": toolList()}, nil)

	case "tools/call":
		s.handleCallTool(w, req)

	default:
		s.respond(w, req.ID, nil, &rpcError{Code: -32601, Message: "Method not found"})
	}
}

func (s *CalcServer) record(r *http.Request, req calcRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.ID == nil {
		s.notifications = append(s.notifications, req.Method)
	} else {
		var id int64
		if err := json.Unmarshal(req.ID, &id); err == nil {
			s.requestIDs = append(s.requestIDs, id)
		}
		s.methods = append(s.methods, req.Method)
	}

	if req.Method != "initialize" {
		s.sessionSeen = append(s.sessionSeen, r.Header.Get("mcp-session-id"))
	}
}

func (s *CalcServer) handleCallTool(w http.ResponseWriter, req calcRequest) {
	var params struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.respond(w, req.ID, nil, &rpcError{Code: -32602, Message: "Invalid params"})
		return
	}

	a, aOK := toNumber(params.Arguments["a"])
	b, bOK := toNumber(params.Arguments["b"])
	if !aOK || !bOK {
		msg := fmt.Sprintf("Both numbers are required for %s operation", params.Name)
		s.respond(w, req.ID, nil, &rpcError{Code: -32602, Message: msg})
		return
	}

	var result float64
	switch params.Name {
	case "add":
		result = a + b
	case "subtract":
		result = a - b
	case "multiply":
		result = a * b
	case "divide":
		if b == 0 {
			s.respond(w, req.ID, nil, &rpcError{Code: -32602, Message: "Cannot divide by zero"})
			return
		}
		result = a / b
	default:
		s.respond(w, req.ID, nil, &rpcError{Code: -32601, Message: fmt.Sprintf("Unknown tool: %s", params.Name)})
		return
	}

	text, _ := json.Marshal(map[string]interface{}{"result": result})
	s.respond(w, req.ID, map[string]interface{}{
		"content": []interface{}{
			map[string]interface{}{"type": "text", "text": string(text)},
		},
	}, nil)
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *CalcServer) respond(w http.ResponseWriter, id json.RawMessage, result interface{}, rpcErr *rpcError) {
	envelope := map[string]interface{}{
		"jsonrpc": "2.0",
	}
	if id != nil {
		envelope["id"] = id
	}
	if rpcErr != nil {
		envelope["error"] = rpcErr
	} else {
		envelope["result"] = result
	}

	payload, _ := json.Marshal(envelope)

	if s.PlainJSON {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	fmt.Fprintf(w, "event: message\ndata: %s\n\n", payload)
}

func toNumber(v interface{}) (float64, bool) {
	n, ok := v.(float64)
	return n, ok
}

func toolList() []map[string]interface{} {
	numberArgs := func() map[string]interface{} {
		return map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"a": map[string]interface{}{"type": "number"},
				"b": map[string]interface{}{"type": "number"},
			},
			"required": []string{"a", "b"},
		}
	}

	return []map[string]interface{}{
		{"name": "add", "description": "Add two numbers", "inputSchema": numberArgs()},
		{"name": "subtract", "description": "Subtract b from a", "inputSchema": numberArgs()},
		{"name": "multiply", "description": "Multiply two numbers", "inputSchema": numberArgs()},
		{"name": "divide", "description": "Divide a by b", "inputSchema": numberArgs()},
	}
}

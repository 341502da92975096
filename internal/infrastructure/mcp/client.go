package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mcp/calc-client/internal/domain"
	"github.com/mcp/calc-client/internal/infrastructure/logging"
)

// clientName and clientVersion identify this client during initialization
const (
	clientName    = "calc-client"
	clientVersion = "0.1.0"
)

// Client is an MCP client over HTTP. It owns exactly one logical session:
// one session id, one request-id counter, one connection pool. Operations
// are sequential; a mutex enforces at most one in-flight request.
type Client struct {
	serverURL  string
	httpClient *http.Client
	logger     *logging.Logger

	mu         sync.Mutex
	sessionID  string
	requestID  int64
	connected  bool
	toolsCache []domain.ToolDefinition
}

// NewClient creates a new MCP client for the given server URL. The timeout
// is the per-request budget; expiry surfaces as a connection or execution
// error depending on the operation.
func NewClient(serverURL string, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		serverURL:  serverURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Connect opens the MCP session: it sends the initialize request, extracts
// the session id from the response headers and completes the handshake with
// a best-effort notifications/initialized message.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Info("connecting to MCP server", logging.Fields{"url": c.serverURL})

	// New session: the counter restarts so the first issued id is 1.
	c.requestID = 0
	c.sessionID = ""
	c.toolsCache = nil

	params, err := json.Marshal(InitializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]interface{}{},
		ClientInfo:      ClientInfo{Name: clientName, Version: clientVersion},
	})
	if err != nil {
		return domain.NewConnectionError("failed to marshal initialize params", err)
	}

	req := Request{
		JSONRPC: JSONRPCVersion,
		ID:      c.nextRequestID(),
		Method:  MethodInitialize,
		Params:  params,
	}

	body, header, err := c.roundTrip(ctx, req)
	if err != nil {
		c.logger.Error("initialize request failed", logging.Fields{"error": err.Error()})
		return domain.NewConnectionError("failed to connect to MCP server", err)
	}

	sessionID := header.Get(HeaderSessionID)
	if sessionID == "" {
		return domain.NewConnectionError("server did not return a session id", nil)
	}
	c.sessionID = sessionID

	envelope, err := parseEnvelope(body)
	if err != nil {
		return domain.NewConnectionError("malformed initialize response", err)
	}
	if envelope.Error != nil {
		return domain.NewConnectionError(fmt.Sprintf("initialization failed: %s", envelope.Error.Message), nil)
	}

	// The initialized notification completes the handshake. It is
	// best-effort: a failure here must not fail Connect.
	if err := c.notify(ctx, Notification{JSONRPC: JSONRPCVersion, Method: MethodInitialized}); err != nil {
		c.logger.Warn("initialized notification failed", logging.Fields{"error": err.Error()})
	}

	c.connected = true
	c.logger.Info("connected to MCP server", logging.Fields{"session_id": c.sessionID})
	return nil
}

// Disconnect tears down the session. It is idempotent, safe to call before
// Connect, and never returns an error: shutdown must always proceed.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}

	c.sessionID = ""
	c.connected = false
	c.toolsCache = nil

	c.logger.Info("disconnected from MCP server")
}

// ListTools returns the tools advertised by the server. The result is
// cached for the lifetime of the session.
func (c *Client) ListTools(ctx context.Context) ([]domain.ToolDefinition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil, domain.NewConnectionError("not connected to MCP server", nil)
	}

	if c.toolsCache != nil {
		return c.toolsCache, nil
	}

	req := Request{
		JSONRPC: JSONRPCVersion,
		ID:      c.nextRequestID(),
		Method:  MethodToolsList,
	}

	body, _, err := c.roundTrip(ctx, req)
	if err != nil {
		return nil, domain.NewConnectionError("failed to list tools", err)
	}

	envelope, err := parseEnvelope(body)
	if err != nil {
		return nil, domain.NewConnectionError("malformed tools/list response", err)
	}
	if envelope.Error != nil {
		return nil, domain.NewConnectionError(fmt.Sprintf("failed to list tools: %s", envelope.Error.Message), nil)
	}

	var result ListToolsResult
	if err := json.Unmarshal(envelope.Result, &result); err != nil {
		return nil, domain.NewConnectionError("malformed tools/list result", err)
	}

	tools := make([]domain.ToolDefinition, 0, len(result.Tools))
	for _, entry := range result.Tools {
		tools = append(tools, domain.ToolDefinition{
			Name:        entry.Name,
			Description: entry.Description,
			InputSchema: entry.InputSchema,
		})
	}

	c.toolsCache = tools
	c.logger.Info("discovered tools from MCP server", logging.Fields{"count": len(tools)})
	return tools, nil
}

// CallTool invokes a tool on the server and normalizes the outcome. A
// tool-level error envelope is returned as a failure-shaped ToolResult, not
// as a Go error; only transport faults produce an error.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (domain.ToolResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return domain.ToolResult{}, domain.NewConnectionError("not connected to MCP server", nil)
	}

	c.logger.Info("calling tool", logging.Fields{"tool": name, "arguments": arguments})

	params, err := json.Marshal(CallToolParams{Name: name, Arguments: arguments})
	if err != nil {
		return domain.ToolResult{}, &domain.ToolExecutionError{Name: name, Cause: err}
	}

	req := Request{
		JSONRPC: JSONRPCVersion,
		ID:      c.nextRequestID(),
		Method:  MethodToolsCall,
		Params:  params,
	}

	body, _, err := c.roundTrip(ctx, req)
	if err != nil {
		return domain.ToolResult{}, &domain.ToolExecutionError{Name: name, Cause: err}
	}

	envelope, err := parseEnvelope(body)
	if err != nil {
		return domain.ToolResult{}, domain.NewConnectionError("malformed tools/call response", err)
	}
	if envelope.Error != nil {
		c.logger.Error("tool returned error", logging.Fields{"tool": name, "error": envelope.Error.Message})
		return domain.ToolResult{Err: envelope.Error.Message}, nil
	}

	result, err := normalizeResult(envelope.Result)
	if err != nil {
		return domain.ToolResult{}, domain.NewConnectionError("malformed tools/call result", err)
	}

	c.logger.Debug("tool returned", logging.Fields{"tool": name, "result": result.Value})
	return result, nil
}

// nextRequestID increments and returns the session request-id counter.
// Callers must hold the mutex.
func (c *Client) nextRequestID() int64 {
	c.requestID++
	return c.requestID
}

// roundTrip posts one JSON-RPC request and returns the raw response body
// and headers. Errors returned here are transport-level.
func (c *Client) roundTrip(ctx context.Context, req Request) ([]byte, http.Header, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to marshal request")
	}

	httpResp, err := c.post(ctx, data)
	if err != nil {
		return nil, nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusAccepted {
		return nil, nil, fmt.Errorf("server returned non-OK status: %s", httpResp.Status)
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read response body")
	}

	return body, httpResp.Header, nil
}

// notify posts a JSON-RPC notification. The response body is discarded.
func (c *Client) notify(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "failed to marshal notification")
	}

	httpResp, err := c.post(ctx, data)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("server returned non-OK status: %s", httpResp.Status)
	}

	return nil
}

func (c *Client) post(ctx context.Context, data []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create HTTP request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")
	if c.sessionID != "" {
		httpReq.Header.Set(HeaderSessionID, c.sessionID)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send HTTP request")
	}

	return httpResp, nil
}

// parseEnvelope decodes a response body that is either a bare JSON object
// or an SSE stream whose data lines carry the JSON payload. A body matching
// neither form, or an envelope carrying neither result nor error, is a
// protocol violation.
func parseEnvelope(body []byte) (*Response, error) {
	payload := body
	if data, ok := extractSSEData(string(body)); ok {
		payload = []byte(data)
	}

	var envelope Response
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, errors.Wrap(err, "failed to parse response JSON")
	}

	if envelope.Result == nil && envelope.Error == nil {
		return nil, fmt.Errorf("response carries neither result nor error")
	}

	return &envelope, nil
}

// extractSSEData returns the payload of the first "data: " line in an SSE
// body. Later events in a multi-event body are ignored; the server sends one
// event per response.
func extractSSEData(body string) (string, bool) {
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		if strings.HasPrefix(line, "data: ") {
			return strings.TrimPrefix(line, "data: "), true
		}
	}
	return "", false
}

// normalizeResult maps the raw tools/call result payload onto a ToolResult.
// A content list whose first element carries JSON text is decoded into that
// structure; non-JSON text and non-list content are wrapped under "result";
// a payload without content is returned verbatim.
func normalizeResult(raw json.RawMessage) (domain.ToolResult, error) {
	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.ToolResult{}, errors.Wrap(err, "failed to parse tool result")
	}

	content, ok := result["content"]
	if !ok {
		return domain.ToolResult{Value: result}, nil
	}

	list, ok := content.([]interface{})
	if !ok {
		return domain.ToolResult{Value: map[string]interface{}{"result": fmt.Sprintf("%v", content)}}, nil
	}

	if len(list) > 0 {
		if first, ok := list[0].(map[string]interface{}); ok {
			if text, ok := first["text"].(string); ok {
				return decodeTextContent(text), nil
			}
			return domain.ToolResult{Value: map[string]interface{}{"result": fmt.Sprintf("%v", first)}}, nil
		}
	}

	return domain.ToolResult{Value: map[string]interface{}{"result": fmt.Sprintf("%v", list)}}, nil
}

func decodeTextContent(text string) domain.ToolResult {
	var decoded interface{}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return domain.ToolResult{Value: map[string]interface{}{"result": text}}
	}

	if value, ok := decoded.(map[string]interface{}); ok {
		return domain.ToolResult{Value: value}
	}

	// Valid JSON but not an object, e.g. a bare number.
	return domain.ToolResult{Value: map[string]interface{}{"result": decoded}}
}

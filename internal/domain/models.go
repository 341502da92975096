// Package domain contains the core models shared across the client.
package domain

import "time"

// MessageRole identifies the author of a conversation message
type MessageRole string

// Roles used in the conversation history
const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// Message represents a single entry in the conversation history
type Message struct {
	Role       MessageRole `json:"role"`
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
	ToolName   string      `json:"tool_name,omitempty"`
}

// ToolCall represents the LLM's decision to invoke a tool
type ToolCall struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ChatReply is the LLM's answer to one chat turn: either plain content or a
// set of requested tool calls
type ChatReply struct {
	Content   string
	ToolCalls []ToolCall
}

// NewMessage creates a message stamped with the current time
func NewMessage(role MessageRole, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// ToolDefinition describes a tool discovered from the MCP server
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"inputSchema,omitempty"`
}

// ToolResult is the normalized outcome of a tool invocation. Exactly one of
// Value or Err is meaningful: a tool-level error envelope is not a transport
// failure, so it travels here instead of through the error return.
type ToolResult struct {
	Value map[string]interface{}
	Err   string
}

// Failed reports whether the tool returned a semantic error
func (r ToolResult) Failed() bool {
	return r.Err != ""
}

// FunctionSpec is a tool rendered in the LLM function-calling shape
type FunctionSpec struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef carries the callable surface of a FunctionSpec
type FunctionDef struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Package ollama is a typed client for the Ollama chat API with function
// calling. Responses are decoded once at the boundary into these types.
package ollama

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/mcp/calc-client/internal/domain"
)

// ChatMessage is one message in the Ollama chat format
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is the model's request to invoke one tool
type ToolCall struct {
	Function FunctionCall `json:"function"`
}

// FunctionCall names the tool and carries its arguments
type FunctionCall struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// UnmarshalJSON tolerates arguments arriving either as a JSON object or as
// a JSON-encoded string of an object, which some models emit.
func (f *FunctionCall) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	f.Name = raw.Name
	f.Arguments = nil

	if len(raw.Arguments) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw.Arguments, &f.Arguments); err == nil {
		return nil
	}

	var encoded string
	if err := json.Unmarshal(raw.Arguments, &encoded); err != nil {
		return errors.Errorf("invalid tool arguments format: %s", raw.Arguments)
	}
	if err := json.Unmarshal([]byte(encoded), &f.Arguments); err != nil {
		return errors.Wrap(err, "invalid tool arguments format")
	}
	return nil
}

// ChatRequest is the body of a POST /api/chat call
type ChatRequest struct {
	Model    string                `json:"model"`
	Messages []ChatMessage         `json:"messages"`
	Tools    []domain.FunctionSpec `json:"tools,omitempty"`
	Stream   bool                  `json:"stream"`
}

// ChatResponse is the decoded body of a POST /api/chat response
type ChatResponse struct {
	Model   string      `json:"model"`
	Message ChatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// tagsResponse is the decoded body of GET /api/tags
type tagsResponse struct {
	Models []modelEntry `json:"models"`
}

type modelEntry struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

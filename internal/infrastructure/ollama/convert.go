package ollama

import (
	"github.com/google/uuid"

	"github.com/mcp/calc-client/internal/domain"
)

// toWireMessages maps conversation history onto the Ollama message shape
func toWireMessages(messages []domain.Message) []ChatMessage {
	wire := make([]ChatMessage, 0, len(messages))
	for _, msg := range messages {
		cm := ChatMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
			Name:       msg.ToolName,
		}
		for _, call := range msg.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, ToolCall{
				Function: FunctionCall{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			})
		}
		wire = append(wire, cm)
	}
	return wire
}

// toReply decodes a chat response into domain terms. Ollama does not assign
// tool-call ids, so each call gets a fresh one for correlation with its
// eventual tool-result message.
func toReply(resp ChatResponse) domain.ChatReply {
	reply := domain.ChatReply{Content: resp.Message.Content}
	for _, call := range resp.Message.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, domain.ToolCall{
			ID:        uuid.NewString(),
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return reply
}

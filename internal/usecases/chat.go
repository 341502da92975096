package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mcp/calc-client/internal/domain"
	"github.com/mcp/calc-client/internal/infrastructure/logging"
	"github.com/mcp/calc-client/internal/registry"
)

// MCPClient is the tool-serving side of the chat service
type MCPClient interface {
	Connect(ctx context.Context) error
	Disconnect()
	ListTools(ctx context.Context) ([]domain.ToolDefinition, error)
	CallTool(ctx context.Context, name string, arguments map[string]interface{}) (domain.ToolResult, error)
}

// LLMClient is the language-model side of the chat service
type LLMClient interface {
	VerifyConnection(ctx context.Context) error
	Chat(ctx context.Context, messages []domain.Message, tools []domain.FunctionSpec) (domain.ChatReply, error)
}

// ChatService orchestrates one conversation between the user, the LLM and
// the MCP tools.
type ChatService struct {
	mcp          MCPClient
	llm          LLMClient
	registry     *registry.Registry
	conversation *ConversationManager
	logger       *logging.Logger
}

// NewChatService wires the chat service from its collaborators
func NewChatService(
	mcp MCPClient,
	llm LLMClient,
	reg *registry.Registry,
	conversation *ConversationManager,
	logger *logging.Logger,
) *ChatService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ChatService{
		mcp:          mcp,
		llm:          llm,
		registry:     reg,
		conversation: conversation,
		logger:       logger,
	}
}

// Initialize connects to the MCP server, discovers and registers its tools
// and verifies the LLM is reachable.
func (s *ChatService) Initialize(ctx context.Context) error {
	s.logger.Info("initializing chat service")

	if err := s.mcp.Connect(ctx); err != nil {
		return err
	}

	tools, err := s.mcp.ListTools(ctx)
	if err != nil {
		return err
	}
	s.registry.RegisterAll(tools)
	s.logger.Info("registered tools", logging.Fields{"count": s.registry.Len()})

	if err := s.llm.VerifyConnection(ctx); err != nil {
		return err
	}

	s.logger.Info("chat service initialized")
	return nil
}

// Shutdown releases the MCP session
func (s *ChatService) Shutdown() {
	s.logger.Info("shutting down chat service")
	s.mcp.Disconnect()
}

// ProcessMessage runs one chat turn. Response chunks are delivered through
// emit; tool-level failures are reported in-band, transport failures are
// returned as errors.
func (s *ChatService) ProcessMessage(ctx context.Context, input string, emit func(string)) error {
	s.logger.Info("processing user message", logging.Fields{"length": len(input)})

	s.conversation.Add(domain.NewMessage(domain.RoleUser, input))

	reply, err := s.llm.Chat(ctx, s.conversation.History(), s.registry.ToFunctionSchema())
	if err != nil {
		return err
	}

	if len(reply.ToolCalls) > 0 {
		return s.handleToolCalls(ctx, reply.ToolCalls, emit)
	}

	if reply.Content != "" {
		s.conversation.Add(domain.NewMessage(domain.RoleAssistant, reply.Content))
		emit(reply.Content)
		return nil
	}

	emit("I'm not sure how to respond to that.")
	return nil
}

// handleToolCalls executes each requested tool and feeds the result back to
// the LLM for a final answer.
func (s *ChatService) handleToolCalls(ctx context.Context, calls []domain.ToolCall, emit func(string)) error {
	s.logger.Info("handling tool calls", logging.Fields{"count": len(calls)})

	for _, call := range calls {
		arguments := CoerceNumericArguments(call.Arguments)
		s.logger.Info("executing tool", logging.Fields{"tool": call.Name, "arguments": arguments})

		result, err := s.mcp.CallTool(ctx, call.Name, arguments)
		if err != nil {
			s.logger.Error("tool call failed", logging.Fields{"tool": call.Name, "error": err.Error()})
			emit(fmt.Sprintf("Failed to execute tool: %v", err))
			continue
		}

		if errMsg := toolErrorMessage(result); errMsg != "" {
			s.logger.Error("tool returned error", logging.Fields{"tool": call.Name, "error": errMsg})
			emit(fmt.Sprintf("Error executing %s: %s", call.Name, errMsg))
			return nil
		}

		payload, err := json.Marshal(result.Value)
		if err != nil {
			emit(fmt.Sprintf("Failed to encode tool result: %v", err))
			continue
		}

		messages := s.conversation.History()
		messages = append(messages, domain.Message{
			Role:      domain.RoleAssistant,
			ToolCalls: calls,
		})
		messages = append(messages, domain.Message{
			Role:       domain.RoleTool,
			Content:    string(payload),
			ToolCallID: call.ID,
			ToolName:   call.Name,
		})

		final, err := s.llm.Chat(ctx, messages, s.registry.ToFunctionSchema())
		if err != nil {
			s.logger.Error("follow-up chat failed", logging.Fields{"tool": call.Name, "error": err.Error()})
			emit(fmt.Sprintf("Error processing tool result: %v", err))
			continue
		}

		if final.Content != "" {
			s.conversation.Add(domain.NewMessage(domain.RoleAssistant, final.Content))
			emit(final.Content)
		} else {
			emit("Operation completed successfully.")
		}
	}

	return nil
}

// toolErrorMessage extracts a tool-level error from a result, whether it
// arrived as an error envelope or as an {"error": ...} payload.
func toolErrorMessage(result domain.ToolResult) string {
	if result.Err != "" {
		return result.Err
	}
	if msg, ok := result.Value["error"].(string); ok {
		return msg
	}
	return ""
}

// ClearConversation drops the conversation history
func (s *ChatService) ClearConversation() {
	s.conversation.Clear()
}

// History returns a copy of the conversation history
func (s *ChatService) History() []domain.Message {
	return s.conversation.History()
}

// CoerceNumericArguments converts numeric-looking string arguments to
// numbers. LLMs sometimes quote numbers, which fails schema validation on
// the server side. Integer parse is attempted first, then float; anything
// else passes through unchanged.
func CoerceNumericArguments(arguments map[string]interface{}) map[string]interface{} {
	coerced := make(map[string]interface{}, len(arguments))
	for key, value := range arguments {
		str, ok := value.(string)
		if !ok {
			coerced[key] = value
			continue
		}

		if n, err := strconv.ParseInt(str, 10, 64); err == nil {
			coerced[key] = n
			continue
		}
		if f, err := strconv.ParseFloat(str, 64); err == nil {
			coerced[key] = f
			continue
		}
		coerced[key] = str
	}
	return coerced
}

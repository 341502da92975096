// Package usecases contains the chat orchestration: conversation state and
// the service tying the MCP tools to the LLM.
package usecases

import (
	"sync"

	"github.com/mcp/calc-client/internal/domain"
	"github.com/mcp/calc-client/internal/infrastructure/logging"
)

// DefaultMaxHistory bounds the conversation when no cap is configured
const DefaultMaxHistory = 50

// ConversationManager keeps a bounded window of conversation history. When
// the window overflows, the oldest messages are dropped.
type ConversationManager struct {
	maxHistory int
	logger     *logging.Logger

	mu       sync.Mutex
	messages []domain.Message
}

// NewConversationManager creates a conversation manager holding at most
// maxHistory messages.
func NewConversationManager(maxHistory int, logger *logging.Logger) *ConversationManager {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ConversationManager{
		maxHistory: maxHistory,
		logger:     logger,
	}
}

// Add appends a message to the history, trimming the oldest entries past
// the cap.
func (m *ConversationManager) Add(msg domain.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, msg)
	if len(m.messages) > m.maxHistory {
		m.messages = m.messages[len(m.messages)-m.maxHistory:]
		m.logger.Debug("trimmed conversation history", logging.Fields{"max_history": m.maxHistory})
	}
}

// History returns a copy of the current messages, oldest first
func (m *ConversationManager) History() []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Clear drops the whole history
func (m *ConversationManager) Clear() {
	m.mu.Lock()
	m.messages = nil
	m.mu.Unlock()

	m.logger.Info("cleared conversation history")
}

// Len returns the number of messages held
func (m *ConversationManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// IsEmpty reports whether the conversation has no messages
func (m *ConversationManager) IsEmpty() bool {
	return m.Len() == 0
}

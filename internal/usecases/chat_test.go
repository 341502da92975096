package usecases

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp/calc-client/internal/infrastructure/mcp"
	"github.com/mcp/calc-client/internal/infrastructure/ollama"
	"github.com/mcp/calc-client/internal/registry"
	"github.com/mcp/calc-client/internal/testutil"
)

// newChatService wires a chat service against fake MCP and Ollama servers.
func newChatService(t *testing.T) (*ChatService, *testutil.CalcServer, *testutil.OllamaServer) {
	t.Helper()

	calc := testutil.NewCalcServer()
	calcSrv := httptest.NewServer(calc.Handler())
	t.Cleanup(calcSrv.Close)

	llm := testutil.NewOllamaServer("llama3.1:8b")
	llmSrv := httptest.NewServer(llm.Handler())
	t.Cleanup(llmSrv.Close)

	service := NewChatService(
		mcp.NewClient(calcSrv.URL, 5*time.Second, nil),
		ollama.NewClient(llmSrv.URL, "llama3.1:8b", nil),
		registry.New(nil),
		NewConversationManager(50, nil),
		nil,
	)
	return service, calc, llm
}

func TestInitialize(t *testing.T) {
	service, _, _ := newChatService(t)

	require.NoError(t, service.Initialize(context.Background()))
	defer service.Shutdown()

	assert.Equal(t, 4, service.registry.Len())
	assert.True(t, service.registry.Exists("divide"))
}

func TestInitialize_MCPUnreachable(t *testing.T) {
	llm := testutil.NewOllamaServer("llama3.1:8b")
	llmSrv := httptest.NewServer(llm.Handler())
	defer llmSrv.Close()

	service := NewChatService(
		mcp.NewClient("http://127.0.0.1:1/mcp", time.Second, nil),
		ollama.NewClient(llmSrv.URL, "llama3.1:8b", nil),
		registry.New(nil),
		NewConversationManager(50, nil),
		nil,
	)

	assert.Error(t, service.Initialize(context.Background()))
}

func TestProcessMessage_PlainReply(t *testing.T) {
	service, _, llm := newChatService(t)
	require.NoError(t, service.Initialize(context.Background()))
	defer service.Shutdown()

	llm.QueueContent("Hello there!")

	var chunks []string
	err := service.ProcessMessage(context.Background(), "hi", func(chunk string) {
		chunks = append(chunks, chunk)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello there!"}, chunks)

	history := service.History()
	require.Len(t, history, 2)
	assert.Equal(t, "hi", history[0].Content)
	assert.Equal(t, "Hello there!", history[1].Content)
}

func TestProcessMessage_EmptyReply(t *testing.T) {
	service, _, llm := newChatService(t)
	require.NoError(t, service.Initialize(context.Background()))
	defer service.Shutdown()

	llm.QueueContent("")

	var chunks []string
	err := service.ProcessMessage(context.Background(), "hi", func(chunk string) {
		chunks = append(chunks, chunk)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"I'm not sure how to respond to that."}, chunks)
}

func TestProcessMessage_ToolCall(t *testing.T) {
	service, _, llm := newChatService(t)
	require.NoError(t, service.Initialize(context.Background()))
	defer service.Shutdown()

	// Arguments arrive as strings to exercise numeric coercion end to end.
	llm.QueueToolCall("add", map[string]interface{}{"a": "2", "b": "3"})
	llm.QueueContent("The result is 5.")

	var chunks []string
	err := service.ProcessMessage(context.Background(), "what is 2+3?", func(chunk string) {
		chunks = append(chunks, chunk)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"The result is 5."}, chunks)

	// The follow-up chat request carries the tool result message.
	requests := llm.ChatRequests()
	require.Len(t, requests, 2)

	messages := requests[1]["messages"].([]interface{})
	last := messages[len(messages)-1].(map[string]interface{})
	assert.Equal(t, "tool", last["role"])
	assert.Contains(t, last["content"], `"result":5`)
}

func TestProcessMessage_DivideByZero(t *testing.T) {
	service, _, llm := newChatService(t)
	require.NoError(t, service.Initialize(context.Background()))
	defer service.Shutdown()

	llm.QueueToolCall("divide", map[string]interface{}{"a": 10, "b": 0})

	var chunks []string
	err := service.ProcessMessage(context.Background(), "divide 10 by 0", func(chunk string) {
		chunks = append(chunks, chunk)
	})
	require.NoError(t, err, "a tool-level error is reported in-band, not returned")

	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "Error executing divide")
	assert.Contains(t, chunks[0], "Cannot divide by zero")
}

func TestProcessMessage_LLMError(t *testing.T) {
	service, _, _ := newChatService(t)
	require.NoError(t, service.Initialize(context.Background()))
	defer service.Shutdown()

	// No scripted reply: the fake LLM responds with a 500.
	err := service.ProcessMessage(context.Background(), "hi", func(string) {})
	assert.Error(t, err)
}

func TestClearConversation(t *testing.T) {
	service, _, llm := newChatService(t)
	require.NoError(t, service.Initialize(context.Background()))
	defer service.Shutdown()

	llm.QueueContent("Hello there!")
	require.NoError(t, service.ProcessMessage(context.Background(), "hi", func(string) {}))
	require.NotEmpty(t, service.History())

	service.ClearConversation()

	assert.Empty(t, service.History())
}

func TestCoerceNumericArguments(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]interface{}
		want map[string]interface{}
	}{
		{
			name: "mixed strings",
			in:   map[string]interface{}{"a": "10", "b": "5.5", "c": "x"},
			want: map[string]interface{}{"a": int64(10), "b": 5.5, "c": "x"},
		},
		{
			name: "non-strings pass through",
			in:   map[string]interface{}{"a": float64(3), "b": true},
			want: map[string]interface{}{"a": float64(3), "b": true},
		},
		{
			name: "negative and exponent forms",
			in:   map[string]interface{}{"a": "-4", "b": "1e3"},
			want: map[string]interface{}{"a": int64(-4), "b": float64(1000)},
		},
		{
			name: "empty",
			in:   map[string]interface{}{},
			want: map[string]interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceNumericArguments(tt.in))
		})
	}
}

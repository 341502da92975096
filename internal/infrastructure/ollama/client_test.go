package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp/calc-client/internal/domain"
	"github.com/mcp/calc-client/internal/testutil"
)

func TestVerifyConnection(t *testing.T) {
	fake := testutil.NewOllamaServer("llama3.1:8b")
	srv := httptest.NewServer(fake.Handler())
	defer srv.Close()

	client := NewClient(srv.URL, "llama3.1:8b", nil)
	require.NoError(t, client.VerifyConnection(context.Background()))
}

func TestVerifyConnection_ModelMissing(t *testing.T) {
	fake := testutil.NewOllamaServer("llama3.1:8b")
	srv := httptest.NewServer(fake.Handler())
	defer srv.Close()

	client := NewClient(srv.URL, "mistral:7b", nil)
	err := client.VerifyConnection(context.Background())
	require.Error(t, err)

	var ollamaErr *domain.OllamaError
	require.ErrorAs(t, err, &ollamaErr)
	assert.Contains(t, err.Error(), "ollama pull mistral:7b")
}

func TestVerifyConnection_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "llama3.1:8b", nil)

	err := client.VerifyConnection(context.Background())
	require.Error(t, err)

	var ollamaErr *domain.OllamaError
	assert.ErrorAs(t, err, &ollamaErr)
}

func TestChat_Content(t *testing.T) {
	fake := testutil.NewOllamaServer("llama3.1:8b")
	fake.QueueContent("The answer is 5.")
	srv := httptest.NewServer(fake.Handler())
	defer srv.Close()

	client := NewClient(srv.URL, "llama3.1:8b", nil)
	reply, err := client.Chat(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "What is 2+3?"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "The answer is 5.", reply.Content)
	assert.Empty(t, reply.ToolCalls)
}

func TestChat_ToolCalls(t *testing.T) {
	fake := testutil.NewOllamaServer("llama3.1:8b")
	fake.QueueToolCall("add", map[string]interface{}{"a": 2, "b": 3})
	srv := httptest.NewServer(fake.Handler())
	defer srv.Close()

	client := NewClient(srv.URL, "llama3.1:8b", nil)
	reply, err := client.Chat(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "add 2 and 3"},
	}, []domain.FunctionSpec{{Type: "function", Function: domain.FunctionDef{Name: "add"}}})
	require.NoError(t, err)

	require.Len(t, reply.ToolCalls, 1)
	call := reply.ToolCalls[0]
	assert.NotEmpty(t, call.ID)
	assert.Equal(t, "add", call.Name)
	assert.Equal(t, float64(2), call.Arguments["a"])
	assert.Equal(t, float64(3), call.Arguments["b"])
}

func TestChat_SendsToolsAndModel(t *testing.T) {
	fake := testutil.NewOllamaServer("llama3.1:8b")
	fake.QueueContent("ok")
	srv := httptest.NewServer(fake.Handler())
	defer srv.Close()

	client := NewClient(srv.URL, "llama3.1:8b", nil)
	_, err := client.Chat(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
		[]domain.FunctionSpec{{Type: "function", Function: domain.FunctionDef{Name: "add"}}})
	require.NoError(t, err)

	requests := fake.ChatRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, "llama3.1:8b", requests[0]["model"])
	assert.Equal(t, false, requests[0]["stream"])

	tools, ok := requests[0]["tools"].([]interface{})
	require.True(t, ok)
	assert.Len(t, tools, 1)
}

func TestChat_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model overloaded"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "llama3.1:8b", nil)
	_, err := client.Chat(context.Background(), nil, nil)
	require.Error(t, err)

	var ollamaErr *domain.OllamaError
	require.ErrorAs(t, err, &ollamaErr)
	assert.Contains(t, err.Error(), "500")
}

func TestFunctionCall_UnmarshalObjectArguments(t *testing.T) {
	var call FunctionCall
	err := json.Unmarshal([]byte(`{"name":"add","arguments":{"a":1,"b":2}}`), &call)
	require.NoError(t, err)

	assert.Equal(t, "add", call.Name)
	assert.Equal(t, float64(1), call.Arguments["a"])
}

func TestFunctionCall_UnmarshalStringArguments(t *testing.T) {
	var call FunctionCall
	err := json.Unmarshal([]byte(`{"name":"add","arguments":"{\"a\":1,\"b\":2}"}`), &call)
	require.NoError(t, err)

	assert.Equal(t, "add", call.Name)
	assert.Equal(t, float64(2), call.Arguments["b"])
}

func TestFunctionCall_UnmarshalInvalidArguments(t *testing.T) {
	var call FunctionCall
	err := json.Unmarshal([]byte(`{"name":"add","arguments":"not json"}`), &call)
	assert.Error(t, err)
}

func TestFunctionCall_UnmarshalNoArguments(t *testing.T) {
	var call FunctionCall
	err := json.Unmarshal([]byte(`{"name":"clear"}`), &call)
	require.NoError(t, err)

	assert.Equal(t, "clear", call.Name)
	assert.Nil(t, call.Arguments)
}

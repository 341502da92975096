package testutil

import (
	"encoding/json"
	"net/http"
	"sync"
)

// OllamaServer is a scripted fake of the Ollama HTTP API. Queue replies in
// the order /api/chat should return them; /api/tags advertises the
// configured model.
type OllamaServer struct {
	Model string

	mu           sync.Mutex
	replies      []map[string]interface{}
	chatRequests []map[string]interface{}
}

// NewOllamaServer creates a fake Ollama server advertising the given model.
func NewOllamaServer(model string) *OllamaServer {
	return &OllamaServer{Model: model}
}

// QueueContent scripts a plain assistant reply.
func (s *OllamaServer) QueueContent(content string) {
	s.queue(map[string]interface{}{
		"role":    "assistant",
		"content": content,
	})
}

// QueueToolCall scripts an assistant reply requesting one tool call.
func (s *OllamaServer) QueueToolCall(name string, arguments map[string]interface{}) {
	s.queue(map[string]interface{}{
		"role":    "assistant",
		"content": "",
		"tool_calls": []interface{}{
			map[string]interface{}{
				"function": map[string]interface{}{
					"name":      name,
					"arguments": arguments,
				},
			},
		},
	})
}

func (s *OllamaServer) queue(message map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, message)
}

// ChatRequests returns the decoded bodies of all /api/chat requests.
func (s *OllamaServer) ChatRequests() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]interface{}, len(s.chatRequests))
	copy(out, s.chatRequests)
	return out
}

// Handler returns the http.Handler serving the fake Ollama API.
func (s *OllamaServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", s.handleTags)
	mux.HandleFunc("/api/chat", s.handleChat)
	return mux
}

func (s *OllamaServer) handleTags(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"models": []interface{}{
			map[string]interface{}{"name": s.Model, "model": s.Model},
		},
	})
}

func (s *OllamaServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.chatRequests = append(s.chatRequests, body)
	var message map[string]interface{}
	if len(s.replies) > 0 {
		message = s.replies[0]
		s.replies = s.replies[1:]
	}
	s.mu.Unlock()

	if message == nil {
		http.Error(w, "no scripted reply", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"model":   s.Model,
		"message": message,
		"done":    true,
	})
}

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/mcp/calc-client/internal/domain"
	"github.com/mcp/calc-client/internal/infrastructure/logging"
)

// Client talks to one Ollama instance with one configured model
type Client struct {
	host       string
	model      string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates an Ollama client for the given host and model
func NewClient(host, model string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		host:       strings.TrimRight(host, "/"),
		model:      model,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// VerifyConnection checks that Ollama is reachable and the configured model
// is available locally.
func (c *Client) VerifyConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return domain.NewOllamaError("failed to create request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewOllamaError("failed to connect to Ollama", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewOllamaError(fmt.Sprintf("unexpected status listing models: %s", resp.Status), nil)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return domain.NewOllamaError("failed to decode model list", err)
	}

	available := make([]string, 0, len(tags.Models))
	for _, entry := range tags.Models {
		if entry.Model == c.model || entry.Name == c.model {
			c.logger.Info("connected to Ollama", logging.Fields{"model": c.model})
			return nil
		}
		name := entry.Model
		if name == "" {
			name = entry.Name
		}
		available = append(available, name)
	}

	c.logger.Warn("model not found", logging.Fields{"model": c.model, "available": available})
	return domain.NewOllamaError(
		fmt.Sprintf("model %q not available; pull it with: ollama pull %s", c.model, c.model), nil)
}

// Chat sends a buffered chat request with the given history and tools and
// returns the model's reply, decoded into domain terms.
func (c *Client) Chat(ctx context.Context, messages []domain.Message, tools []domain.FunctionSpec) (domain.ChatReply, error) {
	c.logger.Debug("sending chat request", logging.Fields{
		"messages": len(messages),
		"tools":    len(tools),
	})

	body, err := json.Marshal(ChatRequest{
		Model:    c.model,
		Messages: toWireMessages(messages),
		Tools:    tools,
		Stream:   false,
	})
	if err != nil {
		return domain.ChatReply{}, domain.NewOllamaError("failed to marshal chat request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return domain.ChatReply{}, domain.NewOllamaError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ChatReply{}, domain.NewOllamaError("chat request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.ChatReply{}, domain.NewOllamaError(
			fmt.Sprintf("chat request returned %s", resp.Status),
			errors.Errorf("%s", strings.TrimSpace(string(detail))))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return domain.ChatReply{}, domain.NewOllamaError("failed to decode chat response", err)
	}

	return toReply(chatResp), nil
}

// Package rest exposes the chat service over HTTP: health and tool listing
// endpoints plus the websocket chat channel.
package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mcp/calc-client/internal/config"
	"github.com/mcp/calc-client/internal/infrastructure/logging"
	"github.com/mcp/calc-client/internal/registry"
	"github.com/mcp/calc-client/internal/usecases"
)

// Server is the HTTP surface of the application
type Server struct {
	cfg      *config.Config
	chat     *usecases.ChatService
	registry *registry.Registry
	logger   *logging.Logger

	httpServer *http.Server
}

// NewServer creates the HTTP server around the chat service
func NewServer(
	cfg *config.Config,
	chat *usecases.ChatService,
	reg *registry.Registry,
	logger *logging.Logger,
) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Server{
		cfg:      cfg,
		chat:     chat,
		registry: reg,
		logger:   logger,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// Handler builds the routed and middleware-wrapped handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/tools", s.handleTools)
	mux.HandleFunc("/ws/chat", s.handleChat)

	return Chain(
		mux,
		Logging(s.logger),
		Recovery(s.logger),
		CORS(s.cfg.Server.CORSOrigins),
	)
}

// ListenAndServe starts serving and blocks until the server stops
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", logging.Fields{"address": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"tools_count": s.registry.Len(),
	})
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tools := s.registry.All()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tools": tools,
		"count": len(tools),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

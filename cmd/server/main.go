package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcp/calc-client/internal/config"
	"github.com/mcp/calc-client/internal/infrastructure/logging"
	"github.com/mcp/calc-client/internal/infrastructure/mcp"
	"github.com/mcp/calc-client/internal/infrastructure/ollama"
	"github.com/mcp/calc-client/internal/interfaces/rest"
	"github.com/mcp/calc-client/internal/registry"
	"github.com/mcp/calc-client/internal/usecases"
)

const version = "0.1.0"

const shutdownTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger, err := logging.New(logging.Config{
		Level:    cfg.Log.Level,
		Encoding: cfg.Log.Encoding,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("starting calc-client", logging.Fields{
		"version":    version,
		"address":    cfg.Address(),
		"mcp_server": cfg.MCP.ServerURL,
		"model":      cfg.Ollama.Model,
	})

	reg := registry.New(logger)
	chat := usecases.NewChatService(
		mcp.NewClient(cfg.MCP.ServerURL, cfg.MCP.RequestTimeout, logger),
		ollama.NewClient(cfg.Ollama.Host, cfg.Ollama.Model, logger),
		reg,
		usecases.NewConversationManager(cfg.Chat.MaxHistory, logger),
		logger,
	)

	initCtx, cancelInit := context.WithTimeout(context.Background(), cfg.MCP.RequestTimeout)
	defer cancelInit()
	if err := chat.Initialize(initCtx); err != nil {
		logger.Error("initialization failed", logging.Fields{"error": err.Error()})
		return 1
	}
	defer chat.Shutdown()

	server := rest.NewServer(cfg, chat, reg, logger)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", logging.Fields{"error": err.Error()})
			return 1
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", logging.Fields{"signal": sig.String()})

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", logging.Fields{"error": err.Error()})
			return 1
		}

		logger.Info("server shutdown completed")
	}

	return 0
}

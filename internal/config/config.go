package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig
	MCP    MCPConfig
	Ollama OllamaConfig
	Chat   ChatConfig
	Log    LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// MCPConfig holds MCP server connection configuration
type MCPConfig struct {
	ServerURL      string
	RequestTimeout time.Duration
}

// OllamaConfig holds Ollama API configuration
type OllamaConfig struct {
	Host  string
	Model string
}

// ChatConfig holds chat behavior configuration
type ChatConfig struct {
	MaxHistory int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvOrDefault("SERVER_PORT", "8080"),
			CORSOrigins:  splitAndTrim(getEnvOrDefault("CORS_ORIGINS", "*")),
			ReadTimeout:  parseDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: parseDurationOrDefault("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  parseDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		MCP: MCPConfig{
			ServerURL:      getEnvOrDefault("MCP_SERVER_URL", "http://127.0.0.1:8000/mcp"),
			RequestTimeout: parseDurationOrDefault("MCP_REQUEST_TIMEOUT", 30*time.Second),
		},
		Ollama: OllamaConfig{
			Host:  getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434"),
			Model: getEnvOrDefault("OLLAMA_MODEL", "llama3.1:8b"),
		},
		Chat: ChatConfig{
			MaxHistory: parseIntOrDefault("MAX_CONVERSATION_HISTORY", 50),
		},
		Log: LogConfig{
			Level:    getEnvOrDefault("LOG_LEVEL", "info"),
			Encoding: getEnvOrDefault("LOG_ENCODING", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if c.MCP.ServerURL == "" {
		return fmt.Errorf("MCP server URL cannot be empty")
	}

	if c.Ollama.Host == "" {
		return fmt.Errorf("ollama host cannot be empty")
	}

	if c.Ollama.Model == "" {
		return fmt.Errorf("ollama model cannot be empty")
	}

	if c.Chat.MaxHistory <= 0 {
		return fmt.Errorf("max conversation history must be positive, got %d", c.Chat.MaxHistory)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	validEncodings := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validEncodings[c.Log.Encoding] {
		return fmt.Errorf("invalid log encoding: %s (must be json or console)", c.Log.Encoding)
	}

	return nil
}

// Address returns the full server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// getEnvOrDefault retrieves an environment variable or returns a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDurationOrDefault parses a duration from environment or returns default
func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIntOrDefault parses an integer from environment or returns default
func parseIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// splitAndTrim splits a comma-separated value into trimmed entries
func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

package domain

import (
	"errors"
	"fmt"
)

// ConnectionError indicates the MCP session could not be established or a
// response was malformed at the transport level
type ConnectionError struct {
	Message string
	Cause   error
}

// Error returns the error message
func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mcp connection error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("mcp connection error: %s", e.Message)
}

// Unwrap returns the underlying cause
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a new ConnectionError
func NewConnectionError(message string, cause error) *ConnectionError {
	return &ConnectionError{Message: message, Cause: cause}
}

// ToolExecutionError indicates a remote tool invocation failed at the
// transport level
type ToolExecutionError struct {
	Name  string
	Cause error
}

// Error returns the error message
func (e *ToolExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("tool execution failed: %s: %v", e.Name, e.Cause)
	}
	return fmt.Sprintf("tool execution failed: %s", e.Name)
}

// Unwrap returns the underlying cause
func (e *ToolExecutionError) Unwrap() error {
	return e.Cause
}

// ToolNotFoundError indicates a tool was not found in the local registry
type ToolNotFoundError struct {
	Name string
}

// Error returns the error message
func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Name)
}

// OllamaError indicates the Ollama API request failed
type OllamaError struct {
	Message string
	Cause   error
}

// Error returns the error message
func (e *OllamaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ollama error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("ollama error: %s", e.Message)
}

// Unwrap returns the underlying cause
func (e *OllamaError) Unwrap() error {
	return e.Cause
}

// NewOllamaError creates a new OllamaError
func NewOllamaError(message string, cause error) *OllamaError {
	return &OllamaError{Message: message, Cause: cause}
}

// IsConnectionError checks if an error is a ConnectionError
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// IsToolExecutionError checks if an error is a ToolExecutionError
func IsToolExecutionError(err error) bool {
	var execErr *ToolExecutionError
	return errors.As(err, &execErr)
}

// IsToolNotFound checks if an error is a ToolNotFoundError
func IsToolNotFound(err error) bool {
	var nfErr *ToolNotFoundError
	return errors.As(err, &nfErr)
}

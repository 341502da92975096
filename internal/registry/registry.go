// Package registry keeps the tool definitions discovered from the MCP
// server and translates them into the LLM function-calling schema.
package registry

import (
	"sync"

	"github.com/mcp/calc-client/internal/domain"
	"github.com/mcp/calc-client/internal/infrastructure/logging"
)

// Registry is a name-keyed store of tool definitions. Last write wins on
// duplicate names; definitions without a name are skipped.
type Registry struct {
	logger *logging.Logger

	mu    sync.RWMutex
	tools map[string]domain.ToolDefinition
}

// New creates an empty registry
func New(logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{
		logger: logger,
		tools:  make(map[string]domain.ToolDefinition),
	}
}

// Register inserts or overwrites a tool definition. A definition with an
// empty name is skipped with a warning, not an error.
func (r *Registry) Register(tool domain.ToolDefinition) {
	if tool.Name == "" {
		r.logger.Warn("skipping tool without name")
		return
	}

	r.mu.Lock()
	_, existed := r.tools[tool.Name]
	r.tools[tool.Name] = tool
	r.mu.Unlock()

	if existed {
		r.logger.Debug("overwrote tool", logging.Fields{"tool": tool.Name})
	} else {
		r.logger.Info("registered tool", logging.Fields{"tool": tool.Name})
	}
}

// RegisterAll registers each definition in order
func (r *Registry) RegisterAll(tools []domain.ToolDefinition) {
	for _, tool := range tools {
		r.Register(tool)
	}
}

// Get returns a tool definition by name
func (r *Registry) Get(name string) (domain.ToolDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return domain.ToolDefinition{}, &domain.ToolNotFoundError{Name: name}
	}
	return tool, nil
}

// All returns a snapshot of the registered definitions. Order is
// unspecified.
func (r *Registry) All() []domain.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]domain.ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	return tools
}

// Exists reports whether a tool is registered
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.tools[name]
	return ok
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tools)
}

// Clear removes all registered tools
func (r *Registry) Clear() {
	r.mu.Lock()
	r.tools = make(map[string]domain.ToolDefinition)
	r.mu.Unlock()

	r.logger.Info("cleared tool registry")
}

// ToFunctionSchema renders every registered tool in the LLM
// function-calling shape. Properties lacking a description get a synthesized
// one; an empty input schema becomes a well-formed empty parameters object,
// which function-calling APIs require.
func (r *Registry) ToFunctionSchema() []domain.FunctionSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]domain.FunctionSpec, 0, len(r.tools))
	for _, tool := range r.tools {
		specs = append(specs, domain.FunctionSpec{
			Type: "function",
			Function: domain.FunctionDef{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  transformInputSchema(tool.InputSchema),
			},
		})
	}
	return specs
}

// transformInputSchema maps an MCP inputSchema onto a function-calling
// parameters object. Property schemas are copied so the registered
// definition is never mutated.
func transformInputSchema(inputSchema map[string]interface{}) map[string]interface{} {
	if len(inputSchema) == 0 {
		return map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
			"required":   []string{},
		}
	}

	properties, _ := inputSchema["properties"].(map[string]interface{})

	enhanced := make(map[string]interface{}, len(properties))
	for name, schema := range properties {
		prop := copyProperty(schema)
		if _, ok := prop["description"]; !ok {
			prop["description"] = "The " + name + " parameter"
		}
		enhanced[name] = prop
	}

	required := inputSchema["required"]
	if required == nil {
		required = []string{}
	}

	return map[string]interface{}{
		"type":       "object",
		"properties": enhanced,
		"required":   required,
	}
}

func copyProperty(schema interface{}) map[string]interface{} {
	original, ok := schema.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}

	prop := make(map[string]interface{}, len(original)+1)
	for k, v := range original {
		prop[k] = v
	}
	return prop
}

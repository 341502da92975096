package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp/calc-client/internal/domain"
)

func addTool() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        "add",
		Description: "Add two numbers",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"a": map[string]interface{}{"type": "number"},
				"b": map[string]interface{}{"type": "number"},
			},
			"required": []interface{}{"a", "b"},
		},
	}
}

func TestRegisterAndGet(t *testing.T) {
	r := New(nil)
	tool := addTool()

	r.Register(tool)

	assert.True(t, r.Exists("add"))
	got, err := r.Get("add")
	require.NoError(t, err)
	assert.Equal(t, tool, got)
}

func TestGet_NotFound(t *testing.T) {
	r := New(nil)

	_, err := r.Get("missing")
	require.Error(t, err)
	assert.True(t, domain.IsToolNotFound(err))
}

func TestRegister_EmptyNameSkipped(t *testing.T) {
	r := New(nil)

	r.Register(domain.ToolDefinition{Description: "nameless"})

	assert.Equal(t, 0, r.Len())
}

func TestRegisterAll(t *testing.T) {
	r := New(nil)

	r.RegisterAll([]domain.ToolDefinition{
		{Name: "add"},
		{Name: "subtract"},
		{Name: ""},
		{Name: "add", Description: "second write"},
	})

	// Empty name is skipped; duplicate names overwrite.
	assert.Equal(t, 2, r.Len())

	got, err := r.Get("add")
	require.NoError(t, err)
	assert.Equal(t, "second write", got.Description)

	names := make(map[string]bool)
	for _, tool := range r.All() {
		names[tool.Name] = true
	}
	assert.Equal(t, map[string]bool{"add": true, "subtract": true}, names)
}

func TestClear(t *testing.T) {
	r := New(nil)
	r.Register(addTool())

	r.Clear()

	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Exists("add"))
}

func TestToFunctionSchema(t *testing.T) {
	r := New(nil)
	r.Register(addTool())

	specs := r.ToFunctionSchema()
	require.Len(t, specs, 1)

	spec := specs[0]
	assert.Equal(t, "function", spec.Type)
	assert.Equal(t, "add", spec.Function.Name)
	assert.Equal(t, "Add two numbers", spec.Function.Description)

	params := spec.Function.Parameters
	assert.Equal(t, "object", params["type"])
	assert.Equal(t, []interface{}{"a", "b"}, params["required"])

	properties, ok := params["properties"].(map[string]interface{})
	require.True(t, ok)

	a, ok := properties["a"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "The a parameter", a["description"])
}

func TestToFunctionSchema_EmptyInputSchema(t *testing.T) {
	r := New(nil)
	r.Register(domain.ToolDefinition{Name: "ping"})

	specs := r.ToFunctionSchema()
	require.Len(t, specs, 1)

	params := specs[0].Function.Parameters
	assert.Equal(t, map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
		"required":   []string{},
	}, params)
}

func TestToFunctionSchema_ExistingDescriptionKept(t *testing.T) {
	r := New(nil)
	r.Register(domain.ToolDefinition{
		Name: "greet",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Who to greet",
				},
			},
		},
	})

	specs := r.ToFunctionSchema()
	require.Len(t, specs, 1)

	properties := specs[0].Function.Parameters["properties"].(map[string]interface{})
	name := properties["name"].(map[string]interface{})
	assert.Equal(t, "Who to greet", name["description"])
}

func TestToFunctionSchema_DoesNotMutateDefinition(t *testing.T) {
	r := New(nil)
	tool := addTool()
	r.Register(tool)

	_ = r.ToFunctionSchema()

	got, err := r.Get("add")
	require.NoError(t, err)
	properties := got.InputSchema["properties"].(map[string]interface{})
	a := properties["a"].(map[string]interface{})
	_, hasDescription := a["description"]
	assert.False(t, hasDescription, "schema translation must not write back into the registry")
}

func TestToFunctionSchema_MissingRequiredDefaultsEmpty(t *testing.T) {
	r := New(nil)
	r.Register(domain.ToolDefinition{
		Name: "noop",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	})

	specs := r.ToFunctionSchema()
	require.Len(t, specs, 1)
	assert.Equal(t, []string{}, specs[0].Function.Parameters["required"])
}

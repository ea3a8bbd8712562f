package tools

import (
	"context"
	"errors"

	"advisor/internal/adapters/ai"
)

// Args holds decoded tool-call arguments.
type Args map[string]interface{}

// String returns a string argument, or fallback when absent.
func (a Args) String(key, fallback string) string {
	if v, ok := a[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Int returns an integer argument, or fallback when absent. JSON numbers
// decode as float64, so both forms are accepted.
func (a Args) Int(key string, fallback int) int {
	switch v := a[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// Tool represents a callable capability exposed to agents.
type Tool interface {
	// Name returns the unique tool identifier.
	Name() string
	// Description returns a short human-readable summary.
	Description() string
	// Parameters returns the JSON schema of the tool arguments.
	Parameters() map[string]interface{}
	// Execute performs the tool's action and returns the observation
	// text handed back to the model.
	Execute(ctx context.Context, args Args) (string, error)
}

// HandlerFunc is the function signature for tool handlers.
type HandlerFunc func(ctx context.Context, args Args) (string, error)

// FunctionTool is a simple Tool implementation backed by a handler function.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]interface{}
	handler     HandlerFunc
}

// New creates a new function-backed Tool.
func New(name, description string, parameters map[string]interface{}, handler HandlerFunc) Tool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		handler:     handler,
	}
}

// Name returns the tool identifier.
func (t *FunctionTool) Name() string { return t.name }

// Description returns a human description of the tool.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the argument schema.
func (t *FunctionTool) Parameters() map[string]interface{} {
	if t.parameters == nil {
		return objectSchema(nil, nil)
	}
	return t.parameters
}

// Execute runs the underlying handler.
func (t *FunctionTool) Execute(ctx context.Context, args Args) (string, error) {
	if t.handler == nil {
		return "", errors.New("tool handler is not defined")
	}
	return t.handler(ctx, args)
}

// Definition converts a tool to its chat-completion wire form.
func Definition(t Tool) ai.ToolDefinition {
	return ai.ToolDefinition{
		Type: "function",
		Function: ai.FunctionDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		},
	}
}

// objectSchema builds a JSON schema object with the given properties and
// required field names.
func objectSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// stringProp builds a string property schema.
func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

// intProp builds an integer property schema.
func intProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

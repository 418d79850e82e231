package tools

import "context"

// Definition describes a tool to the model: its name, a description, and a
// JSON Schema for its parameters.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Tool is one executable tool. Implementations must be safe for concurrent
// use and respect context cancellation.
type Tool interface {
	// Definition returns the schema advertised to the model.
	Definition() Definition

	// Execute runs the tool with the given input parameters. The returned
	// value must be JSON-serializable (maps, slices, primitives).
	Execute(ctx context.Context, input map[string]interface{}) (interface{}, error)
}

// Call represents a single tool invocation request.
type Call struct {
	ID    string                 `json:"id"`
	Name  string                 `json:"name"`
	Input map[string]interface{} `json:"input"`
}

// Result represents the result of a tool execution.
type Result struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Result  interface{} `json:"result"`
	Error   error       `json:"error"`
	IsError bool        `json:"is_error"`
}

// Emitter publishes tool progress payloads onto the turn stream. Tools use
// it for incremental output such as document drafts.
type Emitter func(payload interface{})

// GenerateFunc produces one-shot text from the turn's model. Document tools
// use it to draft and revise content.
type GenerateFunc func(ctx context.Context, system, prompt string) (string, error)

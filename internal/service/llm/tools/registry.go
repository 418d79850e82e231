package tools

import (
	"context"
	"fmt"
	"sync"
)

// Registry manages tools and handles tool execution. It is thread-safe and
// can be used concurrently.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry. Registering an existing name
// replaces the tool but keeps its position.
func (r *Registry) Register(tool Tool) {
	name := tool.Definition().Name

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

// Get retrieves a tool by name. Returns nil if the tool is not registered.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Definitions returns the registered tool definitions in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute runs a single tool and returns the result. An unknown tool name
// produces an error result rather than a panic so the model can recover.
func (r *Registry) Execute(ctx context.Context, call Call) Result {
	tool := r.Get(call.Name)
	if tool == nil {
		return Result{
			ID:      call.ID,
			Name:    call.Name,
			Error:   fmt.Errorf("tool not found: %s", call.Name),
			IsError: true,
		}
	}

	result, err := tool.Execute(ctx, call.Input)
	if err != nil {
		return Result{
			ID:      call.ID,
			Name:    call.Name,
			Error:   err,
			IsError: true,
		}
	}

	return Result{
		ID:     call.ID,
		Name:   call.Name,
		Result: result,
	}
}

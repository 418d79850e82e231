package tools

import (
	"context"
	"errors"
	"testing"
)

// mockTool is a scriptable test tool.
type mockTool struct {
	name       string
	shouldFail bool
	execCount  int
}

func (m *mockTool) Definition() Definition {
	return Definition{
		Name:       m.name,
		Parameters: map[string]interface{}{"type": "object"},
	}
}

func (m *mockTool) Execute(ctx context.Context, input map[string]interface{}) (interface{}, error) {
	m.execCount++
	if m.shouldFail {
		return nil, errors.New("mock tool failed")
	}
	return map[string]interface{}{"tool": m.name, "input": input}, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	tool := &mockTool{name: "test_tool"}

	registry.Register(tool)

	if got := registry.Get("test_tool"); got != tool {
		t.Error("Get returned different tool instance")
	}
	if got := registry.Get("non_existent"); got != nil {
		t.Error("Get returned non-nil for unregistered tool")
	}
}

func TestRegistry_DefinitionsKeepRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&mockTool{name: "first"})
	registry.Register(&mockTool{name: "second"})
	registry.Register(&mockTool{name: "third"})

	defs := registry.Definitions()
	want := []string{"first", "second", "third"}
	if len(defs) != len(want) {
		t.Fatalf("got %d definitions, want %d", len(defs), len(want))
	}
	for i, name := range want {
		if defs[i].Name != name {
			t.Errorf("definition %d = %s, want %s", i, defs[i].Name, name)
		}
	}
}

func TestRegistry_Execute(t *testing.T) {
	registry := NewRegistry()
	ctx := context.Background()

	t.Run("successful execution", func(t *testing.T) {
		tool := &mockTool{name: "success_tool"}
		registry.Register(tool)

		result := registry.Execute(ctx, Call{ID: "call-1", Name: "success_tool", Input: map[string]interface{}{"x": 1.0}})

		if result.IsError {
			t.Fatalf("unexpected error: %v", result.Error)
		}
		if result.ID != "call-1" || result.Name != "success_tool" {
			t.Errorf("result identity = %s/%s", result.ID, result.Name)
		}
		if tool.execCount != 1 {
			t.Errorf("exec count = %d, want 1", tool.execCount)
		}
	})

	t.Run("failing tool", func(t *testing.T) {
		registry.Register(&mockTool{name: "failing_tool", shouldFail: true})

		result := registry.Execute(ctx, Call{ID: "call-2", Name: "failing_tool"})

		if !result.IsError {
			t.Fatal("expected error result")
		}
		if result.Error == nil {
			t.Error("error result has nil Error")
		}
	})

	t.Run("unknown tool", func(t *testing.T) {
		result := registry.Execute(ctx, Call{ID: "call-3", Name: "no_such_tool"})

		if !result.IsError {
			t.Fatal("expected error result for unknown tool")
		}
	})
}
